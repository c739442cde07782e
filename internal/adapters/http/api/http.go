// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/okian/rentscore/internal/adapters/airtable"
	"github.com/okian/rentscore/internal/adapters/http/swagger"
	"github.com/okian/rentscore/internal/adapters/repository"
	service "github.com/okian/rentscore/internal/app"
	"github.com/okian/rentscore/internal/domain/model"
	"github.com/okian/rentscore/internal/domain/types"
	"github.com/okian/rentscore/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateParticipant(ctx context.Context, name, ipAddress string) (model.Participant, error)
	RecordScore(ctx context.Context, participantID uuid.UUID, guesses []model.Prediction) (model.ScoreEvent, error)

	DailyLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
	WeeklyLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)

	Listings(ctx context.Context) ([]airtable.Record, error)
	GetStats(ctx context.Context) map[string]any
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	listingsHandler    *ListingsHandler
	participantHandler *ParticipantHandler
	leaderboardHandler *LeaderboardHandler

	corsOrigins    []string
	requestTimeout time.Duration
	redocScript    string
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		listingsHandler:    NewListingsHandler(deps),
		participantHandler: NewParticipantHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		corsOrigins:        []string{"*"},
		requestTimeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the chi router with middleware and every route attached.
func (s *Server) Routes(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.log()))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/", s.healthHandler.HandleRoot)
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Get("/listings", s.listingsHandler.HandleGetListings)

	r.Route("/participants", func(r chi.Router) {
		r.Post("/", s.participantHandler.HandleCreate)
		r.Post("/{id}/scores", s.participantHandler.HandleRecordScore)
	})

	r.Route("/leaderboard", func(r chi.Router) {
		r.Get("/daily", s.leaderboardHandler.HandleDaily)
		r.Get("/weekly", s.leaderboardHandler.HandleWeekly)
	})

	swagger.Register(ctx, r, swagger.WithRedocScript(s.redocScript))

	return r
}

func (s *Server) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps error kinds from lower layers to a status and code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrDuplicateParticipant):
		writeError(w, http.StatusConflict, "duplicate_participant", err)
	case errors.Is(err, service.ErrNoValidPredictions):
		writeError(w, http.StatusUnprocessableEntity, "no_valid_predictions", err)
	case errors.Is(err, airtable.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "feed_not_configured", err)
	case errors.Is(err, airtable.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
