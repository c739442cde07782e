package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/rentscore/internal/domain/model"
)

var validate = validator.New()

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ParticipantDependencies defines the interface for participant writes.
type ParticipantDependencies interface {
	CreateParticipant(ctx context.Context, name, ipAddress string) (model.Participant, error)
	RecordScore(ctx context.Context, participantID uuid.UUID, guesses []model.Prediction) (model.ScoreEvent, error)
}

// ParticipantHandler handles participant registration and score submission.
type ParticipantHandler struct {
	deps ParticipantDependencies
}

// NewParticipantHandler creates a new participant handler.
func NewParticipantHandler(deps ParticipantDependencies) *ParticipantHandler {
	return &ParticipantHandler{deps: deps}
}

type createParticipantRequest struct {
	Username string `json:"username" validate:"required,max=100"`
}

type guessRequest struct {
	ListingID  string   `json:"listing_id,omitempty"`
	ActualRent *float64 `json:"actual_rent"`
	Guess      *float64 `json:"guess"`
}

type recordScoreRequest struct {
	Guesses []guessRequest `json:"guesses" validate:"required,min=1,max=1000"`
}

// HandleCreate handles POST /participants requests.
func (h *ParticipantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_participant"
	var req createParticipantRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	p, err := h.deps.CreateParticipant(r.Context(), req.Username, clientIP(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleRecordScore handles POST /participants/{id}/scores requests.
func (h *ParticipantHandler) HandleRecordScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_score"
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	var req recordScoreRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	guesses := make([]model.Prediction, len(req.Guesses))
	for i, g := range req.Guesses {
		guesses[i] = model.Prediction{ListingID: g.ListingID, ActualRent: g.ActualRent, Guess: g.Guess}
	}

	ev, err := h.deps.RecordScore(r.Context(), id, guesses)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return validate.Struct(v)
}

// clientIP returns the caller address; RealIP has already applied proxy
// headers to RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
