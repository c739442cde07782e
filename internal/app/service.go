// Package service provides the core business service behind the HTTP API
// and the command line.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rentscore/internal/adapters/airtable"
	"github.com/okian/rentscore/internal/adapters/cache"
	"github.com/okian/rentscore/internal/adapters/repository"
	"github.com/okian/rentscore/internal/domain/leaderboard"
	"github.com/okian/rentscore/internal/domain/model"
	"github.com/okian/rentscore/internal/domain/scoring"
	"github.com/okian/rentscore/pkg/logger"
	"github.com/okian/rentscore/pkg/metrics"
)

// listingPreviewSize is how many listings GET /listings shows.
const listingPreviewSize = 3

// Feed supplies listing records with everyone's guesses.
type Feed interface {
	Records(ctx context.Context) ([]airtable.Record, error)
	FirstN(ctx context.Context, n int) ([]airtable.Record, error)
}

// Service implements the API dependencies for the rent-guess leaderboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.TxStore
	feed     Feed
	mapper   airtable.Mapper
	cache    cache.Cache
	composer *leaderboard.Composer

	// Configuration
	now       func() time.Time
	scoringIP string

	// State
	started bool
	lastRun *RunReport

	// cacheGen counts invalidations; guarded by cacheMu.
	cacheMu  sync.Mutex
	cacheGen uint64

	logger logger.Logger
}

// New constructs a new Service with default configuration: an in-memory
// store, no cache and no feed.
func New(opts ...Option) *Service {
	s := &Service{
		store:     repository.NewMemoryStore(),
		mapper:    airtable.NewMapper(),
		cache:     cache.Noop{},
		composer:  leaderboard.New(),
		now:       time.Now,
		scoringIP: "127.0.0.1",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start marks the service ready and primes gauges from the store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting rentscore service...")

	n, err := s.store.CountParticipants(ctx)
	if err != nil {
		return fmt.Errorf("count participants: %w", err)
	}
	metrics.UpdateParticipantCount(n)

	s.started = true
	s.logger.Info(ctx, "rentscore service started",
		logger.Int("participants", n),
		logger.Bool("feed", s.feed != nil),
	)
	return nil
}

// Stop releases the store and cache.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rentscore service...")

	if err := s.cache.Close(); err != nil {
		s.logger.Warn(ctx, "closing cache", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "rentscore service stopped")
}

func (s *Service) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}

// CreateParticipant registers a new participant.
func (s *Service) CreateParticipant(ctx context.Context, name, ipAddress string) (model.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Participant{}, fmt.Errorf("%w: username must not be empty", ErrInvalidInput)
	}

	p, err := s.store.CreateParticipant(ctx, name, ipAddress)
	if err != nil {
		return model.Participant{}, err
	}
	metrics.RecordParticipantCreated()
	s.refreshParticipantCount(ctx)

	s.log().Info(ctx, "participant created",
		logger.String("participantID", p.ID.String()),
		logger.String("username", p.Name),
	)
	return p, nil
}

// RecordScore aggregates a participant's raw guesses and appends one score
// event. It returns ErrNoValidPredictions when nothing was scorable and
// repository.ErrNotFound for an unknown participant.
func (s *Service) RecordScore(ctx context.Context, participantID uuid.UUID, guesses []model.Prediction) (model.ScoreEvent, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return model.ScoreEvent{}, err
	}

	score, ok := scoring.Aggregate(p.Name, guesses)
	if !ok {
		metrics.RecordParticipantSkipped()
		return model.ScoreEvent{}, fmt.Errorf("%w: participant %s", ErrNoValidPredictions, p.Name)
	}

	ev, err := s.store.InsertScoreEvent(ctx, p.ID, score.EventValue())
	if err != nil {
		metrics.RecordError("service", "store")
		return model.ScoreEvent{}, err
	}
	metrics.RecordParticipantScored(p.Name, score.AccuracyScore, score.ValidPredictionCount)
	metrics.RecordScoreEvent("api")
	s.invalidate(ctx)

	s.log().Info(ctx, "score recorded",
		logger.String("username", p.Name),
		logger.Int("scoreValue", ev.Value),
		logger.Float64("accuracy", score.DisplayScore()),
		logger.Int("validPredictions", score.ValidPredictionCount),
		logger.Int("skipped", score.SkippedCount),
	)
	return ev, nil
}

// DailyLeaderboard returns every score event recorded today in the
// reference zone, newest first.
func (s *Service) DailyLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	now := s.now()
	w := s.composer.DailyWindow(now)
	return s.board(ctx, "daily", cache.DailyKey(w.From), func() ([]model.LeaderboardEntry, error) {
		entries, err := s.store.ListEntries(ctx, repository.Range{From: w.From, To: w.To})
		if err != nil {
			return nil, err
		}
		return s.composer.Daily(entries, now), nil
	})
}

// WeeklyLeaderboard returns the merged top models (all time) and top humans
// (rolling window).
func (s *Service) WeeklyLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	now := s.now()
	return s.board(ctx, "weekly", cache.KeyWeekly, func() ([]model.LeaderboardEntry, error) {
		entries, err := s.store.ListEntries(ctx, repository.Range{})
		if err != nil {
			return nil, err
		}
		return s.composer.Weekly(entries, now), nil
	})
}

// board serves key from the cache or builds and caches it. A board built
// while a write invalidated the cache is returned but not stored.
func (s *Service) board(ctx context.Context, kind, key string, build func() ([]model.LeaderboardEntry, error)) ([]model.LeaderboardEntry, error) {
	if payload, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log().Warn(ctx, "leaderboard cache read failed", logger.String("board", kind), logger.Error(err))
	} else if ok {
		var entries []model.LeaderboardEntry
		if err := json.Unmarshal(payload, &entries); err == nil {
			return entries, nil
		}
		s.log().Warn(ctx, "discarding undecodable cached leaderboard", logger.String("board", kind))
	}

	s.cacheMu.Lock()
	gen := s.cacheGen
	s.cacheMu.Unlock()

	entries, err := build()
	if err != nil {
		metrics.RecordError("leaderboard", "store")
		return nil, fmt.Errorf("build %s leaderboard: %w", kind, err)
	}
	metrics.RecordLeaderboardBuild(kind, len(entries))

	payload, err := json.Marshal(entries)
	if err != nil {
		return entries, nil
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheGen != gen {
		s.log().Debug(ctx, "skipping cache write for a board built during a score write", logger.String("board", kind))
		return entries, nil
	}
	if err := s.cache.Set(ctx, key, payload); err != nil {
		s.log().Warn(ctx, "leaderboard cache write failed", logger.String("board", kind), logger.Error(err))
	}
	return entries, nil
}

// invalidate drops the boards a write just changed. It must run after the
// write is stored.
func (s *Service) invalidate(ctx context.Context) {
	today := cache.DailyKey(s.composer.DailyWindow(s.now()).From)

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheGen++
	if err := s.cache.Invalidate(ctx, today, cache.KeyWeekly); err != nil {
		metrics.RecordError("cache", "invalidate")
		s.log().Warn(ctx, "leaderboard cache invalidation failed", logger.Error(err))
	}
}

func (s *Service) refreshParticipantCount(ctx context.Context) {
	if n, err := s.store.CountParticipants(ctx); err == nil {
		metrics.UpdateParticipantCount(n)
	}
}

// Listings returns the first few listings in the feed's default order.
func (s *Service) Listings(ctx context.Context) ([]airtable.Record, error) {
	if s.feed == nil {
		return nil, airtable.ErrNotConfigured
	}
	records, err := s.feed.FirstN(ctx, listingPreviewSize)
	if err != nil {
		metrics.RecordError("feed", "fetch")
		return nil, fmt.Errorf("fetch listings: %w", err)
	}
	return records, nil
}

// Explain returns the per-listing breakdown behind a participant's score
// over the current feed.
func (s *Service) Explain(ctx context.Context, participant string) (scoring.Explanation, error) {
	if s.feed == nil {
		return scoring.Explanation{}, airtable.ErrNotConfigured
	}
	raw, err := s.feed.Records(ctx)
	if err != nil {
		metrics.RecordError("feed", "fetch")
		return scoring.Explanation{}, fmt.Errorf("fetch listings: %w", err)
	}

	participant = strings.TrimSpace(participant)
	known := false
	for _, name := range s.mapper.Participants(raw) {
		if name == participant {
			known = true
			break
		}
	}
	if !known {
		return scoring.Explanation{}, fmt.Errorf("participant %q: %w", participant, repository.ErrNotFound)
	}

	return scoring.Explain(participant, s.mapper.Map(raw)), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
		"feed":    s.feed != nil,
	}

	if n, err := s.store.CountParticipants(ctx); err == nil {
		stats["participants"] = n
		metrics.UpdateParticipantCount(n)
	}

	if s.lastRun != nil {
		stats["lastRun"] = map[string]any{
			"startedAt":    s.lastRun.StartedAt,
			"duration":     s.lastRun.Duration.String(),
			"listings":     s.lastRun.Listings,
			"scored":       len(s.lastRun.Scored),
			"skipped":      len(s.lastRun.Skipped),
			"participants": s.lastRun.Participants,
		}
	}

	return stats
}

// LastRun returns the report of the most recent successful scoring run.
func (s *Service) LastRun() (RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return RunReport{}, false
	}
	return *s.lastRun, true
}
