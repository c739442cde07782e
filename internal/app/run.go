package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rentscore/internal/adapters/airtable"
	"github.com/okian/rentscore/internal/adapters/repository"
	"github.com/okian/rentscore/internal/domain/model"
	"github.com/okian/rentscore/internal/domain/scoring"
	"github.com/okian/rentscore/pkg/logger"
	"github.com/okian/rentscore/pkg/metrics"
)

// ScoredParticipant is one score event written by a scoring run.
type ScoredParticipant struct {
	Participant model.Participant      `json:"participant"`
	Score       model.ParticipantScore `json:"score"`
	Event       model.ScoreEvent       `json:"event"`
	// Created is true when the run registered the participant.
	Created bool `json:"created"`
}

// RunReport summarizes one scoring run.
type RunReport struct {
	StartedAt    time.Time           `json:"started_at"`
	Duration     time.Duration       `json:"duration"`
	Listings     int                 `json:"listings"`
	Participants int                 `json:"participants"`
	Scored       []ScoredParticipant `json:"scored"`
	Skipped      []string            `json:"skipped"`
}

// RunScoring fetches every listing, scores each participant found in a guess
// column and appends one score event per scored participant. All writes
// happen in one transaction: either every event of the run is stored or
// none is.
func (s *Service) RunScoring(ctx context.Context) (RunReport, error) {
	start := time.Now()
	report := RunReport{StartedAt: s.now().UTC()}

	if s.feed == nil {
		metrics.RecordScoringRun("fetch_error", time.Since(start).Seconds())
		return report, airtable.ErrNotConfigured
	}

	raw, err := s.feed.Records(ctx)
	if err != nil {
		metrics.RecordScoringRun("fetch_error", time.Since(start).Seconds())
		metrics.RecordError("scoring", "fetch")
		return report, fmt.Errorf("fetch listings: %w", err)
	}

	records := s.mapper.Map(raw)
	names := s.mapper.Participants(raw)
	scores := scoring.AggregateRecords(names, records)
	report.Listings = len(records)
	report.Participants = len(names)

	scoredNames := make(map[string]struct{}, len(scores))
	for _, sc := range scores {
		scoredNames[sc.ParticipantName] = struct{}{}
	}
	for _, name := range names {
		if _, ok := scoredNames[name]; !ok {
			report.Skipped = append(report.Skipped, name)
		}
	}

	err = s.store.RunInTransaction(ctx, func(tx repository.Store) error {
		scored := make([]ScoredParticipant, 0, len(scores))
		for _, sc := range scores {
			p, created, err := tx.EnsureParticipant(ctx, sc.ParticipantName, s.scoringIP)
			if err != nil {
				return fmt.Errorf("ensure participant %q: %w", sc.ParticipantName, err)
			}
			ev, err := tx.InsertScoreEvent(ctx, p.ID, sc.EventValue())
			if err != nil {
				return fmt.Errorf("insert score for %q: %w", sc.ParticipantName, err)
			}
			scored = append(scored, ScoredParticipant{Participant: p, Score: sc, Event: ev, Created: created})
		}
		report.Scored = scored
		return nil
	})
	if err != nil {
		report.Scored = nil
		metrics.RecordScoringRun("store_error", time.Since(start).Seconds())
		metrics.RecordError("scoring", "store")
		return report, err
	}

	report.Duration = time.Since(start)
	for _, sp := range report.Scored {
		metrics.RecordParticipantScored(sp.Score.ParticipantName, sp.Score.AccuracyScore, sp.Score.ValidPredictionCount)
		metrics.RecordScoreEvent("run")
		if sp.Created {
			metrics.RecordParticipantCreated()
		}
	}
	for range report.Skipped {
		metrics.RecordParticipantSkipped()
	}
	metrics.RecordScoringRun("ok", report.Duration.Seconds())
	s.refreshParticipantCount(ctx)
	s.invalidate(ctx)

	s.mu.Lock()
	s.lastRun = &report
	s.mu.Unlock()

	for _, sp := range report.Scored {
		s.log().Debug(ctx, "participant scored",
			logger.String("username", sp.Participant.Name),
			logger.Float64("accuracy", sp.Score.DisplayScore()),
			logger.Float64("averageError", sp.Score.AverageError),
			logger.Int("validPredictions", sp.Score.ValidPredictionCount),
			logger.Int("scoreValue", sp.Event.Value),
		)
	}
	if len(report.Skipped) > 0 {
		s.log().Info(ctx, "no valid predictions", logger.Any("usernames", report.Skipped))
	}
	s.log().Info(ctx, "scoring run complete",
		logger.Int("listings", report.Listings),
		logger.Int("scored", len(report.Scored)),
		logger.Int("skipped", len(report.Skipped)),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

// RunSchedule runs a scoring pass every interval until ctx is done. Failed
// runs are logged and retried on the next tick.
func (s *Service) RunSchedule(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log().Info(ctx, "scoring schedule started", logger.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.log().Info(ctx, "scoring schedule stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunScoring(ctx); err != nil && ctx.Err() == nil {
				s.log().Error(ctx, "scheduled scoring run failed", logger.Error(err))
			}
		}
	}
}
