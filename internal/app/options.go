package service

import (
	"strings"
	"time"

	"github.com/okian/rentscore/internal/adapters/airtable"
	"github.com/okian/rentscore/internal/adapters/cache"
	"github.com/okian/rentscore/internal/adapters/repository"
	"github.com/okian/rentscore/internal/domain/leaderboard"
	"github.com/okian/rentscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the participant and score event store.
func WithStore(store repository.TxStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithFeed sets the listing feed used by scoring runs.
func WithFeed(feed Feed) Option {
	return func(s *Service) {
		if feed != nil {
			s.feed = feed
		}
	}
}

// WithMapper sets how feed records are turned into predictions.
func WithMapper(m airtable.Mapper) Option {
	return func(s *Service) {
		s.mapper = m
	}
}

// WithCache sets the leaderboard cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithComposer sets the leaderboard composer.
func WithComposer(c *leaderboard.Composer) Option {
	return func(s *Service) {
		if c != nil {
			s.composer = c
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScoringIP sets the address recorded for participants created by
// scoring runs.
func WithScoringIP(ip string) Option {
	return func(s *Service) {
		if ip = strings.TrimSpace(ip); ip != "" {
			s.scoringIP = ip
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
