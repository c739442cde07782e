package main

import (
	"context"
	"fmt"

	"github.com/okian/rentscore/internal/adapters/airtable"
	"github.com/okian/rentscore/internal/adapters/cache"
	"github.com/okian/rentscore/internal/adapters/repository"
	"github.com/okian/rentscore/internal/adapters/repository/postgres"
	app "github.com/okian/rentscore/internal/app"
	"github.com/okian/rentscore/internal/config"
	"github.com/okian/rentscore/internal/domain/leaderboard"
	"github.com/okian/rentscore/pkg/logger"
)

// buildService assembles the service from configuration: Postgres when a
// database URL is set, Redis when an address is set, and the Airtable feed
// when credentials are present.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var store repository.TxStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store = pg
		log.Info(ctx, "using postgres store")
	} else {
		store = repository.NewMemoryStore()
		log.Warn(ctx, "database_url not set; using in-memory store")
	}

	var c cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c = rc
		log.Info(ctx, "leaderboard cache enabled", logger.Duration("ttl", cfg.CacheTTL))
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithStore(store),
		app.WithCache(c),
		app.WithMapper(airtable.Mapper{
			RentField:   cfg.Airtable.RentField,
			NameField:   cfg.Airtable.NameField,
			GuessSuffix: cfg.Airtable.GuessSuffix,
		}),
		app.WithComposer(leaderboard.New(
			leaderboard.WithModelNames(cfg.Leaderboard.ModelNames),
			leaderboard.WithModelLimit(cfg.Leaderboard.ModelLimit),
			leaderboard.WithHumanLimit(cfg.Leaderboard.HumanLimit),
			leaderboard.WithWindowDays(cfg.Leaderboard.WindowDays),
			leaderboard.WithLocation(loc),
		)),
	}
	if cfg.AirtableConfigured() {
		opts = append(opts, app.WithFeed(airtable.New(
			cfg.Airtable.BaseID,
			cfg.Airtable.Table,
			cfg.Airtable.APIKey,
			airtable.WithBaseURL(cfg.Airtable.BaseURL),
			airtable.WithTimeout(cfg.Airtable.Timeout),
			airtable.WithRateLimit(cfg.Airtable.RateLimit),
		)))
	} else {
		log.Warn(ctx, "airtable credentials not set; scoring runs and /listings are disabled")
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		_ = c.Close()
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}
	return svc, nil
}
