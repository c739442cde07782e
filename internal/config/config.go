// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config holding every default.
// - Load layers .env, an optional YAML file and the environment on top.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr" validate:"required"`

	// DatabaseURL selects the Postgres store. Empty means in-memory.
	DatabaseURL string `koanf:"database_url"`

	// RedisAddr enables the leaderboard cache when set.
	RedisAddr string `koanf:"redis_addr"`

	// CacheTTL bounds how long a cached leaderboard is served. Required with
	// RedisAddr: Redis keeps a key with zero expiry forever.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"required_with=RedisAddr,min=0"`

	// RedocURL overrides where the API docs page loads the ReDoc bundle from.
	RedocURL string `koanf:"redoc_url"`

	// Timezone is the civil zone leaderboard windows are computed in.
	Timezone string `koanf:"timezone" validate:"required"`

	// CORSOrigins lists origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`

	// ScoringInterval runs the scoring pipeline periodically while serving.
	// Zero disables the schedule.
	ScoringInterval time.Duration `koanf:"scoring_interval" validate:"min=0"`

	Airtable    Airtable    `koanf:"airtable"`
	Leaderboard Leaderboard `koanf:"leaderboard"`
}

// Airtable configures the listing feed.
type Airtable struct {
	BaseURL     string        `koanf:"base_url" validate:"required,url"`
	BaseID      string        `koanf:"base_id"`
	Table       string        `koanf:"table" validate:"required"`
	APIKey      string        `koanf:"api_key"`
	RateLimit   float64       `koanf:"rate_limit" validate:"gt=0"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	RentField   string        `koanf:"rent_field" validate:"required"`
	NameField   string        `koanf:"name_field"`
	GuessSuffix string        `koanf:"guess_suffix" validate:"required"`
}

// Leaderboard configures leaderboard composition.
type Leaderboard struct {
	ModelNames []string `koanf:"model_names"`
	ModelLimit int      `koanf:"model_limit" validate:"min=0"`
	HumanLimit int      `koanf:"human_limit" validate:"min=0"`
	WindowDays int      `koanf:"window_days" validate:"min=1"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":8000",
		CacheTTL:  30 * time.Second,
		Timezone:  "America/New_York",
		CORSOrigins: []string{
			"*",
		},
		Airtable: Airtable{
			BaseURL:     "https://api.airtable.com",
			Table:       "Listings",
			RateLimit:   5,
			Timeout:     15 * time.Second,
			RentField:   "Rent Price",
			NameField:   "Name",
			GuessSuffix: " Guess",
		},
		Leaderboard: Leaderboard{
			ModelNames: []string{"Sonnet 4", "Gemini 2.5 Flash", "GPT 5"},
			ModelLimit: 3,
			HumanLimit: 3,
			WindowDays: 7,
		},
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// AirtableConfigured reports whether feed credentials are present.
func (c *Config) AirtableConfigured() bool {
	return c.Airtable.BaseID != "" && c.Airtable.APIKey != ""
}
