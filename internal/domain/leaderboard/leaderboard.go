// Package leaderboard composes ranked views over recorded score events.
//
// Two populations are ranked differently. Automated models compete on their
// all-time best events, humans on their best events of the trailing week.
// The composer never recomputes scores; it only selects and orders.
package leaderboard

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/okian/rentscore/internal/domain/model"
)

// Default composition constants.
const (
	defaultLimit      = 3
	defaultWindowDays = 7
	defaultZone       = "America/New_York"
)

// DefaultModelNames is the recognized model set used when none is configured.
var DefaultModelNames = []string{"Sonnet 4", "Gemini 2.5 Flash", "GPT 5"} //nolint:gochecknoglobals // read-only default

// Composer builds daily and weekly leaderboards.
type Composer struct {
	modelNames []string
	modelLimit int
	humanLimit int
	windowDays int
	loc        *time.Location
}

// New creates a Composer. Without options it recognizes DefaultModelNames,
// keeps the top 3 of each population over a 7 day window, and computes
// boundaries in US Eastern time.
func New(opts ...Option) *Composer {
	c := &Composer{
		modelNames: slices.Clone(DefaultModelNames),
		modelLimit: defaultLimit,
		humanLimit: defaultLimit,
		windowDays: defaultWindowDays,
		loc:        eastern(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsModel reports whether the participant name matches a recognized model.
// Matching is by substring, so "my GPT 5 fan" also counts as a model.
func (c *Composer) IsModel(name string) bool {
	for _, m := range c.modelNames {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// Weekly merges the best all-time model entries with the best human entries
// of the trailing window, ordered by score.
func (c *Composer) Weekly(entries []model.LeaderboardEntry, now time.Time) []model.LeaderboardEntry {
	window := c.WeeklyWindow(now)

	var models, humans []model.LeaderboardEntry
	for _, e := range entries {
		switch {
		case c.IsModel(e.ParticipantName):
			models = append(models, e)
		case window.Contains(e.CreatedAt):
			humans = append(humans, e)
		}
	}

	out := make([]model.LeaderboardEntry, 0, c.modelLimit+c.humanLimit)
	out = append(out, top(models, c.modelLimit)...)
	out = append(out, top(humans, c.humanLimit)...)
	slices.SortStableFunc(out, byScore)
	return out
}

// Daily returns every entry recorded during the current civil day, newest
// first. There is no population split and no limit.
func (c *Composer) Daily(entries []model.LeaderboardEntry, now time.Time) []model.LeaderboardEntry {
	window := c.DailyWindow(now)

	out := make([]model.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if window.Contains(e.CreatedAt) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, byRecency)
	return out
}

// top sorts a copy of entries by score and keeps at most n.
func top(entries []model.LeaderboardEntry, n int) []model.LeaderboardEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, byScore)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// byScore orders by score desc. Ties go to the earlier event, then to
// participant name and event id so the order is total.
func byScore(a, b model.LeaderboardEntry) int {
	if c := cmp.Compare(b.Value, a.Value); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	if c := strings.Compare(a.ParticipantName, b.ParticipantName); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

// byRecency orders by creation time desc, then event id.
func byRecency(a, b model.LeaderboardEntry) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

// eastern loads the reference zone, falling back to a fixed EST offset when
// no tz database is available.
func eastern() *time.Location {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}
