// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/rentscore/internal/domain/model"
)

// Entry represents a leaderboard row as served to clients
type Entry struct {
	Rank       int       `json:"rank"`
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	ScoreValue int       `json:"score_value"`
	CreatedAt  time.Time `json:"created_at"`
}

// Ranked converts ordered leaderboard entries into ranked rows. Rank is the
// 1-based position in the given order.
func Ranked(entries []model.LeaderboardEntry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{
			Rank:       i + 1,
			ID:         e.ID.String(),
			UserID:     e.ParticipantID.String(),
			Username:   e.ParticipantName,
			ScoreValue: e.Value,
			CreatedAt:  e.CreatedAt,
		}
	}
	return out
}
