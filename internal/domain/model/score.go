package model

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a leaderboard identity: a prediction model or a human player.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"username"`
	IPAddress string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreEvent is one recorded score for a participant. Events are append-only.
type ScoreEvent struct {
	ID            uuid.UUID `json:"id"`
	ParticipantID uuid.UUID `json:"user_id"`
	Value         int       `json:"score_value"`
	CreatedAt     time.Time `json:"created_at"`
}

// LeaderboardEntry is a ScoreEvent annotated with the owner's display name.
type LeaderboardEntry struct {
	ScoreEvent
	ParticipantName string `json:"username"`
}
