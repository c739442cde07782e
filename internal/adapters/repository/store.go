// Package repository defines the participant and score event store interface
// and errors.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rentscore/internal/domain/model"
)

// Range bounds a listing by creation time as [From, To). A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

// Includes reports whether t falls inside the range.
func (r Range) Includes(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// Store provides read/write access to participants and their score events.
type Store interface {
	// CreateParticipant inserts a new participant.
	// Returns ErrDuplicateParticipant if the name is taken.
	CreateParticipant(ctx context.Context, name, ipAddress string) (model.Participant, error)

	// EnsureParticipant returns the participant with name, creating it if
	// needed. created reports whether this call inserted it. A concurrent
	// insert of the same name is resolved by re-reading, never by failing.
	EnsureParticipant(ctx context.Context, name, ipAddress string) (p model.Participant, created bool, err error)

	// GetParticipant returns ErrNotFound for an unknown id.
	GetParticipant(ctx context.Context, id uuid.UUID) (model.Participant, error)

	// GetParticipantByName returns ErrNotFound for an unknown name.
	GetParticipantByName(ctx context.Context, name string) (model.Participant, error)

	// InsertScoreEvent appends a score event for the participant.
	// Returns ErrNotFound if the participant does not exist.
	InsertScoreEvent(ctx context.Context, participantID uuid.UUID, value int) (model.ScoreEvent, error)

	// ListEntries returns score events joined with participant names,
	// created within r, ordered by creation time ascending.
	ListEntries(ctx context.Context, r Range) ([]model.LeaderboardEntry, error)

	// CountParticipants returns the number of known participants.
	CountParticipants(ctx context.Context) (int, error)
}

// TxStore is a Store that can scope a unit of work in a transaction.
type TxStore interface {
	Store

	// RunInTransaction calls fn with a Store bound to one transaction. The
	// transaction commits if fn returns nil and rolls back otherwise.
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Close releases the underlying resources.
	Close() error
}
