package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rentscore/internal/domain/model"
)

// MemoryStore is an in-process TxStore. Transactions serialize all other
// access and restore a snapshot when the unit of work fails.
type MemoryStore struct {
	mu           sync.Mutex
	participants map[uuid.UUID]model.Participant
	byName       map[string]uuid.UUID
	events       []model.ScoreEvent
	now          func() time.Time
}

// Compile-time check that MemoryStore implements TxStore.
var _ TxStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		participants: make(map[uuid.UUID]model.Participant),
		byName:       make(map[string]uuid.UUID),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParticipant implements Store.
func (s *MemoryStore) CreateParticipant(ctx context.Context, name, ipAddress string) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx, name, ipAddress)
}

// EnsureParticipant implements Store.
func (s *MemoryStore) EnsureParticipant(ctx context.Context, name, ipAddress string) (model.Participant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(ctx, name, ipAddress)
}

// GetParticipant implements Store.
func (s *MemoryStore) GetParticipant(ctx context.Context, id uuid.UUID) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, id)
}

// GetParticipantByName implements Store.
func (s *MemoryStore) GetParticipantByName(ctx context.Context, name string) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByNameLocked(ctx, name)
}

// InsertScoreEvent implements Store.
func (s *MemoryStore) InsertScoreEvent(ctx context.Context, participantID uuid.UUID, value int) (model.ScoreEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ctx, participantID, value)
}

// ListEntries implements Store.
func (s *MemoryStore) ListEntries(ctx context.Context, r Range) ([]model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ctx, r)
}

// CountParticipants implements Store.
func (s *MemoryStore) CountParticipants(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants), nil
}

// RunInTransaction implements TxStore. fn must only use the Store it is given.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked()
	if err := fn(&memoryTx{s: s}); err != nil {
		s.restoreLocked(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.restoreLocked(snap)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close implements TxStore.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) createLocked(ctx context.Context, name, ipAddress string) (model.Participant, error) {
	if err := ctx.Err(); err != nil {
		return model.Participant{}, err
	}
	if _, ok := s.byName[name]; ok {
		return model.Participant{}, fmt.Errorf("%w: %s", ErrDuplicateParticipant, name)
	}
	p := model.Participant{
		ID:        uuid.New(),
		Name:      name,
		IPAddress: ipAddress,
		CreatedAt: s.now().UTC(),
	}
	s.participants[p.ID] = p
	s.byName[name] = p.ID
	return p, nil
}

func (s *MemoryStore) ensureLocked(ctx context.Context, name, ipAddress string) (model.Participant, bool, error) {
	if p, err := s.getByNameLocked(ctx, name); err == nil {
		return p, false, nil
	}
	p, err := s.createLocked(ctx, name, ipAddress)
	if err != nil {
		return model.Participant{}, false, err
	}
	return p, true, nil
}

func (s *MemoryStore) getLocked(ctx context.Context, id uuid.UUID) (model.Participant, error) {
	if err := ctx.Err(); err != nil {
		return model.Participant{}, err
	}
	p, ok := s.participants[id]
	if !ok {
		return model.Participant{}, fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) getByNameLocked(ctx context.Context, name string) (model.Participant, error) {
	if err := ctx.Err(); err != nil {
		return model.Participant{}, err
	}
	id, ok := s.byName[name]
	if !ok {
		return model.Participant{}, fmt.Errorf("participant %q: %w", name, ErrNotFound)
	}
	return s.participants[id], nil
}

func (s *MemoryStore) insertLocked(ctx context.Context, participantID uuid.UUID, value int) (model.ScoreEvent, error) {
	if _, err := s.getLocked(ctx, participantID); err != nil {
		return model.ScoreEvent{}, err
	}
	ev := model.ScoreEvent{
		ID:            uuid.New(),
		ParticipantID: participantID,
		Value:         value,
		CreatedAt:     s.now().UTC(),
	}
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *MemoryStore) listLocked(ctx context.Context, r Range) ([]model.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.LeaderboardEntry, 0, len(s.events))
	for _, ev := range s.events {
		if !r.Includes(ev.CreatedAt) {
			continue
		}
		out = append(out, model.LeaderboardEntry{
			ScoreEvent:      ev,
			ParticipantName: s.participants[ev.ParticipantID].Name,
		})
	}
	slices.SortStableFunc(out, func(a, b model.LeaderboardEntry) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

type memorySnapshot struct {
	participants map[uuid.UUID]model.Participant
	byName       map[string]uuid.UUID
	events       []model.ScoreEvent
}

func (s *MemoryStore) snapshotLocked() memorySnapshot {
	return memorySnapshot{
		participants: maps.Clone(s.participants),
		byName:       maps.Clone(s.byName),
		events:       slices.Clone(s.events),
	}
}

func (s *MemoryStore) restoreLocked(snap memorySnapshot) {
	s.participants = snap.participants
	s.byName = snap.byName
	s.events = snap.events
}

// memoryTx is the Store handed to a transaction body. The parent lock is
// already held.
type memoryTx struct {
	s *MemoryStore
}

func (t *memoryTx) CreateParticipant(ctx context.Context, name, ipAddress string) (model.Participant, error) {
	return t.s.createLocked(ctx, name, ipAddress)
}

func (t *memoryTx) EnsureParticipant(ctx context.Context, name, ipAddress string) (model.Participant, bool, error) {
	return t.s.ensureLocked(ctx, name, ipAddress)
}

func (t *memoryTx) GetParticipant(ctx context.Context, id uuid.UUID) (model.Participant, error) {
	return t.s.getLocked(ctx, id)
}

func (t *memoryTx) GetParticipantByName(ctx context.Context, name string) (model.Participant, error) {
	return t.s.getByNameLocked(ctx, name)
}

func (t *memoryTx) InsertScoreEvent(ctx context.Context, participantID uuid.UUID, value int) (model.ScoreEvent, error) {
	return t.s.insertLocked(ctx, participantID, value)
}

func (t *memoryTx) ListEntries(ctx context.Context, r Range) ([]model.LeaderboardEntry, error) {
	return t.s.listLocked(ctx, r)
}

func (t *memoryTx) CountParticipants(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(t.s.participants), nil
}
