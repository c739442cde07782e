package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// stepClock returns a clock that advances by one minute per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

func TestMemoryStore_Participants(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p, err := store.CreateParticipant(ctx, "alice", "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected a generated id")
	}

	if _, err := store.CreateParticipant(ctx, "alice", ""); !errors.Is(err, ErrDuplicateParticipant) {
		t.Errorf("expected ErrDuplicateParticipant, got %v", err)
	}

	got, err := store.GetParticipant(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "alice" || got.IPAddress != "10.0.0.1" {
		t.Errorf("unexpected participant: %+v", got)
	}

	byName, err := store.GetParticipantByName(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byName.ID != p.ID {
		t.Errorf("expected id %s, got %s", p.ID, byName.ID)
	}

	if _, err := store.GetParticipant(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetParticipantByName(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	again, created, err := store.EnsureParticipant(ctx, "alice", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || again.ID != p.ID {
		t.Errorf("expected existing participant, got %+v created=%v", again, created)
	}

	_, created, err = store.EnsureParticipant(ctx, "GPT 5", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected a new participant")
	}

	if n, _ := store.CountParticipants(ctx); n != 2 {
		t.Errorf("expected 2 participants, got %d", n)
	}
}

func TestMemoryStore_ScoreEvents(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(stepClock(start)))

	// participant at 12:00, events at 12:01, 12:02, 12:03
	alice, _ := store.CreateParticipant(ctx, "alice", "")
	for _, v := range []int{80, 85, 90} {
		if _, err := store.InsertScoreEvent(ctx, alice.ID, v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if _, err := store.InsertScoreEvent(ctx, uuid.New(), 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := store.ListEntries(ctx, Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	for i, want := range []int{80, 85, 90} {
		if all[i].Value != want || all[i].ParticipantName != "alice" {
			t.Errorf("entry %d: got %+v", i, all[i])
		}
	}

	// [12:02, 12:03) keeps only the second event.
	window, err := store.ListEntries(ctx, Range{From: start.Add(2 * time.Minute), To: start.Add(3 * time.Minute)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(window) != 1 || window[0].Value != 85 {
		t.Errorf("unexpected window entries: %+v", window)
	}
}

func TestMemoryStore_RunInTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	err := store.RunInTransaction(ctx, func(tx Store) error {
		p, _, err := tx.EnsureParticipant(ctx, "Sonnet 4", "")
		if err != nil {
			return err
		}
		if _, err := tx.InsertScoreEvent(ctx, p.ID, 90); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n, _ := store.CountParticipants(ctx); n != 0 {
		t.Errorf("expected rollback to remove participants, got %d", n)
	}
	if entries, _ := store.ListEntries(ctx, Range{}); len(entries) != 0 {
		t.Errorf("expected rollback to remove events, got %d", len(entries))
	}

	err = store.RunInTransaction(ctx, func(tx Store) error {
		p, _, err := tx.EnsureParticipant(ctx, "Sonnet 4", "")
		if err != nil {
			return err
		}
		_, err = tx.InsertScoreEvent(ctx, p.ID, 90)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries, _ := store.ListEntries(ctx, Range{}); len(entries) != 1 {
		t.Errorf("expected 1 committed event, got %d", len(entries))
	}
}

func TestMemoryStore_ConcurrentEnsure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const workers = 20
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := store.EnsureParticipant(ctx, "shared", "")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			ids[i] = p.ID
			if _, err := store.InsertScoreEvent(ctx, p.ID, i); err != nil {
				t.Errorf("worker %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("expected a single participant, got %s and %s", ids[0], ids[i])
		}
	}
	entries, _ := store.ListEntries(ctx, Range{})
	if len(entries) != workers {
		t.Errorf("expected %d events, got %d", workers, len(entries))
	}
}

func TestRange_Includes(t *testing.T) {
	from := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	r := Range{From: from, To: from.Add(time.Hour)}

	for _, tc := range []struct {
		at   time.Time
		want bool
	}{
		{from.Add(-time.Nanosecond), false},
		{from, true},
		{from.Add(59 * time.Minute), true},
		{from.Add(time.Hour), false},
	} {
		t.Run(fmt.Sprint(tc.at), func(t *testing.T) {
			if got := r.Includes(tc.at); got != tc.want {
				t.Errorf("Includes(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}

	if !(Range{}).Includes(from) {
		t.Error("expected open range to include everything")
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()

	if _, err := store.CreateParticipant(ctx, "alice", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := store.ListEntries(ctx, Range{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
