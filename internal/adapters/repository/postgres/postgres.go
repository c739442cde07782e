// Package postgres implements the repository.TxStore interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/okian/rentscore/internal/adapters/repository"
	"github.com/okian/rentscore/internal/domain/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements repository.TxStore backed by a PostgreSQL database.
type Store struct {
	db *sql.DB
}

// Compile-time check that Store implements repository.TxStore.
var _ repository.TxStore = (*Store)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateParticipant(ctx context.Context, name, ipAddress string) (model.Participant, error) {
	return queryCreateParticipant(ctx, s.db, name, ipAddress)
}

func (s *Store) EnsureParticipant(ctx context.Context, name, ipAddress string) (model.Participant, bool, error) {
	return queryEnsureParticipant(ctx, s.db, name, ipAddress)
}

func (s *Store) GetParticipant(ctx context.Context, id uuid.UUID) (model.Participant, error) {
	return queryGetParticipant(ctx, s.db, id)
}

func (s *Store) GetParticipantByName(ctx context.Context, name string) (model.Participant, error) {
	return queryGetParticipantByName(ctx, s.db, name)
}

func (s *Store) InsertScoreEvent(ctx context.Context, participantID uuid.UUID, value int) (model.ScoreEvent, error) {
	return queryInsertScoreEvent(ctx, s.db, participantID, value)
}

func (s *Store) ListEntries(ctx context.Context, r repository.Range) ([]model.LeaderboardEntry, error) {
	return queryListEntries(ctx, s.db, r)
}

func (s *Store) CountParticipants(ctx context.Context) (int, error) {
	return queryCountParticipants(ctx, s.db)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements repository.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements repository.Store.
var _ repository.Store = (*txStore)(nil)

func (s *txStore) CreateParticipant(ctx context.Context, name, ipAddress string) (model.Participant, error) {
	return queryCreateParticipant(ctx, s.tx, name, ipAddress)
}

func (s *txStore) EnsureParticipant(ctx context.Context, name, ipAddress string) (model.Participant, bool, error) {
	return queryEnsureParticipant(ctx, s.tx, name, ipAddress)
}

func (s *txStore) GetParticipant(ctx context.Context, id uuid.UUID) (model.Participant, error) {
	return queryGetParticipant(ctx, s.tx, id)
}

func (s *txStore) GetParticipantByName(ctx context.Context, name string) (model.Participant, error) {
	return queryGetParticipantByName(ctx, s.tx, name)
}

func (s *txStore) InsertScoreEvent(ctx context.Context, participantID uuid.UUID, value int) (model.ScoreEvent, error) {
	return queryInsertScoreEvent(ctx, s.tx, participantID, value)
}

func (s *txStore) ListEntries(ctx context.Context, r repository.Range) ([]model.LeaderboardEntry, error) {
	return queryListEntries(ctx, s.tx, r)
}

func (s *txStore) CountParticipants(ctx context.Context) (int, error) {
	return queryCountParticipants(ctx, s.tx)
}
