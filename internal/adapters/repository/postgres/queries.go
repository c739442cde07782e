package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/okian/rentscore/internal/adapters/repository"
	"github.com/okian/rentscore/internal/domain/model"
)

const participantColumns = `id, username, ip_address, created_at`

// Postgres error codes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func scanParticipant(row *sql.Row) (model.Participant, error) {
	var p model.Participant
	if err := row.Scan(&p.ID, &p.Name, &p.IPAddress, &p.CreatedAt); err != nil {
		return model.Participant{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func queryCreateParticipant(ctx context.Context, db executor, name, ipAddress string) (model.Participant, error) {
	row := db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, ip_address)
		VALUES ($1, $2, $3)
		RETURNING `+participantColumns,
		uuid.New(), name, ipAddress,
	)
	p, err := scanParticipant(row)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return model.Participant{}, fmt.Errorf("%w: %s", repository.ErrDuplicateParticipant, name)
		}
		return model.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return p, nil
}

func queryEnsureParticipant(ctx context.Context, db executor, name, ipAddress string) (model.Participant, bool, error) {
	row := db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, ip_address)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
		RETURNING `+participantColumns,
		uuid.New(), name, ipAddress,
	)
	p, err := scanParticipant(row)
	switch {
	case err == nil:
		return p, true, nil
	case errors.Is(err, sql.ErrNoRows):
		// Another writer owns the name; use its row.
		p, err = queryGetParticipantByName(ctx, db, name)
		if err != nil {
			return model.Participant{}, false, err
		}
		return p, false, nil
	default:
		return model.Participant{}, false, fmt.Errorf("ensure participant: %w", err)
	}
}

func queryGetParticipant(ctx context.Context, db executor, id uuid.UUID) (model.Participant, error) {
	row := db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM users WHERE id = $1`, id)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Participant{}, fmt.Errorf("participant %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return model.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

func queryGetParticipantByName(ctx context.Context, db executor, name string) (model.Participant, error) {
	row := db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM users WHERE username = $1`, name)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Participant{}, fmt.Errorf("participant %q: %w", name, repository.ErrNotFound)
	}
	if err != nil {
		return model.Participant{}, fmt.Errorf("get participant by name: %w", err)
	}
	return p, nil
}

func queryInsertScoreEvent(ctx context.Context, db executor, participantID uuid.UUID, value int) (model.ScoreEvent, error) {
	ev := model.ScoreEvent{
		ID:            uuid.New(),
		ParticipantID: participantID,
		Value:         value,
	}
	err := db.QueryRowContext(ctx, `
		INSERT INTO score (id, user_id, score_value)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		ev.ID, participantID, value,
	).Scan(&ev.CreatedAt)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return model.ScoreEvent{}, fmt.Errorf("participant %s: %w", participantID, repository.ErrNotFound)
		}
		return model.ScoreEvent{}, fmt.Errorf("insert score event: %w", err)
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	return ev, nil
}

func queryListEntries(ctx context.Context, db executor, r repository.Range) ([]model.LeaderboardEntry, error) {
	var (
		whereClauses []string
		args         []any
	)
	if !r.From.IsZero() {
		args = append(args, r.From.UTC())
		whereClauses = append(whereClauses, fmt.Sprintf("s.created_at >= $%d", len(args)))
	}
	if !r.To.IsZero() {
		args = append(args, r.To.UTC())
		whereClauses = append(whereClauses, fmt.Sprintf("s.created_at < $%d", len(args)))
	}

	query := `
		SELECT s.id, s.user_id, s.score_value, s.created_at, u.username
		FROM score s
		JOIN users u ON u.id = s.user_id`
	if len(whereClauses) > 0 {
		query += "\n\t\tWHERE " + strings.Join(whereClauses, " AND ")
	}
	query += "\n\t\tORDER BY s.created_at ASC, s.id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.ParticipantID, &e.Value, &e.CreatedAt, &e.ParticipantName); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func queryCountParticipants(ctx context.Context, db executor) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}
