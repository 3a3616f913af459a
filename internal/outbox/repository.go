package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// Querier abstracts *sql.DB and *sql.Tx so the worker can run a batch inside
// a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository reads and writes game_outbox rows. An insert trigger NOTIFYs the
// listener channel with the new row's ID.
type Repository struct {
	q Querier
}

func NewRepository(q Querier) *Repository {
	return &Repository{q: q}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

func (r *Repository) Insert(ctx context.Context, gameID uuid.UUID, eventType string, payload []byte) error {
	pl := pqtype.NullRawMessage{RawMessage: payload, Valid: payload != nil}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO game_outbox (id, game_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		uuid.New(), gameID, eventType, pl)
	if err != nil {
		return fmt.Errorf("insert %s outbox event: %w", eventType, err)
	}
	return nil
}

// FetchUnsent claims a batch of unsent events, oldest first, locking the rows
// so concurrent workers skip them.
func (r *Repository) FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, game_id, event_type, payload, created_at
		 FROM game_outbox
		 WHERE sent_at IS NULL
		 ORDER BY created_at
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		var pl pqtype.NullRawMessage
		if err := rows.Scan(&ev.ID, &ev.GameID, &ev.EventType, &pl, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		if pl.Valid {
			ev.Payload = pl.RawMessage
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, game_id, event_type, payload, created_at
		 FROM game_outbox
		 WHERE id = $1 AND sent_at IS NULL`, id)

	var ev OutboxEvent
	var pl pqtype.NullRawMessage
	err := row.Scan(&ev.ID, &ev.GameID, &ev.EventType, &pl, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outbox event %s not found or already sent", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch outbox event: %w", err)
	}
	if pl.Valid {
		ev.Payload = pl.RawMessage
	}
	return &ev, nil
}

func (r *Repository) MarkSent(ctx context.Context, ids ...uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE game_outbox SET sent_at = NOW() WHERE id = ANY($1)`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return fmt.Errorf("mark outbox events sent: %w", err)
	}
	return nil
}

// CountUnsent reports the outbox backlog for lag metrics.
func (r *Repository) CountUnsent(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_outbox WHERE sent_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unsent outbox events: %w", err)
	}
	return n, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
