package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpratt21/courtside/internal/models"
)

// Repository persists the per-game event log in Postgres. The log is
// append-only except for undo, which deletes the retracted tail rows.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Append(ctx context.Context, ev models.StatEvent) error {
	meta, err := json.Marshal(ev.Meta)
	if err != nil {
		return fmt.Errorf("marshal event meta: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO stat_events (
			id, game_id, seq, player_id, team_id, quarter, game_time, type, meta, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		ev.ID, ev.GameID, ev.Seq, ev.PlayerID, ev.TeamID, ev.Quarter, ev.GameTime, string(ev.Type), meta, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stat event: %w", err)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, gameID, eventID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM stat_events WHERE game_id = $1 AND id = $2`, gameID, eventID)
	if err != nil {
		return fmt.Errorf("delete stat event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stat event %s not found in game %s", eventID, gameID)
	}
	return nil
}

// ListByGame pages through a game's log in sequence order. afterSeq of zero
// starts from the beginning; quarter of zero means all quarters; limit of
// zero means no cap.
func (r *Repository) ListByGame(ctx context.Context, gameID uuid.UUID, afterSeq int64, quarter, limit int) ([]models.StatEvent, error) {
	q := `SELECT id, game_id, seq, player_id, team_id, quarter, game_time, type, meta, created_at
		 FROM stat_events WHERE game_id = $1 AND seq > $2`
	args := []any{gameID, afterSeq}
	if quarter != 0 {
		args = append(args, quarter)
		q += fmt.Sprintf(" AND quarter = $%d", len(args))
	}
	q += " ORDER BY seq"
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query stat events: %w", err)
	}
	defer rows.Close()

	out := make([]models.StatEvent, 0, 32)
	for rows.Next() {
		var ev models.StatEvent
		var typ string
		var meta []byte
		if err := rows.Scan(&ev.ID, &ev.GameID, &ev.Seq, &ev.PlayerID, &ev.TeamID, &ev.Quarter, &ev.GameTime, &typ, &meta, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stat event: %w", err)
		}
		ev.Type = models.StatEventType(typ)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &ev.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal event meta: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *Repository) CountByGame(ctx context.Context, gameID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stat_events WHERE game_id = $1`, gameID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count stat events: %w", err)
	}
	return n, nil
}
