package gamestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpratt21/courtside/internal/models"
)

// ErrNotFound is returned when a game row does not exist.
var ErrNotFound = errors.New("game not found")

// Repository persists game records in Postgres. Rule configuration lives in a
// jsonb column so rule sets can evolve without migrations.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateGame(ctx context.Context, game *models.Game) error {
	cfg, err := json.Marshal(game.Config)
	if err != nil {
		return fmt.Errorf("marshal game config: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO games (
			id, home_team_id, away_team_id, status, current_quarter,
			home_score, away_score, config, scheduled_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		game.ID, game.HomeTeamID, game.AwayTeamID, string(game.Status), game.CurrentQuarter,
		game.HomeScore, game.AwayScore, cfg, game.ScheduledAt, game.CreatedAt, game.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *Repository) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, home_team_id, away_team_id, status, current_quarter,
			home_score, away_score, config, scheduled_at, started_at, completed_at,
			created_at, updated_at
		 FROM games WHERE id = $1`, id)

	var g models.Game
	var status string
	var cfg []byte
	err := row.Scan(&g.ID, &g.HomeTeamID, &g.AwayTeamID, &status, &g.CurrentQuarter,
		&g.HomeScore, &g.AwayScore, &cfg, &g.ScheduledAt, &g.StartedAt, &g.CompletedAt,
		&g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query game: %w", err)
	}
	g.Status = models.GameStatus(status)
	if err := json.Unmarshal(cfg, &g.Config); err != nil {
		return nil, fmt.Errorf("unmarshal game config: %w", err)
	}
	return &g, nil
}

// UpdateGameState writes back the fields the engine owns: lifecycle status,
// quarter, scores, and timestamps.
func (r *Repository) UpdateGameState(ctx context.Context, game *models.Game) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE games SET
			status = $2, current_quarter = $3, home_score = $4, away_score = $5,
			started_at = $6, completed_at = $7, updated_at = $8
		 WHERE id = $1`,
		game.ID, string(game.Status), game.CurrentQuarter, game.HomeScore, game.AwayScore,
		game.StartedAt, game.CompletedAt, game.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update game state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus returns games in a lifecycle state, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status models.GameStatus, limit int) ([]models.Game, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, home_team_id, away_team_id, status, current_quarter,
			home_score, away_score, config, scheduled_at, started_at, completed_at,
			created_at, updated_at
		 FROM games WHERE status = $1 ORDER BY created_at LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	out := make([]models.Game, 0, limit)
	for rows.Next() {
		var g models.Game
		var st string
		var cfg []byte
		if err := rows.Scan(&g.ID, &g.HomeTeamID, &g.AwayTeamID, &st, &g.CurrentQuarter,
			&g.HomeScore, &g.AwayScore, &cfg, &g.ScheduledAt, &g.StartedAt, &g.CompletedAt,
			&g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Status = models.GameStatus(st)
		if err := json.Unmarshal(cfg, &g.Config); err != nil {
			return nil, fmt.Errorf("unmarshal game config: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
