package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/sliding-window/internal/ratelimit"
)

// PostgresSceneStore is a PostgreSQL implementation of ratelimit.SceneProvider.
type PostgresSceneStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSceneStore creates a new PostgreSQL-backed scene store.
func NewPostgresSceneStore(pool *pgxpool.Pool) *PostgresSceneStore {
	return &PostgresSceneStore{pool: pool}
}

// Migrate creates the scenes table when it does not exist yet.
func (p *PostgresSceneStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS sliding_window_scenes (
			name           TEXT PRIMARY KEY,
			window_seconds BIGINT NOT NULL CHECK (window_seconds > 0),
			threshold      BIGINT NOT NULL CHECK (threshold >= 0),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	_, err := p.pool.Exec(ctx, query)

	return err
}

// Save creates or replaces a scene.
func (p *PostgresSceneStore) Save(ctx context.Context, name string, cfg ratelimit.SceneConfig) error {
	query := `
		INSERT INTO sliding_window_scenes (name, window_seconds, threshold)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET window_seconds = EXCLUDED.window_seconds,
		    threshold = EXCLUDED.threshold,
		    updated_at = now()
	`

	_, err := p.pool.Exec(ctx, query, name, cfg.Window, cfg.Threshold)

	return err
}

func (p *PostgresSceneStore) Scene(ctx context.Context, name string) (ratelimit.SceneConfig, error) {
	query := `
		SELECT window_seconds, threshold
		FROM sliding_window_scenes
		WHERE name = $1
	`

	var cfg ratelimit.SceneConfig

	err := p.pool.QueryRow(ctx, query, name).Scan(&cfg.Window, &cfg.Threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ratelimit.SceneConfig{}, ratelimit.ErrSceneNotFound
		}

		return ratelimit.SceneConfig{}, err
	}

	return cfg, nil
}
