package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/catanforge/catan-server-go/internal/config"
)

// DB wraps the connection pool.
type DB struct {
	*pgxpool.Pool
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         BIGSERIAL PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS games (
	id         TEXT PRIMARY KEY,
	setup      JSONB NOT NULL,
	model      JSONB NOT NULL,
	version    INTEGER NOT NULL DEFAULT 0,
	checksum   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS commands (
	game_id       TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	command_order INTEGER NOT NULL,
	command_type  TEXT NOT NULL,
	player_index  INTEGER NOT NULL,
	command       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, command_order)
);
`

// NewDB connects to PostgreSQL and makes sure the schema exists.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Pool: pool, logger: logger}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates missing tables.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	db.logger.Debug("database schema ready")
	return nil
}
