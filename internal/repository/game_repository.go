package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/catanforge/catan-server-go/internal/game"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// GameRepository stores games and their command logs. It implements
// game.Store.
type GameRepository struct {
	db *DB
}

var _ game.Store = (*GameRepository)(nil)

// NewGameRepository creates a repository on db.
func NewGameRepository(db *DB) *GameRepository {
	return &GameRepository{db: db}
}

// CreateGame inserts a game with its initial checkpoint and any commands.
func (r *GameRepository) CreateGame(ctx context.Context, g game.StoredGame) error {
	setup, err := json.Marshal(g.Setup)
	if err != nil {
		return fmt.Errorf("failed to encode setup: %w", err)
	}
	model, err := game.MarshalModel(g.Model)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO games (id, setup, model, version, checksum)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		g.ID, setup, model, g.Version, g.Checksum)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrVersionConflict
	}
	for _, cmd := range g.Commands {
		if err := insertCommand(ctx, tx, g.ID, cmd); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertCommand(ctx context.Context, tx pgx.Tx, gameID string, cmd game.Command) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO commands (game_id, command_order, command_type, player_index, command, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		gameID, cmd.Seq, string(cmd.Type), cmd.PlayerIndex, []byte(cmd.Payload), cmd.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert command %d: %w", cmd.Seq, err)
	}
	return nil
}

// Commit appends cmd and replaces the checkpoint in one transaction. The
// update only matches when the stored version is cmd.Seq-1.
func (r *GameRepository) Commit(ctx context.Context, gameID string, cmd game.Command, model *state.GameState, checksum string) error {
	data, err := game.MarshalModel(model)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE games SET model = $1, version = $2, checksum = $3, updated_at = now()
		WHERE id = $4 AND version = $5`,
		data, cmd.Seq, checksum, gameID, cmd.Seq-1)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, gameID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check game: %w", err)
		}
		if !exists {
			return game.ErrGameNotFound
		}
		return game.ErrVersionConflict
	}
	if err := insertCommand(ctx, tx, gameID, cmd); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.db.logger.Debug("command committed",
		zap.String("game_id", gameID),
		zap.Int("version", cmd.Seq),
		zap.String("action", string(cmd.Type)),
	)
	return nil
}

// LoadGame reads the checkpoint and the full command log of a game.
func (r *GameRepository) LoadGame(ctx context.Context, gameID string) (*game.StoredGame, error) {
	var (
		setup []byte
		model []byte
	)
	out := &game.StoredGame{ID: gameID}
	err := r.db.QueryRow(ctx, `
		SELECT setup, model, version, checksum FROM games WHERE id = $1`, gameID,
	).Scan(&setup, &model, &out.Version, &out.Checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	if err := json.Unmarshal(setup, &out.Setup); err != nil {
		return nil, fmt.Errorf("failed to decode setup of %s: %w", gameID, err)
	}
	if out.Model, err = game.UnmarshalModel(model); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT command_order, command_type, player_index, command, created_at
		FROM commands WHERE game_id = $1 ORDER BY command_order`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load commands of %s: %w", gameID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cmd       game.Command
			kind      string
			payload   []byte
			createdAt time.Time
		)
		if err := rows.Scan(&cmd.Seq, &kind, &cmd.PlayerIndex, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		cmd.Type = rules.ActionType(kind)
		cmd.Payload = payload
		cmd.CreatedAt = createdAt.UTC()
		out.Commands = append(out.Commands, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands of %s: %w", gameID, err)
	}
	return out, nil
}

// ListGames returns every stored game ID.
func (r *GameRepository) ListGames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return ids, nil
}

// DeleteGame removes a game and its commands.
func (r *GameRepository) DeleteGame(ctx context.Context, gameID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}
