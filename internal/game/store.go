package game

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/catanforge/catan-server-go/internal/game/state"
)

var (
	// ErrGameNotFound is returned for unknown game IDs.
	ErrGameNotFound = errors.New("game not found")
	// ErrVersionConflict is returned by a Store when a command does not
	// follow the stored version.
	ErrVersionConflict = errors.New("stored version conflict")
	// ErrPersistence wraps store failures during Submit. The action is not
	// applied and the engine does not retry it.
	ErrPersistence = errors.New("persistence failure")
	// ErrReplayInconsistency marks a game whose command log does not
	// reproduce its stored checkpoint. The game refuses actions until it
	// is restored cleanly.
	ErrReplayInconsistency = errors.New("replay inconsistency")
)

// StoredGame is everything persisted for one game. Commands are the source
// of truth; Model and Checksum are the checkpoint after the last command.
type StoredGame struct {
	ID       string
	Setup    state.Setup
	Model    *state.GameState
	Version  int
	Checksum string
	Commands []Command
}

// Store persists games. Commit must write the command and the new model in
// one transaction and fail with ErrVersionConflict if cmd.Seq does not
// follow the stored version.
type Store interface {
	CreateGame(ctx context.Context, game StoredGame) error
	Commit(ctx context.Context, gameID string, cmd Command, model *state.GameState, checksum string) error
	LoadGame(ctx context.Context, gameID string) (*StoredGame, error)
	ListGames(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*StoredGame
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*StoredGame)}
}

func (s *MemoryStore) CreateGame(ctx context.Context, game StoredGame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.ID]; exists {
		return ErrVersionConflict
	}
	cp := game
	cp.Model = game.Model.Clone()
	cp.Commands = append([]Command(nil), game.Commands...)
	s.games[game.ID] = &cp
	return nil
}

func (s *MemoryStore) Commit(ctx context.Context, gameID string, cmd Command, model *state.GameState, checksum string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return ErrGameNotFound
	}
	if cmd.Seq != g.Version+1 {
		return ErrVersionConflict
	}
	g.Commands = append(g.Commands, cmd)
	g.Model = model.Clone()
	g.Version = cmd.Seq
	g.Checksum = checksum
	return nil
}

func (s *MemoryStore) LoadGame(ctx context.Context, gameID string) (*StoredGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	cp := *g
	cp.Model = g.Model.Clone()
	cp.Commands = append([]Command(nil), g.Commands...)
	return &cp, nil
}

func (s *MemoryStore) ListGames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
