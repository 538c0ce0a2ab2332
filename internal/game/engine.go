package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// MaxSyncDelta is the largest command delta Sync returns; clients further
// behind get a full snapshot.
const MaxSyncDelta = 50

// Notification types.
const (
	NotifyGameCreated    = "GAME_CREATED"
	NotifyVersionChanged = "VERSION_CHANGED"
	NotifyGameOver       = "GAME_OVER"
	NotifyQuarantined    = "GAME_QUARANTINED"
)

// Options configures an Engine.
type Options struct {
	// AllowForcedRolls honours a number sent with rollNumber.
	AllowForcedRolls bool
	// RandomSeed seeds every game's dice when non-zero.
	RandomSeed int64
	// Defaults for games created without them.
	WinningPoints int
	DiscardLimit  int
	// ReplayDir receives a replay file when a game ends. Empty disables it.
	ReplayDir string
}

// GameNotification is pushed to the notification handler after a commit.
type GameNotification struct {
	Type      string
	GameID    string
	Version   int
	Timestamp time.Time
	Data      map[string]interface{}
}

// NotificationHandler receives game notifications.
type NotificationHandler func(notification GameNotification)

// Game is a loaded game: its setup, the published state and the command
// log that produced it. State.Version always equals Log.Len().
type Game struct {
	Setup state.Setup
	State *state.GameState
	Log   *CommandLog
}

// session is one game's single writer lane. Published states are never
// mutated; writers replace State with a committed clone.
type session struct {
	mu          sync.RWMutex
	game        *Game
	rnd         *rand.Rand
	quarantined error
}

// SyncResult answers a client polling with its version: either it is up to
// date, or it gets the commands it missed, or a full snapshot.
type SyncResult struct {
	Version  int              `json:"version"`
	UpToDate bool             `json:"upToDate"`
	Commands []Command        `json:"commands,omitempty"`
	State    *state.GameState `json:"state,omitempty"`
}

// Engine owns the loaded games and serialises writes per game.
type Engine struct {
	logger     *zap.Logger
	store      Store
	dispatcher *Dispatcher
	opts       Options
	now        func() time.Time

	mu    sync.RWMutex
	games map[string]*session

	noticeMu            sync.Mutex
	notices             []GameNotification
	noticeWake          chan struct{}
	noticeOnce          sync.Once
	notificationHandler NotificationHandler
}

// NewEngine creates an engine backed by store.
func NewEngine(logger *zap.Logger, store Store, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:     logger,
		store:      store,
		dispatcher: NewDispatcher(opts.AllowForcedRolls),
		opts:       opts,
		now:        time.Now,
		games:      make(map[string]*session),
		noticeWake: make(chan struct{}, 1),
	}
}

// SetNotificationHandler sets the handler for game notifications. The
// handler runs on a single delivery goroutine, so it sees a game's
// notifications in commit order.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.noticeMu.Lock()
	e.notificationHandler = handler
	e.noticeMu.Unlock()
	e.noticeOnce.Do(func() { go e.deliverNotifications() })
}

// emitNotification queues n without blocking, so a slow subscriber never
// holds a game lock.
func (e *Engine) emitNotification(n GameNotification) {
	e.noticeMu.Lock()
	if e.notificationHandler == nil {
		e.noticeMu.Unlock()
		return
	}
	n.Timestamp = e.now()
	e.notices = append(e.notices, n)
	e.noticeMu.Unlock()

	select {
	case e.noticeWake <- struct{}{}:
	default:
	}
}

func (e *Engine) deliverNotifications() {
	for range e.noticeWake {
		e.noticeMu.Lock()
		batch := e.notices
		e.notices = nil
		handler := e.notificationHandler
		e.noticeMu.Unlock()

		if handler == nil {
			continue
		}
		for _, n := range batch {
			handler(n)
		}
	}
}

func (e *Engine) newRandom() *rand.Rand {
	seed := e.opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// CreateGame validates setup, persists the initial state and loads it.
func (e *Engine) CreateGame(ctx context.Context, setup state.Setup) (*state.GameState, error) {
	if setup.WinningPoints <= 0 {
		setup.WinningPoints = e.opts.WinningPoints
	}
	if setup.DiscardLimit <= 0 {
		setup.DiscardLimit = e.opts.DiscardLimit
	}
	id := uuid.NewString()
	g, err := state.New(id, setup)
	if err != nil {
		return nil, err
	}
	sum, err := Checksum(g)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreateGame(ctx, StoredGame{ID: id, Setup: setup, Model: g, Checksum: sum}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	e.mu.Lock()
	e.games[id] = &session{
		game: &Game{Setup: setup, State: g, Log: &CommandLog{}},
		rnd:  e.newRandom(),
	}
	// queued before any submit to the new game can queue its own
	e.emitNotification(GameNotification{Type: NotifyGameCreated, GameID: id})
	e.mu.Unlock()

	e.logger.Info("game created",
		zap.String("game_id", id),
		zap.Int("players", len(g.Players)),
	)
	return g.Clone(), nil
}

func (e *Engine) session(gameID string) (*session, error) {
	e.mu.RLock()
	s, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return s, nil
}

// Submit validates and applies one action. The new state becomes visible
// only after the store committed the command with it. Rejections are
// *rules.Rejection and leave the game untouched; store failures wrap
// ErrPersistence and are not retried. A store that is ahead of the loaded
// game quarantines it until Restore.
func (e *Engine) Submit(ctx context.Context, gameID string, a Action) (*state.GameState, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quarantined != nil {
		return nil, s.quarantined
	}

	prev := s.game.State
	next, cmd, err := e.dispatcher.Execute(prev, a, s.rnd, e.now())
	if err != nil {
		if rej, ok := rules.AsRejection(err); ok {
			e.logger.Debug("action rejected",
				zap.String("game_id", gameID),
				zap.String("action", string(ActionType(a))),
				zap.Int("player", Actor(a)),
				zap.String("kind", rej.Kind.String()),
				zap.String("reason", rej.Reason.Code),
			)
		} else {
			e.logger.Error("action failed",
				zap.String("game_id", gameID),
				zap.String("action", string(ActionType(a))),
				zap.Error(err),
			)
		}
		return nil, err
	}

	sum, err := Checksum(next)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := e.store.Commit(ctx, gameID, cmd, next, sum); err != nil {
		e.logger.Error("failed to persist command",
			zap.String("game_id", gameID),
			zap.Int("version", cmd.Seq),
			zap.String("action", string(cmd.Type)),
			zap.Error(err),
		)
		if errors.Is(err, ErrVersionConflict) {
			// the store holds commands this session never saw
			s.quarantined = fmt.Errorf("game %s: %w: store is ahead of version %d", gameID, ErrReplayInconsistency, prev.Version)
			e.emitNotification(GameNotification{Type: NotifyQuarantined, GameID: gameID, Version: prev.Version})
			return nil, s.quarantined
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := s.game.Log.Append(cmd); err != nil {
		// the store accepted a command the log refuses: stop writing
		s.quarantined = fmt.Errorf("game %s: %w: %v", gameID, ErrReplayInconsistency, err)
		return nil, s.quarantined
	}
	s.game.State = next

	e.logger.Debug("action accepted",
		zap.String("game_id", gameID),
		zap.String("action", string(cmd.Type)),
		zap.Int("player", cmd.PlayerIndex),
		zap.Int("version", cmd.Seq),
	)
	e.emitNotification(GameNotification{
		Type:    NotifyVersionChanged,
		GameID:  gameID,
		Version: next.Version,
		Data: map[string]interface{}{
			"type":        string(cmd.Type),
			"playerIndex": cmd.PlayerIndex,
			"phase":       next.Phase().String(),
		},
	})
	if next.Phase() == rules.PhaseGameOver && prev.Phase() != rules.PhaseGameOver {
		e.gameOver(gameID, s.game)
	}
	return next.Clone(), nil
}

// SubmitJSON decodes a wire action and submits it.
func (e *Engine) SubmitJSON(ctx context.Context, gameID string, data []byte) (*state.GameState, error) {
	a, err := DecodeAction(data)
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, gameID, a)
}

func (e *Engine) gameOver(gameID string, g *Game) {
	e.logger.Info("game over",
		zap.String("game_id", gameID),
		zap.Int("winner", g.State.Winner),
		zap.Int("version", g.State.Version),
	)
	e.emitNotification(GameNotification{
		Type:    NotifyGameOver,
		GameID:  gameID,
		Version: g.State.Version,
		Data:    map[string]interface{}{"winner": g.State.Winner},
	})
	if e.opts.ReplayDir == "" {
		return
	}
	replay := NewReplay(gameID, g.Setup, g.Log.All())
	if err := replay.SaveToFile(e.opts.ReplayDir); err != nil {
		e.logger.Warn("failed to save replay",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
	}
}

// Sync brings a client at clientVersion up to date. full forces a snapshot.
func (e *Engine) Sync(gameID string, clientVersion int, full bool) (*SyncResult, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	version := s.game.State.Version
	res := &SyncResult{Version: version}
	switch {
	case full || clientVersion < 0 || clientVersion > version || version-clientVersion > MaxSyncDelta:
		res.State = s.game.State.Clone()
	case clientVersion == version:
		res.UpToDate = true
	default:
		res.Commands = s.game.Log.Since(clientVersion)
	}
	return res, nil
}

// Restore loads a game from the store and replays its commands. If the
// replay fails or disagrees with the stored checkpoint the game is loaded
// from the checkpoint but quarantined: reads work, writes fail with
// ErrReplayInconsistency until a later Restore succeeds.
func (e *Engine) Restore(ctx context.Context, gameID string) error {
	stored, err := e.store.LoadGame(ctx, gameID)
	if err != nil {
		return err
	}

	s := &session{rnd: e.newRandom()}
	g, verr := e.rebuild(stored)
	if verr == nil {
		s.game = g
	} else {
		log, logErr := NewCommandLog(stored.Commands)
		if logErr != nil {
			log = &CommandLog{}
		}
		s.game = &Game{Setup: stored.Setup, State: stored.Model, Log: log}
		s.quarantined = fmt.Errorf("game %s: %w: %v", gameID, ErrReplayInconsistency, verr)
	}

	e.mu.Lock()
	e.games[gameID] = s
	e.mu.Unlock()

	if s.quarantined != nil {
		e.logger.Error("game quarantined",
			zap.String("game_id", gameID),
			zap.Int("stored_version", stored.Version),
			zap.Error(verr),
		)
		e.emitNotification(GameNotification{Type: NotifyQuarantined, GameID: gameID, Version: stored.Version})
		return s.quarantined
	}
	e.logger.Info("game restored",
		zap.String("game_id", gameID),
		zap.Int("version", g.State.Version),
	)
	return nil
}

func (e *Engine) rebuild(stored *StoredGame) (*Game, error) {
	log, err := NewCommandLog(stored.Commands)
	if err != nil {
		return nil, err
	}
	g, err := e.dispatcher.Rebuild(stored.ID, stored.Setup, stored.Commands)
	if err != nil {
		return nil, err
	}
	if g.Version != stored.Version {
		return nil, fmt.Errorf("replayed to version %d, checkpoint is at %d", g.Version, stored.Version)
	}
	if stored.Checksum != "" {
		ok, err := VerifyChecksum(g, stored.Checksum)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("checksum mismatch at version %d", g.Version)
		}
	}
	return &Game{Setup: stored.Setup, State: g, Log: log}, nil
}

// RestoreAll restores every stored game and returns the IDs of those that
// were quarantined.
func (e *Engine) RestoreAll(ctx context.Context) ([]string, error) {
	ids, err := e.store.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	var quarantined []string
	for _, id := range ids {
		if err := e.Restore(ctx, id); err != nil {
			if !errors.Is(err, ErrReplayInconsistency) {
				return quarantined, fmt.Errorf("failed to restore game %s: %w", id, err)
			}
			quarantined = append(quarantined, id)
		}
	}
	return quarantined, nil
}

// Quarantined returns the quarantine error of a game, or nil.
func (e *Engine) Quarantined(gameID string) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quarantined
}

// Games lists the loaded game IDs.
func (e *Engine) Games() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Replay returns a replay of a loaded game.
func (e *Engine) Replay(gameID string) (*Replay, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewReplay(gameID, s.game.Setup, s.game.Log.All()), nil
}
