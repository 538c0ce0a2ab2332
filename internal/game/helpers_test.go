package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

func testSetup() state.Setup {
	return state.Setup{Players: []state.PlayerSetup{
		{Name: "Sam", Color: "red"},
		{Name: "Brooke", Color: "blue"},
		{Name: "Pete", Color: "green"},
		{Name: "Mark", Color: "orange"},
	}}
}

func newTestEngine(t *testing.T, store Store, opts Options) *Engine {
	t.Helper()
	if store == nil {
		store = NewMemoryStore()
	}
	if opts.RandomSeed == 0 {
		opts.RandomSeed = 42
	}
	return NewEngine(zaptest.NewLogger(t), store, opts)
}

func createGame(t *testing.T, e *Engine) string {
	t.Helper()
	g, err := e.CreateGame(context.Background(), testSetup())
	require.NoError(t, err)
	return g.ID
}

func hexAt(x, y int) board.HexLocation {
	return board.HexLocation{X: x, Y: y}
}

func nw(x, y int) board.VertexLocation {
	return board.VertexLocation{Hex: hexAt(x, y), Dir: board.VNW}
}

func north(x, y int) board.EdgeLocation {
	return board.EdgeLocation{Hex: hexAt(x, y), Dir: board.N}
}

func base(t rules.ActionType, player int) Base {
	return Base{Type: t, PlayerIndex: player}
}

func submit(t *testing.T, e *Engine, id string, a Action) *state.GameState {
	t.Helper()
	g, err := e.Submit(context.Background(), id, a)
	require.NoError(t, err)
	return g
}

// setupPlacements is a legal snake-order setup on the default board.
var setupPlacements = []struct {
	player int
	vertex board.VertexLocation
	road   board.EdgeLocation
}{
	{0, nw(0, 0), north(0, 0)},
	{1, nw(2, -2), north(2, -2)},
	{2, nw(-2, 2), north(-2, 2)},
	{3, nw(0, 2), north(0, 2)},
	{3, nw(2, 0), north(2, 0)},
	{2, nw(-2, 0), north(-2, 0)},
	{1, nw(0, -2), north(0, -2)},
	{0, nw(1, 1), north(1, 1)},
}

// playSetup runs both setup rounds and leaves player 0 rolling.
func playSetup(t *testing.T, e *Engine, id string) *state.GameState {
	t.Helper()
	var g *state.GameState
	for _, p := range setupPlacements {
		submit(t, e, id, &BuildSettlement{Base: base(rules.ActionBuildSettlement, p.player), VertexLocation: p.vertex})
		submit(t, e, id, &BuildRoad{Base: base(rules.ActionBuildRoad, p.player), RoadLocation: p.road})
		g = submit(t, e, id, &FinishTurn{Base: base(rules.ActionFinishTurn, p.player)})
	}
	require.Equal(t, rules.PhaseRolling, g.Phase())
	require.Equal(t, 0, g.Turn.CurrentPlayer)
	return g
}

func requireConserved(t *testing.T, g *state.GameState) {
	t.Helper()
	require.Equal(t, resources.Full(), g.ResourceTotal())
}

// failingStore wraps a store and fails commits on demand.
type failingStore struct {
	Store
	mu   sync.Mutex
	fail bool
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *failingStore) Commit(ctx context.Context, gameID string, cmd Command, model *state.GameState, checksum string) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return s.Store.Commit(ctx, gameID, cmd, model, checksum)
}

// seqRandom replays fixed values, each reduced modulo n.
type seqRandom struct {
	values []int
	next   int
}

func (s *seqRandom) Intn(n int) int {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}
