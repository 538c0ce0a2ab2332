package facade

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

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

func newGame(t *testing.T) *state.GameState {
	t.Helper()
	g, err := state.New("test-game", state.Setup{Players: []state.PlayerSetup{
		{Name: "Sam", Color: "red"},
		{Name: "Brooke", Color: "blue"},
		{Name: "Pete", Color: "green"},
		{Name: "Mark", Color: "orange"},
	}})
	require.NoError(t, err)
	return g
}

// playingGame returns a game past setup with player 0 in the Playing phase.
func playingGame(t *testing.T) *state.GameState {
	g := newGame(t)
	g.Turn.Phase = rules.PhasePlaying
	return g
}

// give moves cards from the bank to a hand so totals stay conserved.
func give(g *state.GameState, idx int, set resources.Set) {
	takeFromBank(g, idx, set)
}

func hex(x, y int) board.HexLocation {
	return board.HexLocation{X: x, Y: y}
}

func vertex(x, y int, d board.VertexDirection) board.VertexLocation {
	return board.VertexLocation{Hex: hex(x, y), Dir: d}
}

func edge(x, y int, d board.EdgeDirection) board.EdgeLocation {
	return board.EdgeLocation{Hex: hex(x, y), Dir: d}
}

func requireReason(t *testing.T, err error, reason *rules.Reason) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, reason)
}

func requireConserved(t *testing.T, g *state.GameState) {
	t.Helper()
	require.Equal(t, resources.Full(), g.ResourceTotal())
}
