package facade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

func TestBuyDevCard(t *testing.T) {
	g := playingGame(t)
	requireReason(t, CheckBuyDevCard(g, 0), rules.ErrInsufficientResources)

	give(g, 0, DevCardCost)
	require.NoError(t, CheckBuyDevCard(g, 0))

	// soldiers fill the first 14 slots of the weighted draw
	card, ok := DrawDevCard(g, &seqRandom{values: []int{14}})
	require.True(t, ok)
	assert.Equal(t, state.Monument, card)

	require.True(t, BuyDevCard(g, 0, card))
	assert.Equal(t, 1, g.Players[0].NewDevCards.Monument)
	assert.Equal(t, 24, g.DevDeck.Total())
	assert.Zero(t, g.Players[0].HandSize())
	requireConserved(t, g)
}

func TestBuyDevCardRejectsMissingCard(t *testing.T) {
	g := playingGame(t)
	give(g, 0, DevCardCost)
	g.DevDeck.Monopoly = 0

	assert.False(t, BuyDevCard(g, 0, state.Monopoly))
	assert.Equal(t, DevCardCost, g.Players[0].Resources, "state untouched")

	g.DevDeck = state.DevCards{}
	requireReason(t, CheckBuyDevCard(g, 0), rules.ErrDevCardDeckEmpty)
	_, ok := DrawDevCard(g, &seqRandom{values: []int{0}})
	assert.False(t, ok)
}

func TestCardsBoughtThisTurnWait(t *testing.T) {
	g := playingGame(t)
	g.Players[0].NewDevCards.Add(state.Monopoly, 1)
	requireReason(t, CheckPlayDevCard(g, 0, state.Monopoly), rules.ErrNoDevCard)

	FinishTurn(g, 0)
	g.Turn.CurrentPlayer = 0
	g.Turn.Phase = rules.PhasePlaying
	require.NoError(t, CheckPlayDevCard(g, 0, state.Monopoly))
}

func TestOneDevCardPerTurn(t *testing.T) {
	g := playingGame(t)
	g.Players[0].OldDevCards = state.DevCards{Monopoly: 1, YearOfPlenty: 1, Monument: 1}

	require.NoError(t, CheckMonopoly(g, 0, resources.Ore))
	PlayMonopoly(g, 0, resources.Ore)
	requireReason(t, CheckYearOfPlenty(g, 0, resources.Ore, resources.Wood), rules.ErrDevCardPlayed)

	// monuments are not limited
	require.NoError(t, CheckPlayDevCard(g, 0, state.Monument))
}

func TestPlayMonumentRevealsAll(t *testing.T) {
	g := playingGame(t)
	requireReason(t, CheckPlayDevCard(g, 0, state.Monument), rules.ErrNoDevCard)

	g.Players[0].OldDevCards.Monument = 1
	g.Players[0].NewDevCards.Monument = 1
	require.NoError(t, CheckPlayDevCard(g, 0, state.Monument))

	PlayMonument(g, 0)
	assert.Equal(t, 2, g.Players[0].Monuments)
	assert.Equal(t, 2, g.VictoryPoints(0))
	assert.Zero(t, g.Players[0].HeldDevCards())
	assert.False(t, g.Players[0].PlayedDevCard)
}

func TestPlaySoldier(t *testing.T) {
	g := playingGame(t)
	g.Turn.Phase = rules.PhaseRolling
	g.Players[0].OldDevCards.Soldier = 3
	g.Players[0].Soldiers = 2
	g.Map.PlaceSettlement(1, vertex(1, 1, board.VNW))
	give(g, 1, resources.Set{Sheep: 1})

	requireReason(t, CheckSoldier(g, 0, g.Map.Robber, 1), rules.ErrRobberNotMoved)
	require.NoError(t, CheckSoldier(g, 0, hex(1, 1), 1))

	assert.True(t, PlaySoldier(g, 0, hex(1, 1), 1, resources.Sheep))
	assert.Equal(t, rules.PhaseRolling, g.Phase(), "soldier keeps the phase")
	assert.Equal(t, resources.Set{Sheep: 1}, g.Players[0].Resources)
	assert.Equal(t, 3, g.Players[0].Soldiers)
	assert.Equal(t, 0, g.LargestArmy)
	assert.Equal(t, 2, g.Players[0].OldDevCards.Soldier)
	assert.True(t, g.Players[0].PlayedDevCard)
	requireConserved(t, g)
}

func TestPlayMonopoly(t *testing.T) {
	g := playingGame(t)
	g.Players[0].OldDevCards.Monopoly = 1
	give(g, 1, resources.Set{Ore: 2, Wood: 1})
	give(g, 3, resources.Set{Ore: 1})

	requireReason(t, CheckMonopoly(g, 0, resources.Kind("gold")), rules.ErrInvalidResource)
	assert.Equal(t, 3, PlayMonopoly(g, 0, resources.Ore))
	assert.Equal(t, resources.Set{Ore: 3}, g.Players[0].Resources)
	assert.Equal(t, resources.Set{Wood: 1}, g.Players[1].Resources)
	requireConserved(t, g)
}

func TestPlayYearOfPlenty(t *testing.T) {
	g := playingGame(t)
	g.Players[0].OldDevCards.YearOfPlenty = 1
	give(g, 2, resources.Set{Brick: resources.PerKindInGame - 1})

	requireReason(t, CheckYearOfPlenty(g, 0, resources.Brick, resources.Brick), rules.ErrBankInsufficient)
	require.NoError(t, CheckYearOfPlenty(g, 0, resources.Brick, resources.Wheat))

	PlayYearOfPlenty(g, 0, resources.Brick, resources.Wheat)
	assert.Equal(t, resources.Set{Brick: 1, Wheat: 1}, g.Players[0].Resources)
	requireConserved(t, g)
}

func TestPlayRoadBuilding(t *testing.T) {
	g := playingGame(t)
	g.Players[0].OldDevCards.RoadBuilding = 1
	g.Map.PlaceSettlement(0, vertex(0, 0, board.VNW))

	first := edge(0, 0, board.N)
	second := edge(0, 0, board.NE)
	detached := edge(1, 1, board.N)

	requireReason(t, CheckRoadBuilding(g, 0, detached, nil), rules.ErrNotConnected)
	requireReason(t, CheckRoadBuilding(g, 0, first, &first), rules.ErrOccupied)
	requireReason(t, CheckRoadBuilding(g, 0, first, &detached), rules.ErrNotConnected)
	// the second road may connect through the first, in either order
	require.NoError(t, CheckRoadBuilding(g, 0, first, &second))
	require.NoError(t, CheckRoadBuilding(g, 0, second, &first))

	PlayRoadBuilding(g, 0, first, &second)
	assert.Equal(t, 2, g.Map.CountRoads(0))
	assert.Zero(t, g.Players[0].HandSize(), "roads are free")
	assert.Zero(t, g.Players[0].OldDevCards.RoadBuilding)
}

func TestRoadBuildingNeedsPieces(t *testing.T) {
	g := playingGame(t)
	g.Players[0].OldDevCards.RoadBuilding = 1
	g.Map.PlaceSettlement(0, vertex(0, 0, board.VNW))
	for i := 0; i < board.MaxRoads-1; i++ {
		g.Map.Roads = append(g.Map.Roads, board.Road{Owner: 0, Location: edge(-2, 2, board.N)})
	}
	second := edge(0, 0, board.NE)
	requireReason(t, CheckRoadBuilding(g, 0, edge(0, 0, board.N), &second), rules.ErrNoPieces)
	require.NoError(t, CheckRoadBuilding(g, 0, edge(0, 0, board.N), nil))
}
