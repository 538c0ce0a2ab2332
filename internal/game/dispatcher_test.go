package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

func newState(t *testing.T) *state.GameState {
	t.Helper()
	g, err := state.New("dispatch", testSetup())
	require.NoError(t, err)
	return g
}

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"type":"rollNumber","playerIndex":2,"number":8}`))
	require.NoError(t, err)
	roll, ok := a.(*RollNumber)
	require.True(t, ok)
	assert.Equal(t, 2, roll.PlayerIndex)
	assert.Equal(t, 8, roll.Number)

	a, err = DecodeAction([]byte(`{"type":"finishTurn"}`))
	require.NoError(t, err)
	assert.Equal(t, state.NoPlayer, Actor(a), "missing playerIndex is not player 0")

	a, err = DecodeAction([]byte(`{"type":"robPlayer","playerIndex":0,"location":{"x":1,"y":1}}`))
	require.NoError(t, err)
	assert.Equal(t, state.NoPlayer, a.(*RobPlayer).VictimIndex)

	a, err = DecodeAction([]byte(`{"type":"offerTrade","playerIndex":1,"receiver":3,"offer":{"wood":-1,"ore":2}}`))
	require.NoError(t, err)
	assert.Equal(t, resources.Set{Wood: -1, Ore: 2}, a.(*OfferTrade).Offer)
}

func TestDecodeActionRejections(t *testing.T) {
	_, err := DecodeAction([]byte(`{"type":"buildCastle","playerIndex":0}`))
	rej, ok := rules.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, rules.KindIllegalTransition, rej.Kind)
	assert.ErrorIs(t, err, rules.ErrUnknownAction)

	_, err = DecodeAction([]byte(`{"type":"rollNumber","playerIndex":0,"number":"eight"}`))
	assert.ErrorIs(t, err, rules.ErrMalformedAction)

	_, err = DecodeAction([]byte(`not json`))
	assert.ErrorIs(t, err, rules.ErrMalformedAction)
}

func TestNewAction(t *testing.T) {
	a, err := NewAction(rules.ActionMonument, 3)
	require.NoError(t, err)
	assert.IsType(t, &Monument{}, a)
	assert.Equal(t, rules.ActionMonument, ActionType(a))
	assert.Equal(t, 3, Actor(a))

	for _, at := range rules.ActionTypes() {
		_, err := NewAction(at, 0)
		assert.NoError(t, err, "every action type has a handler: %s", at)
	}
}

func TestPhaseGate(t *testing.T) {
	d := NewDispatcher(false)
	g := newState(t)

	err := d.Validate(g, &RollNumber{Base: base(rules.ActionRollNumber, 0)})
	rej, ok := rules.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, rules.KindIllegalTransition, rej.Kind)
	assert.ErrorIs(t, err, rules.ErrWrongPhase)

	err = d.Validate(g, &FinishTurn{Base: base(rules.ActionFinishTurn, 7)})
	assert.ErrorIs(t, err, rules.ErrInvalidPlayer)

	err = d.Validate(g, &FinishTurn{Base: base(rules.ActionRollNumber, 0)})
	assert.ErrorIs(t, err, rules.ErrMalformedAction, "type field must match the variant")
}

func TestRejectionNamesTheAction(t *testing.T) {
	d := NewDispatcher(false)
	g := newState(t)

	err := d.Validate(g, &BuildRoad{Base: base(rules.ActionBuildRoad, 0), RoadLocation: north(0, 0)})
	rej, ok := rules.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, rules.KindPrecondition, rej.Kind)
	assert.Equal(t, rules.ActionBuildRoad, rej.Action)
	assert.ErrorIs(t, err, rules.ErrSetupOrder)
}

func TestExecuteLeavesInputUntouched(t *testing.T) {
	d := NewDispatcher(false)
	g := newState(t)
	before, err := Checksum(g)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next, cmd, err := d.Execute(g, &BuildSettlement{Base: base(rules.ActionBuildSettlement, 0), VertexLocation: nw(0, 0)}, &seqRandom{values: []int{0}}, now)
	require.NoError(t, err)

	after, err := Checksum(g)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Zero(t, g.Version)
	assert.Empty(t, g.Map.Buildings)

	assert.Equal(t, 1, next.Version)
	assert.Len(t, next.Map.Buildings, 1)
	assert.Equal(t, 1, cmd.Seq)
	assert.Equal(t, rules.ActionBuildSettlement, cmd.Type)
	assert.Equal(t, 0, cmd.PlayerIndex)
	assert.Equal(t, now, cmd.CreatedAt)

	a, err := cmd.Action()
	require.NoError(t, err)
	assert.Equal(t, nw(0, 0), a.(*BuildSettlement).VertexLocation)
}

func TestServerRollsUnlessForcedRollsAllowed(t *testing.T) {
	g := newState(t)
	g.Turn.Phase = rules.PhaseRolling

	// 0 and 0 roll snake eyes
	rnd := &seqRandom{values: []int{0, 0}}

	roll := &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 12}
	next, cmd, err := NewDispatcher(false).Execute(g, roll, rnd, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, next.Turn.LastRoll)
	assert.JSONEq(t, `{"type":"rollNumber","playerIndex":0,"number":2}`, string(cmd.Payload))

	roll = &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 12}
	next, _, err = NewDispatcher(true).Execute(g, roll, rnd, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 12, next.Turn.LastRoll)

	roll = &RollNumber{Base: base(rules.ActionRollNumber, 0)}
	next, _, err = NewDispatcher(true).Execute(g, roll, rnd, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, next.Turn.LastRoll)
}

func TestApplyChecksRecordedOutcomes(t *testing.T) {
	d := NewDispatcher(false)
	g := newState(t)
	g.Turn.Phase = rules.PhaseRolling

	unresolved, _ := json.Marshal(&RollNumber{Base: base(rules.ActionRollNumber, 0)})
	err := d.Apply(g, Command{Seq: 1, Type: rules.ActionRollNumber, PlayerIndex: 0, Payload: unresolved})
	assert.ErrorContains(t, err, "never resolved")

	rolled, _ := json.Marshal(&RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 8})
	err = d.Apply(g, Command{Seq: 2, Type: rules.ActionRollNumber, PlayerIndex: 0, Payload: rolled})
	assert.ErrorContains(t, err, "applied at version 0")

	err = d.Apply(g, Command{Seq: 1, Type: rules.ActionRollNumber, PlayerIndex: 1, Payload: rolled})
	assert.ErrorContains(t, err, "does not match payload")

	require.NoError(t, d.Apply(g, Command{Seq: 1, Type: rules.ActionRollNumber, PlayerIndex: 0, Payload: rolled}))
	assert.Equal(t, 1, g.Version)
	assert.Equal(t, rules.PhasePlaying, g.Phase())

	g.Players[0].Resources = resources.Set{Sheep: 1, Wheat: 1, Ore: 1}
	g.Bank = g.Bank.Subtract(g.Players[0].Resources)
	g.DevDeck.Monopoly = 0
	bought, _ := json.Marshal(&BuyDevCard{Base: base(rules.ActionBuyDevCard, 0), Card: state.Monopoly})
	err = d.Apply(g, Command{Seq: 2, Type: rules.ActionBuyDevCard, PlayerIndex: 0, Payload: bought})
	assert.ErrorContains(t, err, "not in the deck")
}

func TestRecordedStealMustFitTheHand(t *testing.T) {
	d := NewDispatcher(false)
	g := newState(t)
	g.Turn.Phase = rules.PhaseRobbing
	g.Map.PlaceSettlement(1, nw(1, 1))
	g.Players[1].Resources = resources.Set{Ore: 1}
	g.Bank = g.Bank.Subtract(g.Players[1].Resources)

	payload, _ := json.Marshal(&RobPlayer{Base: base(rules.ActionRobPlayer, 0), Location: hexAt(1, 1), VictimIndex: 1, Stolen: resources.Wood})
	err := d.Apply(g.Clone(), Command{Seq: 1, Type: rules.ActionRobPlayer, PlayerIndex: 0, Payload: payload})
	assert.ErrorContains(t, err, "does not match")

	payload, _ = json.Marshal(&RobPlayer{Base: base(rules.ActionRobPlayer, 0), Location: hexAt(1, 1), VictimIndex: 1, Stolen: resources.Ore})
	require.NoError(t, d.Apply(g, Command{Seq: 1, Type: rules.ActionRobPlayer, PlayerIndex: 0, Payload: payload}))
	assert.Equal(t, resources.Set{Ore: 1}, g.Players[0].Resources)
}

func TestExecuteResolvesSteal(t *testing.T) {
	d := NewDispatcher(false)
	g := newState(t)
	g.Turn.Phase = rules.PhaseRobbing
	g.Map.PlaceSettlement(1, nw(1, 1))
	g.Players[1].Resources = resources.Set{Wood: 1, Ore: 1}
	g.Bank = g.Bank.Subtract(g.Players[1].Resources)

	rob := &RobPlayer{Base: base(rules.ActionRobPlayer, 0), Location: hexAt(1, 1), VictimIndex: 1, Stolen: resources.Wood}
	next, _, err := d.Execute(g, rob, &seqRandom{values: []int{1}}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, resources.Ore, rob.Stolen, "client supplied outcome is overwritten")
	assert.Equal(t, resources.Set{Ore: 1}, next.Players[0].Resources)
	assert.Equal(t, rules.PhasePlaying, next.Phase())
	requireConserved(t, next)
}

func TestMaritimeTradeRatioIsResolved(t *testing.T) {
	d := NewDispatcher(false)
	g := newState(t)
	g.Turn.Phase = rules.PhasePlaying
	g.Players[0].Resources = resources.Set{Wood: 4}
	g.Bank = g.Bank.Subtract(g.Players[0].Resources)

	wrong := &MaritimeTrade{Base: base(rules.ActionMaritimeTrade, 0), Ratio: 2, InputResource: resources.Wood, OutputResource: resources.Ore}
	assert.ErrorIs(t, d.Validate(g, wrong), rules.ErrRatioMismatch)

	trade := &MaritimeTrade{Base: base(rules.ActionMaritimeTrade, 0), InputResource: resources.Wood, OutputResource: resources.Ore}
	next, cmd, err := d.Execute(g, trade, &seqRandom{values: []int{0}}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, trade.Ratio)
	assert.Contains(t, string(cmd.Payload), `"ratio":4`)
	assert.Equal(t, resources.Set{Ore: 1}, next.Players[0].Resources)
}

func TestRebuildMatchesLiveExecution(t *testing.T) {
	d := NewDispatcher(false)
	g := newState(t)
	rnd := &seqRandom{values: []int{3, 1, 4, 1, 5}}

	var commands []Command
	for _, p := range setupPlacements {
		for _, a := range []Action{
			&BuildSettlement{Base: base(rules.ActionBuildSettlement, p.player), VertexLocation: p.vertex},
			&BuildRoad{Base: base(rules.ActionBuildRoad, p.player), RoadLocation: p.road},
			&FinishTurn{Base: base(rules.ActionFinishTurn, p.player)},
		} {
			next, cmd, err := d.Execute(g, a, rnd, time.Now())
			require.NoError(t, err)
			g = next
			commands = append(commands, cmd)
		}
	}
	next, cmd, err := d.Execute(g, &RollNumber{Base: base(rules.ActionRollNumber, 0)}, rnd, time.Now())
	require.NoError(t, err)
	g = next
	commands = append(commands, cmd)

	rebuilt, err := d.Rebuild("dispatch", testSetup(), commands)
	require.NoError(t, err)

	live, err := Checksum(g)
	require.NoError(t, err)
	replayed, err := Checksum(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, live, replayed)
	assert.Equal(t, len(commands), rebuilt.Version)
}
