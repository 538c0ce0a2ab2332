package facade

import (
	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

var cardActions = map[state.DevCardType]rules.ActionType{
	state.Soldier:      rules.ActionSoldier,
	state.Monument:     rules.ActionMonument,
	state.RoadBuilding: rules.ActionRoadBuilding,
	state.Monopoly:     rules.ActionMonopoly,
	state.YearOfPlenty: rules.ActionYearOfPlenty,
}

// CheckPlayDevCard validates that idx may play a card of type t now.
// Monuments may be revealed any time on the player's turn, including the
// turn they were bought; every other card must predate this turn and only
// one may be played per turn.
func CheckPlayDevCard(g *state.GameState, idx int, t state.DevCardType) error {
	phases := []rules.Phase{rules.PhasePlaying}
	if t == state.Soldier {
		phases = append(phases, rules.PhaseRolling)
	}
	if err := requirePhase(g, cardActions[t], phases...); err != nil {
		return err
	}
	if err := requireTurn(g, idx); err != nil {
		return err
	}
	p := g.Players[idx]
	if t == state.Monument {
		if p.OldDevCards.Monument+p.NewDevCards.Monument == 0 {
			return rules.Reject(rules.ErrNoDevCard, "%s", t)
		}
		return nil
	}
	if p.PlayedDevCard {
		return rules.Reject(rules.ErrDevCardPlayed, "")
	}
	if p.OldDevCards.Get(t) == 0 {
		return rules.Reject(rules.ErrNoDevCard, "%s", t)
	}
	return nil
}

// CanPlayDevCard is the boolean form of CheckPlayDevCard.
func CanPlayDevCard(g *state.GameState, idx int, t state.DevCardType) bool {
	return CheckPlayDevCard(g, idx, t) == nil
}

func consumeCard(g *state.GameState, idx int, t state.DevCardType) {
	p := g.Players[idx]
	p.OldDevCards.Add(t, -1)
	p.PlayedDevCard = true
}

// CheckBuyDevCard validates buying a card.
func CheckBuyDevCard(g *state.GameState, idx int) error {
	if err := requirePhase(g, rules.ActionBuyDevCard, rules.PhasePlaying); err != nil {
		return err
	}
	if err := requireTurn(g, idx); err != nil {
		return err
	}
	if g.DevDeck.Total() == 0 {
		return rules.Reject(rules.ErrDevCardDeckEmpty, "")
	}
	return requireAffordable(g.Players[idx], DevCardCost)
}

// DrawDevCard picks a card from the deck, weighted by what is left.
func DrawDevCard(g *state.GameState, rnd Random) (state.DevCardType, bool) {
	counts := make([]int, len(state.DevCardTypes))
	for i, t := range state.DevCardTypes {
		counts[i] = g.DevDeck.Get(t)
	}
	i := pickWeighted(rnd, counts)
	if i < 0 {
		return "", false
	}
	return state.DevCardTypes[i], true
}

// BuyDevCard pays for and takes card from the deck. It returns false, leaving
// the state untouched, if the deck holds no such card.
func BuyDevCard(g *state.GameState, idx int, card state.DevCardType) bool {
	if !card.Valid() || g.DevDeck.Get(card) == 0 {
		return false
	}
	payToBank(g, idx, DevCardCost)
	g.DevDeck.Add(card, -1)
	g.Players[idx].NewDevCards.Add(card, 1)
	g.AddLog(idx, "bought a development card")
	return true
}

// CheckSoldier validates playing a soldier: the card, the robber move and
// the victim index.
func CheckSoldier(g *state.GameState, idx int, loc board.HexLocation, victim int) error {
	if err := CheckPlayDevCard(g, idx, state.Soldier); err != nil {
		return err
	}
	if err := CheckMoveRobber(g, loc); err != nil {
		return err
	}
	return checkVictim(g, loc, victim, idx)
}

// PlaySoldier moves the robber, robs if possible and grows the army. The
// phase is unchanged. It returns whether a card changed hands.
func PlaySoldier(g *state.GameState, idx int, loc board.HexLocation, victim int, stolen resources.Kind) bool {
	consumeCard(g, idx, state.Soldier)
	g.Players[idx].Soldiers++
	g.AddLog(idx, "played a soldier")

	MoveRobber(g, loc)
	robbed := false
	if victim != state.NoPlayer && CanStealFrom(g, victim, idx) {
		robbed = StealKind(g, victim, idx, stolen)
	}
	UpdateLargestArmy(g, idx)
	return robbed
}

// PlayMonument reveals every monument card the player holds.
func PlayMonument(g *state.GameState, idx int) {
	p := g.Players[idx]
	n := p.OldDevCards.Monument + p.NewDevCards.Monument
	p.OldDevCards.Monument = 0
	p.NewDevCards.Monument = 0
	p.Monuments += n
	g.AddLog(idx, "revealed %d monument(s)", n)
}

// CheckRoadBuilding validates placing one or two free roads. The second
// road may connect through the first.
func CheckRoadBuilding(g *state.GameState, idx int, first board.EdgeLocation, second *board.EdgeLocation) error {
	if err := CheckPlayDevCard(g, idx, state.RoadBuilding); err != nil {
		return err
	}
	need := 1
	if second != nil {
		need = 2
	}
	if board.MaxRoads-g.Map.CountRoads(idx) < need {
		return rules.Reject(rules.ErrNoPieces, "needs %d roads", need)
	}
	if err := checkRoadSpot(g, idx, first); err != nil {
		return err
	}
	if second == nil {
		if !g.Map.RoadConnects(idx, first) {
			return rules.Reject(rules.ErrNotConnected, "edge %s", first)
		}
		return nil
	}
	if err := checkRoadSpot(g, idx, *second); err != nil {
		return err
	}
	if first.Equal(*second) {
		return rules.Reject(rules.ErrOccupied, "both roads on %s", first)
	}
	// either order works as long as the pair hangs off the network
	if g.Map.RoadConnects(idx, first) && g.Map.RoadConnects(idx, *second, first) {
		return nil
	}
	if g.Map.RoadConnects(idx, *second) && g.Map.RoadConnects(idx, first, *second) {
		return nil
	}
	return rules.Reject(rules.ErrNotConnected, "edges %s and %s", first, *second)
}

// PlayRoadBuilding places the free roads.
func PlayRoadBuilding(g *state.GameState, idx int, first board.EdgeLocation, second *board.EdgeLocation) {
	consumeCard(g, idx, state.RoadBuilding)
	g.Map.PlaceRoad(idx, first)
	if second != nil {
		g.Map.PlaceRoad(idx, *second)
	}
	g.AddLog(idx, "used road building")
	UpdateLongestRoad(g)
}

// CheckMonopoly validates naming a resource for monopoly.
func CheckMonopoly(g *state.GameState, idx int, kind resources.Kind) error {
	if err := CheckPlayDevCard(g, idx, state.Monopoly); err != nil {
		return err
	}
	if !kind.Valid() {
		return rules.Reject(rules.ErrInvalidResource, "%q", kind)
	}
	return nil
}

// PlayMonopoly takes every card of kind from the other players.
func PlayMonopoly(g *state.GameState, idx int, kind resources.Kind) int {
	consumeCard(g, idx, state.Monopoly)
	taken := 0
	for _, p := range g.Players {
		if p.Index == idx {
			continue
		}
		if n := p.Resources.Get(kind); n > 0 {
			transfer(g, p.Index, idx, resources.Of(kind, n))
			taken += n
		}
	}
	g.AddLog(idx, "played monopoly on %s and took %d", kind, taken)
	return taken
}

// CheckYearOfPlenty validates taking two cards from the bank.
func CheckYearOfPlenty(g *state.GameState, idx int, first, second resources.Kind) error {
	if err := CheckPlayDevCard(g, idx, state.YearOfPlenty); err != nil {
		return err
	}
	if !first.Valid() || !second.Valid() {
		return rules.Reject(rules.ErrInvalidResource, "%q and %q", first, second)
	}
	want := resources.Of(first, 1).Combine(resources.Of(second, 1))
	if !want.IsSubset(g.Bank) {
		return rules.Reject(rules.ErrBankInsufficient, "bank cannot give %s", want)
	}
	return nil
}

// PlayYearOfPlenty takes the two cards.
func PlayYearOfPlenty(g *state.GameState, idx int, first, second resources.Kind) {
	consumeCard(g, idx, state.YearOfPlenty)
	takeFromBank(g, idx, resources.Of(first, 1).Combine(resources.Of(second, 1)))
	g.AddLog(idx, "played year of plenty")
}
