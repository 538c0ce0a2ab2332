// Package facade holds the rule validators and their effects. Every function
// takes the game state explicitly; validators never mutate it, and effects
// assume the matching validator accepted.
package facade

import (
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// Random is the source of dice rolls, steals and card draws. *rand.Rand
// satisfies it.
type Random interface {
	Intn(n int) int
}

// Build costs.
var (
	RoadCost       = resources.Set{Wood: 1, Brick: 1}
	SettlementCost = resources.Set{Wood: 1, Brick: 1, Sheep: 1, Wheat: 1}
	CityCost       = resources.Set{Wheat: 2, Ore: 3}
	DevCardCost    = resources.Set{Sheep: 1, Wheat: 1, Ore: 1}
)

func requireTurn(g *state.GameState, idx int) error {
	if _, ok := g.Player(idx); !ok {
		return rules.Reject(rules.ErrInvalidPlayer, "player %d", idx)
	}
	if !g.IsTurn(idx) {
		return rules.Reject(rules.ErrNotYourTurn, "current player is %d", g.Turn.CurrentPlayer)
	}
	return nil
}

func requirePhase(g *state.GameState, action rules.ActionType, phases ...rules.Phase) error {
	for _, p := range phases {
		if g.Phase() == p {
			return nil
		}
	}
	return rules.Illegal(action, g.Phase())
}

func requireAffordable(p *state.Player, cost resources.Set) error {
	if !cost.IsSubset(p.Resources) {
		return rules.Reject(rules.ErrInsufficientResources, "needs %s, has %s", cost, p.Resources)
	}
	return nil
}

// payToBank moves cost from a hand to the bank.
func payToBank(g *state.GameState, idx int, cost resources.Set) {
	p := g.Players[idx]
	p.Resources = p.Resources.Subtract(cost)
	g.Bank = g.Bank.Combine(cost)
}

// takeFromBank moves set from the bank into a hand.
func takeFromBank(g *state.GameState, idx int, set resources.Set) {
	p := g.Players[idx]
	p.Resources = p.Resources.Combine(set)
	g.Bank = g.Bank.Subtract(set)
}

// transfer moves set from one hand to another.
func transfer(g *state.GameState, from, to int, set resources.Set) {
	g.Players[from].Resources = g.Players[from].Resources.Subtract(set)
	g.Players[to].Resources = g.Players[to].Resources.Combine(set)
}

// pickWeighted draws an index with probability proportional to its count.
func pickWeighted(rnd Random, counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total <= 0 {
		return -1
	}
	n := rnd.Intn(total)
	for i, c := range counts {
		if n < c {
			return i
		}
		n -= c
	}
	return -1
}
