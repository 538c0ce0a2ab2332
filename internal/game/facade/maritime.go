package facade

import (
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// Bank trade ratios.
const (
	ratioResourceHarbor = 2
	ratioGenericHarbor  = 3
	ratioNoHarbor       = 4
)

// MaritimeTradeRatio returns how many cards of kind idx pays per bank card:
// a matching resource harbor wins over a generic harbor, which wins over
// the default.
func MaritimeTradeRatio(g *state.GameState, idx int, kind resources.Kind) int {
	ports := g.Map.PlayerPorts(idx)
	for _, p := range ports {
		if !p.Generic() && p.Resource == kind {
			return ratioResourceHarbor
		}
	}
	for _, p := range ports {
		if p.Generic() {
			return ratioGenericHarbor
		}
	}
	return ratioNoHarbor
}

// CheckMaritimeTrade validates trading ratio cards of give for one get.
func CheckMaritimeTrade(g *state.GameState, idx int, give, get resources.Kind) error {
	if !give.Valid() || !get.Valid() {
		return rules.Reject(rules.ErrInvalidResource, "%q for %q", give, get)
	}
	if give == get {
		return rules.Reject(rules.ErrSameResource, "%s", give)
	}
	if err := requirePhase(g, rules.ActionMaritimeTrade, rules.PhasePlaying); err != nil {
		return err
	}
	if err := requireTurn(g, idx); err != nil {
		return err
	}
	ratio := MaritimeTradeRatio(g, idx, give)
	if g.Players[idx].Resources.Get(give) < ratio {
		return rules.Reject(rules.ErrInsufficientResources, "needs %d %s", ratio, give)
	}
	if g.Bank.Get(get) <= 0 {
		return rules.Reject(rules.ErrBankInsufficient, "bank has no %s", get)
	}
	return nil
}

// CanMaritimeTrade is the boolean form of CheckMaritimeTrade.
func CanMaritimeTrade(g *state.GameState, idx int, give, get resources.Kind) bool {
	return CheckMaritimeTrade(g, idx, give, get) == nil
}

// CanMaritimeTradeAny reports whether idx has any legal bank trade.
func CanMaritimeTradeAny(g *state.GameState, idx int) bool {
	for _, give := range resources.Kinds {
		for _, get := range resources.Kinds {
			if CanMaritimeTrade(g, idx, give, get) {
				return true
			}
		}
	}
	return false
}

// MaritimeTrade pays ratio cards of give into the bank and takes one get.
func MaritimeTrade(g *state.GameState, idx int, give, get resources.Kind) {
	ratio := MaritimeTradeRatio(g, idx, give)
	payToBank(g, idx, resources.Of(give, ratio))
	takeFromBank(g, idx, resources.Of(get, 1))
	g.AddLog(idx, "traded %d %s with the bank for %s", ratio, give, get)
}

// MaritimeSendOptions lists the kinds idx holds enough of to trade away.
func MaritimeSendOptions(g *state.GameState, idx int) []resources.Kind {
	p, ok := g.Player(idx)
	if !ok {
		return nil
	}
	var out []resources.Kind
	for _, k := range resources.Kinds {
		if p.Resources.Get(k) >= MaritimeTradeRatio(g, idx, k) {
			out = append(out, k)
		}
	}
	return out
}

// MaritimeReceiveOptions lists the kinds the bank can hand out in exchange
// for give.
func MaritimeReceiveOptions(g *state.GameState, give resources.Kind) []resources.Kind {
	var out []resources.Kind
	for _, k := range resources.Kinds {
		if k != give && g.Bank.Get(k) > 0 {
			out = append(out, k)
		}
	}
	return out
}
