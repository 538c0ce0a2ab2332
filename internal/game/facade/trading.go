package facade

import (
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// CheckOfferTrade validates a domestic offer. With receiver NoPlayer and a
// nil offer it answers whether sender may offer a trade at all.
func CheckOfferTrade(g *state.GameState, sender, receiver int, offer *resources.Set) error {
	if g.TradeOffer != nil {
		return rules.Reject(rules.ErrTradePending, "")
	}
	if err := requirePhase(g, rules.ActionOfferTrade, rules.PhasePlaying); err != nil {
		return err
	}
	if err := requireTurn(g, sender); err != nil {
		return err
	}
	if receiver != state.NoPlayer {
		if _, ok := g.Player(receiver); !ok {
			return rules.Reject(rules.ErrInvalidPlayer, "receiver %d", receiver)
		}
		if receiver == sender {
			return rules.Reject(rules.ErrSelfTrade, "")
		}
	}
	if offer == nil {
		return nil
	}
	if !offer.Within(resources.PerKindInGame) {
		return rules.Reject(rules.ErrInvalidOffer, "offer %s exceeds %d of a kind", offer, resources.PerKindInGame)
	}
	if !offer.HasNegative() || !offer.HasPositive() {
		return rules.Reject(rules.ErrInvalidOffer, "offer %s", offer)
	}
	if !offer.Outgoing().IsSubset(g.Players[sender].Resources) {
		return rules.Reject(rules.ErrInsufficientResources, "sender cannot give %s", offer.Outgoing())
	}
	return nil
}

// CanOfferTrade is the boolean form of CheckOfferTrade.
func CanOfferTrade(g *state.GameState, sender, receiver int, offer *resources.Set) bool {
	return CheckOfferTrade(g, sender, receiver, offer) == nil
}

// OfferTrade records the pending offer.
func OfferTrade(g *state.GameState, sender, receiver int, offer resources.Set) {
	g.TradeOffer = &state.TradeOffer{Sender: sender, Receiver: receiver, Offer: offer}
	g.AddLog(sender, "offered a trade to %s", g.Players[receiver].Name)
}

// CheckRespondToTradeOffer validates the receiver's answer. Accepting needs
// the receiver to hold what the sender asked for, and the sender to still
// hold what was offered.
func CheckRespondToTradeOffer(g *state.GameState, receiver int, accept bool) error {
	offer := g.TradeOffer
	if offer == nil {
		return rules.Reject(rules.ErrNoTradePending, "")
	}
	if offer.Receiver != receiver {
		return rules.Reject(rules.ErrNotReceiver, "offer is for player %d", offer.Receiver)
	}
	if !accept {
		return nil
	}
	if !offer.Offer.Positive().IsSubset(g.Players[receiver].Resources) {
		return rules.Reject(rules.ErrInsufficientResources, "receiver cannot give %s", offer.Offer.Positive())
	}
	if !offer.Offer.Outgoing().IsSubset(g.Players[offer.Sender].Resources) {
		return rules.Reject(rules.ErrInsufficientResources, "sender can no longer give %s", offer.Offer.Outgoing())
	}
	return nil
}

// CanRespondToTradeOffer is the boolean form of CheckRespondToTradeOffer.
func CanRespondToTradeOffer(g *state.GameState, receiver int, accept bool) bool {
	return CheckRespondToTradeOffer(g, receiver, accept) == nil
}

// RespondToTradeOffer clears the offer and, on accept, swaps both sides.
func RespondToTradeOffer(g *state.GameState, receiver int, accept bool) {
	offer := g.TradeOffer
	g.TradeOffer = nil
	if !accept {
		g.AddLog(receiver, "declined the trade")
		return
	}
	// positive counts go receiver -> sender, negative counts sender -> receiver
	transfer(g, receiver, offer.Sender, offer.Offer.Positive())
	transfer(g, offer.Sender, receiver, offer.Offer.Outgoing())
	g.AddLog(receiver, "accepted the trade")
}

// CheckCancelTrade validates the sender withdrawing the offer.
func CheckCancelTrade(g *state.GameState, sender int) error {
	if g.TradeOffer == nil {
		return rules.Reject(rules.ErrNoTradePending, "")
	}
	if g.TradeOffer.Sender != sender {
		return rules.Reject(rules.ErrNotYourTurn, "only the sender may cancel")
	}
	return nil
}

// CancelTrade drops the pending offer.
func CancelTrade(g *state.GameState, sender int) {
	g.TradeOffer = nil
	g.AddLog(sender, "withdrew the trade offer")
}
