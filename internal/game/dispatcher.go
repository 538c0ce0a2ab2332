package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/facade"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// handler is one row of the dispatch table. validate never mutates; resolve
// fills random outcomes into the action on live submissions only; apply
// mutates the private clone and fails if recorded outcomes do not fit the
// state, which can only happen on replay.
type handler struct {
	new      func() Action
	accepts  func(a Action) bool
	validate func(g *state.GameState, a Action) error
	resolve  func(g *state.GameState, a Action, r resolver)
	apply    func(g *state.GameState, a Action) error
}

type resolver struct {
	rnd              facade.Random
	allowForcedRolls bool
}

func on[A Action](newA func() A, validate func(*state.GameState, A) error, apply func(*state.GameState, A) error) handler {
	return handler{
		new: func() Action { return newA() },
		accepts: func(a Action) bool {
			_, ok := a.(A)
			return ok
		},
		validate: func(g *state.GameState, a Action) error { return validate(g, a.(A)) },
		apply:    func(g *state.GameState, a Action) error { return apply(g, a.(A)) },
	}
}

func (h handler) withResolve(fn func(g *state.GameState, a Action, r resolver)) handler {
	h.resolve = fn
	return h
}

var handlers = map[rules.ActionType]handler{
	rules.ActionSendChat: on(
		func() *SendChat { return &SendChat{} },
		func(g *state.GameState, a *SendChat) error { return facade.CheckSendChat(g, a.PlayerIndex, a.Content) },
		func(g *state.GameState, a *SendChat) error {
			facade.SendChat(g, a.PlayerIndex, a.Content)
			return nil
		},
	),
	rules.ActionRollNumber: on(
		func() *RollNumber { return &RollNumber{} },
		func(g *state.GameState, a *RollNumber) error { return facade.CheckRollNumber(g, a.PlayerIndex, a.Number) },
		func(g *state.GameState, a *RollNumber) error {
			if a.Number < 2 || a.Number > 12 {
				return fmt.Errorf("roll %d was never resolved", a.Number)
			}
			facade.RollNumber(g, a.PlayerIndex, a.Number)
			return nil
		},
	).withResolve(func(g *state.GameState, a Action, r resolver) {
		roll := a.(*RollNumber)
		if roll.Number == 0 || !r.allowForcedRolls {
			roll.Number = facade.RollDice(r.rnd)
		}
	}),
	rules.ActionDiscardCards: on(
		func() *DiscardCards { return &DiscardCards{} },
		func(g *state.GameState, a *DiscardCards) error {
			return facade.CheckDiscardCards(g, a.PlayerIndex, a.DiscardedCards)
		},
		func(g *state.GameState, a *DiscardCards) error {
			facade.DiscardCards(g, a.PlayerIndex, a.DiscardedCards)
			return nil
		},
	),
	rules.ActionRobPlayer: on(
		func() *RobPlayer { return &RobPlayer{VictimIndex: state.NoPlayer} },
		func(g *state.GameState, a *RobPlayer) error {
			return facade.CheckRobPlayer(g, a.PlayerIndex, a.Location, a.VictimIndex)
		},
		func(g *state.GameState, a *RobPlayer) error {
			want := a.VictimIndex != state.NoPlayer && facade.CanStealFromAt(g, a.Location, a.VictimIndex, a.PlayerIndex)
			robbed := facade.RobPlayer(g, a.PlayerIndex, a.Location, a.VictimIndex, a.Stolen)
			return checkSteal(want, robbed, a.Stolen)
		},
	).withResolve(func(g *state.GameState, a Action, r resolver) {
		rob := a.(*RobPlayer)
		rob.Stolen = pickStolen(g, rob.Location, rob.VictimIndex, rob.PlayerIndex, r.rnd)
	}),
	rules.ActionFinishTurn: on(
		func() *FinishTurn { return &FinishTurn{} },
		func(g *state.GameState, a *FinishTurn) error { return facade.CheckFinishTurn(g, a.PlayerIndex) },
		func(g *state.GameState, a *FinishTurn) error {
			facade.FinishTurn(g, a.PlayerIndex)
			return nil
		},
	),
	rules.ActionBuyDevCard: on(
		func() *BuyDevCard { return &BuyDevCard{} },
		func(g *state.GameState, a *BuyDevCard) error { return facade.CheckBuyDevCard(g, a.PlayerIndex) },
		func(g *state.GameState, a *BuyDevCard) error {
			if !facade.BuyDevCard(g, a.PlayerIndex, a.Card) {
				return fmt.Errorf("drawn card %q is not in the deck", a.Card)
			}
			return nil
		},
	).withResolve(func(g *state.GameState, a Action, r resolver) {
		buy := a.(*BuyDevCard)
		buy.Card, _ = facade.DrawDevCard(g, r.rnd)
	}),
	rules.ActionSoldier: on(
		func() *Soldier { return &Soldier{VictimIndex: state.NoPlayer} },
		func(g *state.GameState, a *Soldier) error {
			return facade.CheckSoldier(g, a.PlayerIndex, a.Location, a.VictimIndex)
		},
		func(g *state.GameState, a *Soldier) error {
			want := a.VictimIndex != state.NoPlayer && facade.CanStealFromAt(g, a.Location, a.VictimIndex, a.PlayerIndex)
			robbed := facade.PlaySoldier(g, a.PlayerIndex, a.Location, a.VictimIndex, a.Stolen)
			return checkSteal(want, robbed, a.Stolen)
		},
	).withResolve(func(g *state.GameState, a Action, r resolver) {
		s := a.(*Soldier)
		s.Stolen = pickStolen(g, s.Location, s.VictimIndex, s.PlayerIndex, r.rnd)
	}),
	rules.ActionMonument: on(
		func() *Monument { return &Monument{} },
		func(g *state.GameState, a *Monument) error {
			return facade.CheckPlayDevCard(g, a.PlayerIndex, state.Monument)
		},
		func(g *state.GameState, a *Monument) error {
			facade.PlayMonument(g, a.PlayerIndex)
			return nil
		},
	),
	rules.ActionRoadBuilding: on(
		func() *RoadBuilding { return &RoadBuilding{} },
		func(g *state.GameState, a *RoadBuilding) error {
			return facade.CheckRoadBuilding(g, a.PlayerIndex, a.Spot1, a.Spot2)
		},
		func(g *state.GameState, a *RoadBuilding) error {
			facade.PlayRoadBuilding(g, a.PlayerIndex, a.Spot1, a.Spot2)
			return nil
		},
	),
	rules.ActionMonopoly: on(
		func() *Monopoly { return &Monopoly{} },
		func(g *state.GameState, a *Monopoly) error { return facade.CheckMonopoly(g, a.PlayerIndex, a.Resource) },
		func(g *state.GameState, a *Monopoly) error {
			facade.PlayMonopoly(g, a.PlayerIndex, a.Resource)
			return nil
		},
	),
	rules.ActionYearOfPlenty: on(
		func() *YearOfPlenty { return &YearOfPlenty{} },
		func(g *state.GameState, a *YearOfPlenty) error {
			return facade.CheckYearOfPlenty(g, a.PlayerIndex, a.Resource1, a.Resource2)
		},
		func(g *state.GameState, a *YearOfPlenty) error {
			facade.PlayYearOfPlenty(g, a.PlayerIndex, a.Resource1, a.Resource2)
			return nil
		},
	),
	rules.ActionBuildRoad: on(
		func() *BuildRoad { return &BuildRoad{} },
		func(g *state.GameState, a *BuildRoad) error { return facade.CheckBuildRoad(g, a.PlayerIndex, a.RoadLocation) },
		func(g *state.GameState, a *BuildRoad) error {
			facade.BuildRoad(g, a.PlayerIndex, a.RoadLocation)
			return nil
		},
	),
	rules.ActionBuildSettlement: on(
		func() *BuildSettlement { return &BuildSettlement{} },
		func(g *state.GameState, a *BuildSettlement) error {
			return facade.CheckBuildSettlement(g, a.PlayerIndex, a.VertexLocation)
		},
		func(g *state.GameState, a *BuildSettlement) error {
			facade.BuildSettlement(g, a.PlayerIndex, a.VertexLocation)
			return nil
		},
	),
	rules.ActionBuildCity: on(
		func() *BuildCity { return &BuildCity{} },
		func(g *state.GameState, a *BuildCity) error {
			return facade.CheckBuildCity(g, a.PlayerIndex, a.VertexLocation)
		},
		func(g *state.GameState, a *BuildCity) error {
			facade.BuildCity(g, a.PlayerIndex, a.VertexLocation)
			return nil
		},
	),
	rules.ActionOfferTrade: on(
		func() *OfferTrade { return &OfferTrade{Receiver: state.NoPlayer} },
		func(g *state.GameState, a *OfferTrade) error {
			if a.Receiver == state.NoPlayer {
				return rules.Reject(rules.ErrInvalidPlayer, "an offer needs a receiver")
			}
			return facade.CheckOfferTrade(g, a.PlayerIndex, a.Receiver, &a.Offer)
		},
		func(g *state.GameState, a *OfferTrade) error {
			facade.OfferTrade(g, a.PlayerIndex, a.Receiver, a.Offer)
			return nil
		},
	),
	rules.ActionAcceptTrade: on(
		func() *AcceptTrade { return &AcceptTrade{} },
		func(g *state.GameState, a *AcceptTrade) error {
			return facade.CheckRespondToTradeOffer(g, a.PlayerIndex, a.WillAccept)
		},
		func(g *state.GameState, a *AcceptTrade) error {
			facade.RespondToTradeOffer(g, a.PlayerIndex, a.WillAccept)
			return nil
		},
	),
	rules.ActionCancelTrade: on(
		func() *CancelTrade { return &CancelTrade{} },
		func(g *state.GameState, a *CancelTrade) error { return facade.CheckCancelTrade(g, a.PlayerIndex) },
		func(g *state.GameState, a *CancelTrade) error {
			facade.CancelTrade(g, a.PlayerIndex)
			return nil
		},
	),
	rules.ActionMaritimeTrade: on(
		func() *MaritimeTrade { return &MaritimeTrade{} },
		func(g *state.GameState, a *MaritimeTrade) error {
			if err := facade.CheckMaritimeTrade(g, a.PlayerIndex, a.InputResource, a.OutputResource); err != nil {
				return err
			}
			if ratio := facade.MaritimeTradeRatio(g, a.PlayerIndex, a.InputResource); a.Ratio != 0 && a.Ratio != ratio {
				return rules.Reject(rules.ErrRatioMismatch, "asked %d, harbors give %d", a.Ratio, ratio)
			}
			return nil
		},
		func(g *state.GameState, a *MaritimeTrade) error {
			facade.MaritimeTrade(g, a.PlayerIndex, a.InputResource, a.OutputResource)
			return nil
		},
	).withResolve(func(g *state.GameState, a Action, r resolver) {
		m := a.(*MaritimeTrade)
		m.Ratio = facade.MaritimeTradeRatio(g, m.PlayerIndex, m.InputResource)
	}),
}

func pickStolen(g *state.GameState, loc board.HexLocation, victim, actor int, rnd facade.Random) resources.Kind {
	if victim == state.NoPlayer || !facade.CanStealFromAt(g, loc, victim, actor) {
		return ""
	}
	kind, _ := facade.PickStolen(g, victim, rnd)
	return kind
}

func checkSteal(want, robbed bool, stolen resources.Kind) error {
	if want != robbed {
		return fmt.Errorf("recorded steal %q does not match the victim's hand", stolen)
	}
	return nil
}

// Dispatcher routes actions through the phase gate and the handler table.
type Dispatcher struct {
	allowForcedRolls bool
}

// NewDispatcher creates a dispatcher. With allowForcedRolls a rollNumber
// carrying a number is taken as rolled; otherwise the server always rolls.
func NewDispatcher(allowForcedRolls bool) *Dispatcher {
	return &Dispatcher{allowForcedRolls: allowForcedRolls}
}

func (d *Dispatcher) lookup(a Action) (handler, error) {
	t := ActionType(a)
	h, ok := handlers[t]
	if !ok {
		return handler{}, &rules.Rejection{Kind: rules.KindIllegalTransition, Action: t, Reason: rules.ErrUnknownAction}
	}
	if !h.accepts(a) {
		return handler{}, &rules.Rejection{
			Kind:   rules.KindPrecondition,
			Action: t,
			Reason: rules.ErrMalformedAction,
			Detail: fmt.Sprintf("%T does not carry %s", a, t),
		}
	}
	return h, nil
}

// Validate runs the phase gate and the action's rules against g without
// changing it.
func (d *Dispatcher) Validate(g *state.GameState, a Action) error {
	h, err := d.lookup(a)
	if err != nil {
		return err
	}
	if err := rules.CanTransition(g.Phase(), ActionType(a), Actor(a), len(g.Players)); err != nil {
		return err
	}
	if err := h.validate(g, a); err != nil {
		if rej, ok := rules.AsRejection(err); ok && rej.Action == "" {
			rej.Action = ActionType(a)
		}
		return err
	}
	return nil
}

// Execute validates a, resolves its random outcomes with rnd and applies it
// to a clone of g. Resolved outcomes are written back into a. It returns the
// next state and the command to persist; g itself is never modified.
// Rejections are *rules.Rejection; anything else is an internal failure.
func (d *Dispatcher) Execute(g *state.GameState, a Action, rnd facade.Random, now time.Time) (*state.GameState, Command, error) {
	if err := d.Validate(g, a); err != nil {
		return nil, Command{}, err
	}
	h := handlers[ActionType(a)]
	next := g.Clone()
	if h.resolve != nil {
		h.resolve(next, a, resolver{rnd: rnd, allowForcedRolls: d.allowForcedRolls})
	}
	if err := h.apply(next, a); err != nil {
		return nil, Command{}, fmt.Errorf("apply %s: %w", ActionType(a), err)
	}
	facade.CheckVictory(next)
	next.Version = g.Version + 1

	payload, err := json.Marshal(a)
	if err != nil {
		return nil, Command{}, fmt.Errorf("encode %s: %w", ActionType(a), err)
	}
	cmd := Command{
		Seq:         next.Version,
		Type:        ActionType(a),
		PlayerIndex: Actor(a),
		Payload:     payload,
		CreatedAt:   now.UTC(),
	}
	return next, cmd, nil
}

// Apply re-executes a logged command on g in place. Outcomes come from the
// payload; nothing is rolled. It fails if the command is out of sequence,
// no longer validates, or its outcomes do not fit the state.
func (d *Dispatcher) Apply(g *state.GameState, cmd Command) error {
	if cmd.Seq != g.Version+1 {
		return fmt.Errorf("command %d applied at version %d", cmd.Seq, g.Version)
	}
	a, err := DecodeAction(cmd.Payload)
	if err != nil {
		return fmt.Errorf("command %d: %w", cmd.Seq, err)
	}
	if ActionType(a) != cmd.Type || Actor(a) != cmd.PlayerIndex {
		return fmt.Errorf("command %d: header %s/%d does not match payload %s/%d",
			cmd.Seq, cmd.Type, cmd.PlayerIndex, ActionType(a), Actor(a))
	}
	if err := d.Validate(g, a); err != nil {
		return fmt.Errorf("command %d: %w", cmd.Seq, err)
	}
	if err := handlers[cmd.Type].apply(g, a); err != nil {
		return fmt.Errorf("command %d: %w", cmd.Seq, err)
	}
	facade.CheckVictory(g)
	g.Version = cmd.Seq
	return nil
}

// Rebuild replays commands from the game's setup.
func (d *Dispatcher) Rebuild(id string, setup state.Setup, commands []Command) (*state.GameState, error) {
	g, err := state.New(id, setup)
	if err != nil {
		return nil, err
	}
	for _, cmd := range commands {
		if err := d.Apply(g, cmd); err != nil {
			return nil, err
		}
	}
	return g, nil
}
