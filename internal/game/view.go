package game

import (
	"fmt"

	"github.com/catanforge/catan-server-go/internal/game/facade"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// PlayerSummary is the public view of one seat.
type PlayerSummary struct {
	Index         int    `json:"playerIndex"`
	Name          string `json:"name"`
	Color         string `json:"color"`
	VictoryPoints int    `json:"victoryPoints"`
	Cards         int    `json:"cards"`
	DevCards      int    `json:"devCards"`
	Soldiers      int    `json:"soldiers"`
	Roads         int    `json:"roads"`
	Settlements   int    `json:"settlements"`
	Cities        int    `json:"cities"`
}

// Summary is a compact view of a game for polling clients.
type Summary struct {
	ID            string            `json:"id"`
	Version       int               `json:"version"`
	Phase         rules.Phase       `json:"phase"`
	CurrentPlayer int               `json:"currentPlayer"`
	LastRoll      int               `json:"lastRoll,omitempty"`
	Winner        int               `json:"winner"`
	TradeOffer    *state.TradeOffer `json:"tradeOffer,omitempty"`
	Players       []PlayerSummary   `json:"players"`
	Quarantined   bool              `json:"quarantined,omitempty"`
}

// MaritimeOptions lists what a player can trade with the bank right now.
type MaritimeOptions struct {
	Ratios  map[resources.Kind]int              `json:"ratios"`
	Send    []resources.Kind                    `json:"send"`
	Receive map[resources.Kind][]resources.Kind `json:"receive"`
}

// read runs fn against the published state of a game under its read lock.
func (e *Engine) read(gameID string, fn func(g *state.GameState) error) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.game.State)
}

func player(g *state.GameState, idx int) (*state.Player, error) {
	p, ok := g.Player(idx)
	if !ok {
		return nil, rules.Reject(rules.ErrInvalidPlayer, "player %d", idx)
	}
	return p, nil
}

// State returns a copy of the published state.
func (e *Engine) State(gameID string) (*state.GameState, error) {
	var out *state.GameState
	err := e.read(gameID, func(g *state.GameState) error {
		out = g.Clone()
		return nil
	})
	return out, err
}

// Version returns the published version.
func (e *Engine) Version(gameID string) (int, error) {
	var v int
	err := e.read(gameID, func(g *state.GameState) error {
		v = g.Version
		return nil
	})
	return v, err
}

// Phase returns the current turn phase.
func (e *Engine) Phase(gameID string) (rules.Phase, error) {
	var phase rules.Phase
	err := e.read(gameID, func(g *state.GameState) error {
		phase = g.Phase()
		return nil
	})
	return phase, err
}

// CurrentPlayer returns whose turn it is.
func (e *Engine) CurrentPlayer(gameID string) (int, error) {
	var idx int
	err := e.read(gameID, func(g *state.GameState) error {
		idx = g.Turn.CurrentPlayer
		return nil
	})
	return idx, err
}

// Resources returns a player's hand.
func (e *Engine) Resources(gameID string, idx int) (resources.Set, error) {
	var hand resources.Set
	err := e.read(gameID, func(g *state.GameState) error {
		p, err := player(g, idx)
		if err != nil {
			return err
		}
		hand = p.Resources
		return nil
	})
	return hand, err
}

// VictoryPoints returns a player's derived score.
func (e *Engine) VictoryPoints(gameID string, idx int) (int, error) {
	var points int
	err := e.read(gameID, func(g *state.GameState) error {
		if _, err := player(g, idx); err != nil {
			return err
		}
		points = g.VictoryPoints(idx)
		return nil
	})
	return points, err
}

// PendingTrade returns the open domestic offer, or nil.
func (e *Engine) PendingTrade(gameID string) (*state.TradeOffer, error) {
	var offer *state.TradeOffer
	err := e.read(gameID, func(g *state.GameState) error {
		if g.TradeOffer != nil {
			cp := *g.TradeOffer
			offer = &cp
		}
		return nil
	})
	return offer, err
}

// MaritimeOptions returns a player's harbor ratios and, when it is their
// turn to trade, which kinds they can give and receive.
func (e *Engine) MaritimeOptions(gameID string, idx int) (*MaritimeOptions, error) {
	var out *MaritimeOptions
	err := e.read(gameID, func(g *state.GameState) error {
		if _, err := player(g, idx); err != nil {
			return err
		}
		out = &MaritimeOptions{
			Ratios:  make(map[resources.Kind]int, len(resources.Kinds)),
			Send:    []resources.Kind{},
			Receive: make(map[resources.Kind][]resources.Kind),
		}
		for _, k := range resources.Kinds {
			out.Ratios[k] = facade.MaritimeTradeRatio(g, idx, k)
		}
		if !facade.CanMaritimeTradeAny(g, idx) {
			return nil
		}
		for _, give := range facade.MaritimeSendOptions(g, idx) {
			receive := []resources.Kind{}
			for _, get := range facade.MaritimeReceiveOptions(g, give) {
				if facade.CanMaritimeTrade(g, idx, give, get) {
					receive = append(receive, get)
				}
			}
			if len(receive) > 0 {
				out.Send = append(out.Send, give)
				out.Receive[give] = receive
			}
		}
		return nil
	})
	return out, err
}

// Summary returns the public view of a game.
func (e *Engine) Summary(gameID string) (*Summary, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := s.game.State
	out := &Summary{
		ID:            g.ID,
		Version:       g.Version,
		Phase:         g.Phase(),
		CurrentPlayer: g.Turn.CurrentPlayer,
		LastRoll:      g.Turn.LastRoll,
		Winner:        g.Winner,
		Players:       make([]PlayerSummary, len(g.Players)),
		Quarantined:   s.quarantined != nil,
	}
	if g.TradeOffer != nil {
		cp := *g.TradeOffer
		out.TradeOffer = &cp
	}
	for i, p := range g.Players {
		settlements, cities := g.Map.CountBuildings(i)
		out.Players[i] = PlayerSummary{
			Index:         i,
			Name:          p.Name,
			Color:         p.Color,
			VictoryPoints: g.VictoryPoints(i),
			Cards:         p.HandSize(),
			DevCards:      p.HeldDevCards(),
			Soldiers:      p.Soldiers,
			Roads:         g.Map.CountRoads(i),
			Settlements:   settlements,
			Cities:        cities,
		}
	}
	return out, nil
}

// String renders a summary line for logs and the verify script.
func (s *Summary) String() string {
	return fmt.Sprintf("%s v%d %s player=%d", s.ID, s.Version, s.Phase, s.CurrentPlayer)
}
