package state

import (
	"github.com/catanforge/catan-server-go/internal/game/resources"
)

// Player is one seat. Pieces on the board and victory points are derived
// from the map, not stored here.
type Player struct {
	Index     int           `json:"playerIndex"`
	Name      string        `json:"name"`
	Color     string        `json:"color"`
	UserID    string        `json:"userId,omitempty"`
	Resources resources.Set `json:"resources"`
	// OldDevCards may be played this turn; NewDevCards were bought this turn.
	OldDevCards    DevCards `json:"oldDevCards"`
	NewDevCards    DevCards `json:"newDevCards"`
	Soldiers       int      `json:"soldiers"`
	Monuments      int      `json:"monuments"`
	PlayedDevCard  bool     `json:"playedDevCard"`
	PendingDiscard int      `json:"pendingDiscard"`
}

// HandSize is the number of resource cards held.
func (p *Player) HandSize() int {
	return p.Resources.Total()
}

// HeldDevCards is the number of development cards not yet revealed.
func (p *Player) HeldDevCards() int {
	return p.OldDevCards.Total() + p.NewDevCards.Total()
}
