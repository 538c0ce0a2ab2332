package game

import (
	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// Action is one player move in wire form: {"type": ..., "playerIndex": ...}
// plus the fields of its variant. Random outcomes (roll, stolen card, drawn
// card) are filled in by the engine before the action is applied so the
// logged payload replays deterministically.
type Action interface {
	header() *Base
}

// Base carries the fields every action shares.
type Base struct {
	Type        rules.ActionType `json:"type"`
	PlayerIndex int              `json:"playerIndex"`
}

func (b *Base) header() *Base { return b }

// ActionType returns the wire type of a.
func ActionType(a Action) rules.ActionType { return a.header().Type }

// Actor returns the player index that submitted a.
func Actor(a Action) int { return a.header().PlayerIndex }

type SendChat struct {
	Base
	Content string `json:"content"`
}

// RollNumber rolls the dice. Number 0 asks the server to roll; a forced
// number is honoured only when the engine allows it.
type RollNumber struct {
	Base
	Number int `json:"number,omitempty"`
}

type DiscardCards struct {
	Base
	DiscardedCards resources.Set `json:"discardedCards"`
}

// RobPlayer moves the robber after a seven. VictimIndex -1 means nobody.
type RobPlayer struct {
	Base
	Location    board.HexLocation `json:"location"`
	VictimIndex int               `json:"victimIndex"`
	Stolen      resources.Kind    `json:"stolen,omitempty"`
}

type FinishTurn struct {
	Base
}

type BuyDevCard struct {
	Base
	Card state.DevCardType `json:"card,omitempty"`
}

type Soldier struct {
	Base
	Location    board.HexLocation `json:"location"`
	VictimIndex int               `json:"victimIndex"`
	Stolen      resources.Kind    `json:"stolen,omitempty"`
}

type Monument struct {
	Base
}

// RoadBuilding places one or two free roads; Spot2 is optional.
type RoadBuilding struct {
	Base
	Spot1 board.EdgeLocation  `json:"spot1"`
	Spot2 *board.EdgeLocation `json:"spot2,omitempty"`
}

type Monopoly struct {
	Base
	Resource resources.Kind `json:"resource"`
}

type YearOfPlenty struct {
	Base
	Resource1 resources.Kind `json:"resource1"`
	Resource2 resources.Kind `json:"resource2"`
}

type BuildRoad struct {
	Base
	RoadLocation board.EdgeLocation `json:"roadLocation"`
}

type BuildSettlement struct {
	Base
	VertexLocation board.VertexLocation `json:"vertexLocation"`
}

type BuildCity struct {
	Base
	VertexLocation board.VertexLocation `json:"vertexLocation"`
}

// OfferTrade proposes a domestic trade. Offer is signed from the sender's
// side: positive counts are asked for, negative counts are given.
type OfferTrade struct {
	Base
	Offer    resources.Set `json:"offer"`
	Receiver int           `json:"receiver"`
}

type AcceptTrade struct {
	Base
	WillAccept bool `json:"willAccept"`
}

type CancelTrade struct {
	Base
}

// MaritimeTrade swaps Ratio cards of InputResource for one OutputResource
// with the bank. A zero Ratio is filled in from the player's harbors.
type MaritimeTrade struct {
	Base
	Ratio          int            `json:"ratio,omitempty"`
	InputResource  resources.Kind `json:"inputResource"`
	OutputResource resources.Kind `json:"outputResource"`
}
