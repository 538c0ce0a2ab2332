package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
)

// Defaults applied when a Setup leaves them unset.
const (
	DefaultWinningPoints = 10
	DefaultDiscardLimit  = 7
	MinPlayers           = 2
	MaxPlayers           = 4
)

// NoPlayer is the index used where no player applies.
const NoPlayer = -1

var (
	ErrPlayerCount   = errors.New("a game needs between 2 and 4 players")
	ErrPlayerName    = errors.New("player name is required")
	ErrDuplicateSeat = errors.New("player colors and names must be unique")
)

// PlayerSetup describes one seat at creation time.
type PlayerSetup struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	UserID string `json:"userId,omitempty"`
}

// Setup is everything needed to build the initial state of a game. Replaying
// the command log against New(id, setup) reproduces the game.
type Setup struct {
	Players       []PlayerSetup `json:"players"`
	Layout        board.Layout  `json:"layout"`
	WinningPoints int           `json:"winningPoints,omitempty"`
	DiscardLimit  int           `json:"discardLimit,omitempty"`
}

// Validate checks seat count and uniqueness.
func (s Setup) Validate() error {
	if len(s.Players) < MinPlayers || len(s.Players) > MaxPlayers {
		return ErrPlayerCount
	}
	names := make(map[string]bool)
	colors := make(map[string]bool)
	for _, p := range s.Players {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return ErrPlayerName
		}
		color := strings.ToLower(strings.TrimSpace(p.Color))
		if names[name] || (color != "" && colors[color]) {
			return ErrDuplicateSeat
		}
		names[name] = true
		if color != "" {
			colors[color] = true
		}
	}
	return nil
}

// TurnTracker holds whose turn it is and where in the turn the game is.
type TurnTracker struct {
	CurrentPlayer int         `json:"currentTurn"`
	Phase         rules.Phase `json:"status"`
	LastRoll      int         `json:"lastRoll,omitempty"`
}

// TradeOffer is the single pending domestic trade. Offer is signed from the
// sender's view: positive counts are received, negative counts are given.
type TradeOffer struct {
	Sender   int           `json:"sender"`
	Receiver int           `json:"receiver"`
	Offer    resources.Set `json:"offer"`
}

// MessageLine is one entry of the game log or chat.
type MessageLine struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// GameState is the authoritative state of one game.
type GameState struct {
	ID            string        `json:"id"`
	Version       int           `json:"version"`
	Players       []*Player     `json:"players"`
	Bank          resources.Set `json:"bank"`
	DevDeck       DevCards      `json:"deck"`
	Map           *board.Map    `json:"map"`
	Turn          TurnTracker   `json:"turnTracker"`
	TradeOffer    *TradeOffer   `json:"tradeOffer,omitempty"`
	Log           []MessageLine `json:"log"`
	Chat          []MessageLine `json:"chat"`
	LongestRoad   int           `json:"longestRoad"`
	LargestArmy   int           `json:"largestArmy"`
	Winner        int           `json:"winner"`
	WinningPoints int           `json:"winningPoints"`
	DiscardLimit  int           `json:"discardLimit"`
}

// New builds the initial state of a game: full bank and deck, the board from
// the layout, and player 0 starting the first setup round.
func New(id string, setup Setup) (*GameState, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	g := &GameState{
		ID:            id,
		Bank:          resources.Full(),
		DevDeck:       FullDeck(),
		Map:           board.NewMap(setup.Layout),
		Turn:          TurnTracker{CurrentPlayer: 0, Phase: rules.PhaseFirstRound},
		Log:           []MessageLine{},
		Chat:          []MessageLine{},
		LongestRoad:   NoPlayer,
		LargestArmy:   NoPlayer,
		Winner:        NoPlayer,
		WinningPoints: setup.WinningPoints,
		DiscardLimit:  setup.DiscardLimit,
	}
	if g.WinningPoints <= 0 {
		g.WinningPoints = DefaultWinningPoints
	}
	if g.DiscardLimit <= 0 {
		g.DiscardLimit = DefaultDiscardLimit
	}
	for i, p := range setup.Players {
		g.Players = append(g.Players, &Player{
			Index:  i,
			Name:   strings.TrimSpace(p.Name),
			Color:  strings.TrimSpace(p.Color),
			UserID: p.UserID,
		})
	}
	return g, nil
}

// Player returns the seated player at idx.
func (g *GameState) Player(idx int) (*Player, bool) {
	if idx < 0 || idx >= len(g.Players) {
		return nil, false
	}
	return g.Players[idx], true
}

// Current returns the player whose turn it is.
func (g *GameState) Current() *Player {
	return g.Players[g.Turn.CurrentPlayer]
}

// IsTurn reports whether idx is the current player.
func (g *GameState) IsTurn(idx int) bool {
	return g.Turn.CurrentPlayer == idx
}

// Phase returns the current turn phase.
func (g *GameState) Phase() rules.Phase {
	return g.Turn.Phase
}

// AddLog appends a game log line attributed to a player.
func (g *GameState) AddLog(idx int, format string, args ...any) {
	source := "server"
	if p, ok := g.Player(idx); ok {
		source = p.Name
	}
	g.Log = append(g.Log, MessageLine{Source: source, Message: fmt.Sprintf(format, args...)})
}

// VictoryPoints derives a player's score from the board and awards.
func (g *GameState) VictoryPoints(idx int) int {
	p, ok := g.Player(idx)
	if !ok {
		return 0
	}
	settlements, cities := g.Map.CountBuildings(idx)
	points := settlements + 2*cities + p.Monuments
	if g.LongestRoad == idx {
		points += 2
	}
	if g.LargestArmy == idx {
		points += 2
	}
	return points
}

// ResourceTotal sums the bank and every hand. It stays constant for the
// whole game.
func (g *GameState) ResourceTotal() resources.Set {
	total := g.Bank
	for _, p := range g.Players {
		total = total.Combine(p.Resources)
	}
	return total
}

// Clone returns a deep copy. Writers mutate a clone and publish it only once
// it has been persisted.
func (g *GameState) Clone() *GameState {
	out := *g
	out.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp := *p
		out.Players[i] = &cp
	}
	out.Map = g.Map.Clone()
	if g.TradeOffer != nil {
		offer := *g.TradeOffer
		out.TradeOffer = &offer
	}
	out.Log = append([]MessageLine{}, g.Log...)
	out.Chat = append([]MessageLine{}, g.Chat...)
	return &out
}
