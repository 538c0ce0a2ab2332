package facade

import (
	"strings"

	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// Award thresholds.
const (
	MinLongestRoad = 5
	MinLargestArmy = 3
	MaxChatLength  = 500
)

// RollDice rolls two six-sided dice.
func RollDice(rnd Random) int {
	return rnd.Intn(6) + rnd.Intn(6) + 2
}

// CheckRollNumber validates a roll. A zero number means the server rolls.
func CheckRollNumber(g *state.GameState, idx, number int) error {
	if err := requirePhase(g, rules.ActionRollNumber, rules.PhaseRolling); err != nil {
		return err
	}
	if err := requireTurn(g, idx); err != nil {
		return err
	}
	if number != 0 && (number < 2 || number > 12) {
		return rules.Reject(rules.ErrInvalidRoll, "rolled %d", number)
	}
	return nil
}

// RollNumber applies a roll: production on anything but seven, otherwise
// discards for oversized hands followed by the robber.
func RollNumber(g *state.GameState, idx, number int) {
	g.Turn.LastRoll = number
	g.AddLog(idx, "rolled a %d", number)

	if number != 7 {
		produce(g, number)
		g.Turn.Phase = rules.AfterRoll(number, false)
		return
	}

	mustDiscard := false
	for _, p := range g.Players {
		if p.HandSize() > g.DiscardLimit {
			p.PendingDiscard = p.HandSize() / 2
			mustDiscard = true
		}
	}
	g.Turn.Phase = rules.AfterRoll(number, mustDiscard)
}

// produce pays every building on a hex with the rolled number. When the
// bank cannot cover a kind for everyone, nobody receives it unless only one
// player is owed, who then gets what is left.
func produce(g *state.GameState, number int) {
	owed := make(map[resources.Kind][]int)
	for _, h := range g.Map.Hexes {
		if h.Desert() || h.Number != number || h.Location == g.Map.Robber {
			continue
		}
		for _, b := range g.Map.BuildingsOnHex(h.Location) {
			if owed[h.Resource] == nil {
				owed[h.Resource] = make([]int, len(g.Players))
			}
			n := 1
			if b.City {
				n = 2
			}
			owed[h.Resource][b.Owner] += n
		}
	}

	for _, k := range resources.Kinds {
		claims := owed[k]
		if claims == nil {
			continue
		}
		total, claimants, last := 0, 0, state.NoPlayer
		for i, n := range claims {
			if n > 0 {
				total += n
				claimants++
				last = i
			}
		}
		available := g.Bank.Get(k)
		switch {
		case total <= available:
			for i, n := range claims {
				if n > 0 {
					takeFromBank(g, i, resources.Of(k, n))
				}
			}
		case claimants == 1 && available > 0:
			takeFromBank(g, last, resources.Of(k, available))
		default:
			g.AddLog(state.NoPlayer, "the bank is out of %s", k)
		}
	}
}

// CheckDiscardCards validates a discard after a seven: exactly the pending
// number of cards, all held by the player.
func CheckDiscardCards(g *state.GameState, idx int, cards resources.Set) error {
	if err := requirePhase(g, rules.ActionDiscardCards, rules.PhaseDiscarding); err != nil {
		return err
	}
	p, ok := g.Player(idx)
	if !ok {
		return rules.Reject(rules.ErrInvalidPlayer, "player %d", idx)
	}
	if p.PendingDiscard == 0 {
		return rules.Reject(rules.ErrDiscardNotNeeded, "")
	}
	if cards.HasNegative() || cards.Total() != p.PendingDiscard {
		return rules.Reject(rules.ErrInvalidDiscard, "must discard %d cards", p.PendingDiscard)
	}
	if !cards.IsSubset(p.Resources) {
		return rules.Reject(rules.ErrInsufficientResources, "cannot discard %s", cards)
	}
	return nil
}

// DiscardCards returns the cards to the bank. The last discard moves the
// game on to the robber.
func DiscardCards(g *state.GameState, idx int, cards resources.Set) {
	payToBank(g, idx, cards)
	g.Players[idx].PendingDiscard = 0
	g.AddLog(idx, "discarded %d cards", cards.Total())
	for _, p := range g.Players {
		if p.PendingDiscard > 0 {
			return
		}
	}
	g.Turn.Phase = rules.PhaseRobbing
}

// CheckFinishTurn validates ending the turn. During setup the player must
// have placed this round's settlement and road.
func CheckFinishTurn(g *state.GameState, idx int) error {
	if err := requirePhase(g, rules.ActionFinishTurn, rules.PhaseFirstRound, rules.PhaseSecondRound, rules.PhasePlaying); err != nil {
		return err
	}
	if err := requireTurn(g, idx); err != nil {
		return err
	}
	if round := setupRound(g); round > 0 {
		settlements, _ := g.Map.CountBuildings(idx)
		if settlements != round || g.Map.CountRoads(idx) != round {
			return rules.Reject(rules.ErrSetupIncomplete, "")
		}
	}
	return nil
}

// FinishTurn ends the turn: cards bought this turn become playable, any
// pending offer lapses and the next player starts.
func FinishTurn(g *state.GameState, idx int) {
	p := g.Players[idx]
	p.OldDevCards.Merge(p.NewDevCards)
	p.NewDevCards = state.DevCards{}
	p.PlayedDevCard = false
	g.TradeOffer = nil
	g.Turn.LastRoll = 0
	g.AddLog(idx, "finished their turn")
	g.Turn.Phase, g.Turn.CurrentPlayer = rules.AfterFinishTurn(g.Phase(), idx, len(g.Players))
}

// CheckSendChat validates a chat line.
func CheckSendChat(g *state.GameState, idx int, content string) error {
	if _, ok := g.Player(idx); !ok {
		return rules.Reject(rules.ErrInvalidPlayer, "player %d", idx)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return rules.Reject(rules.ErrInvalidMessage, "")
	}
	if len(content) > MaxChatLength {
		return rules.Reject(rules.ErrInvalidMessage, "message longer than %d bytes", MaxChatLength)
	}
	return nil
}

// SendChat appends to the chat.
func SendChat(g *state.GameState, idx int, content string) {
	g.Chat = append(g.Chat, state.MessageLine{Source: g.Players[idx].Name, Message: strings.TrimSpace(content)})
}

// UpdateLongestRoad re-evaluates the longest road award. The holder keeps
// it on a tie; a new holder needs a unique longest road of at least five.
func UpdateLongestRoad(g *state.GameState) {
	lengths := make([]int, len(g.Players))
	best, bestLen, tied := state.NoPlayer, 0, false
	for i := range g.Players {
		lengths[i] = g.Map.LongestRoad(i)
		switch {
		case lengths[i] > bestLen:
			best, bestLen, tied = i, lengths[i], false
		case lengths[i] == bestLen && bestLen > 0:
			tied = true
		}
	}

	holder := g.LongestRoad
	if holder != state.NoPlayer && lengths[holder] >= MinLongestRoad && lengths[holder] >= bestLen {
		return
	}
	next := state.NoPlayer
	if bestLen >= MinLongestRoad && !tied {
		next = best
	}
	if next != holder {
		g.LongestRoad = next
		if next != state.NoPlayer {
			g.AddLog(next, "took the longest road")
		}
	}
}

// UpdateLargestArmy gives the award to idx once their army is at least three
// and larger than the holder's.
func UpdateLargestArmy(g *state.GameState, idx int) {
	soldiers := g.Players[idx].Soldiers
	if soldiers < MinLargestArmy || g.LargestArmy == idx {
		return
	}
	if g.LargestArmy != state.NoPlayer && g.Players[g.LargestArmy].Soldiers >= soldiers {
		return
	}
	g.LargestArmy = idx
	g.AddLog(idx, "took the largest army")
}

// CheckVictory ends the game when the current player reaches the winning
// score. It returns whether the game ended.
func CheckVictory(g *state.GameState) bool {
	if g.Phase() == rules.PhaseGameOver {
		return false
	}
	idx := g.Turn.CurrentPlayer
	if g.VictoryPoints(idx) < g.WinningPoints {
		return false
	}
	g.Turn.Phase = rules.PhaseGameOver
	g.Winner = idx
	g.AddLog(idx, "won the game")
	return true
}
