package facade

import (
	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// CheckMoveRobber validates a robber destination: a land hex other than
// the one the robber stands on.
func CheckMoveRobber(g *state.GameState, loc board.HexLocation) error {
	if !g.Map.IsLand(loc) {
		return rules.Reject(rules.ErrInvalidLocation, "hex %s", loc)
	}
	if g.Map.Robber == loc {
		return rules.Reject(rules.ErrRobberNotMoved, "robber is on %s", loc)
	}
	return nil
}

// CanMoveRobber is the boolean form of CheckMoveRobber.
func CanMoveRobber(g *state.GameState, loc board.HexLocation) bool {
	return CheckMoveRobber(g, loc) == nil
}

// MoveRobber places the robber.
func MoveRobber(g *state.GameState, loc board.HexLocation) {
	g.Map.Robber = loc
}

// RobbableVictims lists players other than actor that hold at least one
// card and own a building on the robber's hex.
func RobbableVictims(g *state.GameState, actor int) []int {
	return RobbableVictimsAt(g, g.Map.Robber, actor)
}

// RobbableVictimsAt is RobbableVictims for the robber standing on loc.
func RobbableVictimsAt(g *state.GameState, loc board.HexLocation, actor int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, b := range g.Map.BuildingsOnHex(loc) {
		if b.Owner == actor || seen[b.Owner] {
			continue
		}
		seen[b.Owner] = true
		if p, ok := g.Player(b.Owner); ok && p.HandSize() > 0 {
			out = append(out, b.Owner)
		}
	}
	return out
}

// CanStealFrom reports whether actor may rob victim at the robber's current
// hex. Victim NoPlayer is valid only when nobody there can be robbed.
func CanStealFrom(g *state.GameState, victim, actor int) bool {
	return CanStealFromAt(g, g.Map.Robber, victim, actor)
}

// CanStealFromAt is CanStealFrom for the robber standing on loc.
func CanStealFromAt(g *state.GameState, loc board.HexLocation, victim, actor int) bool {
	candidates := RobbableVictimsAt(g, loc, actor)
	if victim == state.NoPlayer {
		return len(candidates) == 0
	}
	for _, c := range candidates {
		if c == victim {
			return true
		}
	}
	return false
}

// checkVictim accepts any seat, or NoPlayer when nobody at loc can be
// robbed. A seated victim with nothing to take is a legal no-op.
func checkVictim(g *state.GameState, loc board.HexLocation, victim, actor int) error {
	if victim == state.NoPlayer {
		if !CanStealFromAt(g, loc, victim, actor) {
			return rules.Reject(rules.ErrInvalidVictim, "a robbable player must be chosen")
		}
		return nil
	}
	if _, ok := g.Player(victim); !ok {
		return rules.Reject(rules.ErrInvalidVictim, "player %d", victim)
	}
	return nil
}

// PickStolen chooses which card a steal takes: uniform over the victim's
// cards. It returns false for an empty hand.
func PickStolen(g *state.GameState, victim int, rnd Random) (resources.Kind, bool) {
	p, ok := g.Player(victim)
	if !ok || p.HandSize() == 0 {
		return "", false
	}
	counts := make([]int, len(resources.Kinds))
	for i, k := range resources.Kinds {
		counts[i] = p.Resources.Get(k)
	}
	i := pickWeighted(rnd, counts)
	if i < 0 {
		return "", false
	}
	return resources.Kinds[i], true
}

// StealKind moves one card of kind from victim to actor. It is a no-op
// returning false when the victim does not hold that kind.
func StealKind(g *state.GameState, victim, actor int, kind resources.Kind) bool {
	v, ok := g.Player(victim)
	if !ok || v.Resources.Get(kind) <= 0 {
		return false
	}
	transfer(g, victim, actor, resources.Of(kind, 1))
	g.AddLog(actor, "robbed %s", v.Name)
	return true
}

// Steal moves one uniformly random card from victim to actor.
func Steal(g *state.GameState, victim, actor int, rnd Random) (resources.Kind, bool) {
	kind, ok := PickStolen(g, victim, rnd)
	if !ok {
		return "", false
	}
	return kind, StealKind(g, victim, actor, kind)
}

// CheckRobPlayer validates the robbing step after a seven.
func CheckRobPlayer(g *state.GameState, actor int, loc board.HexLocation, victim int) error {
	if err := requirePhase(g, rules.ActionRobPlayer, rules.PhaseRobbing); err != nil {
		return err
	}
	if err := requireTurn(g, actor); err != nil {
		return err
	}
	if err := CheckMoveRobber(g, loc); err != nil {
		return err
	}
	return checkVictim(g, loc, victim, actor)
}

// RobPlayer moves the robber and, if the victim can be robbed, takes the
// given card. It returns whether a card changed hands.
func RobPlayer(g *state.GameState, actor int, loc board.HexLocation, victim int, stolen resources.Kind) bool {
	MoveRobber(g, loc)
	robbed := false
	if victim != state.NoPlayer && CanStealFrom(g, victim, actor) {
		robbed = StealKind(g, victim, actor, stolen)
	}
	if !robbed {
		g.AddLog(actor, "moved the robber but could not rob")
	}
	if g.Phase() == rules.PhaseRobbing {
		g.Turn.Phase = rules.PhasePlaying
	}
	return robbed
}
