package rules

import (
	"fmt"
	"strings"
)

// Phase is the turn status of a game.
type Phase int

const (
	PhaseFirstRound Phase = iota
	PhaseSecondRound
	PhaseRolling
	PhaseDiscarding
	PhaseRobbing
	PhasePlaying
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseFirstRound:  "FirstRound",
	PhaseSecondRound: "SecondRound",
	PhaseRolling:     "Rolling",
	PhaseDiscarding:  "Discarding",
	PhaseRobbing:     "Robbing",
	PhasePlaying:     "Playing",
	PhaseGameOver:    "GameOver",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Setup reports whether p is one of the initial placement rounds.
func (p Phase) Setup() bool {
	return p == PhaseFirstRound || p == PhaseSecondRound
}

// ParsePhase resolves a phase by name, ignoring case.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// AfterRoll returns the phase that follows a dice roll.
func AfterRoll(roll int, mustDiscard bool) Phase {
	if roll != 7 {
		return PhasePlaying
	}
	if mustDiscard {
		return PhaseDiscarding
	}
	return PhaseRobbing
}

// AfterFinishTurn returns the phase and player that follow a finished turn.
// The first setup round runs forward through the players, the second runs
// back, and the last player of the second round hands over to player 0.
func AfterFinishTurn(phase Phase, current, players int) (Phase, int) {
	switch phase {
	case PhaseFirstRound:
		if current == players-1 {
			return PhaseSecondRound, current
		}
		return PhaseFirstRound, current + 1
	case PhaseSecondRound:
		if current == 0 {
			return PhaseRolling, 0
		}
		return PhaseSecondRound, current - 1
	default:
		return PhaseRolling, (current + 1) % players
	}
}
