package resources

import (
	"fmt"
	"strings"
)

// Kind is one of the five resource types.
type Kind string

const (
	Wood  Kind = "wood"
	Brick Kind = "brick"
	Sheep Kind = "sheep"
	Wheat Kind = "wheat"
	Ore   Kind = "ore"
)

// Kinds lists every resource kind in canonical order.
var Kinds = []Kind{Wood, Brick, Sheep, Wheat, Ore}

// PerKindInGame is how many cards of each kind exist in a game.
const PerKindInGame = 19

// Valid reports whether k names a known resource kind.
func (k Kind) Valid() bool {
	switch k {
	case Wood, Brick, Sheep, Wheat, Ore:
		return true
	default:
		return false
	}
}

// ParseKind converts a case-insensitive name into a Kind.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown resource %q", name)
	}
	return k, nil
}

// Set is a count per resource kind. Counts are signed so the same type can
// describe a hand, a cost, or a trade offer (positive = received).
type Set struct {
	Wood  int `json:"wood"`
	Brick int `json:"brick"`
	Sheep int `json:"sheep"`
	Wheat int `json:"wheat"`
	Ore   int `json:"ore"`
}

// Of builds a set holding n of a single kind.
func Of(k Kind, n int) Set {
	var s Set
	s.Add(k, n)
	return s
}

// Full returns the starting bank: every kind at PerKindInGame.
func Full() Set {
	return Set{
		Wood:  PerKindInGame,
		Brick: PerKindInGame,
		Sheep: PerKindInGame,
		Wheat: PerKindInGame,
		Ore:   PerKindInGame,
	}
}

// Get returns the count of a kind.
func (s Set) Get(k Kind) int {
	switch k {
	case Wood:
		return s.Wood
	case Brick:
		return s.Brick
	case Sheep:
		return s.Sheep
	case Wheat:
		return s.Wheat
	case Ore:
		return s.Ore
	default:
		return 0
	}
}

// Add changes the count of a kind by n (which may be negative).
func (s *Set) Add(k Kind, n int) {
	switch k {
	case Wood:
		s.Wood += n
	case Brick:
		s.Brick += n
	case Sheep:
		s.Sheep += n
	case Wheat:
		s.Wheat += n
	case Ore:
		s.Ore += n
	}
}

// Combine returns the per-kind sum of s and o.
func (s Set) Combine(o Set) Set {
	return Set{
		Wood:  s.Wood + o.Wood,
		Brick: s.Brick + o.Brick,
		Sheep: s.Sheep + o.Sheep,
		Wheat: s.Wheat + o.Wheat,
		Ore:   s.Ore + o.Ore,
	}
}

// Subtract returns s minus o.
func (s Set) Subtract(o Set) Set {
	return s.Combine(o.Negate())
}

// Negate flips the sign of every count.
func (s Set) Negate() Set {
	return Set{
		Wood:  -s.Wood,
		Brick: -s.Brick,
		Sheep: -s.Sheep,
		Wheat: -s.Wheat,
		Ore:   -s.Ore,
	}
}

// Total is the sum of all counts.
func (s Set) Total() int {
	return s.Wood + s.Brick + s.Sheep + s.Wheat + s.Ore
}

// IsEmpty reports whether every count is zero.
func (s Set) IsEmpty() bool {
	return s == Set{}
}

// HasPositive reports whether any count is above zero.
func (s Set) HasPositive() bool {
	for _, k := range Kinds {
		if s.Get(k) > 0 {
			return true
		}
	}
	return false
}

// HasNegative reports whether any count is below zero.
func (s Set) HasNegative() bool {
	for _, k := range Kinds {
		if s.Get(k) < 0 {
			return true
		}
	}
	return false
}

// IsNonNegative reports whether no count is below zero.
func (s Set) IsNonNegative() bool {
	return !s.HasNegative()
}

// Within reports whether every count lies in [-limit, limit].
func (s Set) Within(limit int) bool {
	for _, k := range Kinds {
		if n := s.Get(k); n < -limit || n > limit {
			return false
		}
	}
	return true
}

// IsSubset reports whether every positive count of s is covered by o.
// Non-positive counts of s are ignored.
func (s Set) IsSubset(o Set) bool {
	for _, k := range Kinds {
		if n := s.Get(k); n > 0 && o.Get(k) < n {
			return false
		}
	}
	return true
}

// Positive keeps only the positive counts.
func (s Set) Positive() Set {
	var out Set
	for _, k := range Kinds {
		if n := s.Get(k); n > 0 {
			out.Add(k, n)
		}
	}
	return out
}

// Outgoing returns the magnitudes of the negative counts, i.e. what the owner
// of a signed offer gives away.
func (s Set) Outgoing() Set {
	return s.Negate().Positive()
}

func (s Set) String() string {
	parts := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		if n := s.Get(k); n != 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", k, n))
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}
