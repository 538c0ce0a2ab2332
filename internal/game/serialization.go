package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/catanforge/catan-server-go/internal/game/state"
)

// checksumVersion changes whenever the deterministic representation does.
const checksumVersion = 1

// SerializationChecksum is a deterministic digest of a game state. Replaying
// a game's commands must reproduce the digest stored with its checkpoint.
type SerializationChecksum struct {
	Hash      string // SHA-256 of the deterministic representation
	Timestamp string // when it was computed, not part of the hash
	Version   int
}

// ComputeChecksum hashes the deterministic representation of g.
func ComputeChecksum(g *state.GameState) (*SerializationChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(buildDeterministicRepresentation(g))); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   checksumVersion,
	}, nil
}

// Checksum returns just the hash of g.
func Checksum(g *state.GameState) (string, error) {
	sum, err := ComputeChecksum(g)
	if err != nil {
		return "", err
	}
	return sum.Hash, nil
}

// VerifyChecksum reports whether g hashes to expected.
func VerifyChecksum(g *state.GameState, expected string) (bool, error) {
	computed, err := Checksum(g)
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed == expected, nil
}

// buildDeterministicRepresentation renders g canonically. Board pieces are
// sorted by location so the order they were placed in does not matter.
func buildDeterministicRepresentation(g *state.GameState) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%d|%s|%d|%d|%d|%d|%d|%d|%d\n",
		g.ID,
		g.Version,
		g.Turn.Phase,
		g.Turn.CurrentPlayer,
		g.Turn.LastRoll,
		g.Winner,
		g.LongestRoad,
		g.LargestArmy,
		g.WinningPoints,
		g.DiscardLimit,
	)
	fmt.Fprintf(&buf, "BANK:%s\n", g.Bank)
	fmt.Fprintf(&buf, "DECK:%s\n", g.DevDeck)

	// Player order matters
	for _, p := range g.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%s|%s|%s|%s|%s|%d|%d|%t|%d\n",
			p.Index,
			p.Name,
			p.Color,
			p.UserID,
			p.Resources,
			p.OldDevCards,
			p.NewDevCards,
			p.Soldiers,
			p.Monuments,
			p.PlayedDevCard,
			p.PendingDiscard,
		)
	}

	if m := g.Map; m != nil {
		fmt.Fprintf(&buf, "MAP:%d|robber=%s\n", m.Radius, m.Robber)
		hexes := make([]string, len(m.Hexes))
		for i, h := range m.Hexes {
			hexes[i] = fmt.Sprintf("%s=%s:%d", h.Location, h.Resource, h.Number)
		}
		writeSorted(&buf, "HEXES", hexes)

		ports := make([]string, len(m.Ports))
		for i, p := range m.Ports {
			ports[i] = fmt.Sprintf("%s/%s=%s:%d", p.Location, p.Direction, p.Resource, p.Ratio)
		}
		writeSorted(&buf, "PORTS", ports)

		roads := make([]string, len(m.Roads))
		for i, r := range m.Roads {
			roads[i] = fmt.Sprintf("%s=%d", r.Location, r.Owner)
		}
		writeSorted(&buf, "ROADS", roads)

		buildings := make([]string, len(m.Buildings))
		for i, b := range m.Buildings {
			buildings[i] = fmt.Sprintf("%s=%d:%t", b.Location, b.Owner, b.City)
		}
		writeSorted(&buf, "BUILDINGS", buildings)
	}

	if o := g.TradeOffer; o != nil {
		fmt.Fprintf(&buf, "OFFER:%d|%d|%s\n", o.Sender, o.Receiver, o.Offer)
	}

	// Log and chat are append-only, keep their order
	for _, line := range g.Log {
		fmt.Fprintf(&buf, "LOG:%s|%s\n", line.Source, line.Message)
	}
	for _, line := range g.Chat {
		fmt.Fprintf(&buf, "CHAT:%s|%s\n", line.Source, line.Message)
	}

	return buf.String()
}

func writeSorted(buf *bytes.Buffer, label string, items []string) {
	sort.Strings(items)
	buf.WriteString(label)
	buf.WriteString(":")
	buf.WriteString(strings.Join(items, ","))
	buf.WriteString("\n")
}

// MarshalModel encodes a state checkpoint for storage.
func MarshalModel(g *state.GameState) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return data, nil
}

// UnmarshalModel decodes a stored checkpoint.
func UnmarshalModel(data []byte) (*state.GameState, error) {
	var g state.GameState
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return &g, nil
}

// ValidateSerializationRoundtrip checks that g survives MarshalModel and
// UnmarshalModel with an unchanged checksum.
func ValidateSerializationRoundtrip(g *state.GameState) error {
	original, err := Checksum(g)
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}
	data, err := MarshalModel(g)
	if err != nil {
		return err
	}
	decoded, err := UnmarshalModel(data)
	if err != nil {
		return err
	}
	roundtrip, err := Checksum(decoded)
	if err != nil {
		return fmt.Errorf("failed to compute decoded checksum: %w", err)
	}
	if original != roundtrip {
		return fmt.Errorf("checksum mismatch: original=%s, decoded=%s", original, roundtrip)
	}
	return nil
}
