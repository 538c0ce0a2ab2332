package game

import (
	"encoding/json"

	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// DecodeAction parses a wire action into its variant. An unknown type is an
// illegal transition; a payload that does not decode is a precondition
// rejection. A missing playerIndex decodes as NoPlayer.
func DecodeAction(data []byte) (Action, error) {
	var envelope struct {
		Type        rules.ActionType `json:"type"`
		PlayerIndex *int             `json:"playerIndex"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, malformed(envelope.Type, err)
	}
	h, ok := handlers[envelope.Type]
	if !ok {
		return nil, &rules.Rejection{Kind: rules.KindIllegalTransition, Action: envelope.Type, Reason: rules.ErrUnknownAction}
	}
	a := h.new()
	if err := json.Unmarshal(data, a); err != nil {
		return nil, malformed(envelope.Type, err)
	}
	if envelope.PlayerIndex == nil {
		a.header().PlayerIndex = state.NoPlayer
	}
	return a, nil
}

// NewAction returns an empty action of type t with the header filled in.
func NewAction(t rules.ActionType, player int) (Action, error) {
	h, ok := handlers[t]
	if !ok {
		return nil, &rules.Rejection{Kind: rules.KindIllegalTransition, Action: t, Reason: rules.ErrUnknownAction}
	}
	a := h.new()
	*a.header() = Base{Type: t, PlayerIndex: player}
	return a, nil
}

func malformed(t rules.ActionType, err error) error {
	return &rules.Rejection{Kind: rules.KindPrecondition, Action: t, Reason: rules.ErrMalformedAction, Detail: err.Error()}
}
