package rules

import (
	"errors"
	"fmt"
)

// Kind classifies why an action was not accepted.
type Kind int

const (
	// KindPrecondition means the action is allowed in this phase but a rule
	// (turn, resources, location...) was not met.
	KindPrecondition Kind = iota + 1
	// KindIllegalTransition means the action type is not allowed in the
	// current phase.
	KindIllegalTransition
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "PreconditionViolation"
	case KindIllegalTransition:
		return "IllegalTransition"
	default:
		return fmt.Sprintf("KIND_%d", int(k))
	}
}

// Reason is a stable rejection code. Reasons are sentinels: compare them with
// errors.Is.
type Reason struct {
	Code    string
	Message string
}

func (r *Reason) Error() string {
	return r.Message
}

var (
	ErrUnknownAction = &Reason{"unknown_action", "unknown action type"}
	ErrWrongPhase    = &Reason{"wrong_phase", "action not allowed in the current phase"}
	ErrGameOver      = &Reason{"game_over", "the game is over"}
	ErrInvalidPlayer = &Reason{"invalid_player", "no such player"}
	ErrNotYourTurn   = &Reason{"not_your_turn", "it is not this player's turn"}

	ErrInsufficientResources = &Reason{"insufficient_resources", "player cannot afford this"}
	ErrBankInsufficient      = &Reason{"bank_insufficient", "the bank cannot supply this"}
	ErrInvalidResource       = &Reason{"invalid_resource", "unknown resource"}
	ErrSameResource          = &Reason{"same_resource", "cannot trade a resource for itself"}
	ErrRatioMismatch         = &Reason{"ratio_mismatch", "trade ratio does not match the player's harbors"}

	ErrTradePending   = &Reason{"trade_pending", "a trade offer is already pending"}
	ErrNoTradePending = &Reason{"no_trade_pending", "there is no pending trade offer"}
	ErrInvalidOffer   = &Reason{"invalid_offer", "a trade offer must give and receive resources"}
	ErrNotReceiver    = &Reason{"not_receiver", "the offer is not addressed to this player"}
	ErrSelfTrade      = &Reason{"self_trade", "a player cannot trade with themselves"}

	ErrInvalidLocation = &Reason{"invalid_location", "location is not on the board"}
	ErrRobberNotMoved  = &Reason{"robber_not_moved", "the robber must move to a different hex"}
	ErrInvalidVictim   = &Reason{"invalid_victim", "victim cannot be robbed"}

	ErrNoDevCard        = &Reason{"no_dev_card", "player has no playable card of this type"}
	ErrDevCardPlayed    = &Reason{"dev_card_played", "a development card was already played this turn"}
	ErrDevCardDeckEmpty = &Reason{"dev_card_deck_empty", "no development cards left"}

	ErrNoPieces         = &Reason{"no_pieces", "player has no pieces of this type left"}
	ErrOccupied         = &Reason{"occupied", "location is already occupied"}
	ErrNotConnected     = &Reason{"not_connected", "location does not connect to the player's network"}
	ErrDistanceRule     = &Reason{"distance_rule", "a building is too close"}
	ErrNotYourBuilding  = &Reason{"not_your_building", "player has no settlement here"}
	ErrSetupOrder       = &Reason{"setup_order", "placement is out of order for the setup round"}
	ErrSetupIncomplete  = &Reason{"setup_incomplete", "place a settlement and a road first"}
	ErrDiscardNotNeeded = &Reason{"discard_not_needed", "player does not need to discard"}
	ErrInvalidDiscard   = &Reason{"invalid_discard", "discard must be exactly half of the hand"}
	ErrInvalidRoll      = &Reason{"invalid_roll", "roll must be between 2 and 12"}
	ErrInvalidMessage   = &Reason{"invalid_message", "message is empty or too long"}
	ErrMalformedAction  = &Reason{"malformed_action", "action payload could not be decoded"}
)

// Rejection is returned for every action that is not accepted. It wraps its
// Reason so callers can use errors.Is.
type Rejection struct {
	Kind   Kind
	Action ActionType
	Reason *Reason
	Detail string
}

func (r *Rejection) Error() string {
	msg := r.Reason.Message
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	if r.Action != "" {
		return fmt.Sprintf("%s rejected (%s): %s", r.Action, r.Reason.Code, msg)
	}
	return fmt.Sprintf("rejected (%s): %s", r.Reason.Code, msg)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// Reject builds a precondition rejection.
func Reject(reason *Reason, format string, args ...any) error {
	return &Rejection{Kind: KindPrecondition, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Illegal builds an illegal-transition rejection.
func Illegal(action ActionType, phase Phase) error {
	return &Rejection{
		Kind:   KindIllegalTransition,
		Action: action,
		Reason: ErrWrongPhase,
		Detail: fmt.Sprintf("phase is %s", phase),
	}
}

// AsRejection extracts a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
