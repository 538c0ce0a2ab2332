package rules

// ActionType is the wire name of a player action.
type ActionType string

const (
	ActionSendChat        ActionType = "sendChat"
	ActionRollNumber      ActionType = "rollNumber"
	ActionDiscardCards    ActionType = "discardCards"
	ActionRobPlayer       ActionType = "robPlayer"
	ActionFinishTurn      ActionType = "finishTurn"
	ActionBuyDevCard      ActionType = "buyDevCard"
	ActionSoldier         ActionType = "Soldier"
	ActionMonument        ActionType = "Monument"
	ActionRoadBuilding    ActionType = "Road_Building"
	ActionMonopoly        ActionType = "Monopoly"
	ActionYearOfPlenty    ActionType = "Year_of_Plenty"
	ActionBuildRoad       ActionType = "buildRoad"
	ActionBuildSettlement ActionType = "buildSettlement"
	ActionBuildCity       ActionType = "buildCity"
	ActionOfferTrade      ActionType = "offerTrade"
	ActionAcceptTrade     ActionType = "acceptTrade"
	ActionCancelTrade     ActionType = "cancelTrade"
	ActionMaritimeTrade   ActionType = "maritimeTrade"
)

var (
	anyPhase  = []Phase{PhaseFirstRound, PhaseSecondRound, PhaseRolling, PhaseDiscarding, PhaseRobbing, PhasePlaying, PhaseGameOver}
	placement = []Phase{PhaseFirstRound, PhaseSecondRound, PhasePlaying}
	playing   = []Phase{PhasePlaying}
)

// allowedPhases is the action-kind-vs-phase table consulted before any
// business rule runs.
var allowedPhases = map[ActionType][]Phase{
	ActionSendChat:        anyPhase,
	ActionRollNumber:      {PhaseRolling},
	ActionDiscardCards:    {PhaseDiscarding},
	ActionRobPlayer:       {PhaseRobbing},
	ActionFinishTurn:      placement,
	ActionBuyDevCard:      playing,
	ActionSoldier:         {PhaseRolling, PhasePlaying},
	ActionMonument:        playing,
	ActionRoadBuilding:    playing,
	ActionMonopoly:        playing,
	ActionYearOfPlenty:    playing,
	ActionBuildRoad:       placement,
	ActionBuildSettlement: placement,
	ActionBuildCity:       playing,
	ActionOfferTrade:      playing,
	ActionAcceptTrade:     playing,
	ActionCancelTrade:     playing,
	ActionMaritimeTrade:   playing,
}

// ActionTypes returns every known action type.
func ActionTypes() []ActionType {
	out := make([]ActionType, 0, len(allowedPhases))
	for t := range allowedPhases {
		out = append(out, t)
	}
	return out
}

// Known reports whether t is a recognised action type.
func (t ActionType) Known() bool {
	_, ok := allowedPhases[t]
	return ok
}

// AllowedIn reports whether t may be submitted while the game is in phase.
func (t ActionType) AllowedIn(phase Phase) bool {
	for _, p := range allowedPhases[t] {
		if p == phase {
			return true
		}
	}
	return false
}

// CanTransition is the phase gate: it checks that the action type exists,
// that the actor is a seated player, and that the type is allowed in phase.
// It does not check turn order or resources.
func CanTransition(phase Phase, action ActionType, actor, players int) error {
	if !action.Known() {
		return &Rejection{Kind: KindIllegalTransition, Action: action, Reason: ErrUnknownAction}
	}
	if actor < 0 || actor >= players {
		return &Rejection{Kind: KindPrecondition, Action: action, Reason: ErrInvalidPlayer}
	}
	if phase == PhaseGameOver && action != ActionSendChat {
		return &Rejection{Kind: KindIllegalTransition, Action: action, Reason: ErrGameOver}
	}
	if !action.AllowedIn(phase) {
		return Illegal(action, phase)
	}
	return nil
}
