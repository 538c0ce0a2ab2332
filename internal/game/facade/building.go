package facade

import (
	"github.com/catanforge/catan-server-go/internal/game/board"
	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// setupRound returns 1 or 2 during the placement rounds and 0 otherwise.
func setupRound(g *state.GameState) int {
	switch g.Phase() {
	case rules.PhaseFirstRound:
		return 1
	case rules.PhaseSecondRound:
		return 2
	}
	return 0
}

// CheckBuildRoad validates a road placement. During setup the road is free
// and must touch the settlement just placed.
func CheckBuildRoad(g *state.GameState, idx int, e board.EdgeLocation) error {
	if err := requirePhase(g, rules.ActionBuildRoad, rules.PhaseFirstRound, rules.PhaseSecondRound, rules.PhasePlaying); err != nil {
		return err
	}
	if err := requireTurn(g, idx); err != nil {
		return err
	}
	if err := checkRoadSpot(g, idx, e); err != nil {
		return err
	}
	if g.Map.CountRoads(idx) >= board.MaxRoads {
		return rules.Reject(rules.ErrNoPieces, "no roads left")
	}

	if round := setupRound(g); round > 0 {
		settlements, _ := g.Map.CountBuildings(idx)
		if settlements != round || g.Map.CountRoads(idx) != round-1 {
			return rules.Reject(rules.ErrSetupOrder, "place a settlement before its road")
		}
		for _, v := range e.Vertices() {
			if g.Map.OwnerAt(v) == idx && !g.Map.PlayerTouchesVertex(idx, v) {
				return nil
			}
		}
		return rules.Reject(rules.ErrNotConnected, "road must touch the new settlement")
	}

	if !g.Map.RoadConnects(idx, e) {
		return rules.Reject(rules.ErrNotConnected, "edge %s", e)
	}
	return requireAffordable(g.Players[idx], RoadCost)
}

// checkRoadSpot validates that e is a free edge touching land.
func checkRoadSpot(g *state.GameState, idx int, e board.EdgeLocation) error {
	if !e.Dir.Valid() || !g.Map.EdgeOnLand(e) {
		return rules.Reject(rules.ErrInvalidLocation, "edge %s", e)
	}
	if g.Map.RoadAt(e) != board.NoOwner {
		return rules.Reject(rules.ErrOccupied, "edge %s", e)
	}
	return nil
}

// CanBuildRoad is the boolean form of CheckBuildRoad.
func CanBuildRoad(g *state.GameState, idx int, e board.EdgeLocation) bool {
	return CheckBuildRoad(g, idx, e) == nil
}

// BuildRoad places a road, paying for it outside setup.
func BuildRoad(g *state.GameState, idx int, e board.EdgeLocation) {
	if setupRound(g) == 0 {
		payToBank(g, idx, RoadCost)
	}
	g.Map.PlaceRoad(idx, e)
	g.AddLog(idx, "built a road")
	UpdateLongestRoad(g)
}

// CheckBuildSettlement validates a settlement placement: the distance rule
// always applies, and outside setup it must touch one of the player's roads.
func CheckBuildSettlement(g *state.GameState, idx int, v board.VertexLocation) error {
	if err := requirePhase(g, rules.ActionBuildSettlement, rules.PhaseFirstRound, rules.PhaseSecondRound, rules.PhasePlaying); err != nil {
		return err
	}
	if err := requireTurn(g, idx); err != nil {
		return err
	}
	if !v.Dir.Valid() || !g.Map.VertexOnLand(v) {
		return rules.Reject(rules.ErrInvalidLocation, "vertex %s", v)
	}
	if g.Map.OwnerAt(v) != board.NoOwner {
		return rules.Reject(rules.ErrOccupied, "vertex %s", v)
	}
	if !g.Map.VertexFree(v) {
		return rules.Reject(rules.ErrDistanceRule, "vertex %s", v)
	}
	settlements, cities := g.Map.CountBuildings(idx)
	if settlements >= board.MaxSettlements {
		return rules.Reject(rules.ErrNoPieces, "no settlements left")
	}

	if round := setupRound(g); round > 0 {
		if settlements+cities != round-1 || g.Map.CountRoads(idx) != round-1 {
			return rules.Reject(rules.ErrSetupOrder, "one settlement per setup round")
		}
		return nil
	}

	if !g.Map.PlayerTouchesVertex(idx, v) {
		return rules.Reject(rules.ErrNotConnected, "vertex %s", v)
	}
	return requireAffordable(g.Players[idx], SettlementCost)
}

// CanBuildSettlement is the boolean form of CheckBuildSettlement.
func CanBuildSettlement(g *state.GameState, idx int, v board.VertexLocation) bool {
	return CheckBuildSettlement(g, idx, v) == nil
}

// BuildSettlement places a settlement. The second setup settlement collects
// one card from every adjacent producing hex.
func BuildSettlement(g *state.GameState, idx int, v board.VertexLocation) {
	round := setupRound(g)
	if round == 0 {
		payToBank(g, idx, SettlementCost)
	}
	g.Map.PlaceSettlement(idx, v)
	g.AddLog(idx, "built a settlement")

	if round == 2 {
		var income resources.Set
		for _, loc := range v.Hexes() {
			h, ok := g.Map.Hex(loc)
			if !ok || h.Desert() {
				continue
			}
			if g.Bank.Get(h.Resource) > income.Get(h.Resource) {
				income.Add(h.Resource, 1)
			}
		}
		takeFromBank(g, idx, income)
	}
	// a settlement can cut an opponent's road
	UpdateLongestRoad(g)
}

// CheckBuildCity validates upgrading one of the player's settlements.
func CheckBuildCity(g *state.GameState, idx int, v board.VertexLocation) error {
	if err := requirePhase(g, rules.ActionBuildCity, rules.PhasePlaying); err != nil {
		return err
	}
	if err := requireTurn(g, idx); err != nil {
		return err
	}
	b, ok := g.Map.BuildingAt(v)
	if !ok || b.Owner != idx || b.City {
		return rules.Reject(rules.ErrNotYourBuilding, "vertex %s", v)
	}
	if _, cities := g.Map.CountBuildings(idx); cities >= board.MaxCities {
		return rules.Reject(rules.ErrNoPieces, "no cities left")
	}
	return requireAffordable(g.Players[idx], CityCost)
}

// CanBuildCity is the boolean form of CheckBuildCity.
func CanBuildCity(g *state.GameState, idx int, v board.VertexLocation) bool {
	return CheckBuildCity(g, idx, v) == nil
}

// BuildCity upgrades a settlement.
func BuildCity(g *state.GameState, idx int, v board.VertexLocation) {
	payToBank(g, idx, CityCost)
	g.Map.UpgradeToCity(v)
	g.AddLog(idx, "built a city")
}
