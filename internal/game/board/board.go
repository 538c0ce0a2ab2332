package board

import (
	"github.com/catanforge/catan-server-go/internal/game/resources"
)

// Piece limits per player.
const (
	MaxRoads       = 15
	MaxSettlements = 5
	MaxCities      = 4
)

// NoOwner marks an empty location.
const NoOwner = -1

// Hex is a land tile. Desert hexes carry no resource and no number.
type Hex struct {
	Location HexLocation    `json:"location"`
	Resource resources.Kind `json:"resource,omitempty"`
	Number   int            `json:"number,omitempty"`
}

// Desert reports whether the hex produces nothing.
func (h Hex) Desert() bool {
	return h.Resource == ""
}

// Port is a harbor on a coastal edge. A port without a resource is generic.
type Port struct {
	Resource  resources.Kind `json:"resource,omitempty"`
	Location  HexLocation    `json:"location"`
	Direction EdgeDirection  `json:"direction"`
	Ratio     int            `json:"ratio"`
}

// Edge returns the coastal edge the harbor serves.
func (p Port) Edge() EdgeLocation {
	return EdgeLocation{Hex: p.Location, Dir: p.Direction}.Normalize()
}

// Generic reports whether the harbor trades any resource.
func (p Port) Generic() bool {
	return p.Resource == ""
}

// Road is a placed road.
type Road struct {
	Owner    int          `json:"owner"`
	Location EdgeLocation `json:"location"`
}

// Building is a settlement or, once upgraded, a city.
type Building struct {
	Owner    int            `json:"owner"`
	Location VertexLocation `json:"location"`
	City     bool           `json:"city"`
}

// Map is the board: land hexes, harbors, pieces and the robber.
// Slices keep insertion order so serialized snapshots are deterministic.
type Map struct {
	Radius    int         `json:"radius"`
	Hexes     []Hex       `json:"hexes"`
	Ports     []Port      `json:"ports"`
	Roads     []Road      `json:"roads"`
	Buildings []Building  `json:"buildings"`
	Robber    HexLocation `json:"robber"`
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := *m
	out.Hexes = append(make([]Hex, 0, len(m.Hexes)), m.Hexes...)
	out.Ports = append(make([]Port, 0, len(m.Ports)), m.Ports...)
	out.Roads = append(make([]Road, 0, len(m.Roads)), m.Roads...)
	out.Buildings = append(make([]Building, 0, len(m.Buildings)), m.Buildings...)
	return &out
}

// Hex returns the land hex at loc.
func (m *Map) Hex(loc HexLocation) (Hex, bool) {
	for _, h := range m.Hexes {
		if h.Location == loc {
			return h, true
		}
	}
	return Hex{}, false
}

// IsLand reports whether loc is a land hex on this map.
func (m *Map) IsLand(loc HexLocation) bool {
	_, ok := m.Hex(loc)
	return ok
}

// EdgeOnLand reports whether at least one side of the edge is land.
func (m *Map) EdgeOnLand(e EdgeLocation) bool {
	for _, h := range e.Hexes() {
		if m.IsLand(h) {
			return true
		}
	}
	return false
}

// VertexOnLand reports whether the vertex touches at least one land hex.
func (m *Map) VertexOnLand(v VertexLocation) bool {
	for _, h := range v.Hexes() {
		if m.IsLand(h) {
			return true
		}
	}
	return false
}

// RoadAt returns the owner of the road on e, or NoOwner.
func (m *Map) RoadAt(e EdgeLocation) int {
	e = e.Normalize()
	for _, r := range m.Roads {
		if r.Location == e {
			return r.Owner
		}
	}
	return NoOwner
}

// BuildingAt returns the building on v.
func (m *Map) BuildingAt(v VertexLocation) (Building, bool) {
	v = v.Normalize()
	for _, b := range m.Buildings {
		if b.Location == v {
			return b, true
		}
	}
	return Building{}, false
}

// OwnerAt returns the owner of the building on v, or NoOwner.
func (m *Map) OwnerAt(v VertexLocation) int {
	if b, ok := m.BuildingAt(v); ok {
		return b.Owner
	}
	return NoOwner
}

// PlaceRoad records a road. Callers validate first.
func (m *Map) PlaceRoad(owner int, e EdgeLocation) {
	m.Roads = append(m.Roads, Road{Owner: owner, Location: e.Normalize()})
}

// PlaceSettlement records a settlement. Callers validate first.
func (m *Map) PlaceSettlement(owner int, v VertexLocation) {
	m.Buildings = append(m.Buildings, Building{Owner: owner, Location: v.Normalize()})
}

// UpgradeToCity turns the settlement on v into a city.
func (m *Map) UpgradeToCity(v VertexLocation) bool {
	v = v.Normalize()
	for i := range m.Buildings {
		if m.Buildings[i].Location == v && !m.Buildings[i].City {
			m.Buildings[i].City = true
			return true
		}
	}
	return false
}

// CountRoads returns how many roads a player has placed.
func (m *Map) CountRoads(owner int) int {
	n := 0
	for _, r := range m.Roads {
		if r.Owner == owner {
			n++
		}
	}
	return n
}

// CountBuildings returns a player's settlements and cities on the board.
func (m *Map) CountBuildings(owner int) (settlements, cities int) {
	for _, b := range m.Buildings {
		if b.Owner != owner {
			continue
		}
		if b.City {
			cities++
		} else {
			settlements++
		}
	}
	return settlements, cities
}

// PlayerTouchesVertex reports whether owner has a road ending at v.
func (m *Map) PlayerTouchesVertex(owner int, v VertexLocation) bool {
	for _, e := range v.Edges() {
		if m.RoadAt(e) == owner {
			return true
		}
	}
	return false
}

// BuildingsOnHex returns the buildings on the corners of a hex.
func (m *Map) BuildingsOnHex(loc HexLocation) []Building {
	var out []Building
	for _, v := range loc.Vertices() {
		if b, ok := m.BuildingAt(v); ok {
			out = append(out, b)
		}
	}
	return out
}

// PlayerPorts returns the harbors where owner has a building on either
// endpoint of the harbor edge.
func (m *Map) PlayerPorts(owner int) []Port {
	var out []Port
	for _, p := range m.Ports {
		for _, v := range p.Edge().Vertices() {
			if m.OwnerAt(v) == owner {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
