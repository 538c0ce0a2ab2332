package board

import "fmt"

// HexLocation is an axial hex coordinate. Y grows towards the south, and the
// north-east neighbour of (x, y) is (x+1, y-1).
type HexLocation struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (h HexLocation) String() string {
	return fmt.Sprintf("(%d,%d)", h.X, h.Y)
}

// Ring returns the hex distance from the centre.
func (h HexLocation) Ring() int {
	return max(abs(h.X), abs(h.Y), abs(h.X+h.Y))
}

// Neighbor returns the hex sharing the edge in direction d.
func (h HexLocation) Neighbor(d EdgeDirection) HexLocation {
	switch d {
	case N:
		return HexLocation{h.X, h.Y - 1}
	case NE:
		return HexLocation{h.X + 1, h.Y - 1}
	case SE:
		return HexLocation{h.X + 1, h.Y}
	case S:
		return HexLocation{h.X, h.Y + 1}
	case SW:
		return HexLocation{h.X - 1, h.Y + 1}
	case NW:
		return HexLocation{h.X - 1, h.Y}
	}
	return h
}

// Vertices returns the six corners of the hex in canonical form.
func (h HexLocation) Vertices() [6]VertexLocation {
	var out [6]VertexLocation
	for i, d := range VertexDirections {
		out[i] = VertexLocation{Hex: h, Dir: d}.Normalize()
	}
	return out
}

// EdgeDirection names a side of a flat-topped hex.
type EdgeDirection string

const (
	NW EdgeDirection = "NW"
	N  EdgeDirection = "N"
	NE EdgeDirection = "NE"
	SE EdgeDirection = "SE"
	S  EdgeDirection = "S"
	SW EdgeDirection = "SW"
)

// EdgeDirections lists the six sides clockwise from north-west.
var EdgeDirections = []EdgeDirection{NW, N, NE, SE, S, SW}

// Opposite returns the direction of the same edge seen from the neighbour.
func (d EdgeDirection) Opposite() EdgeDirection {
	switch d {
	case NW:
		return SE
	case N:
		return S
	case NE:
		return SW
	case SE:
		return NW
	case S:
		return N
	case SW:
		return NE
	}
	return d
}

// Valid reports whether d is a known edge direction.
func (d EdgeDirection) Valid() bool {
	switch d {
	case NW, N, NE, SE, S, SW:
		return true
	}
	return false
}

// VertexDirection names a corner of a flat-topped hex.
type VertexDirection string

const (
	VW  VertexDirection = "W"
	VNW VertexDirection = "NW"
	VNE VertexDirection = "NE"
	VE  VertexDirection = "E"
	VSE VertexDirection = "SE"
	VSW VertexDirection = "SW"
)

// VertexDirections lists the six corners clockwise from west.
var VertexDirections = []VertexDirection{VW, VNW, VNE, VE, VSE, VSW}

// Valid reports whether d is a known vertex direction.
func (d VertexDirection) Valid() bool {
	switch d {
	case VW, VNW, VNE, VE, VSE, VSW:
		return true
	}
	return false
}

// EdgeLocation identifies a hex side. Every physical edge has exactly one
// canonical form, whose direction is NW, N or NE.
type EdgeLocation struct {
	Hex HexLocation   `json:"hex"`
	Dir EdgeDirection `json:"direction"`
}

// Normalize returns the canonical form of e.
func (e EdgeLocation) Normalize() EdgeLocation {
	switch e.Dir {
	case SE, S, SW:
		return EdgeLocation{Hex: e.Hex.Neighbor(e.Dir), Dir: e.Dir.Opposite()}
	}
	return e
}

// Equal compares two edges by the physical side they name.
func (e EdgeLocation) Equal(o EdgeLocation) bool {
	return e.Normalize() == o.Normalize()
}

// Hexes returns the two hexes sharing the edge.
func (e EdgeLocation) Hexes() [2]HexLocation {
	e = e.Normalize()
	return [2]HexLocation{e.Hex, e.Hex.Neighbor(e.Dir)}
}

// Vertices returns the two canonical endpoints of the edge.
func (e EdgeLocation) Vertices() [2]VertexLocation {
	e = e.Normalize()
	h := e.Hex
	switch e.Dir {
	case N:
		return [2]VertexLocation{{h, VNW}, {h, VNE}}
	case NE:
		return [2]VertexLocation{{h, VNE}, VertexLocation{h, VE}.Normalize()}
	default: // NW
		return [2]VertexLocation{VertexLocation{h, VW}.Normalize(), {h, VNW}}
	}
}

func (e EdgeLocation) String() string {
	e = e.Normalize()
	return fmt.Sprintf("%s/%s", e.Hex, e.Dir)
}

// VertexLocation identifies a hex corner. The canonical form uses NW or NE.
type VertexLocation struct {
	Hex HexLocation     `json:"hex"`
	Dir VertexDirection `json:"direction"`
}

// Normalize returns the canonical form of v.
func (v VertexLocation) Normalize() VertexLocation {
	h := v.Hex
	switch v.Dir {
	case VW:
		return VertexLocation{HexLocation{h.X - 1, h.Y + 1}, VNE}
	case VE:
		return VertexLocation{HexLocation{h.X + 1, h.Y}, VNW}
	case VSE:
		return VertexLocation{HexLocation{h.X, h.Y + 1}, VNE}
	case VSW:
		return VertexLocation{HexLocation{h.X, h.Y + 1}, VNW}
	}
	return v
}

// Equal compares two vertices by the physical corner they name.
func (v VertexLocation) Equal(o VertexLocation) bool {
	return v.Normalize() == o.Normalize()
}

// Edges returns the three canonical edges meeting at the vertex.
func (v VertexLocation) Edges() [3]EdgeLocation {
	v = v.Normalize()
	h := v.Hex
	if v.Dir == VNW {
		return [3]EdgeLocation{
			{h, N},
			{h, NW},
			{HexLocation{h.X - 1, h.Y}, NE},
		}
	}
	return [3]EdgeLocation{
		{h, N},
		{h, NE},
		{HexLocation{h.X + 1, h.Y - 1}, NW},
	}
}

// Hexes returns the three hexes touching the vertex.
func (v VertexLocation) Hexes() [3]HexLocation {
	v = v.Normalize()
	h := v.Hex
	if v.Dir == VNW {
		return [3]HexLocation{h, {h.X - 1, h.Y}, {h.X, h.Y - 1}}
	}
	return [3]HexLocation{h, {h.X, h.Y - 1}, {h.X + 1, h.Y - 1}}
}

// Neighbors returns the three vertices one edge away.
func (v VertexLocation) Neighbors() [3]VertexLocation {
	v = v.Normalize()
	var out [3]VertexLocation
	for i, e := range v.Edges() {
		ends := e.Vertices()
		if ends[0] == v {
			out[i] = ends[1]
		} else {
			out[i] = ends[0]
		}
	}
	return out
}

func (v VertexLocation) String() string {
	v = v.Normalize()
	return fmt.Sprintf("%s/%s", v.Hex, v.Dir)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
