package board

// LongestRoad returns the number of edges in owner's longest simple road
// path. An opponent building on a vertex breaks the path there.
func (m *Map) LongestRoad(owner int) int {
	best := 0
	used := make(map[EdgeLocation]bool)
	for _, r := range m.Roads {
		if r.Owner != owner {
			continue
		}
		for _, v := range r.Location.Vertices() {
			best = max(best, m.extendRoad(owner, v, used))
		}
	}
	return best
}

func (m *Map) extendRoad(owner int, v VertexLocation, used map[EdgeLocation]bool) int {
	best := 0
	for _, e := range v.Edges() {
		if used[e] || m.RoadAt(e) != owner {
			continue
		}
		used[e] = true
		ends := e.Vertices()
		next := ends[0]
		if next == v {
			next = ends[1]
		}
		length := 1
		if o := m.OwnerAt(next); o == NoOwner || o == owner {
			length += m.extendRoad(owner, next, used)
		}
		used[e] = false
		best = max(best, length)
	}
	return best
}

// RoadConnects reports whether a road on e would join owner's network:
// an endpoint holds owner's building, or an endpoint not blocked by an
// opponent building already touches one of owner's roads (or one of extra).
func (m *Map) RoadConnects(owner int, e EdgeLocation, extra ...EdgeLocation) bool {
	e = e.Normalize()
	for _, v := range e.Vertices() {
		occupant := m.OwnerAt(v)
		if occupant == owner {
			return true
		}
		if occupant != NoOwner {
			continue
		}
		for _, adj := range v.Edges() {
			if adj == e {
				continue
			}
			if m.RoadAt(adj) == owner {
				return true
			}
			for _, x := range extra {
				if x.Normalize() == adj {
					return true
				}
			}
		}
	}
	return false
}

// VertexFree reports whether a building may stand on v under the distance
// rule: v and its three neighbours are empty.
func (m *Map) VertexFree(v VertexLocation) bool {
	if m.OwnerAt(v) != NoOwner {
		return false
	}
	for _, n := range v.Neighbors() {
		if m.OwnerAt(n) != NoOwner {
			return false
		}
	}
	return true
}
