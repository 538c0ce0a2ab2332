package board

import (
	"math/rand"

	"github.com/catanforge/catan-server-go/internal/game/resources"
)

// LandRadius is the ring of the outermost land hexes; the ring beyond it is sea.
const LandRadius = 2

// Layout selects which parts of the board are shuffled.
type Layout struct {
	RandomTiles   bool  `json:"randomTiles"`
	RandomNumbers bool  `json:"randomNumbers"`
	RandomPorts   bool  `json:"randomPorts"`
	Seed          int64 `json:"seed"`
}

var defaultHexes = []Hex{
	{Location: HexLocation{-2, 0}, Resource: resources.Ore, Number: 5},
	{Location: HexLocation{-2, 1}, Resource: resources.Wheat, Number: 2},
	{Location: HexLocation{-2, 2}, Resource: resources.Wood, Number: 6},
	{Location: HexLocation{-1, -1}, Resource: resources.Brick, Number: 8},
	{Location: HexLocation{-1, 0}, Resource: resources.Wood, Number: 4},
	{Location: HexLocation{-1, 1}, Resource: resources.Sheep, Number: 10},
	{Location: HexLocation{-1, 2}, Resource: resources.Sheep, Number: 3},
	{Location: HexLocation{0, -2}, Resource: resources.Wheat, Number: 9},
	{Location: HexLocation{0, -1}, Resource: resources.Sheep, Number: 11},
	{Location: HexLocation{0, 0}},
	{Location: HexLocation{0, 1}, Resource: resources.Wood, Number: 3},
	{Location: HexLocation{0, 2}, Resource: resources.Ore, Number: 8},
	{Location: HexLocation{1, -2}, Resource: resources.Brick, Number: 4},
	{Location: HexLocation{1, -1}, Resource: resources.Wheat, Number: 5},
	{Location: HexLocation{1, 0}, Resource: resources.Brick, Number: 10},
	{Location: HexLocation{1, 1}, Resource: resources.Wheat, Number: 6},
	{Location: HexLocation{2, -2}, Resource: resources.Sheep, Number: 9},
	{Location: HexLocation{2, -1}, Resource: resources.Ore, Number: 11},
	{Location: HexLocation{2, 0}, Resource: resources.Wood, Number: 12},
}

var defaultPorts = []Port{
	{Resource: resources.Ore, Location: HexLocation{1, -3}, Direction: S, Ratio: 2},
	{Location: HexLocation{3, -3}, Direction: SW, Ratio: 3},
	{Resource: resources.Sheep, Location: HexLocation{3, -1}, Direction: NW, Ratio: 2},
	{Location: HexLocation{2, 1}, Direction: NW, Ratio: 3},
	{Resource: resources.Brick, Location: HexLocation{-2, 3}, Direction: NE, Ratio: 2},
	{Location: HexLocation{0, 3}, Direction: N, Ratio: 3},
	{Resource: resources.Wood, Location: HexLocation{-3, 2}, Direction: NE, Ratio: 2},
	{Location: HexLocation{-3, 0}, Direction: SE, Ratio: 3},
	{Resource: resources.Wheat, Location: HexLocation{-1, -2}, Direction: S, Ratio: 2},
}

// NewMap builds a board. The same Layout always produces the same board.
func NewMap(layout Layout) *Map {
	rng := rand.New(rand.NewSource(layout.Seed))

	hexes := append([]Hex(nil), defaultHexes...)
	if layout.RandomTiles {
		kinds := make([]resources.Kind, len(hexes))
		for i, h := range hexes {
			kinds[i] = h.Resource
		}
		rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

		numbers := make([]int, 0, len(hexes))
		for _, h := range defaultHexes {
			if !h.Desert() {
				numbers = append(numbers, h.Number)
			}
		}
		next := 0
		for i := range hexes {
			hexes[i].Resource = kinds[i]
			hexes[i].Number = 0
			if kinds[i] != "" {
				hexes[i].Number = numbers[next]
				next++
			}
		}
	}
	if layout.RandomNumbers {
		var idx []int
		for i, h := range hexes {
			if !h.Desert() {
				idx = append(idx, i)
			}
		}
		rng.Shuffle(len(idx), func(i, j int) {
			a, b := idx[i], idx[j]
			hexes[a].Number, hexes[b].Number = hexes[b].Number, hexes[a].Number
		})
	}

	ports := append([]Port(nil), defaultPorts...)
	if layout.RandomPorts {
		rng.Shuffle(len(ports), func(i, j int) {
			ports[i].Resource, ports[j].Resource = ports[j].Resource, ports[i].Resource
			ports[i].Ratio, ports[j].Ratio = ports[j].Ratio, ports[i].Ratio
		})
	}

	m := &Map{
		Radius:    LandRadius + 1,
		Hexes:     hexes,
		Ports:     ports,
		Roads:     []Road{},
		Buildings: []Building{},
	}
	for _, h := range hexes {
		if h.Desert() {
			m.Robber = h.Location
			break
		}
	}
	return m
}
