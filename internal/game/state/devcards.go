package state

import "fmt"

// DevCardType is a development card kind.
type DevCardType string

const (
	Soldier      DevCardType = "soldier"
	Monument     DevCardType = "monument"
	RoadBuilding DevCardType = "roadBuilding"
	Monopoly     DevCardType = "monopoly"
	YearOfPlenty DevCardType = "yearOfPlenty"
)

// DevCardTypes lists every card type in canonical order.
var DevCardTypes = []DevCardType{Soldier, Monument, RoadBuilding, Monopoly, YearOfPlenty}

// Valid reports whether t is a known card type.
func (t DevCardType) Valid() bool {
	switch t {
	case Soldier, Monument, RoadBuilding, Monopoly, YearOfPlenty:
		return true
	}
	return false
}

// DevCards counts development cards per type.
type DevCards struct {
	Soldier      int `json:"soldier"`
	Monument     int `json:"monument"`
	RoadBuilding int `json:"roadBuilding"`
	Monopoly     int `json:"monopoly"`
	YearOfPlenty int `json:"yearOfPlenty"`
}

// FullDeck returns the 25 card deck a game starts with.
func FullDeck() DevCards {
	return DevCards{Soldier: 14, Monument: 5, RoadBuilding: 2, Monopoly: 2, YearOfPlenty: 2}
}

func (d DevCards) Get(t DevCardType) int {
	switch t {
	case Soldier:
		return d.Soldier
	case Monument:
		return d.Monument
	case RoadBuilding:
		return d.RoadBuilding
	case Monopoly:
		return d.Monopoly
	case YearOfPlenty:
		return d.YearOfPlenty
	}
	return 0
}

func (d *DevCards) Add(t DevCardType, n int) {
	switch t {
	case Soldier:
		d.Soldier += n
	case Monument:
		d.Monument += n
	case RoadBuilding:
		d.RoadBuilding += n
	case Monopoly:
		d.Monopoly += n
	case YearOfPlenty:
		d.YearOfPlenty += n
	}
}

// Merge adds every count of o.
func (d *DevCards) Merge(o DevCards) {
	for _, t := range DevCardTypes {
		d.Add(t, o.Get(t))
	}
}

func (d DevCards) Total() int {
	return d.Soldier + d.Monument + d.RoadBuilding + d.Monopoly + d.YearOfPlenty
}

func (d DevCards) String() string {
	return fmt.Sprintf("{soldier:%d monument:%d roadBuilding:%d monopoly:%d yearOfPlenty:%d}",
		d.Soldier, d.Monument, d.RoadBuilding, d.Monopoly, d.YearOfPlenty)
}
