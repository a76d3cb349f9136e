package models

import "fmt"

// Side identifies one of the six face categories of a cell.
type Side uint8

const (
	SideTop Side = iota
	SideBottom
	SideLeft
	SideRight
	SideCeiling
	SideFloor

	SideCount = 6
)

var sideNames = [SideCount]string{
	SideTop:     "top",
	SideBottom:  "bottom",
	SideLeft:    "left",
	SideRight:   "right",
	SideCeiling: "ceiling",
	SideFloor:   "floor",
}

// HorizontalSides are the sides whose portals are connected by the graph
// builder.
var HorizontalSides = []Side{SideLeft, SideRight, SideTop, SideBottom}

func (s Side) String() string {
	if s >= SideCount {
		return fmt.Sprintf("side(%d)", uint8(s))
	}
	return sideNames[s]
}

// Opposite returns the side a neighbour uses for the same boundary.
func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	case SideCeiling:
		return SideFloor
	case SideFloor:
		return SideCeiling
	default:
		return s
	}
}

func (s Side) IsHorizontal() bool {
	return s == SideTop || s == SideBottom || s == SideLeft || s == SideRight
}

// ParseSide returns the side with the given name.
func ParseSide(name string) (Side, bool) {
	for i, n := range sideNames {
		if n == name {
			return Side(i), true
		}
	}
	return 0, false
}
