// Package world provides the grid coordinates, objects and per-tick state
// view an agent reasons about, plus a small demo grid that hosts a run.
// Y grows southwards, matching the simulator the agents were written for.
package world

import "fmt"

// Location is a cell on the grid.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the location the way reports carry it: "(X, Y)".
func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.X, l.Y)
}

// Direction is one of the four grid moves.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// DirectionOffsets maps each direction to its cell offset.
var DirectionOffsets = [4]Location{
	North: {X: 0, Y: -1},
	East:  {X: 1, Y: 0},
	South: {X: 0, Y: 1},
	West:  {X: -1, Y: 0},
}

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// Step returns the neighbouring cell in direction d.
func (l Location) Step(d Direction) Location {
	off := DirectionOffsets[d]
	return Location{X: l.X + off.X, Y: l.Y + off.Y}
}

// South returns the cell directly below l.
func (l Location) South() Location {
	return l.Step(South)
}

// Distance returns the Manhattan distance between two locations.
func Distance(a, b Location) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
