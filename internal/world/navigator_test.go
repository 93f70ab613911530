package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaypointNavigator(t *testing.T) {
	nav := NewNavigator()
	nav.AddWaypoints(Location{X: 2, Y: 1}, Location{X: 2, Y: 0})

	pos := Location{X: 0, Y: 0}
	var moves []Direction
	for i := 0; i < 10; i++ {
		dir, ok := nav.Next(pos)
		if !ok {
			break
		}
		moves = append(moves, dir)
		pos = pos.Step(dir)
	}

	assert.Equal(t, []Direction{East, East, South, North}, moves)
	assert.Equal(t, Location{X: 2, Y: 0}, pos)
	assert.Equal(t, 0, nav.Pending())
}

func TestNavigatorReset(t *testing.T) {
	nav := NewNavigator()
	nav.AddWaypoints(Location{X: 5, Y: 5})
	nav.Reset()
	_, ok := nav.Next(Location{})
	assert.False(t, ok)
}

func TestLocationHelpers(t *testing.T) {
	a := Location{X: 3, Y: 4}
	assert.Equal(t, "(3, 4)", a.String())
	assert.Equal(t, Location{X: 3, Y: 5}, a.South())
	assert.Equal(t, 7, Distance(Location{}, a))
	assert.Equal(t, "MoveWest", Move(West).String())
	assert.Equal(t, "GrabObject", Grab("x").String())
}
