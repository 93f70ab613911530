package goals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochaviz/collaborative-agent/internal/world"
)

var (
	red   = world.Visualization{Colour: "#ff0000", Shape: 1}
	green = world.Visualization{Colour: "#0dff00", Shape: 0}
	blue  = world.Visualization{Colour: "#0008ff", Shape: 2}
)

func loc(x, y int) world.Location { return world.Location{X: x, Y: y} }

func TestResolveImmediateTarget(t *testing.T) {
	r := NewRegistry([]world.GoalSpec{{Vis: red, Location: loc(0, 0)}})

	targets, found := r.Resolve([]Collectable{{Vis: red, Location: loc(2, 2), ObjectID: "b1"}}, r.Cursor(), 1)

	require.Len(t, targets, 1)
	assert.Equal(t, "b1", targets[0].ObjectID)
	assert.Equal(t, 0, targets[0].GoalIndex)
	assert.Len(t, found, 1)
	_, deferred := r.MatchFor(0)
	assert.False(t, deferred)
}

func TestResolveDeferredPastCursor(t *testing.T) {
	r := NewRegistry([]world.GoalSpec{{Vis: red, Location: loc(0, 0)}})
	require.True(t, r.Advance())

	targets, found := r.Resolve([]Collectable{{Vis: red, Location: loc(2, 2), ObjectID: "b1"}}, r.Cursor(), 1)

	assert.Empty(t, targets)
	assert.Len(t, found, 1)
	m, ok := r.MatchFor(0)
	require.True(t, ok)
	assert.Equal(t, loc(2, 2), m.Location)
	_, pending := r.NextPending()
	assert.False(t, pending)
}

func TestResolveKeepsCloserCandidate(t *testing.T) {
	r := NewRegistry([]world.GoalSpec{
		{Vis: green, Location: loc(20, 10)},
		{Vis: red, Location: loc(20, 9)},
	})

	r.Resolve([]Collectable{{Vis: red, Location: loc(2, 2), ObjectID: "far"}}, 0, 1)
	r.Resolve([]Collectable{{Vis: red, Location: loc(15, 2), ObjectID: "near"}}, 0, 1)
	r.Resolve([]Collectable{{Vis: red, Location: loc(3, 2), ObjectID: "farther"}}, 0, 1)

	m, ok := r.MatchFor(1)
	require.True(t, ok)
	assert.Equal(t, "near", m.ObjectID)

	require.True(t, r.Advance())
	next, ok := r.NextPending()
	require.True(t, ok)
	assert.Equal(t, 1, next.GoalIndex)
}

func TestResolveWindowOrdersTargets(t *testing.T) {
	r := NewRegistry([]world.GoalSpec{
		{Vis: green, Location: loc(20, 10)},
		{Vis: red, Location: loc(20, 9)},
		{Vis: blue, Location: loc(20, 8)},
	})

	targets, found := r.Resolve([]Collectable{
		{Vis: blue, Location: loc(1, 1), ObjectID: "b3"},
		{Vis: red, Location: loc(1, 2), ObjectID: "b2"},
		{Vis: red, Location: loc(1, 3), ObjectID: "b2bis"},
		{Vis: world.Visualization{Colour: "#123456", Shape: 4}, Location: loc(1, 4), ObjectID: "junk"},
	}, 1, 2)

	require.Len(t, targets, 2)
	assert.Equal(t, "b2", targets[0].ObjectID)
	assert.Equal(t, "b3", targets[1].ObjectID)
	assert.Len(t, found, 3)
}

func TestRememberSkipsDeliveredGoals(t *testing.T) {
	r := NewRegistry([]world.GoalSpec{
		{Vis: red, Location: loc(20, 10)},
		{Vis: red, Location: loc(20, 9)},
	})
	require.True(t, r.Advance())

	n := r.Remember(Collectable{Vis: red, Location: loc(4, 3), Source: "bob"})
	assert.Equal(t, 1, n)
	_, ok := r.MatchFor(0)
	assert.False(t, ok)
	m, ok := r.NextPending()
	require.True(t, ok)
	assert.True(t, m.Hearsay())
	assert.Equal(t, "bob", m.Source)

	assert.Equal(t, 1, r.ClearMatchAt(red, loc(4, 3)))
	_, ok = r.NextPending()
	assert.False(t, ok)
}

func TestRememberDoesNotDowngradeSighting(t *testing.T) {
	r := NewRegistry([]world.GoalSpec{{Vis: green, Location: loc(9, 9)}, {Vis: red, Location: loc(9, 8)}})
	r.Resolve([]Collectable{{Vis: red, Location: loc(4, 3), ObjectID: "b1"}}, 0, 1)

	assert.Equal(t, 0, r.Remember(Collectable{Vis: red, Location: loc(4, 3), Source: "bob"}))
	m, _ := r.MatchFor(1)
	assert.Equal(t, "b1", m.ObjectID)
}

func TestCursorBounds(t *testing.T) {
	r := NewRegistry([]world.GoalSpec{{Vis: red, Location: loc(0, 0)}, {Vis: green, Location: loc(0, 1)}})

	assert.False(t, r.Rollback())
	assert.True(t, r.Advance())
	assert.True(t, r.Advance())
	assert.True(t, r.Exhausted())
	assert.False(t, r.Advance())
	assert.Equal(t, 2, r.Cursor())
	_, ok := r.Current()
	assert.False(t, ok)
	assert.True(t, r.Rollback())
	assert.Equal(t, 1, r.Cursor())
}

func TestDropCandidates(t *testing.T) {
	r := NewRegistry([]world.GoalSpec{
		{Vis: red, Location: loc(20, 10)},
		{Vis: green, Location: loc(20, 9)},
	})
	assert.Equal(t, 1, r.DropCandidates(red, loc(20, 10)))
	assert.Equal(t, 0, r.DropCandidates(red, loc(20, 9)))
	assert.Equal(t, 0, r.IndexOf(red))
	assert.Equal(t, -1, r.IndexOf(blue))
}
