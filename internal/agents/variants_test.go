package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochaviz/collaborative-agent/internal/entropy"
	"github.com/cochaviz/collaborative-agent/internal/goals"
	"github.com/cochaviz/collaborative-agent/internal/observation"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

func TestNewPolicy(t *testing.T) {
	opts := DefaultVariantOptions()
	for _, name := range Variants {
		p, err := NewPolicy(name, opts, entropy.NewSeeded(1))
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
	}

	p, err := NewPolicy("", opts, nil)
	require.NoError(t, err)
	assert.Equal(t, VariantBaseline, p.Name())

	_, err = NewPolicy("sneaky", opts, nil)
	assert.Error(t, err)
}

func TestCapacities(t *testing.T) {
	opts := DefaultVariantOptions()
	want := map[string]int{
		VariantBaseline:    1,
		VariantStrong:      2,
		VariantColourblind: 1,
		VariantLazy:        1,
		VariantLiar:        1,
	}
	for name, capacity := range want {
		p, err := NewPolicy(name, opts, nil)
		require.NoError(t, err)
		assert.Equal(t, capacity, p.Capacity(), name)
	}
}

func TestColourblindNeutralisesColour(t *testing.T) {
	p, err := NewPolicy(VariantColourblind, DefaultVariantOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, world.Visualization{Colour: "#000000", Shape: 1}, p.Perceive(red))

	found := observation.Encode(observation.Found(red, world.Location{X: 3, Y: 2}))
	neutral := "Found goal block {'colour': '#000000', 'shape': 1} at location (3, 2)"
	assert.Equal(t, neutral, p.Outgoing(found, nil))
	assert.Equal(t, neutral, p.Incoming(found))
	assert.Equal(t, "Moving to room_2", p.Incoming("Moving to room_2"))
	assert.Equal(t, "hello", p.Outgoing("hello", nil))
}

func TestColourblindLeavesAfterOpening(t *testing.T) {
	g := testWorld(t)
	p, err := NewPolicy(VariantColourblind, DefaultVariantOptions(), nil)
	require.NoError(t, err)
	a := newAgent(t, g, "cara", p)

	snap, err := g.Snapshot("cara", 1)
	require.NoError(t, err)
	a.phase = PhaseDoorOpen
	a.door = *g.Doors["door_room_1"]

	d := a.Decide(snap, nil)
	assert.Equal(t, world.ActionOpenDoor, d.Action.Kind)
	assert.Equal(t, "door_room_1", d.Action.ObjectID)
	assert.Equal(t, PhaseDoorDiscovery, a.Phase())
	assert.Contains(t, d.Outbox, "Opening door of room_1")
}

func liarSnapshot() *world.Snapshot {
	return &world.Snapshot{Doors: []world.Door{
		{ID: "door_room_1", Room: "room_1", Location: world.Location{X: 4, Y: 4}},
		{ID: "door_room_2", Room: "room_2", Location: world.Location{X: 9, Y: 4}},
		{ID: "door_room_3", Room: "room_3", Location: world.Location{X: 14, Y: 4}},
	}}
}

func TestLiarFalsifiesReports(t *testing.T) {
	p, err := NewPolicy(VariantLiar, DefaultVariantOptions(), entropy.NewSeeded(11))
	require.NoError(t, err)

	truth := world.Location{X: 3, Y: 2}
	text := observation.Encode(observation.Found(red, truth))
	snap := liarSnapshot()

	altered := 0
	for i := 0; i < 1000; i++ {
		obs, ok := observation.Parse(p.Outgoing(text, snap))
		require.True(t, ok)
		require.Equal(t, observation.KindFound, obs.Kind)
		if obs.Block.Colour != red.Colour || *obs.At != truth {
			altered++
			assert.Equal(t, red.Shape, obs.Block.Shape)
		}
	}
	assert.GreaterOrEqual(t, altered, 750)
	assert.LessOrEqual(t, altered, 850)
}

func TestLiarPicksRealRooms(t *testing.T) {
	p, err := NewPolicy(VariantLiar, VariantOptions{DeceptionProbability: 1}, entropy.NewSeeded(3))
	require.NoError(t, err)
	snap := liarSnapshot()

	rooms := map[string]bool{}
	for i := 0; i < 100; i++ {
		obs, ok := observation.Parse(p.Outgoing("Searching through room_1", snap))
		require.True(t, ok)
		rooms[obs.Room] = true
	}
	assert.Len(t, rooms, 3)
	for room := range rooms {
		_, ok := snap.DoorByRoom(room)
		assert.True(t, ok, room)
	}

	assert.Equal(t, "I don't trust bob", p.Outgoing("I don't trust bob", snap))
	assert.Equal(t, "not a report", p.Outgoing("not a report", snap))
}

func TestLazyGivesUpAtDoors(t *testing.T) {
	g := testWorld(t)
	p, err := NewPolicy(VariantLazy, DefaultVariantOptions(), entropy.NewSeeded(5))
	require.NoError(t, err)
	a := newAgent(t, g, "lou", p)
	door := *g.Doors["door_room_1"]

	opened := 0
	for i := 0; i < 1000; i++ {
		snap, err := g.Snapshot("lou", uint64(i+1))
		require.NoError(t, err)
		a.phase = PhaseDoorOpen
		a.fresh = true
		a.door = door
		a.nav.Reset()

		d := a.Decide(snap, nil)
		if d.Action.Kind == world.ActionOpenDoor {
			opened++
			continue
		}
		assert.Equal(t, world.ActionMove, d.Action.Kind)
	}
	assert.GreaterOrEqual(t, opened, 450)
	assert.LessOrEqual(t, opened, 550)
}

func TestLazyDropsWhatItCarries(t *testing.T) {
	g := testWorld(t)
	p, err := NewPolicy(VariantLazy, VariantOptions{FlakyProbability: 1}, entropy.NewSeeded(5))
	require.NoError(t, err)
	a := newAgent(t, g, "lou", p)

	snap, err := g.Snapshot("lou", 1)
	require.NoError(t, err)
	a.Decide(snap, nil)

	a.carried = append(a.carried, goalsCollectable("r1", 0))
	snap.Self.Carrying = []string{"r1"}
	a.phase = PhaseGoalFollow
	a.fresh = true

	d := a.Decide(snap, nil)
	assert.Equal(t, world.ActionDrop, d.Action.Kind)
	assert.Equal(t, "r1", d.Action.ObjectID)
	assert.Empty(t, a.carried)
	assert.Equal(t, PhaseDoorDiscovery, a.Phase())

	// The dropped block is remembered for the goal it matched.
	m, ok := a.Goals().NextPending()
	require.True(t, ok)
	assert.Equal(t, "r1", m.ObjectID)
	assert.Equal(t, start, m.Location)
}

func goalsCollectable(id string, goal int) goals.Collectable {
	return goals.Collectable{Vis: red, Location: start, ObjectID: id, GoalIndex: goal}
}
