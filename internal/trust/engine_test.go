package trust

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochaviz/collaborative-agent/internal/observation"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

type fakeFacts struct {
	closed map[string]bool
	goals  map[world.Visualization]int
	drops  int
}

func (f fakeFacts) Self() string                { return "alice" }
func (f fakeFacts) RoomClosed(room string) bool { return f.closed[room] }
func (f fakeFacts) GoalIndex(vis world.Visualization) int {
	if i, ok := f.goals[vis]; ok {
		return i
	}
	return -1
}
func (f fakeFacts) DropCandidates(world.Visualization, world.Location) int { return f.drops }

var red = world.Visualization{Colour: "#ff0000", Shape: 1}

func newFacts() fakeFacts {
	return fakeFacts{
		closed: map[string]bool{"room_3": true},
		goals:  map[world.Visualization]int{red: 0},
		drops:  1,
	}
}

func TestClosedRoomClaimsStopListening(t *testing.T) {
	e := NewEngine("alice", DefaultPolicy(), nil, nil)
	e.Restore([]string{"bob"})
	require.Equal(t, 0.5, e.Score("bob"))

	for i := 0; i < 3; i++ {
		assert.True(t, e.Listening("bob"))
		e.Assess("bob", observation.Opening("room_3"), newFacts())
	}

	assert.Equal(t, 0.2, e.Score("bob"))
	assert.False(t, e.Listening("bob"))
	assert.Equal(t, []string{"bob"}, e.Revoked())
	assert.Empty(t, e.Revoked())
}

func TestAssessRules(t *testing.T) {
	loc := world.Location{X: 3, Y: 3}
	grey := world.Visualization{Colour: "#000000", Shape: 1}
	stranger := world.Visualization{Colour: "#123456", Shape: 0}

	cases := []struct {
		name  string
		obs   observation.Observation
		facts func(f *fakeFacts)
		want  float64
	}{
		{"found degraded", observation.Found(grey, loc), nil, -0.1},
		{"found unknown", observation.Found(stranger, loc), nil, -0.1},
		{"found known", observation.Found(red, loc), nil, 0.1},
		{"opening closed room", observation.Opening("room_3"), nil, -0.1},
		{"opening open room", observation.Opening("room_1"), nil, 0.1},
		{"searching closed room", observation.Searching("room_3"), nil, -0.1},
		{"searching open room", observation.Searching("room_1"), nil, 0},
		{"moving", observation.Moving("room_3"), nil, 0},
		{"drop exact", observation.Dropped(red, loc), nil, 0.1},
		{"drop ambiguous", observation.Dropped(red, loc), func(f *fakeFacts) { f.drops = 2 }, -0.1},
		{"drop contradicted", observation.Dropped(red, loc), func(f *fakeFacts) { f.drops = 0 }, -0.1},
		{"drop degraded", observation.Dropped(grey, loc), func(f *fakeFacts) { f.drops = 0 }, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine("alice", DefaultPolicy(), nil, nil)
			e.Restore([]string{"bob"})
			f := newFacts()
			if tc.facts != nil {
				tc.facts(&f)
			}
			assert.InDelta(t, tc.want, e.Assess("bob", tc.obs, f), 1e-12)
			assert.InDelta(t, 0.5+tc.want, e.Score("bob"), 1e-9)
		})
	}
}

func TestMetaReport(t *testing.T) {
	e := NewEngine("alice", DefaultPolicy(), nil, nil)
	e.Restore([]string{"bob", "carol"})

	// Bob sits at 0.5, not above the relay threshold.
	e.Assess("bob", observation.Distrust("carol"), newFacts())
	assert.Equal(t, 0.5, e.Score("carol"))

	e.Adjust("bob", 0.1)
	e.Assess("bob", observation.Distrust("carol"), newFacts())
	assert.Equal(t, 0.4, e.Score("carol"))

	e.Assess("bob", observation.Distrust("alice"), newFacts())
	e.Assess("bob", observation.Distrust("mallory"), newFacts())
	assert.False(t, e.Known("mallory"))
	assert.False(t, e.Known("alice"))
}

func TestScoresStayBounded(t *testing.T) {
	e := NewEngine("alice", DefaultPolicy(), nil, nil)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		s := e.Adjust("bob", rng.Float64()-0.5)
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	}
	assert.Equal(t, 1.0, e.Adjust("bob", 5))
	assert.Equal(t, 0.0, e.Adjust("bob", -5))
}

func TestRestoreFromStore(t *testing.T) {
	store := NewMemoryStore()
	first := NewEngine("alice", DefaultPolicy(), store, nil)
	first.Restore([]string{"bob", "carol"})
	first.Adjust("bob", -0.3)
	require.NoError(t, first.Persist(1))
	first.Adjust("carol", 0.2)
	require.NoError(t, first.Persist(2))
	assert.Len(t, store.History("alice"), 2)

	second := NewEngine("alice", DefaultPolicy(), store, nil)
	second.Restore([]string{"bob", "carol", "dave"})
	assert.Equal(t, 0.2, second.Score("bob"))
	assert.Equal(t, 0.7, second.Score("carol"))
	assert.Equal(t, 0.5, second.Score("dave"))
	assert.False(t, second.Listening("bob"))
	assert.Empty(t, second.Revoked())

	// Only the first call reads the store.
	store.AppendSnapshot("alice", 3, map[string]float64{"bob": 1})
	second.Restore([]string{"bob", "erin"})
	assert.Equal(t, 0.2, second.Score("bob"))
	assert.True(t, second.Known("erin"))
}

type brokenStore struct{}

func (brokenStore) Load(string) (map[string]float64, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (brokenStore) AppendSnapshot(string, uint64, map[string]float64) error {
	return errors.New("disk on fire")
}

func TestBrokenStoreDegradesToDefaults(t *testing.T) {
	e := NewEngine("alice", DefaultPolicy(), brokenStore{}, nil)
	e.Restore([]string{"bob"})
	assert.Equal(t, 0.5, e.Score("bob"))
	assert.ErrorContains(t, e.Persist(1), "persist trust of alice")
}

func TestSelfIsNeverScored(t *testing.T) {
	e := NewEngine("alice", DefaultPolicy(), nil, nil)
	e.Restore([]string{"alice", "bob"})
	assert.Equal(t, []string{"bob"}, e.Teammates())
	assert.Zero(t, e.Assess("alice", observation.Opening("room_3"), newFacts()))
}
