package observation

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochaviz/collaborative-agent/internal/world"
)

func TestEncodeGrammar(t *testing.T) {
	vis := world.Visualization{Colour: "#ff0000", Shape: 1}
	loc := world.Location{X: 4, Y: 3}

	cases := []struct {
		obs  Observation
		want string
	}{
		{Found(vis, loc), "Found goal block {'colour': '#ff0000', 'shape': 1} at location (4, 3)"},
		{Dropped(vis, loc), "Dropped goal block {'colour': '#ff0000', 'shape': 1} at drop location (4, 3)"},
		{PickingUp(vis, loc), "Picking up goal block {'colour': '#ff0000', 'shape': 1} at location (4, 3)"},
		{Moving("room_2"), "Moving to room_2"},
		{Opening("room_2"), "Opening door of room_2"},
		{Searching("room_2"), "Searching through room_2"},
		{Distrust("bob"), "I don't trust bob"},
		{Observation{Kind: KindFound}, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Encode(tc.obs))
	}
}

func TestFoundRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		vis := world.Visualization{
			Colour: fmt.Sprintf("#%06x", rng.Intn(1<<24)),
			Shape:  rng.Intn(10),
		}
		loc := world.Location{X: rng.Intn(100), Y: rng.Intn(100)}

		obs, ok := Parse(Encode(Found(vis, loc)))
		require.True(t, ok, "colour %s", vis.Colour)
		assert.Equal(t, KindFound, obs.Kind)
		assert.Equal(t, vis, *obs.Block)
		assert.Equal(t, loc, *obs.At)
	}
}

func TestParseRoomAndDistrust(t *testing.T) {
	obs, ok := Parse("Opening door of room_4")
	require.True(t, ok)
	assert.Equal(t, KindOpening, obs.Kind)
	assert.Equal(t, "room_4", obs.Room)

	obs, ok = Parse("Searching through room_1 ")
	require.True(t, ok)
	assert.Equal(t, KindSearching, obs.Kind)

	obs, ok = Parse("I don't trust carol")
	require.True(t, ok)
	assert.Equal(t, KindDistrust, obs.Kind)
	assert.Equal(t, "carol", obs.Subject)
}

func TestParseToleratesExtraKeys(t *testing.T) {
	obs, ok := Parse(`Dropped goal block {'size': 0.5, "shape": 2, 'colour': '#0dff00', 'depth': 80} at drop location (30, 10)`)
	require.True(t, ok)
	assert.Equal(t, KindDropped, obs.Kind)
	assert.Equal(t, world.Visualization{Colour: "#0dff00", Shape: 2}, *obs.Block)
	assert.Equal(t, world.Location{X: 30, Y: 10}, *obs.At)
}

func TestParseRejects(t *testing.T) {
	for _, text := range []string{
		"",
		"hello there",
		"Found goal block at location (1, 2)",
		"Found goal block {'colour': '#ff0000'} at location (1, 2)",
		"Found goal block {'colour': 'red', 'shape': 1} at location (1, 2)",
		"Found goal block {'colour': '#ff0000', 'shape': -1} at location (1, 2)",
		"Found goal block {'colour': '#ff0000', 'shape': 1} at location (1, 2",
		"Found goal block {'colour': '#ff0000', 'shape': 1} at location (-1, 2)",
		"Found goal block {'colour': '#ff0000', 'shape': 1} at drop location (1, 2)",
		"Moving to ",
		"Moving to room 1",
		"I don't trust ",
	} {
		_, ok := Parse(text)
		assert.False(t, ok, "%q", text)
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Moving("room_1")))
	assert.Error(t, Validate(Observation{Version: SchemaVersion, Kind: KindFound}))
	assert.Error(t, Validate(Observation{Version: 2, Kind: KindMoving, Room: "room_1"}))
	assert.Error(t, Validate(Observation{Version: SchemaVersion, Kind: KindUnknown}))
}
