// World generation for demo runs.
// Lays out rooms and the drop zone, then scatters blocks; the number of
// distractor blocks per room follows layered simplex noise so rooms differ
// in how cluttered they are while staying reproducible from the seed.
package world

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Rooms         int      `yaml:"rooms"`
	BlocksPerRoom int      `yaml:"blocks_per_room"` // Mean distractor count per room
	Goals         int      `yaml:"goals"`
	Palette       []string `yaml:"palette"`
	Shapes        int      `yaml:"shapes"`
	SenseRadius   int      `yaml:"sense_radius"`
	Seed          int64    `yaml:"seed"` // 0 = random
}

// DefaultGenConfig returns the layout used by BW4T-style runs.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Rooms:         6,
		BlocksPerRoom: 2,
		Goals:         3,
		Palette:       []string{"#0008ff", "#ff1500", "#0dff00"},
		Shapes:        3,
		SenseRadius:   2,
		Seed:          0,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Rooms:         2,
		BlocksPerRoom: 1,
		Goals:         2,
		Palette:       []string{"#0008ff", "#ff1500"},
		Shapes:        2,
		SenseRadius:   2,
		Seed:          42,
	}
}

// Generate creates a complete grid with rooms, doors, goals and blocks.
// Every goal is guaranteed at least one matching block somewhere in a room.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.Rooms < 1 {
		cfg.Rooms = 1
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = DefaultGenConfig().Palette
	}
	if cfg.Shapes < 1 {
		cfg.Shapes = 1
	}

	rng := rand.New(rand.NewSource(seed))
	clutter := opensimplex.NewNormalized(seed + 1)

	layout := planLayout(cfg.Rooms, cfg.Goals)
	g := NewGrid(layout.width, layout.height, cfg.SenseRadius)

	for _, rp := range layout.rooms {
		g.AddRoom(rp.room, rp.door)
	}
	for _, loc := range layout.dropZone {
		g.AddGoal(GoalSpec{Vis: randomVis(rng, cfg), Location: loc})
	}

	occupied := make(map[Location]bool)
	nextID := 0
	place := func(vis Visualization, room roomPlan) bool {
		free := room.freeCells(occupied)
		if len(free) == 0 {
			return false
		}
		loc := free[rng.Intn(len(free))]
		occupied[loc] = true
		nextID++
		g.AddBlock(Block{ID: fmt.Sprintf("block_%d", nextID), Vis: vis, Location: loc})
		return true
	}

	// One matching block per goal, in a random room with space left.
	for _, goal := range g.Goals {
		for attempt := 0; attempt < len(layout.rooms); attempt++ {
			room := layout.rooms[(rng.Intn(len(layout.rooms))+attempt)%len(layout.rooms)]
			if place(goal.Vis, room) {
				break
			}
		}
	}

	// Distractors, density driven by noise along the corridor.
	for i, room := range layout.rooms {
		density := octaveNoise(clutter, float64(i)*0.9, 0.5, 3, 0.35, 0.5)
		count := int(density*float64(2*cfg.BlocksPerRoom) + 0.5)
		for j := 0; j < count; j++ {
			if !place(randomVis(rng, cfg), room) {
				break
			}
		}
	}

	return g
}

func randomVis(rng *rand.Rand, cfg GenConfig) Visualization {
	return Visualization{
		Colour: cfg.Palette[rng.Intn(len(cfg.Palette))],
		Shape:  rng.Intn(cfg.Shapes),
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// BlockCounts returns the number of blocks per room ("" for loose blocks).
func BlockCounts(g *Grid) map[string]int {
	counts := make(map[string]int)
	for _, b := range g.Blocks {
		counts[b.Room]++
	}
	return counts
}
