// Agent spawning: builds the team from a roster, giving each member its
// variant policy and its own reproducible randomness.
package agents

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/cochaviz/collaborative-agent/internal/entropy"
	"github.com/cochaviz/collaborative-agent/internal/trust"
)

// RosterEntry names one team member and its variant. An empty name is
// replaced by a generated one.
type RosterEntry struct {
	Name    string `yaml:"name" json:"name"`
	Variant string `yaml:"variant" json:"variant"`
}

// SpawnConfig controls team creation.
type SpawnConfig struct {
	Seed     int64
	Options  Options
	Variants VariantOptions
	Store    trust.Store    // Shared trust store; each agent keys its own rows
	Entropy  entropy.Source // Overrides the per-agent seeded sources when set
}

// Spawner creates agents for the simulation.
type Spawner struct {
	cfg  SpawnConfig
	rng  *rand.Rand
	used map[string]bool
}

// NewSpawner creates an agent spawner.
func NewSpawner(cfg SpawnConfig) *Spawner {
	return &Spawner{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed + 300)),
		used: make(map[string]bool),
	}
}

// Spawn creates one agent per roster entry, in roster order.
func (s *Spawner) Spawn(roster []RosterEntry) ([]*Agent, error) {
	agents := make([]*Agent, 0, len(roster))
	for _, e := range roster {
		a, err := s.spawnOne(e)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func (s *Spawner) spawnOne(e RosterEntry) (*Agent, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = s.generateName()
	}
	if strings.ContainsAny(name, " (){},") {
		return nil, fmt.Errorf("agent name %q: must be a single token", name)
	}
	if s.used[name] {
		return nil, fmt.Errorf("agent name %q used twice", name)
	}
	s.used[name] = true

	var rng entropy.Source = entropy.NewSeeded(s.rng.Int63())
	if s.cfg.Entropy != nil {
		rng = s.cfg.Entropy
	}

	policy, err := NewPolicy(e.Variant, s.cfg.Variants, rng)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}
	return New(name, policy, s.cfg.Options, s.cfg.Store, rng), nil
}

func (s *Spawner) generateName() string {
	for {
		first := names[s.rng.Intn(len(names))]
		if !s.used[first] {
			return first
		}
		candidate := fmt.Sprintf("%s%d", first, s.rng.Intn(100))
		if !s.used[candidate] {
			return candidate
		}
	}
}

var names = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
}
