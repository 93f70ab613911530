package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochaviz/collaborative-agent/internal/agents"
	"github.com/cochaviz/collaborative-agent/internal/gossip"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	opts := cfg.AgentOptions()
	assert.Equal(t, agents.DefaultOptions(), opts)
	assert.Zero(t, cfg.TickInterval())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
run:
  ticks: 300
  tick_interval_ms: 50
world:
  rooms: 2
  goals: 2
agent:
  gossip_mode: discount
  echo:
    suppress_repeat: true
trust:
  ignore_threshold: 0.3
variants:
  deception_probability: 0.5
roster:
  - name: ann
    variant: strong
  - name: ben
    variant: liar
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint64(300), cfg.Run.Ticks)
	assert.Equal(t, int64(42), cfg.Run.Seed, "unset fields keep their defaults")
	assert.Equal(t, 2, cfg.World.Rooms)
	assert.Equal(t, 2, cfg.World.SenseRadius)
	assert.Equal(t, 0.3, cfg.Trust.IgnoreThreshold)
	assert.Equal(t, 0.5, cfg.Trust.Default)
	assert.Equal(t, 0.5, cfg.Variants.DeceptionProbability)
	assert.Equal(t, 0.5, cfg.Variants.FlakyProbability)
	assert.Len(t, cfg.Roster, 2)
	assert.Equal(t, "liar", cfg.Roster[1].Variant)
	assert.Equal(t, int64(50e6), int64(cfg.TickInterval()))

	opts := cfg.AgentOptions()
	assert.Equal(t, gossip.ModeDiscount, opts.GossipMode)
	assert.True(t, opts.Echo.SuppressReceived)
	assert.True(t, opts.Echo.SuppressRepeat)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BLOCKSIM_DB", "/tmp/x.db")
	t.Setenv("BLOCKSIM_API_PORT", "9090")
	t.Setenv("BLOCKSIM_TICKS", "77")
	t.Setenv("BLOCKSIM_SEED", "not-a-number")
	t.Setenv("RANDOM_ORG_API_KEY", "k")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, uint64(77), cfg.Run.Ticks)
	assert.Equal(t, int64(42), cfg.Run.Seed)
	assert.Equal(t, "k", cfg.Run.RandomOrgKey)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"flaky probability":  func(c *Config) { c.Variants.FlakyProbability = 1.5 },
		"deception negative": func(c *Config) { c.Variants.DeceptionProbability = -0.1 },
		"empty roster":       func(c *Config) { c.Roster = nil },
		"duplicate names":    func(c *Config) { c.Roster = append(c.Roster, agents.RosterEntry{Name: "alice"}) },
		"unknown variant":    func(c *Config) { c.Roster[0].Variant = "psychic" },
		"gossip mode":        func(c *Config) { c.Agent.GossipMode = "vote" },
		"no goals":           func(c *Config) { c.World.Goals = 0 },
		"entropy":            func(c *Config) { c.Run.Entropy = "dice" },
		"random.org key":     func(c *Config) { c.Run.Entropy = "random.org" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
