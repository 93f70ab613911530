// Package config loads run configuration from YAML, with environment
// overrides for the knobs that change between deployments.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cochaviz/collaborative-agent/internal/agents"
	"github.com/cochaviz/collaborative-agent/internal/gossip"
	"github.com/cochaviz/collaborative-agent/internal/trust"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

// Config is the complete configuration of one run.
type Config struct {
	Run      Run                   `yaml:"run"`
	World    world.GenConfig       `yaml:"world"`
	Agent    Agent                 `yaml:"agent"`
	Trust    trust.Policy          `yaml:"trust"`
	Variants agents.VariantOptions `yaml:"variants"`
	Store    Store                 `yaml:"store"`
	API      API                   `yaml:"api"`
	Roster   []agents.RosterEntry  `yaml:"roster"`
}

// Run controls the tick loop.
type Run struct {
	Ticks          uint64 `yaml:"ticks"`
	Seed           int64  `yaml:"seed"`
	TickIntervalMs int    `yaml:"tick_interval_ms"` // 0 = as fast as possible
	ReportEvery    uint64 `yaml:"report_every"`
	StopWhenDone   bool   `yaml:"stop_when_done"`
	Entropy        string `yaml:"entropy"` // "seeded" or "random.org"
	RandomOrgKey   string `yaml:"-"`
}

// Agent tunes the controller and the gossip layer.
type Agent struct {
	Echo              gossip.Echo `yaml:"echo"`
	MaxTransitions    int         `yaml:"max_transitions"`
	HistoryLimit      int         `yaml:"history_limit"`
	GossipMode        string      `yaml:"gossip_mode"`
	DiscountThreshold float64     `yaml:"discount_threshold"`
}

// Store selects trust persistence.
type Store struct {
	Path string `yaml:"path"` // Empty keeps trust in memory for this run only
}

// API configures the status server.
type API struct {
	Port     int    `yaml:"port"` // 0 disables the server
	AdminKey string `yaml:"-"`
}

// Default returns the reference configuration: a six-room world, three
// goals and a mixed team.
func Default() Config {
	opts := agents.DefaultOptions()
	return Config{
		Run: Run{
			Ticks:        2000,
			Seed:         42,
			ReportEvery:  100,
			StopWhenDone: true,
			Entropy:      "seeded",
		},
		World: world.DefaultGenConfig(),
		Agent: Agent{
			Echo:              opts.Echo,
			MaxTransitions:    opts.MaxTransitions,
			HistoryLimit:      opts.HistoryLimit,
			GossipMode:        string(opts.GossipMode),
			DiscountThreshold: opts.DiscountThreshold,
		},
		Trust:    trust.DefaultPolicy(),
		Variants: agents.DefaultVariantOptions(),
		Store:    Store{Path: "data/trust.db"},
		API:      API{Port: 8080},
		Roster: []agents.RosterEntry{
			{Name: "alice", Variant: agents.VariantBaseline},
			{Name: "sam", Variant: agents.VariantStrong},
			{Name: "cara", Variant: agents.VariantColourblind},
			{Name: "lou", Variant: agents.VariantLazy},
			{Name: "liam", Variant: agents.VariantLiar},
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	c.Store.Path = envOrDefault("BLOCKSIM_DB", c.Store.Path)
	c.API.Port = envIntOrDefault("BLOCKSIM_API_PORT", c.API.Port)
	c.Run.Ticks = uint64(envIntOrDefault("BLOCKSIM_TICKS", int(c.Run.Ticks)))
	c.Run.Seed = int64(envIntOrDefault("BLOCKSIM_SEED", int(c.Run.Seed)))
	c.API.AdminKey = os.Getenv("BLOCKSIM_ADMIN_KEY")
	c.Run.RandomOrgKey = os.Getenv("RANDOM_ORG_API_KEY")
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.World.Rooms >= 1, "world.rooms must be at least 1, got %d", c.World.Rooms)
	check(c.World.Goals >= 1, "world.goals must be at least 1, got %d", c.World.Goals)
	check(c.World.SenseRadius >= 1, "world.sense_radius must be at least 1, got %d", c.World.SenseRadius)
	check(c.Run.TickIntervalMs >= 0, "run.tick_interval_ms must not be negative")
	check(c.Run.Entropy == "seeded" || c.Run.Entropy == "random.org", "run.entropy must be seeded or random.org, got %q", c.Run.Entropy)
	check(c.Run.Entropy != "random.org" || c.Run.RandomOrgKey != "", "run.entropy random.org needs RANDOM_ORG_API_KEY")
	check(c.Agent.MaxTransitions >= 1, "agent.max_transitions must be at least 1")
	check(c.API.Port >= 0 && c.API.Port < 1<<16, "api.port out of range: %d", c.API.Port)

	if _, err := gossip.ParseMode(c.Agent.GossipMode); err != nil {
		errs = append(errs, fmt.Errorf("agent.gossip_mode: %w", err))
	}

	for name, p := range map[string]float64{
		"variants.flaky_probability":     c.Variants.FlakyProbability,
		"variants.deception_probability": c.Variants.DeceptionProbability,
		"agent.discount_threshold":       c.Agent.DiscountThreshold,
		"trust.default":                  c.Trust.Default,
		"trust.ignore_threshold":         c.Trust.IgnoreThreshold,
		"trust.meta_min_trust":           c.Trust.MetaMinTrust,
	} {
		check(p >= 0 && p <= 1, "%s must be within [0, 1], got %g", name, p)
	}

	check(len(c.Roster) > 0, "roster must name at least one agent")
	seen := make(map[string]bool)
	for i, e := range c.Roster {
		if e.Name != "" {
			check(!seen[e.Name], "roster[%d]: duplicate name %q", i, e.Name)
			seen[e.Name] = true
		}
		check(knownVariant(e.Variant), "roster[%d]: unknown variant %q (want one of %s)", i, e.Variant, strings.Join(agents.Variants, ", "))
	}

	return errors.Join(errs...)
}

func knownVariant(v string) bool {
	if v == "" {
		return true
	}
	for _, known := range agents.Variants {
		if v == known {
			return true
		}
	}
	return false
}

// AgentOptions converts the agent and trust sections into controller
// options. Call Validate first.
func (c Config) AgentOptions() agents.Options {
	mode, _ := gossip.ParseMode(c.Agent.GossipMode)
	return agents.Options{
		Trust:             c.Trust,
		Echo:              c.Agent.Echo,
		HistoryLimit:      c.Agent.HistoryLimit,
		GossipMode:        mode,
		DiscountThreshold: c.Agent.DiscountThreshold,
		MaxTransitions:    c.Agent.MaxTransitions,
	}
}

// TickInterval returns the configured tick interval.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Run.TickIntervalMs) * time.Millisecond
}
