// Command blocksim runs a team of block-collecting agents on a generated
// grid world until every goal is filled or the tick budget runs out.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/cochaviz/collaborative-agent/internal/agents"
	"github.com/cochaviz/collaborative-agent/internal/api"
	"github.com/cochaviz/collaborative-agent/internal/config"
	"github.com/cochaviz/collaborative-agent/internal/engine"
	"github.com/cochaviz/collaborative-agent/internal/entropy"
	"github.com/cochaviz/collaborative-agent/internal/persistence"
	"github.com/cochaviz/collaborative-agent/internal/trust"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("BLOCKSIM_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// ── Configuration ─────────────────────────────────────────────────
	cfg, err := config.Load(os.Getenv("BLOCKSIM_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// ── Trust store ───────────────────────────────────────────────────
	var store trust.Store = trust.NewMemoryStore()
	var db *persistence.DB
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		db, err = persistence.Open(cfg.Store.Path)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if _, err := db.BeginEpisode(cfg.Run.Seed); err != nil {
			slog.Error("failed to start episode", "error", err)
			os.Exit(1)
		}
		store = db
		slog.Info("database opened", "path", cfg.Store.Path)
	} else {
		slog.Warn("store.path empty, trust will not outlive this run")
	}

	// ── World ─────────────────────────────────────────────────────────
	if cfg.World.Seed == 0 {
		cfg.World.Seed = cfg.Run.Seed
	}
	grid := world.Generate(cfg.World)
	slog.Info("world generated",
		"width", grid.Width,
		"height", grid.Height,
		"rooms", len(grid.Rooms),
		"blocks", len(grid.Blocks),
		"goals", len(grid.Goals),
	)

	// ── Team ──────────────────────────────────────────────────────────
	spawnCfg := agents.SpawnConfig{
		Seed:     cfg.Run.Seed,
		Options:  cfg.AgentOptions(),
		Variants: cfg.Variants,
		Store:    store,
	}
	if cfg.Run.Entropy == "random.org" {
		spawnCfg.Entropy = entropy.NewRandomOrg(cfg.Run.RandomOrgKey)
		slog.Info("using random.org entropy")
	}
	team, err := agents.NewSpawner(spawnCfg).Spawn(cfg.Roster)
	if err != nil {
		slog.Error("failed to spawn team", "error", err)
		os.Exit(1)
	}

	sim, err := engine.NewSimulation(grid, team)
	if err != nil {
		slog.Error("failed to place team", "error", err)
		os.Exit(1)
	}
	for _, a := range team {
		slog.Info("agent ready", "id", a.ID, "variant", a.Variant(), "capacity", a.Capacity())
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.TickInterval()
	eng.ReportEvery = cfg.Run.ReportEvery
	eng.OnTick = sim.Step
	eng.OnReport = func(tick uint64) {
		sim.Report(tick)
		if db != nil {
			if err := db.SaveRun(sim); err != nil {
				slog.Error("periodic save failed", "error", err)
			}
		}
	}
	if cfg.Run.StopWhenDone {
		eng.Done = sim.Done
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn("BLOCKSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		apiServer := &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			Port:     cfg.API.Port,
			AdminKey: cfg.API.AdminKey,
		}
		apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("%d agents, %d goals, up to %s ticks (Ctrl+C to stop)\n",
		len(team), len(grid.Goals), humanize.Comma(int64(cfg.Run.Ticks)))

	last := eng.Run(cfg.Run.Ticks)

	if db != nil {
		slog.Info("final save...")
		if err := db.SaveRun(sim); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}

	stats := sim.RunStats()
	if stats.CompletedAt > 0 {
		fmt.Printf("All %d goals filled on the %s tick.\n", stats.Goals, humanize.Ordinal(int(stats.CompletedAt)))
	} else {
		fmt.Printf("Stopped after %s ticks with %d/%d goals filled.\n",
			humanize.Comma(int64(last)), stats.GoalsSatisfied, stats.Goals)
	}
	fmt.Printf("%s messages broadcast, %s failed actions.\n",
		humanize.Comma(int64(stats.Messages)), humanize.Comma(int64(stats.ActionErrors)))
	for _, st := range sim.Statuses() {
		fmt.Printf("  %-8s %-12s delivered %d, rolled back %d, ignoring %v\n",
			st.ID, st.Variant, st.Deliveries, st.Rollbacks, st.Ignoring)
	}
}
