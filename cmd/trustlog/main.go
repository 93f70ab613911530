// Command trustlog prints how an agent's trust in its teammates moved over
// time, reading either the trust database directly or a running blocksim
// API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cochaviz/collaborative-agent/internal/api"
	"github.com/cochaviz/collaborative-agent/internal/persistence"
)

// source is where trust history comes from.
type source interface {
	Agents() ([]string, error)
	History(agentID string, limit int) ([]persistence.TrustSnapshot, error)
}

// apiSource reads history from a running server.
type apiSource struct {
	client *api.Client
}

func (s apiSource) Agents() ([]string, error) {
	team, err := s.client.Agents()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(team))
	for i, st := range team {
		ids[i] = st.ID
	}
	return ids, nil
}

func (s apiSource) History(agentID string, limit int) ([]persistence.TrustSnapshot, error) {
	return s.client.TrustHistory(agentID, limit)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dbPath := os.Getenv("BLOCKSIM_DB")
	apiURL := envOrDefault("BLOCKSIM_API_URL", "http://localhost:8080")
	agentID := os.Getenv("TRUSTLOG_AGENT")
	limit := envIntOrDefault("TRUSTLOG_LIMIT", 20)
	watchSec := envIntOrDefault("TRUSTLOG_WATCH", 0)

	var src source
	if dbPath != "" {
		db, err := persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		src = db
		printEpisodes(db)
	} else {
		client := api.NewClient(apiURL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		err := client.WaitReady(ctx)
		cancel()
		if err != nil {
			slog.Error("blocksim API did not become ready", "error", err)
			os.Exit(1)
		}
		src = apiSource{client: client}
	}

	if agentID == "" {
		ids, err := src.Agents()
		if err != nil {
			slog.Error("failed to list agents", "error", err)
			os.Exit(1)
		}
		fmt.Println("Agents with trust history (set TRUSTLOG_AGENT to pick one):")
		for _, id := range ids {
			fmt.Println("  " + id)
		}
		return
	}

	lastID := show(src, agentID, limit, 0)
	if watchSec <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(watchSec) * time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			lastID = show(src, agentID, limit, lastID)
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			return
		}
	}
}

// show prints the snapshots newer than after and returns the newest ID seen.
func show(src source, agentID string, limit int, after int64) int64 {
	hist, err := src.History(agentID, limit)
	if err != nil {
		slog.Error("failed to read trust history", "agent", agentID, "error", err)
		return after
	}
	fresh := newerThan(hist, after)
	if len(fresh) == 0 {
		if after == 0 {
			fmt.Printf("No trust history for %s.\n", agentID)
		}
		return after
	}
	writeHistory(os.Stdout, agentID, hist, len(hist)-len(fresh), time.Now())
	return fresh[len(fresh)-1].ID
}

func printEpisodes(db *persistence.DB) {
	eps, err := db.Episodes()
	if err != nil {
		slog.Warn("failed to list episodes", "error", err)
		return
	}
	fmt.Printf("%d episode(s) recorded.\n", len(eps))
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
