// Package api provides the HTTP API for watching a run.
// GET endpoints are public and read-only. POST endpoints require a bearer
// token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cochaviz/collaborative-agent/internal/engine"
	"github.com/cochaviz/collaborative-agent/internal/persistence"
)

// Server serves run state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; trust history is unavailable without it
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	started time.Time
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	historyLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/agents", s.handleAgents)
	mux.HandleFunc("GET /api/v1/agent/{id}", s.handleAgent)
	mux.HandleFunc("GET /api/v1/agent/{id}/trust", RateLimitMiddleware(historyLimiter, s.handleTrustHistory))
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/world", s.handleWorld)
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires bearer token auth on POST requests. GET passes through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no BLOCKSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Sim.RunStats()
	status := map[string]any{
		"tick":            s.Sim.CurrentTick(),
		"running":         s.Eng.Running(),
		"speed":           s.Eng.Speed(),
		"agents":          len(s.Sim.Agents),
		"goals":           stats.Goals,
		"goals_satisfied": stats.GoalsSatisfied,
		"done":            stats.CompletedAt > 0,
		"completed_at":    stats.CompletedAt,
		"messages":        stats.Messages,
		"action_errors":   stats.ActionErrors,
		"uptime":          time.Since(s.started).Round(time.Second).String(),
	}
	if s.DB != nil {
		status["episode"] = s.DB.Episode()
	}
	writeJSON(w, status)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	statuses := s.Sim.Statuses()
	if variant := r.URL.Query().Get("variant"); variant != "" {
		kept := statuses[:0]
		for _, st := range statuses {
			if st.Variant == variant {
				kept = append(kept, st)
			}
		}
		statuses = kept
	}
	writeJSON(w, statuses)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	st, memories, ok := s.Sim.Status(r.PathValue("id"))
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"status":   st,
		"memories": memories,
	})
}

func (s *Server) handleTrustHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "trust store not configured", http.StatusNotFound)
		return
	}
	limit := queryInt(r, "limit", 100, 1000)
	hist, err := s.DB.History(r.PathValue("id"), limit)
	if err != nil {
		slog.Error("trust history", "agent", r.PathValue("id"), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, hist)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 500)
	category := r.URL.Query().Get("category")

	events := s.Sim.Events(0)
	if category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.World())
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// queryInt reads a positive integer query parameter, falling back to def
// when it is missing, malformed or above ceiling.
func queryInt(r *http.Request, key string, def, ceiling int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= ceiling {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
