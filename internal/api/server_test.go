package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochaviz/collaborative-agent/internal/agents"
	"github.com/cochaviz/collaborative-agent/internal/engine"
	"github.com/cochaviz/collaborative-agent/internal/persistence"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.BeginEpisode(42)
	require.NoError(t, err)

	team, err := agents.NewSpawner(agents.SpawnConfig{
		Seed:     42,
		Options:  agents.DefaultOptions(),
		Variants: agents.DefaultVariantOptions(),
		Store:    db,
	}).Spawn([]agents.RosterEntry{
		{Name: "alice", Variant: agents.VariantBaseline},
		{Name: "liam", Variant: agents.VariantLiar},
	})
	require.NoError(t, err)

	sim, err := engine.NewSimulation(world.Generate(world.SmallTestConfig()), team)
	require.NoError(t, err)
	for tick := uint64(1); tick <= 5; tick++ {
		sim.Step(tick)
	}

	s := &Server{Sim: sim, Eng: engine.NewEngine(), DB: db, AdminKey: "secret"}
	return s, s.Handler()
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestStatus(t *testing.T) {
	s, h := testServer(t)
	var status map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/status", &status))
	assert.EqualValues(t, 5, status["tick"])
	assert.EqualValues(t, 2, status["agents"])
	assert.EqualValues(t, 2, status["goals"])
	assert.Equal(t, s.DB.Episode(), status["episode"])
}

func TestAgents(t *testing.T) {
	_, h := testServer(t)

	var all []agents.Status
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/agents", &all))
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].ID)

	var liars []agents.Status
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/agents?variant=liar", &liars))
	require.Len(t, liars, 1)
	assert.Equal(t, "liam", liars[0].ID)

	var detail struct {
		Status agents.Status `json:"status"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/agent/alice", &detail))
	assert.Equal(t, "baseline", detail.Status.Variant)
	assert.Contains(t, detail.Status.Trust, "liam")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/agent/nobody", nil))
}

func TestTrustHistory(t *testing.T) {
	_, h := testServer(t)
	var hist []persistence.TrustSnapshot
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/agent/alice/trust?limit=3", &hist))
	require.Len(t, hist, 3)
	assert.Equal(t, uint64(5), hist[2].Tick)
	assert.Contains(t, hist[2].Scores, "liam")
}

func TestTrustHistoryWithoutStore(t *testing.T) {
	s, _ := testServer(t)
	s.DB = nil
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/api/v1/agent/alice/trust", nil))
}

func TestWorldAndEvents(t *testing.T) {
	_, h := testServer(t)
	var view engine.WorldView
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/world", &view))
	assert.Len(t, view.Rooms, 2)
	assert.Contains(t, view.Agents, "liam")

	var events []engine.Event
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/events?category=run", &events))
	for _, e := range events {
		assert.Equal(t, "run", e.Category)
	}
}

func TestSpeedRequiresToken(t *testing.T) {
	s, h := testServer(t)

	post := func(auth string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{"speed": 2.5}`))
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, post(""))
	assert.Equal(t, http.StatusUnauthorized, post("Bearer wrong"))
	assert.Equal(t, 1.0, s.Eng.Speed())

	assert.Equal(t, http.StatusOK, post("Bearer secret"))
	assert.Equal(t, 2.5, s.Eng.Speed())

	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, post("Bearer secret"))
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
	assert.Equal(t, 61, rl.RetryAfter("1.2.3.4"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
