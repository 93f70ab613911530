// Simulation ties the world, the team and the broadcast bus together and
// runs them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cochaviz/collaborative-agent/internal/agents"
	"github.com/cochaviz/collaborative-agent/internal/observation"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

const maxEvents = 1000

// Simulation holds the complete run state. Step takes the write lock; the
// accessors used by the API take the read lock.
type Simulation struct {
	mu sync.RWMutex

	Grid     *world.Grid
	Agents   []*agents.Agent
	bus      *Bus
	events   []Event
	unsaved  int // Events not yet handed to DrainEvents
	LastTick uint64

	Stats RunStats
}

// Event is a notable occurrence during a run.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "delivery", "trust", "action", "run"
}

// RunStats tracks aggregate run statistics.
type RunStats struct {
	Goals          int    `json:"goals"`
	GoalsSatisfied int    `json:"goals_satisfied"`
	Messages       int    `json:"messages"`
	ActionErrors   int    `json:"action_errors"`
	CompletedAt    uint64 `json:"completed_at,omitempty"`
}

// NewSimulation places every agent on the grid's spawn points.
func NewSimulation(g *world.Grid, team []*agents.Agent) (*Simulation, error) {
	points := world.SpawnPoints(g, len(team))
	for i, a := range team {
		if err := g.Spawn(a.ID, points[i], a.Capacity()); err != nil {
			return nil, fmt.Errorf("place %s: %w", a.ID, err)
		}
	}
	return &Simulation{
		Grid:   g,
		Agents: team,
		bus:    NewBus(),
		Stats:  RunStats{Goals: len(g.Goals)},
	}, nil
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// Step runs one tick: every agent, in roster order, observes the world,
// reads last tick's broadcasts and acts.
func (s *Simulation) Step(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	s.bus.Advance()

	for _, a := range s.Agents {
		snap, err := s.Grid.Snapshot(a.ID, tick)
		if err != nil {
			slog.Error("snapshot failed", "agent", a.ID, "error", err)
			continue
		}
		d := a.Decide(snap, s.bus.Inbox(a.ID))

		before := s.Grid.GoalsSatisfied()
		if err := s.Grid.Apply(a.ID, d.Action); err != nil {
			s.Stats.ActionErrors++
			slog.Debug("action failed", "agent", a.ID, "action", d.Action, "error", err)
			s.emit(Event{Tick: tick, Description: err.Error(), Category: "action"})
		}
		if after := s.Grid.GoalsSatisfied(); after > before {
			s.emit(Event{
				Tick:        tick,
				Description: fmt.Sprintf("%s filled a goal slot (%d/%d)", a.ID, after, len(s.Grid.Goals)),
				Category:    "delivery",
			})
		}

		for _, text := range d.Outbox {
			if obs, ok := observation.Parse(text); ok && obs.Kind == observation.KindDistrust {
				s.emit(Event{
					Tick:        tick,
					Description: fmt.Sprintf("%s stopped trusting %s", a.ID, obs.Subject),
					Category:    "trust",
				})
			}
		}
		s.bus.Send(a.ID, d.Outbox...)
	}

	s.Stats.GoalsSatisfied = s.Grid.GoalsSatisfied()
	s.Stats.Messages = s.bus.Sent()
	if s.Grid.Done() && s.Stats.CompletedAt == 0 {
		s.Stats.CompletedAt = tick
		s.emit(Event{Tick: tick, Description: "all goals satisfied", Category: "run"})
	}
}

func (s *Simulation) emit(e Event) {
	s.events = append(s.events, e)
	s.unsaved++
	if len(s.events) > maxEvents {
		drop := len(s.events) - maxEvents
		s.events = s.events[drop:]
		s.unsaved = min(s.unsaved, len(s.events))
	}
}

// Done reports whether every goal slot is filled.
func (s *Simulation) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Grid.Done()
}

// Statuses returns a status summary of every agent in roster order.
func (s *Simulation) Statuses() []agents.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]agents.Status, len(s.Agents))
	for i, a := range s.Agents {
		out[i] = a.Status()
	}
	return out
}

// Status returns one agent's summary and its journal.
func (s *Simulation) Status(id string) (agents.Status, []agents.Memory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.Agents {
		if a.ID == id {
			return a.Status(), agents.ImportantMemories(a, agents.MaxMemories), true
		}
	}
	return agents.Status{}, nil, false
}

// RunStats returns a copy of the run statistics.
func (s *Simulation) RunStats() RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// Events returns up to limit of the most recent events.
func (s *Simulation) Events(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	return append([]Event(nil), s.events[start:]...)
}

// DrainEvents returns the events recorded since the previous call.
func (s *Simulation) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Event(nil), s.events[len(s.events)-s.unsaved:]...)
	s.unsaved = 0
	return out
}

// WorldView is a read-only picture of the grid for reporting.
type WorldView struct {
	Width  int                       `json:"width"`
	Height int                       `json:"height"`
	Rooms  []world.Room              `json:"rooms"`
	Doors  []world.Door              `json:"doors"`
	Blocks []world.Block             `json:"blocks"`
	Goals  []world.GoalSpec          `json:"goals"`
	Agents map[string]world.Location `json:"agents"`
}

// World returns the current state of the grid.
func (s *Simulation) World() WorldView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.Grid
	v := WorldView{
		Width:  g.Width,
		Height: g.Height,
		Rooms:  append([]world.Room(nil), g.Rooms...),
		Goals:  append([]world.GoalSpec(nil), g.Goals...),
		Agents: make(map[string]world.Location, len(g.Bodies)),
	}
	for _, r := range g.Rooms {
		if d, ok := g.Doors[r.DoorID]; ok {
			v.Doors = append(v.Doors, *d)
		}
	}
	for _, b := range g.Blocks {
		v.Blocks = append(v.Blocks, *b)
	}
	sort.Slice(v.Blocks, func(i, j int) bool { return v.Blocks[i].ID < v.Blocks[j].ID })
	for id, body := range g.Bodies {
		v.Agents[id] = body.Location
	}
	return v
}

// Report logs a periodic summary of the run.
func (s *Simulation) Report(tick uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.events {
		counts[e.Category]++
	}
	slog.Info("run report",
		"tick", tick,
		"goals", fmt.Sprintf("%d/%d", s.Stats.GoalsSatisfied, s.Stats.Goals),
		"messages", s.Stats.Messages,
		"action_errors", s.Stats.ActionErrors,
		"events_delivery", counts["delivery"],
		"events_trust", counts["trust"],
	)
	for _, a := range s.Agents {
		st := a.Status()
		slog.Debug("agent", "id", st.ID, "phase", st.Phase, "cursor", st.Cursor, "carrying", st.Carrying, "ignoring", st.Ignoring)
	}
}
