// Package agents provides the block-collecting agent: a phase controller
// that searches rooms, matches blocks against the ordered goal sequence and
// delivers them, while trading reports with teammates it may or may not
// trust. Behavioural variants plug in as Policy values.
package agents

import (
	"log/slog"

	"github.com/cochaviz/collaborative-agent/internal/entropy"
	"github.com/cochaviz/collaborative-agent/internal/goals"
	"github.com/cochaviz/collaborative-agent/internal/gossip"
	"github.com/cochaviz/collaborative-agent/internal/trust"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

// Options tunes the controller and its collaborators.
type Options struct {
	Trust             trust.Policy
	Echo              gossip.Echo
	HistoryLimit      int // Messages kept per sender
	GossipMode        gossip.Mode
	DiscountThreshold float64 // Minimum score in discount mode
	MaxTransitions    int     // Phase changes allowed within one tick
}

// DefaultOptions returns the reference tuning.
func DefaultOptions() Options {
	return Options{
		Trust:             trust.DefaultPolicy(),
		Echo:              gossip.DefaultEcho(),
		HistoryLimit:      100,
		GossipMode:        gossip.ModeFilter,
		DiscountThreshold: 0.4,
		MaxTransitions:    32,
	}
}

// Decision is an agent's output for one tick: exactly one action plus the
// messages it broadcasts alongside.
type Decision struct {
	Action world.Action `json:"action"`
	Outbox []string     `json:"outbox,omitempty"`
}

// Agent is one team member.
type Agent struct {
	ID     string
	policy Policy
	opts   Options
	rng    entropy.Source
	log    *slog.Logger
	nav    world.Navigator

	// Collaborators
	goals    *goals.Registry
	trust    *trust.Engine
	history  *gossip.History
	consumer *gossip.Consumer

	// Controller state
	phase    Phase
	fresh    bool // Current phase has not run yet since it was entered
	snap     *world.Snapshot
	door     world.Door // Door being explored
	repeat   int
	cancelAt *world.Location

	// Working sets, cleared at phase boundaries
	scan    []goals.Collectable
	targets []goals.Collectable
	carried []goals.Collectable
	queued  []world.Action // Forced actions emitted before the controller runs

	outbox    []string
	announced map[string]bool // Block IDs already reported as found

	// Journal of notable events
	Memories []Memory

	// Counters
	ticks      uint64
	deliveries int
	rollbacks  int
}

// Status is a read-only summary of an agent for reporting.
type Status struct {
	ID         string             `json:"id"`
	Variant    string             `json:"variant"`
	Phase      string             `json:"phase"`
	Cursor     int                `json:"goal_cursor"`
	Goals      int                `json:"goals"`
	Carrying   int                `json:"carrying"`
	Capacity   int                `json:"capacity"`
	Location   world.Location     `json:"location"`
	Deliveries int                `json:"deliveries"`
	Rollbacks  int                `json:"rollbacks"`
	Trust      map[string]float64 `json:"trust"`
	Ignoring   []string           `json:"ignoring,omitempty"`
	Recent     []Memory           `json:"recent,omitempty"`
}
