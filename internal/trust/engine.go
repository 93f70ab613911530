package trust

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/cochaviz/collaborative-agent/internal/observation"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

// Facts is what the engine needs to know about the owning agent's own view
// of the world to judge a report.
type Facts interface {
	Self() string
	RoomClosed(room string) bool
	GoalIndex(vis world.Visualization) int
	DropCandidates(vis world.Visualization, loc world.Location) int
}

// Engine tracks the trust one agent places in each of its teammates.
type Engine struct {
	owner  string
	policy Policy
	store  Store
	log    *slog.Logger

	scores   map[string]float64
	restored bool
	revoked  []string // Crossed the ignore threshold since the last Revoked call
}

// NewEngine creates a trust engine for owner. store may be nil, in which case
// scores live for the episode only.
func NewEngine(owner string, policy Policy, store Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		owner:  owner,
		policy: policy,
		store:  store,
		log:    log,
		scores: make(map[string]float64),
	}
}

// Restore seeds scores for the given teammates from the store. It runs once
// per episode; later calls only register new teammates. A failing store
// leaves everyone at the default score.
func (e *Engine) Restore(teammates []string) {
	if e.restored {
		for _, id := range teammates {
			e.Meet(id)
		}
		return
	}
	e.restored = true

	var saved map[string]float64
	if e.store != nil {
		scores, ok, err := e.store.Load(e.owner)
		switch {
		case err != nil:
			e.log.Warn("trust restore failed, using defaults", "error", err)
		case ok:
			saved = scores
			e.log.Info("trust restored", "teammates", len(scores))
		default:
			e.log.Debug("no trust history, starting fresh")
		}
	}

	for _, id := range teammates {
		if s, ok := saved[id]; ok {
			e.scores[id] = clamp(s)
			continue
		}
		e.Meet(id)
	}
}

// Meet registers a teammate at the default score if it is not yet known.
func (e *Engine) Meet(id string) {
	if id == e.owner {
		return
	}
	if _, ok := e.scores[id]; !ok {
		e.scores[id] = e.policy.Default
	}
}

// Known reports whether id has a trust record.
func (e *Engine) Known(id string) bool {
	_, ok := e.scores[id]
	return ok
}

// Score returns the current score of id, or the default for strangers.
func (e *Engine) Score(id string) float64 {
	if s, ok := e.scores[id]; ok {
		return s
	}
	return e.policy.Default
}

// Listening reports whether reports from id should be acted upon.
func (e *Engine) Listening(id string) bool {
	return e.Score(id) > e.policy.IgnoreThreshold
}

// Adjust applies delta to id's score and returns the new value. The result
// is clamped to [0, 1].
func (e *Engine) Adjust(id string, delta float64) float64 {
	if id == e.owner || delta == 0 {
		return e.Score(id)
	}
	e.Meet(id)
	old := e.scores[id]
	next := clamp(math.Round((old+delta)*1e9) / 1e9)
	e.scores[id] = next

	if old > e.policy.IgnoreThreshold && next <= e.policy.IgnoreThreshold {
		e.revoked = append(e.revoked, id)
		e.log.Info("stopped trusting teammate", "teammate", id, "score", next)
	}
	return next
}

// Revoked returns the teammates whose score dropped to the ignore threshold
// since the previous call, each exactly once per crossing.
func (e *Engine) Revoked() []string {
	out := e.revoked
	e.revoked = nil
	return out
}

// Assess updates the sender's score from one parsed report and returns the
// delta applied to the sender.
func (e *Engine) Assess(sender string, obs observation.Observation, f Facts) float64 {
	if sender == f.Self() {
		return 0
	}
	p := e.policy
	var delta float64

	switch obs.Kind {
	case observation.KindFound:
		if !obs.HasBlock() {
			return 0
		}
		switch {
		case obs.Block.Colour == p.DegradedColour:
			delta = p.FoundDegraded
		case f.GoalIndex(*obs.Block) < 0:
			delta = p.FoundUnknown
		default:
			delta = p.FoundKnown
		}

	case observation.KindOpening:
		if f.RoomClosed(obs.Room) {
			delta = p.ClosedRoomClaim
		} else {
			delta = p.OpeningConfirmed
		}

	case observation.KindSearching:
		if f.RoomClosed(obs.Room) {
			delta = p.ClosedRoomClaim
		}

	case observation.KindDropped:
		if !obs.HasBlock() || obs.Block.Colour == p.DegradedColour {
			return 0
		}
		if f.DropCandidates(*obs.Block, *obs.At) == 1 {
			delta = p.DropExact
		} else {
			delta = p.DropAmbiguous
		}

	case observation.KindDistrust:
		if obs.Subject != f.Self() && e.Known(obs.Subject) && e.Score(sender) > p.MetaMinTrust {
			e.Adjust(obs.Subject, p.MetaDistrust)
		}
		return 0
	}

	if delta != 0 {
		e.Adjust(sender, delta)
	}
	return delta
}

// Scores returns a copy of all scores.
func (e *Engine) Scores() map[string]float64 {
	return copyScores(e.scores)
}

// Teammates returns the known teammates in name order.
func (e *Engine) Teammates() []string {
	ids := make([]string, 0, len(e.scores))
	for id := range e.scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Persist appends the current scores to the store.
func (e *Engine) Persist(tick uint64) error {
	if e.store == nil || len(e.scores) == 0 {
		return nil
	}
	if err := e.store.AppendSnapshot(e.owner, tick, e.Scores()); err != nil {
		return fmt.Errorf("persist trust of %s: %w", e.owner, err)
	}
	return nil
}

func clamp(s float64) float64 {
	return math.Max(0, math.Min(1, s))
}
