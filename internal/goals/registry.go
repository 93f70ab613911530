// Package goals holds the ordered goal sequence of an episode, the delivery
// cursor, and the matcher that ties observed blocks to goals.
package goals

import (
	"fmt"

	"github.com/cochaviz/collaborative-agent/internal/world"
)

// Collectable is an observed candidate block. ObjectID is empty when the
// block is only known from a teammate's report.
type Collectable struct {
	Vis       world.Visualization `json:"visualization"`
	Location  world.Location      `json:"location"`
	ObjectID  string              `json:"object_id,omitempty"`
	GoalIndex int                 `json:"goal_index"`
	Source    string              `json:"source,omitempty"` // Reporting teammate; empty for own sightings
}

// Hearsay reports whether the collectable was never seen first-hand.
func (c Collectable) Hearsay() bool {
	return c.ObjectID == ""
}

func (c Collectable) String() string {
	return fmt.Sprintf("%s/%d at %s", c.Vis.Colour, c.Vis.Shape, c.Location)
}

// Goal is one entry of the delivery sequence.
type Goal struct {
	Ordinal  int
	Vis      world.Visualization
	Location world.Location
	Match    *Collectable // Best known candidate not yet picked up
}

// Registry owns the goal sequence and the delivery cursor. The cursor moves
// by exactly one step at a time.
type Registry struct {
	goals  []Goal
	cursor int
}

// NewRegistry builds a registry from the world's goal list, in order.
func NewRegistry(specs []world.GoalSpec) *Registry {
	r := &Registry{goals: make([]Goal, len(specs))}
	for i, s := range specs {
		r.goals[i] = Goal{Ordinal: i, Vis: s.Vis, Location: s.Location}
	}
	return r
}

// Len returns the number of goals.
func (r *Registry) Len() int { return len(r.goals) }

// Cursor returns the index of the next goal awaiting delivery.
func (r *Registry) Cursor() int { return r.cursor }

// Exhausted reports whether every goal has been delivered.
func (r *Registry) Exhausted() bool { return r.cursor >= len(r.goals) }

// Goal returns the goal at index i.
func (r *Registry) Goal(i int) (Goal, bool) {
	if i < 0 || i >= len(r.goals) {
		return Goal{}, false
	}
	return r.goals[i], true
}

// Current returns the goal at the cursor.
func (r *Registry) Current() (Goal, bool) {
	return r.Goal(r.cursor)
}

// Advance moves the cursor to the next goal. It reports false once the
// cursor already sits past the last goal.
func (r *Registry) Advance() bool {
	if r.cursor >= len(r.goals) {
		return false
	}
	r.cursor++
	return true
}

// Rollback moves the cursor back by one after an invalid delivery.
func (r *Registry) Rollback() bool {
	if r.cursor == 0 {
		return false
	}
	r.cursor--
	return true
}

// Matches returns every goal index whose descriptor equals vis.
func (r *Registry) Matches(vis world.Visualization) []int {
	var out []int
	for i, g := range r.goals {
		if g.Vis.Matches(vis) {
			out = append(out, i)
		}
	}
	return out
}

// IndexOf returns the first goal index matching vis, or -1.
func (r *Registry) IndexOf(vis world.Visualization) int {
	for i, g := range r.goals {
		if g.Vis.Matches(vis) {
			return i
		}
	}
	return -1
}

// DropCandidates counts the goals a "dropped" claim could refer to: those
// with the same descriptor whose drop location is loc.
func (r *Registry) DropCandidates(vis world.Visualization, loc world.Location) int {
	n := 0
	for _, g := range r.goals {
		if g.Vis.Matches(vis) && g.Location == loc {
			n++
		}
	}
	return n
}
