package goals

import (
	"sort"

	"github.com/cochaviz/collaborative-agent/internal/world"
)

// Resolve matches observed blocks against the goal sequence. Matches for
// goal indices in [from, from+window) become immediate targets, at most one
// per goal and in goal order; every other match is attached to its goal as a
// deferred candidate. found lists each observed block that matched any goal.
func (r *Registry) Resolve(observed []Collectable, from, window int) (targets, found []Collectable) {
	taken := make(map[int]bool)
	for _, c := range observed {
		indices := r.Matches(c.Vis)
		if len(indices) == 0 {
			continue
		}
		c.GoalIndex = indices[0]
		found = append(found, c)

		for _, i := range indices {
			cand := c
			cand.GoalIndex = i
			if i >= from && i < from+window {
				if !taken[i] {
					taken[i] = true
					targets = append(targets, cand)
				}
				continue
			}
			r.attach(i, cand)
		}
	}
	sort.SliceStable(targets, func(a, b int) bool {
		return targets[a].GoalIndex < targets[b].GoalIndex
	})
	return targets, found
}

// Remember records a reported block as a deferred candidate for every
// matching goal not yet delivered. It returns the number of goals updated.
func (r *Registry) Remember(c Collectable) int {
	n := 0
	for _, i := range r.Matches(c.Vis) {
		if i < r.cursor {
			continue
		}
		cand := c
		cand.GoalIndex = i
		if r.attach(i, cand) {
			n++
		}
	}
	return n
}

// attach keeps whichever candidate lies closer to the goal's drop location.
// Ties go to the newer candidate.
func (r *Registry) attach(i int, c Collectable) bool {
	g := &r.goals[i]
	if g.Match != nil {
		if g.Match.Location == c.Location && g.Match.Vis.Matches(c.Vis) && c.Hearsay() && !g.Match.Hearsay() {
			return false
		}
		if world.Distance(c.Location, g.Location) > world.Distance(g.Match.Location, g.Location) {
			return false
		}
	}
	g.Match = &c
	return true
}

// MatchFor returns the deferred candidate of goal i.
func (r *Registry) MatchFor(i int) (Collectable, bool) {
	if i < 0 || i >= len(r.goals) || r.goals[i].Match == nil {
		return Collectable{}, false
	}
	return *r.goals[i].Match, true
}

// NextPending returns the known candidate for the goal at the cursor.
func (r *Registry) NextPending() (Collectable, bool) {
	return r.MatchFor(r.cursor)
}

// ClearMatch drops goal i's candidate, typically once it has been picked up
// or found missing.
func (r *Registry) ClearMatch(i int) {
	if i >= 0 && i < len(r.goals) {
		r.goals[i].Match = nil
	}
}

// ClearMatchAt drops every candidate describing vis at loc and returns how
// many were removed.
func (r *Registry) ClearMatchAt(vis world.Visualization, loc world.Location) int {
	n := 0
	for i := range r.goals {
		m := r.goals[i].Match
		if m != nil && m.Location == loc && m.Vis.Matches(vis) {
			r.goals[i].Match = nil
			n++
		}
	}
	return n
}
