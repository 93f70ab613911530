package agents

import (
	"log/slog"

	"github.com/cochaviz/collaborative-agent/internal/entropy"
	"github.com/cochaviz/collaborative-agent/internal/goals"
	"github.com/cochaviz/collaborative-agent/internal/gossip"
	"github.com/cochaviz/collaborative-agent/internal/observation"
	"github.com/cochaviz/collaborative-agent/internal/trust"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

// New creates an agent. store may be nil for agents that do not persist
// trust between episodes.
func New(id string, policy Policy, opts Options, store trust.Store, rng entropy.Source) *Agent {
	if rng == nil {
		rng = entropy.Crypto{}
	}
	if opts.MaxTransitions <= 0 {
		opts.MaxTransitions = DefaultOptions().MaxTransitions
	}
	log := slog.Default().With("agent", id, "variant", policy.Name())
	te := trust.NewEngine(id, opts.Trust, store, log)

	return &Agent{
		ID:        id,
		policy:    policy,
		opts:      opts,
		rng:       rng,
		log:       log,
		nav:       world.NewNavigator(),
		trust:     te,
		history:   gossip.NewHistory(opts.HistoryLimit, opts.Echo),
		consumer:  gossip.NewConsumer(opts.GossipMode, opts.DiscountThreshold, te),
		phase:     PhaseDoorDiscovery,
		fresh:     true,
		announced: make(map[string]bool),
	}
}

// Variant returns the name of the agent's policy.
func (a *Agent) Variant() string { return a.policy.Name() }

// Phase returns the current controller phase.
func (a *Agent) Phase() Phase { return a.phase }

// Capacity returns how many blocks the agent can hold.
func (a *Agent) Capacity() int { return a.policy.Capacity() }

// Decide runs one tick: it folds the newly delivered messages into trust and
// goal state, then cycles through phases until one of them yields an action.
func (a *Agent) Decide(snap *world.Snapshot, inbox []gossip.Message) Decision {
	a.snap = snap
	a.outbox = nil
	a.ticks++

	if a.goals == nil {
		specs := make([]world.GoalSpec, len(snap.Goals))
		for i, g := range snap.Goals {
			specs[i] = world.GoalSpec{Vis: a.policy.Perceive(g.Vis), Location: g.Location}
		}
		a.goals = goals.NewRegistry(specs)
		a.log.Debug("goals initialised", "count", len(specs))
	}
	a.trust.Restore(snap.Teammates)
	a.reconcileCarried()

	reports := a.receive(inbox)
	for _, id := range a.trust.Revoked() {
		a.say(observation.Distrust(id))
		a.remember(snap.Tick, "stopped trusting "+id, 0.8)
	}
	if err := a.trust.Persist(snap.Tick); err != nil {
		a.log.Warn("trust persist failed", "tick", snap.Tick, "error", err)
	}

	for _, r := range reports {
		eff := a.consumer.Fold(r.Sender, r, a.goals)
		if eff.Advanced {
			a.onCursorAdvanced(r.Sender)
		}
	}

	if len(a.queued) > 0 {
		act := a.queued[0]
		a.queued = a.queued[1:]
		return a.decision(act)
	}

	for i := 0; i < a.opts.MaxTransitions; i++ {
		current := a.phase
		next, act, handled := a.policy.Intercept(current, a)
		if !handled {
			next, act = a.step(current)
		}
		a.setPhase(current, next)
		if act != nil {
			return a.decision(*act)
		}
	}

	a.log.Warn("no action within transition budget", "phase", a.phase, "tick", snap.Tick)
	return a.decision(*world.Idle())
}

func (a *Agent) decision(act world.Action) Decision {
	return Decision{Action: act, Outbox: a.outbox}
}

func (a *Agent) setPhase(from, to Phase) {
	a.fresh = to != from
	if a.fresh {
		a.log.Debug("phase", "from", from, "to", to)
	}
	a.phase = to
}

// receive records the inbox and returns the reports that parsed, after
// scoring their senders.
func (a *Agent) receive(inbox []gossip.Message) []observation.Observation {
	var reports []observation.Observation
	for _, m := range a.history.Ingest(inbox, a.policy.Incoming) {
		if m.From == a.ID {
			continue
		}
		a.trust.Meet(m.From)
		obs, ok := observation.Parse(m.Content)
		if !ok {
			continue
		}
		obs.Sender = m.From
		a.trust.Assess(m.From, obs, a)
		reports = append(reports, obs)
	}
	return reports
}

// say broadcasts a report unless the echo policy suppresses it.
func (a *Agent) say(obs observation.Observation) {
	text := a.policy.Outgoing(observation.Encode(obs), a.snap)
	if !a.history.Allow(text) {
		return
	}
	a.history.MarkSent(text)
	a.outbox = append(a.outbox, text)
}

// reconcileCarried forgets carried blocks the world says we do not hold,
// for instance after a grab that lost a race.
func (a *Agent) reconcileCarried() {
	held := make(map[string]bool, len(a.snap.Self.Carrying))
	for _, id := range a.snap.Self.Carrying {
		held[id] = true
	}
	kept := a.carried[:0]
	for _, c := range a.carried {
		if held[c.ObjectID] {
			kept = append(kept, c)
			continue
		}
		a.log.Debug("lost carried block", "block", c.ObjectID)
	}
	a.carried = kept
}

// onCursorAdvanced reacts to a teammate delivering the goal we were on.
// Blocks that no longer serve any open goal are dropped and targets for
// delivered goals are forgotten. If a candidate for the new cursor is known
// the agent switches to it at once.
func (a *Agent) onCursorAdvanced(by string) {
	cursor := a.goals.Cursor()
	a.log.Debug("cursor advanced by teammate", "teammate", by, "cursor", cursor)

	shed := 0
	kept := a.carried[:0]
	for _, c := range a.carried {
		if c.GoalIndex < cursor {
			a.queued = append(a.queued, *world.Drop(c.ObjectID))
			a.keepInMind(c)
			shed++
			continue
		}
		kept = append(kept, c)
	}
	a.carried = kept

	stale := 0
	live := a.targets[:0]
	for _, t := range a.targets {
		if t.GoalIndex < cursor {
			stale++
			continue
		}
		live = append(live, t)
	}
	a.targets = live

	if a.serving(cursor) {
		if shed > 0 || stale > 0 {
			a.switchTo(PhaseGoalPlan)
		}
		return
	}
	if m, ok := a.pendingMatch(); ok {
		a.targets = []goals.Collectable{m}
		a.switchTo(PhaseTargetPlan)
		return
	}
	switch {
	case shed > 0:
		a.switchTo(PhaseGoalPlan)
	case stale > 0 && len(a.carried) > 0:
		a.switchTo(PhaseGoalPlan)
	case stale > 0:
		a.targets = nil
		a.switchTo(PhaseDoorDiscovery)
	}
}

func (a *Agent) switchTo(p Phase) {
	a.nav.Reset()
	a.setPhase(a.phase, p)
}

// serving reports whether a carried block is meant for goal i.
func (a *Agent) serving(i int) bool {
	for _, c := range a.carried {
		if c.GoalIndex == i {
			return true
		}
	}
	return false
}

// reservation is the first goal at or after the cursor not covered by a
// carried block: the goal the next pickup is for.
func (a *Agent) reservation() int {
	i := a.goals.Cursor()
	for a.serving(i) {
		i++
	}
	return i
}

// pendingMatch returns a known candidate for the reserved goal when there
// is room to carry it.
func (a *Agent) pendingMatch() (goals.Collectable, bool) {
	if len(a.carried) >= a.policy.Capacity() {
		return goals.Collectable{}, false
	}
	return a.goals.MatchFor(a.reservation())
}

// keepInMind records a block the agent let go of as a candidate for later.
func (a *Agent) keepInMind(c goals.Collectable) {
	c.Location = a.snap.Self.Location
	c.Source = ""
	a.goals.Remember(c)
}

func (a *Agent) carrying(objectID string) bool {
	for _, c := range a.carried {
		if c.ObjectID == objectID {
			return true
		}
	}
	return false
}

// Self implements trust.Facts.
func (a *Agent) Self() string { return a.ID }

// RoomClosed implements trust.Facts.
func (a *Agent) RoomClosed(room string) bool {
	return a.snap != nil && a.snap.RoomClosed(room)
}

// GoalIndex implements trust.Facts.
func (a *Agent) GoalIndex(vis world.Visualization) int {
	return a.goals.IndexOf(vis)
}

// DropCandidates implements trust.Facts.
func (a *Agent) DropCandidates(vis world.Visualization, loc world.Location) int {
	return a.goals.DropCandidates(vis, loc)
}

// Status returns a snapshot of the agent for reporting.
func (a *Agent) Status() Status {
	s := Status{
		ID:         a.ID,
		Variant:    a.policy.Name(),
		Phase:      a.phase.String(),
		Carrying:   len(a.carried),
		Capacity:   a.policy.Capacity(),
		Deliveries: a.deliveries,
		Rollbacks:  a.rollbacks,
		Trust:      a.trust.Scores(),
		Recent:     RecentMemories(a, 5),
	}
	if a.goals != nil {
		s.Cursor = a.goals.Cursor()
		s.Goals = a.goals.Len()
	}
	if a.snap != nil {
		s.Location = a.snap.Self.Location
	}
	for _, id := range a.trust.Teammates() {
		if !a.trust.Listening(id) {
			s.Ignoring = append(s.Ignoring, id)
		}
	}
	return s
}

// Trust exposes the agent's trust engine.
func (a *Agent) Trust() *trust.Engine { return a.trust }

// Goals exposes the agent's goal registry. It is nil before the first tick.
func (a *Agent) Goals() *goals.Registry { return a.goals }
