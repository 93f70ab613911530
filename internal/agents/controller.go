package agents

import (
	"github.com/cochaviz/collaborative-agent/internal/entropy"
	"github.com/cochaviz/collaborative-agent/internal/goals"
	"github.com/cochaviz/collaborative-agent/internal/observation"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

// step runs the handler of one phase. A nil action means the handler only
// changed state and the dispatch loop continues within the same tick.
func (a *Agent) step(p Phase) (Phase, *world.Action) {
	switch p {
	case PhaseDoorDiscovery:
		return a.discoverDoor()
	case PhaseDoorPath:
		return a.follow(PhaseDoorPath, PhaseDoorOpen)
	case PhaseDoorOpen:
		a.say(observation.Opening(a.door.Room))
		return PhaseRoomEntry, world.OpenDoor(a.door.ID)
	case PhaseRoomEntry:
		return a.repeatThen(1, PhaseRoomScanPlan, world.Move(world.North))
	case PhaseRoomScanPlan:
		return a.planRoomScan()
	case PhaseRoomScanFollow:
		return a.followRoomScan()
	case PhaseTargetPlan:
		return a.planTarget()
	case PhaseTargetFollow:
		if next, act := a.follow(PhaseTargetFollow, PhaseItemAcquire); act != nil {
			return next, act
		}
		if len(a.targets) == 0 {
			return PhaseDoorDiscovery, nil
		}
		return PhaseItemAcquire, nil
	case PhaseItemAcquire:
		return a.acquire()
	case PhaseGoalPlan:
		return a.planGoal()
	case PhaseGoalFollow:
		return a.followGoal()
	case PhaseGoalCancel:
		return a.cancelGoal()
	}
	a.log.Error("unknown phase", "phase", p)
	return PhaseDoorDiscovery, nil
}

// follow moves along the queued waypoints, staying in phase until arrival.
func (a *Agent) follow(stay, arrived Phase) (Phase, *world.Action) {
	if dir, ok := a.nav.Next(a.snap.Self.Location); ok {
		return stay, world.Move(dir)
	}
	return arrived, nil
}

// repeatThen emits act for n consecutive ticks before moving on to next.
func (a *Agent) repeatThen(n int, next Phase, act *world.Action) (Phase, *world.Action) {
	if a.repeat == 0 {
		a.repeat = n
	}
	a.repeat--
	if a.repeat == 0 {
		return next, act
	}
	return a.phase, act
}

func (a *Agent) discoverDoor() (Phase, *world.Action) {
	a.nav.Reset()

	if len(a.carried) > 0 && (len(a.carried) >= a.policy.Capacity() || a.reservation() >= a.goals.Len()) {
		return PhaseGoalPlan, nil
	}
	if len(a.targets) > 0 {
		return PhaseTargetPlan, nil
	}
	if m, ok := a.pendingMatch(); ok {
		a.targets = []goals.Collectable{m}
		return PhaseTargetPlan, nil
	}

	doors := a.snap.ClosedDoors()
	if len(doors) == 0 {
		// Everything is explored; deliver what we hold rather than wander.
		if len(a.carried) > 0 {
			return PhaseGoalPlan, nil
		}
		doors = a.snap.Doors
	}
	i := entropy.Pick(a.rng, len(doors))
	if i < 0 {
		return PhaseDoorDiscovery, world.Idle()
	}
	a.door = doors[i]
	a.say(observation.Moving(a.door.Room))
	a.nav.AddWaypoints(a.door.Front())
	return PhaseDoorPath, nil
}

func (a *Agent) planRoomScan() (Phase, *world.Action) {
	here := a.snap.Self.Location
	a.nav.Reset()
	a.nav.AddWaypoints(
		world.Location{X: here.X, Y: here.Y - 1},
		world.Location{X: here.X - 1, Y: here.Y - 1},
		world.Location{X: here.X - 1, Y: here.Y},
	)
	a.scan = a.scan[:0]
	return PhaseRoomScanFollow, nil
}

func (a *Agent) followRoomScan() (Phase, *world.Action) {
	a.say(observation.Searching(a.door.Room))
	a.collectVisible()

	if dir, ok := a.nav.Next(a.snap.Self.Location); ok {
		return PhaseRoomScanFollow, world.Move(dir)
	}

	free := a.policy.Capacity() - len(a.carried)
	targets, found := a.goals.Resolve(a.scan, a.reservation(), max(free, 0))
	for _, f := range found {
		if a.announced[f.ObjectID] {
			continue
		}
		a.announced[f.ObjectID] = true
		a.say(observation.Found(f.Vis, f.Location))
	}
	a.targets = targets
	a.scan = nil
	return PhaseTargetPlan, nil
}

// collectVisible adds the blocks visible in the room being searched to the
// scan buffer, as this agent perceives them.
func (a *Agent) collectVisible() {
	for _, b := range a.snap.RoomBlocks(a.door.Room) {
		if a.carrying(b.ID) || a.inScan(b.ID) {
			continue
		}
		a.scan = append(a.scan, goals.Collectable{
			Vis:       a.policy.Perceive(b.Vis),
			Location:  b.Location,
			ObjectID:  b.ID,
			GoalIndex: -1,
		})
	}
}

func (a *Agent) inScan(id string) bool {
	for _, c := range a.scan {
		if c.ObjectID == id {
			return true
		}
	}
	return false
}

func (a *Agent) planTarget() (Phase, *world.Action) {
	if len(a.carried) >= a.policy.Capacity() {
		return PhaseGoalPlan, nil
	}

	cursor := a.goals.Cursor()
	kept := a.targets[:0]
	for _, t := range a.targets {
		if t.GoalIndex < cursor || a.serving(t.GoalIndex) || (t.ObjectID != "" && a.carrying(t.ObjectID)) {
			a.goals.ClearMatchAt(t.Vis, t.Location)
			continue
		}
		kept = append(kept, t)
	}
	a.targets = kept

	if len(a.targets) == 0 || a.targets[0].GoalIndex != a.reservation() {
		a.targets = nil
		return PhaseDoorDiscovery, nil
	}

	a.nav.Reset()
	a.nav.AddWaypoints(a.targets[0].Location)
	return PhaseTargetFollow, nil
}

func (a *Agent) acquire() (Phase, *world.Action) {
	if len(a.targets) == 0 {
		return PhaseDoorDiscovery, nil
	}
	t := a.targets[0]
	a.targets = a.targets[1:]
	here := a.snap.Self.Location

	if t.GoalIndex < a.goals.Cursor() {
		a.log.Debug("target outdated", "goal", t.GoalIndex, "cursor", a.goals.Cursor())
		return PhaseTargetPlan, nil
	}

	block, ok := a.blockHere(t)
	if !ok {
		a.goals.ClearMatchAt(t.Vis, t.Location)
		if t.Hearsay() && t.Source != "" {
			a.trust.Adjust(t.Source, a.opts.Trust.FalseSighting)
			a.remember(a.snap.Tick, "nothing at "+here.String()+" as reported by "+t.Source, 0.6)
		}
		a.targets = nil
		return PhaseDoorDiscovery, nil
	}

	t.ObjectID = block.ID
	t.Location = here
	a.goals.ClearMatchAt(t.Vis, t.Location)
	a.carried = append(a.carried, t)
	a.say(observation.PickingUp(t.Vis, t.Location))
	a.remember(a.snap.Tick, "picked up "+t.String(), 0.4)
	grab := world.Grab(block.ID)

	switch {
	case len(a.carried) >= a.policy.Capacity() || a.reservation() >= a.goals.Len():
		return PhaseGoalPlan, grab
	case len(a.targets) > 0:
		return PhaseTargetPlan, grab
	}
	if m, ok := a.pendingMatch(); ok {
		a.targets = []goals.Collectable{m}
		return PhaseTargetPlan, grab
	}
	return PhaseDoorDiscovery, grab
}

// blockHere finds the target block on the agent's cell. Hearsay targets
// match on appearance, first-hand ones on identity.
func (a *Agent) blockHere(t goals.Collectable) (world.Block, bool) {
	for _, b := range a.snap.BlocksAt(a.snap.Self.Location) {
		if a.carrying(b.ID) {
			continue
		}
		if t.Hearsay() {
			if a.policy.Perceive(b.Vis).Matches(t.Vis) {
				return b, true
			}
			continue
		}
		if b.ID == t.ObjectID {
			return b, true
		}
	}
	return world.Block{}, false
}

// lowestCarried returns the index into carried of the block for the
// earliest goal. Deliveries go in goal order.
func (a *Agent) lowestCarried() int {
	best := -1
	for i, c := range a.carried {
		if best < 0 || c.GoalIndex < a.carried[best].GoalIndex {
			best = i
		}
	}
	return best
}

func (a *Agent) release(i int) goals.Collectable {
	c := a.carried[i]
	a.carried = append(a.carried[:i], a.carried[i+1:]...)
	return c
}

func (a *Agent) planGoal() (Phase, *world.Action) {
	i := a.lowestCarried()
	if i < 0 {
		return PhaseDoorDiscovery, nil
	}

	c := a.carried[i]
	if c.GoalIndex != a.goals.Cursor() {
		// Not deliverable now: put it down and keep it in mind.
		a.release(i)
		a.keepInMind(c)
		a.log.Debug("shedding block", "block", c.ObjectID, "goal", c.GoalIndex, "cursor", a.goals.Cursor())
		return PhaseGoalPlan, world.Drop(c.ObjectID)
	}

	goal, _ := a.goals.Goal(c.GoalIndex)
	a.nav.Reset()
	a.nav.AddWaypoints(goal.Location)
	return PhaseGoalFollow, nil
}

func (a *Agent) followGoal() (Phase, *world.Action) {
	if dir, ok := a.nav.Next(a.snap.Self.Location); ok {
		return PhaseGoalFollow, world.Move(dir)
	}

	i := a.lowestCarried()
	if i < 0 || a.carried[i].GoalIndex != a.goals.Cursor() {
		return PhaseGoalPlan, nil
	}

	here := a.snap.Self.Location
	if !a.verifyGoalIndex() {
		a.goals.Rollback()
		a.rollbacks++
		a.cancelAt = &here
		a.log.Info("invalid delivery, rolling back", "cursor", a.goals.Cursor(), "at", here)
		a.remember(a.snap.Tick, "rolled back delivery at "+here.String(), 0.7)
		return PhaseGoalCancel, nil
	}

	c := a.release(i)
	a.goals.Advance()
	a.deliveries++
	a.say(observation.Dropped(c.Vis, here))
	a.remember(a.snap.Tick, "delivered "+c.String(), 0.9)
	drop := world.Drop(c.ObjectID)

	if len(a.carried) > 0 {
		return PhaseGoalPlan, drop
	}
	if m, ok := a.pendingMatch(); ok {
		a.targets = []goals.Collectable{m}
		return PhaseTargetPlan, drop
	}
	return PhaseDoorDiscovery, drop
}

// verifyGoalIndex accepts a delivery for the first goal unconditionally and
// for later goals only when a block sits directly south, where the previous
// goal's block should be.
func (a *Agent) verifyGoalIndex() bool {
	if a.goals.Cursor() == 0 {
		return true
	}
	return len(a.snap.BlocksAt(a.snap.Self.Location.South())) > 0
}

func (a *Agent) cancelGoal() (Phase, *world.Action) {
	if a.cancelAt != nil && a.snap.Self.Location == *a.cancelAt {
		return PhaseGoalCancel, world.Move(world.West)
	}
	a.cancelAt = nil

	i := a.lowestCarried()
	if i < 0 {
		return PhaseDoorDiscovery, nil
	}
	c := a.release(i)
	a.keepInMind(c)
	return PhaseDoorDiscovery, world.Drop(c.ObjectID)
}

// abandon gives up the current objective: working sets are cleared and
// every carried block is put down, without looking for a next goal.
func (a *Agent) abandon() (Phase, *world.Action) {
	a.nav.Reset()
	a.targets = nil
	a.scan = nil
	a.cancelAt = nil

	var drops []world.Action
	for len(a.carried) > 0 {
		c := a.release(a.lowestCarried())
		a.keepInMind(c)
		drops = append(drops, *world.Drop(c.ObjectID))
	}
	if len(drops) == 0 {
		return PhaseDoorDiscovery, nil
	}
	a.queued = append(a.queued, drops[1:]...)
	return PhaseDoorDiscovery, &drops[0]
}
