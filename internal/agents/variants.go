package agents

import (
	"fmt"

	"github.com/cochaviz/collaborative-agent/internal/entropy"
	"github.com/cochaviz/collaborative-agent/internal/observation"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

// Colourblind cannot tell colours apart. Every colour it sees, sends or
// receives becomes the neutral colour, so it matches goals on shape alone.
// It also opens every door it reaches and moves on without searching.
type Colourblind struct {
	Baseline
	neutral string
}

func (Colourblind) Name() string { return VariantColourblind }

func (c Colourblind) Perceive(vis world.Visualization) world.Visualization {
	vis.Colour = c.neutral
	return vis
}

func (c Colourblind) Outgoing(text string, _ *world.Snapshot) string {
	return c.neutralise(text)
}

func (c Colourblind) Incoming(text string) string {
	return c.neutralise(text)
}

func (c Colourblind) neutralise(text string) string {
	obs, ok := observation.Parse(text)
	if !ok || obs.Block == nil {
		return text
	}
	obs.Block.Colour = c.neutral
	return observation.Encode(obs)
}

func (Colourblind) Intercept(phase Phase, a *Agent) (Phase, *world.Action, bool) {
	if phase != PhaseDoorOpen {
		return 0, nil, false
	}
	a.say(observation.Opening(a.door.Room))
	return PhaseDoorDiscovery, world.OpenDoor(a.door.ID), true
}

// Lazy gives up on what it is doing with probability p whenever it starts
// opening a door, sweeping a room, picking up a block or delivering one. It
// then drops what it carries and goes looking for another door.
type Lazy struct {
	Baseline
	p   float64
	rng entropy.Source
}

func (Lazy) Name() string { return VariantLazy }

func (l Lazy) Intercept(phase Phase, a *Agent) (Phase, *world.Action, bool) {
	switch phase {
	case PhaseDoorOpen, PhaseRoomScanFollow, PhaseItemAcquire, PhaseGoalFollow:
	default:
		return 0, nil, false
	}
	if !a.fresh || !entropy.Chance(l.rng, l.p) {
		return 0, nil, false
	}
	a.log.Debug("giving up", "phase", phase)
	next, act := a.abandon()
	return next, act, true
}

// Liar falsifies reports with probability p: colour, room and location are
// each replaced by a plausible value taken from the current world.
type Liar struct {
	Baseline
	p   float64
	rng entropy.Source
}

func (Liar) Name() string { return VariantLiar }

func (l Liar) Outgoing(text string, snap *world.Snapshot) string {
	if !entropy.Chance(l.rng, l.p) {
		return text
	}
	obs, ok := observation.Parse(text)
	if !ok {
		return text
	}
	if obs.Block != nil {
		obs.Block.Colour = fmt.Sprintf("#%02x%02x%02x", l.rng.Intn(256), l.rng.Intn(256), l.rng.Intn(256))
	}
	if snap != nil && len(snap.Doors) > 0 {
		if obs.Room != "" {
			obs.Room = snap.Doors[l.rng.Intn(len(snap.Doors))].Room
		}
		if obs.At != nil {
			loc := snap.Doors[l.rng.Intn(len(snap.Doors))].Location
			obs.At = &loc
		}
	}
	return observation.Encode(obs)
}
