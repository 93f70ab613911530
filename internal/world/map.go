package world

import (
	"errors"
	"fmt"
	"sort"
)

// Action failures reported by Grid.Apply. The host logs them and the agent
// simply observes that nothing changed, as in the original simulator.
var (
	ErrUnknownAgent = errors.New("unknown agent")
	ErrOutOfBounds  = errors.New("move out of bounds")
	ErrOutOfReach   = errors.New("object out of reach")
	ErrNotCarrying  = errors.New("block not carried")
	ErrOverCapacity = errors.New("carrying capacity reached")
)

// Room is a rectangular area entered through a single door.
type Room struct {
	Name   string   `json:"name"`
	Min    Location `json:"min"`
	Max    Location `json:"max"`
	DoorID string   `json:"door_id"`
}

// Contains reports whether loc lies inside the room rectangle.
func (r Room) Contains(loc Location) bool {
	return loc.X >= r.Min.X && loc.X <= r.Max.X && loc.Y >= r.Min.Y && loc.Y <= r.Max.Y
}

// Body is an agent's physical presence on the grid.
type Body struct {
	ID       string
	Location Location
	Capacity int
	Carrying []string // Block IDs
}

// Grid holds the complete demo world state.
type Grid struct {
	Width       int
	Height      int
	SenseRadius int // Chebyshev radius; blocks behind a closed door stay hidden

	Rooms  []Room
	Doors  map[string]*Door
	Blocks map[string]*Block
	Goals  []GoalSpec
	Bodies map[string]*Body

	doorOrder []string
	bodyOrder []string
	carriedBy map[string]string // block ID → agent ID
}

// NewGrid creates an empty grid.
func NewGrid(width, height, senseRadius int) *Grid {
	return &Grid{
		Width:       width,
		Height:      height,
		SenseRadius: senseRadius,
		Doors:       make(map[string]*Door),
		Blocks:      make(map[string]*Block),
		Bodies:      make(map[string]*Body),
		carriedBy:   make(map[string]string),
	}
}

// AddRoom registers a room together with its door.
func (g *Grid) AddRoom(r Room, d Door) {
	r.DoorID = d.ID
	d.Room = r.Name
	g.Rooms = append(g.Rooms, r)
	g.Doors[d.ID] = &d
	g.doorOrder = append(g.doorOrder, d.ID)
}

// AddBlock places a block, deriving its room from the location.
func (g *Grid) AddBlock(b Block) {
	b.Room = g.RoomAt(b.Location)
	g.Blocks[b.ID] = &b
}

// AddGoal appends a drop-zone slot; goals are delivered in insertion order.
func (g *Grid) AddGoal(spec GoalSpec) {
	g.Goals = append(g.Goals, spec)
}

// Spawn places an agent body on the grid.
func (g *Grid) Spawn(id string, loc Location, capacity int) error {
	if _, ok := g.Bodies[id]; ok {
		return fmt.Errorf("spawn %s: already on grid", id)
	}
	if !g.InBounds(loc) {
		return fmt.Errorf("spawn %s at %s: %w", id, loc, ErrOutOfBounds)
	}
	g.Bodies[id] = &Body{ID: id, Location: loc, Capacity: capacity}
	g.bodyOrder = append(g.bodyOrder, id)
	return nil
}

// InBounds returns true if the location lies on the grid.
func (g *Grid) InBounds(loc Location) bool {
	return loc.X >= 0 && loc.Y >= 0 && loc.X < g.Width && loc.Y < g.Height
}

// RoomAt returns the name of the room containing loc, or "".
func (g *Grid) RoomAt(loc Location) string {
	for _, r := range g.Rooms {
		if r.Contains(loc) {
			return r.Name
		}
	}
	return ""
}

// Apply executes one agent action against the grid.
func (g *Grid) Apply(agentID string, a Action) error {
	body, ok := g.Bodies[agentID]
	if !ok {
		return fmt.Errorf("apply %s: %w", agentID, ErrUnknownAgent)
	}

	switch a.Kind {
	case ActionIdle:
		return nil

	case ActionMove:
		next := body.Location.Step(a.Direction)
		if !g.InBounds(next) {
			return fmt.Errorf("%s %s: %w", agentID, a, ErrOutOfBounds)
		}
		body.Location = next
		return nil

	case ActionOpenDoor:
		door, ok := g.Doors[a.ObjectID]
		if !ok || Distance(door.Location, body.Location) > 1 {
			return fmt.Errorf("%s open %s: %w", agentID, a.ObjectID, ErrOutOfReach)
		}
		door.Open = true
		return nil

	case ActionGrab:
		block, ok := g.Blocks[a.ObjectID]
		if !ok || block.Location != body.Location {
			return fmt.Errorf("%s grab %s: %w", agentID, a.ObjectID, ErrOutOfReach)
		}
		if _, taken := g.carriedBy[a.ObjectID]; taken {
			return fmt.Errorf("%s grab %s: %w", agentID, a.ObjectID, ErrOutOfReach)
		}
		if len(body.Carrying) >= body.Capacity {
			return fmt.Errorf("%s grab %s: %w", agentID, a.ObjectID, ErrOverCapacity)
		}
		body.Carrying = append(body.Carrying, a.ObjectID)
		g.carriedBy[a.ObjectID] = agentID
		return nil

	case ActionDrop:
		for i, id := range body.Carrying {
			if id != a.ObjectID {
				continue
			}
			body.Carrying = append(body.Carrying[:i], body.Carrying[i+1:]...)
			delete(g.carriedBy, id)
			block := g.Blocks[id]
			block.Location = body.Location
			block.Room = g.RoomAt(body.Location)
			return nil
		}
		return fmt.Errorf("%s drop %s: %w", agentID, a.ObjectID, ErrNotCarrying)
	}

	return fmt.Errorf("%s: unknown action kind %d", agentID, a.Kind)
}

// Snapshot builds the view of the world for one agent.
func (g *Grid) Snapshot(agentID string, tick uint64) (*Snapshot, error) {
	body, ok := g.Bodies[agentID]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", agentID, ErrUnknownAgent)
	}

	snap := &Snapshot{
		Tick:  tick,
		Self:  Self{ID: agentID, Location: body.Location, Carrying: append([]string(nil), body.Carrying...)},
		Goals: append([]GoalSpec(nil), g.Goals...),
	}
	for _, id := range g.bodyOrder {
		if id != agentID {
			snap.Teammates = append(snap.Teammates, id)
		}
	}
	for _, id := range g.doorOrder {
		snap.Doors = append(snap.Doors, *g.Doors[id])
	}

	ids := make([]string, 0, len(g.Blocks))
	for id := range g.Blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, carried := g.carriedBy[id]; carried {
			continue
		}
		b := g.Blocks[id]
		if g.visible(body.Location, b) {
			snap.Blocks = append(snap.Blocks, *b)
		}
	}
	return snap, nil
}

func (g *Grid) visible(from Location, b *Block) bool {
	if max(abs(from.X-b.Location.X), abs(from.Y-b.Location.Y)) > g.SenseRadius {
		return false
	}
	if b.Room == "" || g.RoomAt(from) == b.Room {
		return true
	}
	for _, r := range g.Rooms {
		if r.Name == b.Room {
			door := g.Doors[r.DoorID]
			return door != nil && door.Open
		}
	}
	return true
}

// Carrying returns the number of blocks held by an agent.
func (g *Grid) Carrying(agentID string) int {
	if body, ok := g.Bodies[agentID]; ok {
		return len(body.Carrying)
	}
	return 0
}

// GoalsSatisfied returns how many drop-zone slots hold a matching block.
func (g *Grid) GoalsSatisfied() int {
	n := 0
	for _, goal := range g.Goals {
		for id, b := range g.Blocks {
			if _, carried := g.carriedBy[id]; carried {
				continue
			}
			if b.Location == goal.Location && b.Vis.Matches(goal.Vis) {
				n++
				break
			}
		}
	}
	return n
}

// Done returns true when every goal slot is filled.
func (g *Grid) Done() bool {
	return len(g.Goals) > 0 && g.GoalsSatisfied() == len(g.Goals)
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, rooms=%d, blocks=%d, goals=%d)",
		g.Width, g.Height, len(g.Rooms), len(g.Blocks), len(g.Goals))
}
