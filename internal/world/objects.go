package world

// Visualization is the perceivable signature of a block: colour and shape.
type Visualization struct {
	Colour string `json:"colour"`
	Shape  int    `json:"shape"`
}

// Matches reports whether two signatures describe the same kind of block.
func (v Visualization) Matches(o Visualization) bool {
	return v.Colour == o.Colour && v.Shape == o.Shape
}

// Block is a collectable block.
type Block struct {
	ID       string        `json:"id"`
	Vis      Visualization `json:"visualization"`
	Location Location      `json:"location"`
	Room     string        `json:"room,omitempty"` // Empty when outside any room
}

// Door guards the entrance of a room.
type Door struct {
	ID       string   `json:"id"`
	Room     string   `json:"room_name"`
	Location Location `json:"location"`
	Open     bool     `json:"is_open"`
}

// Front returns the cell an agent stands on to open the door.
func (d Door) Front() Location {
	return d.Location.South()
}

// GoalSpec is a drop-zone slot: the block that must end up at Location.
// Goals are listed in delivery order.
type GoalSpec struct {
	Vis      Visualization `json:"visualization"`
	Location Location      `json:"location"`
}

// ActionKind enumerates what an agent can do in one tick.
type ActionKind uint8

const (
	ActionIdle ActionKind = iota
	ActionMove
	ActionOpenDoor
	ActionGrab
	ActionDrop
)

// Action is the single motor output of an agent for a tick.
type Action struct {
	Kind      ActionKind `json:"kind"`
	Direction Direction  `json:"direction,omitempty"`
	ObjectID  string     `json:"object_id,omitempty"`
}

// Move returns a one-cell move action.
func Move(d Direction) *Action {
	return &Action{Kind: ActionMove, Direction: d}
}

// OpenDoor returns an open-door action for the given door object.
func OpenDoor(id string) *Action {
	return &Action{Kind: ActionOpenDoor, ObjectID: id}
}

// Grab returns a pick-up action for the given block.
func Grab(id string) *Action {
	return &Action{Kind: ActionGrab, ObjectID: id}
}

// Drop returns a drop action for the given carried block.
func Drop(id string) *Action {
	return &Action{Kind: ActionDrop, ObjectID: id}
}

// Idle returns the no-op action.
func Idle() *Action {
	return &Action{Kind: ActionIdle}
}

// String renders the action using the simulator's action names.
func (a Action) String() string {
	switch a.Kind {
	case ActionMove:
		return "Move" + a.Direction.String()
	case ActionOpenDoor:
		return "OpenDoorAction"
	case ActionGrab:
		return "GrabObject"
	case ActionDrop:
		return "DropObject"
	default:
		return "Idle"
	}
}
