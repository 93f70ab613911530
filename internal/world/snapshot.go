package world

// Self is the observing agent's own entry in a snapshot.
type Self struct {
	ID       string   `json:"id"`
	Location Location `json:"location"`
	Carrying []string `json:"is_carrying,omitempty"` // Block IDs held by the agent
}

// Snapshot is everything an agent can query about the world on one tick.
// It is produced by the host and treated as read-only by the agent.
type Snapshot struct {
	Tick      uint64     `json:"tick"`
	Self      Self       `json:"self"`
	Teammates []string   `json:"team_members"`
	Doors     []Door     `json:"doors"`
	Blocks    []Block    `json:"blocks"` // Collectables currently visible
	Goals     []GoalSpec `json:"goals"`
}

// ClosedDoors returns the doors that are still closed.
func (s *Snapshot) ClosedDoors() []Door {
	var closed []Door
	for _, d := range s.Doors {
		if !d.Open {
			closed = append(closed, d)
		}
	}
	return closed
}

// RoomClosed reports whether the named room's door is known to be closed.
func (s *Snapshot) RoomClosed(room string) bool {
	for _, d := range s.Doors {
		if d.Room == room {
			return !d.Open
		}
	}
	return false
}

// RoomBlocks returns the visible blocks inside the named room.
func (s *Snapshot) RoomBlocks(room string) []Block {
	var out []Block
	for _, b := range s.Blocks {
		if b.Room == room {
			out = append(out, b)
		}
	}
	return out
}

// BlocksAt returns the visible blocks lying on the given cell.
func (s *Snapshot) BlocksAt(loc Location) []Block {
	var out []Block
	for _, b := range s.Blocks {
		if b.Location == loc {
			out = append(out, b)
		}
	}
	return out
}

// DoorByRoom returns the door of the named room.
func (s *Snapshot) DoorByRoom(room string) (Door, bool) {
	for _, d := range s.Doors {
		if d.Room == room {
			return d, true
		}
	}
	return Door{}, false
}
