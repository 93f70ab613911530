// Package observation defines the structured reports agents broadcast to
// each other and the human-readable grammar they travel in.
//
// Reports are rendered as plain sentences so that every teammate, whatever
// its implementation, can read them:
//
//	Found goal block {'colour': '#ff0000', 'shape': 1} at location (4, 3)
//	Dropped goal block {'colour': '#ff0000', 'shape': 1} at drop location (30, 10)
//	Picking up goal block {'colour': '#ff0000', 'shape': 1} at location (4, 3)
//	Moving to room_2
//	Opening door of room_2
//	Searching through room_2
//	I don't trust bob
package observation

import (
	"fmt"

	"github.com/cochaviz/collaborative-agent/internal/world"
)

// SchemaVersion is the version stamped on every parsed observation.
const SchemaVersion = 1

// Kind identifies the report type.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindFound
	KindDropped
	KindPickingUp
	KindMoving
	KindOpening
	KindSearching
	KindDistrust
)

var kindNames = [...]string{
	KindUnknown:   "unknown",
	KindFound:     "found",
	KindDropped:   "dropped",
	KindPickingUp: "picking_up",
	KindMoving:    "moving",
	KindOpening:   "opening",
	KindSearching: "searching",
	KindDistrust:  "distrust",
}

// String returns the schema name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Observation is one structured report. Which fields are set depends on Kind:
// block reports carry Block and At, room reports carry Room and a distrust
// report carries Subject.
type Observation struct {
	Version int                  `json:"version"`
	Kind    Kind                 `json:"kind"`
	Sender  string               `json:"sender,omitempty"`
	Block   *world.Visualization `json:"block,omitempty"`
	At      *world.Location      `json:"location,omitempty"`
	Room    string               `json:"room,omitempty"`
	Subject string               `json:"subject,omitempty"`
}

// Found reports a goal-matching block seen at loc.
func Found(vis world.Visualization, loc world.Location) Observation {
	return blockReport(KindFound, vis, loc)
}

// Dropped reports a block delivered at a drop location.
func Dropped(vis world.Visualization, loc world.Location) Observation {
	return blockReport(KindDropped, vis, loc)
}

// PickingUp reports that the sender is taking the block at loc.
func PickingUp(vis world.Visualization, loc world.Location) Observation {
	return blockReport(KindPickingUp, vis, loc)
}

// Moving reports the room the sender is heading to.
func Moving(room string) Observation {
	return Observation{Version: SchemaVersion, Kind: KindMoving, Room: room}
}

// Opening reports the door the sender is opening.
func Opening(room string) Observation {
	return Observation{Version: SchemaVersion, Kind: KindOpening, Room: room}
}

// Searching reports the room the sender is sweeping.
func Searching(room string) Observation {
	return Observation{Version: SchemaVersion, Kind: KindSearching, Room: room}
}

// Distrust reports that the sender no longer listens to subject.
func Distrust(subject string) Observation {
	return Observation{Version: SchemaVersion, Kind: KindDistrust, Subject: subject}
}

func blockReport(kind Kind, vis world.Visualization, loc world.Location) Observation {
	return Observation{Version: SchemaVersion, Kind: kind, Block: &vis, At: &loc}
}

// HasBlock reports whether the observation carries a descriptor and location.
func (o Observation) HasBlock() bool {
	return o.Block != nil && o.At != nil
}

// Encode renders an observation in the shared text grammar. Unknown kinds
// and block reports missing their block render as "".
func Encode(o Observation) string {
	switch o.Kind {
	case KindFound, KindDropped, KindPickingUp:
		if !o.HasBlock() {
			return ""
		}
		g := blockGrammar[o.Kind]
		return g.prefix + Descriptor(*o.Block) + g.infix + o.At.String()
	case KindMoving, KindOpening, KindSearching:
		return roomPrefix[o.Kind] + o.Room
	case KindDistrust:
		return distrustPrefix + o.Subject
	}
	return ""
}

// Descriptor renders a visualization as the dictionary literal used inside
// block reports.
func Descriptor(vis world.Visualization) string {
	return fmt.Sprintf("{'colour': '%s', 'shape': %d}", vis.Colour, vis.Shape)
}
