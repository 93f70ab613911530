package world

// Navigator turns queued waypoints into single-step moves.
// Next reports false once every waypoint has been reached.
type Navigator interface {
	Reset()
	AddWaypoints(locs ...Location)
	Next(from Location) (Direction, bool)
}

// WaypointNavigator walks straight lines between waypoints, horizontal leg
// first. The demo grid has no wall collision so no search is needed.
type WaypointNavigator struct {
	waypoints []Location
}

// NewNavigator returns an empty WaypointNavigator.
func NewNavigator() *WaypointNavigator {
	return &WaypointNavigator{}
}

// Reset drops all queued waypoints.
func (n *WaypointNavigator) Reset() {
	n.waypoints = n.waypoints[:0]
}

// AddWaypoints appends waypoints to the route.
func (n *WaypointNavigator) AddWaypoints(locs ...Location) {
	n.waypoints = append(n.waypoints, locs...)
}

// Pending returns the number of waypoints not yet reached.
func (n *WaypointNavigator) Pending() int {
	return len(n.waypoints)
}

// Next returns the move towards the current waypoint, popping waypoints
// that are already reached.
func (n *WaypointNavigator) Next(from Location) (Direction, bool) {
	for len(n.waypoints) > 0 && n.waypoints[0] == from {
		n.waypoints = n.waypoints[1:]
	}
	if len(n.waypoints) == 0 {
		return North, false
	}

	target := n.waypoints[0]
	switch {
	case target.X > from.X:
		return East, true
	case target.X < from.X:
		return West, true
	case target.Y > from.Y:
		return South, true
	default:
		return North, true
	}
}
