package agents

// Phase is the controller state of an agent. Exactly one is current.
type Phase uint8

const (
	PhaseDoorDiscovery Phase = iota // Pick a closed door to explore
	PhaseDoorPath                   // Walk to the cell in front of the door
	PhaseDoorOpen
	PhaseRoomEntry
	PhaseRoomScanPlan
	PhaseRoomScanFollow
	PhaseTargetPlan
	PhaseTargetFollow
	PhaseItemAcquire
	PhaseGoalPlan
	PhaseGoalFollow
	PhaseGoalCancel // Step off an invalid drop point before letting go
)

var phaseNames = [...]string{
	PhaseDoorDiscovery:  "door_discovery",
	PhaseDoorPath:       "door_path",
	PhaseDoorOpen:       "door_open",
	PhaseRoomEntry:      "room_entry",
	PhaseRoomScanPlan:   "room_scan_plan",
	PhaseRoomScanFollow: "room_scan_follow",
	PhaseTargetPlan:     "target_plan",
	PhaseTargetFollow:   "target_follow",
	PhaseItemAcquire:    "item_acquire",
	PhaseGoalPlan:       "goal_plan",
	PhaseGoalFollow:     "goal_follow",
	PhaseGoalCancel:     "goal_cancel",
}

// String returns the phase name.
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}
