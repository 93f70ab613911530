// Room placement: rooms sit in a row along the top of the grid with their
// doors in the bottom wall, the drop zone is a column on the east side that
// grows northwards, and agents start in the corridor between them.
package world

import "fmt"

const (
	roomWidth  = 3
	roomHeight = 4
	roomStride = roomWidth + 2
	roomTop    = 1
	corridorY  = roomTop + roomHeight + 3
)

type roomPlan struct {
	room Room
	door Door
}

// freeCells lists the cells a block may be placed on: the interior rows
// above the door row that are not yet occupied.
func (rp roomPlan) freeCells(occupied map[Location]bool) []Location {
	var out []Location
	for y := rp.room.Min.Y; y < rp.room.Max.Y; y++ {
		for x := rp.room.Min.X; x <= rp.room.Max.X; x++ {
			loc := Location{X: x, Y: y}
			if !occupied[loc] {
				out = append(out, loc)
			}
		}
	}
	return out
}

type layout struct {
	width    int
	height   int
	rooms    []roomPlan
	dropZone []Location // Goal 0 first, each next goal one cell further north
}

func planLayout(rooms, goals int) layout {
	l := layout{
		width:  rooms*roomStride + 6,
		height: max(corridorY+4, goals+corridorY),
	}

	for i := 0; i < rooms; i++ {
		lo := Location{X: 2 + i*roomStride, Y: roomTop}
		hi := Location{X: lo.X + roomWidth - 1, Y: roomTop + roomHeight - 1}
		name := RoomName(i)
		l.rooms = append(l.rooms, roomPlan{
			room: Room{Name: name, Min: lo, Max: hi},
			door: Door{ID: "door_" + name, Room: name, Location: hi},
		})
	}

	dropX := l.width - 2
	for i := 0; i < goals; i++ {
		l.dropZone = append(l.dropZone, Location{X: dropX, Y: l.height - 2 - i})
	}
	return l
}

// RoomName returns the canonical name of the i-th room ("room_1", ...).
func RoomName(i int) string {
	return fmt.Sprintf("room_%d", i+1)
}

// SpawnPoints returns n distinct corridor cells for agent start positions,
// spaced two cells apart.
func SpawnPoints(g *Grid, n int) []Location {
	points := make([]Location, 0, n)
	for i := 0; i < n; i++ {
		x := 1 + (2*i)%max(1, g.Width-2)
		y := corridorY + (2*i)/max(1, g.Width-2)
		points = append(points, Location{X: x, Y: y})
	}
	return points
}
