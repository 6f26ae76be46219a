package domain

import "fmt"

// Route is the ordered task sequence served by one vehicle, bounded by
// departure from and return to its depot. Sequence order is temporal order.
// Routes only grow: tasks are inserted, never removed or reordered.
type Route struct {
	VehicleID   int
	DepotID     int
	Tasks       []int
	Cost        float64
	WindowStart int
	WindowEnd   int
}

func NewRoute(vehicleID, depotID int) *Route {
	return &Route{VehicleID: vehicleID, DepotID: depotID}
}

func (r *Route) IsEmpty() bool { return len(r.Tasks) == 0 }

func (r *Route) Len() int { return len(r.Tasks) }

func (r *Route) First() (int, bool) {
	if r.IsEmpty() {
		return 0, false
	}
	return r.Tasks[0], true
}

func (r *Route) Last() (int, bool) {
	if r.IsEmpty() {
		return 0, false
	}
	return r.Tasks[len(r.Tasks)-1], true
}

// Append adds a task at the end of the route and charges delta to its cost.
func (r *Route) Append(t Task, delta float64) {
	r.Tasks = append(r.Tasks, t.ID)
	r.grow(t, delta)
}

// InsertAt places a task before position pos (pos == Len() appends).
func (r *Route) InsertAt(pos int, t Task, delta float64) error {
	if pos < 0 || pos > len(r.Tasks) {
		return fmt.Errorf("insert task: vehicle %d: position %d out of range [0,%d]", r.VehicleID, pos, len(r.Tasks))
	}
	r.Tasks = append(r.Tasks, 0)
	copy(r.Tasks[pos+1:], r.Tasks[pos:])
	r.Tasks[pos] = t.ID
	r.grow(t, delta)
	return nil
}

func (r *Route) grow(t Task, delta float64) {
	if len(r.Tasks) == 1 {
		r.WindowStart, r.WindowEnd = t.Start, t.End
	} else {
		r.WindowStart = min(r.WindowStart, t.Start)
		r.WindowEnd = max(r.WindowEnd, t.End)
	}
	r.Cost += delta
}
