package domain

// Task is a timed unit of work (a trip in MDVSP, a service in VSP) that one
// vehicle performs without interruption. Times are integer units shared with
// the travel costs of the arc matrix.
type Task struct {
	ID    int
	Start int
	End   int
}

func (t Task) Duration() int { return t.End - t.Start }

// Overlaps reports whether the two time windows intersect.
// Windows that only touch at a boundary do not overlap.
func (t Task) Overlaps(o Task) bool {
	return !(t.End <= o.Start || o.End <= t.Start)
}

// Depot owns a bounded fleet of vehicles; every route starts and ends there.
type Depot struct {
	ID       int
	Vehicles int
}
