package services

import (
	"vehicle-scheduling-service/internal/domain"
)

// Insertion is the cheapest feasible way to put a task into one route:
// the task goes before Position (Position == route length appends).
type Insertion struct {
	Position int
	Delta    float64
}

// BestInsertion evaluates every position of the route for task t.
// The boolean is false when no position is feasible.
func BestInsertion(inst *domain.Instance, r *domain.Route, t domain.Task) (Insertion, bool) {
	var stats RunStats
	return bestInsertion(inst, r, t, &stats)
}

func bestInsertion(inst *domain.Instance, r *domain.Route, t domain.Task, stats *RunStats) (Insertion, bool) {
	arcs := inst.Arcs
	depot := inst.DepotNode(r.DepotID)
	stats.InsertionsTried++

	if r.IsEmpty() {
		stats.FeasibilityChecks++
		if !arcs.Feasible(depot, t.ID) || !arcs.Feasible(t.ID, depot) {
			return Insertion{}, false
		}
		return Insertion{Position: 0, Delta: arcs.ArcCost(depot, t.ID) + arcs.ArcCost(t.ID, depot)}, true
	}

	best := Insertion{}
	found := false
	for pos := 0; pos <= r.Len(); pos++ {
		prev, next := depot, depot
		if pos > 0 {
			prev = r.Tasks[pos-1]
		}
		if pos < r.Len() {
			next = r.Tasks[pos]
		}

		stats.FeasibilityChecks++
		if !fitsBetween(inst, prev, t, next) {
			continue
		}

		delta := arcs.ArcCost(prev, t.ID) + arcs.ArcCost(t.ID, next) - arcs.ArcCost(prev, next)
		// Strict comparison keeps the earliest position on ties.
		if !found || delta < best.Delta {
			best = Insertion{Position: pos, Delta: delta}
			found = true
		}
	}
	return best, found
}

// fitsBetween gates a candidate position: both new arcs must be feasible and
// the task must respect the time windows of its task neighbours.
func fitsBetween(inst *domain.Instance, prev int, t domain.Task, next int) bool {
	arcs := inst.Arcs
	if !arcs.Feasible(prev, t.ID) || !arcs.Feasible(t.ID, next) {
		return false
	}
	nTasks := inst.NumTasks()
	if prev < nTasks {
		p := inst.Tasks[prev]
		if !inst.Boundary.Allows(p.End, arcs.ArcCost(prev, t.ID), t.Start) {
			return false
		}
	}
	if next < nTasks {
		n := inst.Tasks[next]
		if !inst.Boundary.Allows(t.End, arcs.ArcCost(t.ID, next), n.Start) {
			return false
		}
	}
	return true
}
