package services

import (
	"fmt"
	"math"

	"vehicle-scheduling-service/internal/domain"
)

// costTolerance absorbs float drift between incremental and re-scored costs.
const costTolerance = 1e-6

// RouteCost re-scores a route from scratch: depot leg, every task-to-task
// arc, and the return leg.
func RouteCost(inst *domain.Instance, r *domain.Route) float64 {
	if r.IsEmpty() {
		return 0
	}
	arcs := inst.Arcs
	depot := inst.DepotNode(r.DepotID)

	cost := arcs.ArcCost(depot, r.Tasks[0])
	for i := 1; i < r.Len(); i++ {
		cost += arcs.ArcCost(r.Tasks[i-1], r.Tasks[i])
	}
	cost += arcs.ArcCost(r.Tasks[r.Len()-1], depot)
	return cost
}

// ValidateSolution checks a solution against its instance and returns every
// violation found; an empty slice means the solution is consistent. Missing
// tasks are reported only when the solution claims to be feasible.
func ValidateSolution(inst *domain.Instance, sol *domain.Solution) []string {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	nTasks := inst.NumTasks()
	seen := make(map[int]int, nTasks)
	routed := 0
	total := 0.0

	for _, r := range sol.Routes {
		if r.DepotID < 0 || r.DepotID >= len(inst.Depots) {
			report("vehicle %d: unknown depot %d", r.VehicleID, r.DepotID)
			continue
		}
		routed += r.Len()

		for i, id := range r.Tasks {
			if id < 0 || id >= nTasks {
				report("vehicle %d: unknown task %d", r.VehicleID, id)
				continue
			}
			if prev, dup := seen[id]; dup {
				report("task %d served by vehicles %d and %d", id, prev, r.VehicleID)
			}
			seen[id] = r.VehicleID

			if i == 0 {
				continue
			}
			a, b := r.Tasks[i-1], id
			if a < 0 || a >= nTasks {
				continue
			}
			if !inst.Arcs.Feasible(a, b) {
				report("vehicle %d: arc %d->%d is infeasible", r.VehicleID, a, b)
			}
			if !inst.Boundary.Allows(inst.Tasks[a].End, inst.Arcs.ArcCost(a, b), inst.Tasks[b].Start) {
				report("vehicle %d: task %d ends too late for task %d", r.VehicleID, a, b)
			}
		}

		if !r.IsEmpty() {
			depot := inst.DepotNode(r.DepotID)
			first, _ := r.First()
			last, _ := r.Last()
			if first >= 0 && first < nTasks && !inst.Arcs.Feasible(depot, first) {
				report("vehicle %d: depot cannot reach task %d", r.VehicleID, first)
			}
			if last >= 0 && last < nTasks && !inst.Arcs.Feasible(last, depot) {
				report("vehicle %d: task %d cannot return to depot", r.VehicleID, last)
			}
			if rescored := RouteCost(inst, r); math.Abs(rescored-r.Cost) > costTolerance {
				report("vehicle %d: route cost %.2f, re-scored %.2f", r.VehicleID, r.Cost, rescored)
			}
		}
		total += r.Cost
	}

	if routed != sol.AssignedCount() {
		report("routes hold %d tasks but %d are marked assigned", routed, sol.AssignedCount())
	}
	if math.Abs(total-sol.TotalCost) > costTolerance {
		report("total cost %.2f, sum of routes %.2f", sol.TotalCost, total)
	}
	if sol.Feasible && len(seen) != nTasks {
		report("solution marked feasible but serves %d of %d tasks", len(seen), nTasks)
	}

	counts := make([]int, len(inst.Depots))
	for _, r := range sol.Routes {
		if !r.IsEmpty() && r.DepotID >= 0 && r.DepotID < len(counts) {
			counts[r.DepotID]++
		}
	}
	for d, n := range counts {
		if n > inst.Depots[d].Vehicles {
			report("depot %d uses %d vehicles, has %d", d, n, inst.Depots[d].Vehicles)
		}
	}
	return problems
}
