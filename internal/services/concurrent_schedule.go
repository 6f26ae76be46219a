package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"vehicle-scheduling-service/internal/domain"
)

const AlgorithmMDVSP = "mdvsp"

// ConcurrentSchedule is the MDVSP greedy scheduler. Every iteration it
// commits the single cheapest feasible (task, route) insertion over all
// pending tasks and all vehicles.
type ConcurrentSchedule struct {
	Options Options
}

func NewConcurrentSchedule(opts Options) *ConcurrentSchedule {
	return &ConcurrentSchedule{Options: opts}
}

type candidate struct {
	task  domain.Task
	pidx  int
	route *domain.Route
	ins   Insertion
}

// Solve runs the scheduler to completion. Tasks that cannot be placed are
// left out and reported in RunStats.Unassigned with Feasible == false; that
// is a result, not an error. Errors are returned only for invalid instances
// and a cancelled context.
func (cs *ConcurrentSchedule) Solve(ctx context.Context, inst *domain.Instance) (*domain.Solution, RunStats, error) {
	start := time.Now()
	var stats RunStats

	if err := inst.Validate(); err != nil {
		return nil, stats, fmt.Errorf("concurrent schedule: %w", err)
	}

	sol := domain.NewSolution(inst.Name, AlgorithmMDVSP, inst.NumTasks())
	vehicleID := 0
	for d, depot := range inst.Depots {
		for v := 0; v < depot.Vehicles; v++ {
			sol.AddRoute(domain.NewRoute(vehicleID, d))
			vehicleID++
		}
	}
	stats.RoutesOpened = len(sol.Routes)

	pending := make([]int, inst.NumTasks())
	for i := range pending {
		pending[i] = i
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, stats, fmt.Errorf("concurrent schedule: %w", err)
		}
		stats.Iterations++

		best, ok := cs.bestCandidate(inst, sol, pending, &stats)
		if !ok {
			break
		}

		if err := sol.Assign(best.route, best.ins.Position, best.task, best.ins.Delta); err != nil {
			return nil, stats, fmt.Errorf("concurrent schedule: %w", err)
		}
		pending = slices.Delete(pending, best.pidx, best.pidx+1)
		stats.Assignments++
		cs.Options.emit(sol, best.route, best.task, best.ins)
	}

	sol.RecomputeMetrics()
	stats.Unassigned = slices.Clone(pending)
	stats.Elapsed = time.Since(start)
	return sol, stats, nil
}

// bestCandidate scans pending tasks in ascending id, then routes in order;
// the first minimum wins.
func (cs *ConcurrentSchedule) bestCandidate(
	inst *domain.Instance,
	sol *domain.Solution,
	pending []int,
	stats *RunStats,
) (candidate, bool) {
	var best candidate
	found := false

	emptySeen := make([]bool, len(inst.Depots))
	for pidx, id := range pending {
		t := inst.Tasks[id]
		clear(emptySeen)

		for _, r := range sol.Routes {
			// Empty routes of one depot are interchangeable; only the first
			// one can win a strict comparison.
			if r.IsEmpty() {
				if emptySeen[r.DepotID] {
					continue
				}
				emptySeen[r.DepotID] = true
			}

			ins, ok := bestInsertion(inst, r, t, stats)
			if !ok {
				continue
			}
			if !found || ins.Delta < best.ins.Delta {
				best = candidate{task: t, pidx: pidx, route: r, ins: ins}
				found = true
			}
		}
	}
	return best, found
}
