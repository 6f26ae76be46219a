package services

import (
	"fmt"
	"math"

	"vehicle-scheduling-service/internal/domain"
)

// BuildMDVSPMatrix turns a raw task-first cost matrix into the arc matrix
// used by the MDVSP scheduler.
//
// Every cell is classified from the raw input alone:
//   - depot to depot (diagonal included) and task to itself are infeasible;
//   - raw values at or above the sentinel stay infeasible;
//   - task i to task j is kept only if task j can start after task i ends
//     plus the travel cost, under the boundary policy;
//   - depot legs keep their raw cost.
func BuildMDVSPMatrix(
	raw *domain.ArcMatrix,
	tasks []domain.Task,
	depots []domain.Depot,
	policy domain.BoundaryPolicy,
) (*domain.ArcMatrix, error) {
	nTasks := len(tasks)
	if err := validateRaw(raw, nTasks+len(depots)); err != nil {
		return nil, fmt.Errorf("build mdvsp matrix: %w", err)
	}

	n := raw.Dim()
	out := domain.NewArcMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := raw.ArcCost(i, j)
			iTask, jTask := i < nTasks, j < nTasks

			switch {
			case !iTask && !jTask:
				v = domain.Infeasible
			case v >= domain.Infeasible:
				v = domain.Infeasible
			case iTask && jTask && i == j:
				v = domain.Infeasible
			case iTask && jTask && !policy.Allows(tasks[i].End, v, tasks[j].Start):
				v = domain.Infeasible
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// BuildVSPMatrix is BuildMDVSPMatrix for a single depot (node T) plus the
// symmetric bans: a prohibited (0) or infeasible raw value in either
// direction bans both, and overlapping task windows ban both directions.
func BuildVSPMatrix(
	raw *domain.ArcMatrix,
	tasks []domain.Task,
	policy domain.BoundaryPolicy,
) (*domain.ArcMatrix, error) {
	nTasks := len(tasks)
	if err := validateRaw(raw, nTasks+1); err != nil {
		return nil, fmt.Errorf("build vsp matrix: %w", err)
	}

	n := raw.Dim()
	out := domain.NewArcMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := raw.ArcCost(i, j)
			iTask, jTask := i < nTasks, j < nTasks

			switch {
			case i == j:
				v = domain.Infeasible
			case banned(raw.ArcCost(i, j)) || banned(raw.ArcCost(j, i)):
				v = domain.Infeasible
			case iTask && jTask && tasks[i].Overlaps(tasks[j]):
				v = domain.Infeasible
			case iTask && jTask && !policy.Allows(tasks[i].End, v, tasks[j].Start):
				v = domain.Infeasible
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

func banned(v float64) bool {
	return v == domain.Prohibited || v >= domain.Infeasible
}

// FoldDepots reduces a task-first (T+D)² matrix to (T+1)²: each depot leg
// becomes the cheapest leg over all original depots. Depot-to-depot rows and
// columns are dropped and the folded depot's self-arc is infeasible.
func FoldDepots(raw *domain.ArcMatrix, nTasks, nDepots int) (*domain.ArcMatrix, error) {
	if nDepots < 1 {
		return nil, &domain.FormatError{Source: "fold depots", Msg: fmt.Sprintf("need at least one depot, got %d", nDepots)}
	}
	if err := validateRaw(raw, nTasks+nDepots); err != nil {
		return nil, fmt.Errorf("fold depots: %w", err)
	}

	out := domain.NewArcMatrix(nTasks + 1)
	for i := 0; i < nTasks; i++ {
		for j := 0; j < nTasks; j++ {
			out.Set(i, j, raw.ArcCost(i, j))
		}
	}

	depot := nTasks
	for t := 0; t < nTasks; t++ {
		toTask, fromTask := math.Inf(1), math.Inf(1)
		for d := 0; d < nDepots; d++ {
			toTask = math.Min(toTask, raw.ArcCost(nTasks+d, t))
			fromTask = math.Min(fromTask, raw.ArcCost(t, nTasks+d))
		}
		out.Set(depot, t, toTask)
		out.Set(t, depot, fromTask)
	}
	out.Set(depot, depot, domain.Infeasible)
	return out, nil
}

func validateRaw(raw *domain.ArcMatrix, wantDim int) error {
	if raw == nil {
		return &domain.FormatError{Source: "arc matrix", Msg: "matrix is nil"}
	}
	if raw.Dim() != wantDim {
		return &domain.FormatError{
			Source: "arc matrix",
			Msg:    fmt.Sprintf("dimension %d does not match %d task and depot nodes", raw.Dim(), wantDim),
		}
	}
	n := raw.Dim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := raw.ArcCost(i, j)
			if math.IsNaN(v) || v < 0 {
				return &domain.FormatError{
					Source: "arc matrix",
					Msg:    fmt.Sprintf("cell (%d,%d) has invalid cost %v", i, j, v),
				}
			}
		}
	}
	return nil
}
