package services

import (
	"time"

	"vehicle-scheduling-service/internal/domain"
)

// RunStats are the counters of a single scheduler run. Each run returns its
// own value; nothing is shared between concurrent solves.
type RunStats struct {
	Iterations        int
	Assignments       int
	RoutesOpened      int
	InsertionsTried   int
	FeasibilityChecks int
	Unassigned        []int
	Elapsed           time.Duration
}

// AssignEvent is emitted after every committed insertion. Solution points at
// the live solution of the run and must only be read inside the callback.
type AssignEvent struct {
	TaskID    int
	VehicleID int
	Position  int
	Delta     float64
	Assigned  int
	Total     int
	Solution  *domain.Solution
}

// Options configures a scheduler run.
type Options struct {
	// OnAssign, if set, is called synchronously after each assignment.
	OnAssign func(AssignEvent)
}

func (o Options) emit(sol *domain.Solution, r *domain.Route, t domain.Task, ins Insertion) {
	if o.OnAssign == nil {
		return
	}
	o.OnAssign(AssignEvent{
		TaskID:    t.ID,
		VehicleID: r.VehicleID,
		Position:  ins.Position,
		Delta:     ins.Delta,
		Assigned:  sol.AssignedCount(),
		Total:     sol.TotalTasks,
		Solution:  sol,
	})
}
