package domain

import (
	"fmt"
	"slices"
)

// Solution is the route set produced by one scheduler run. It is owned by
// that run until returned.
type Solution struct {
	InstanceName string
	Algorithm    string
	Strategy     string
	TotalTasks   int
	Routes       []*Route

	assigned map[int]struct{}

	// Set by RecomputeMetrics.
	TotalCost    float64
	VehiclesUsed int
	Feasible     bool
	Makespan     int
}

func NewSolution(instanceName, algorithm string, totalTasks int) *Solution {
	return &Solution{
		InstanceName: instanceName,
		Algorithm:    algorithm,
		TotalTasks:   totalTasks,
		assigned:     make(map[int]struct{}, totalTasks),
	}
}

func (s *Solution) AddRoute(r *Route) { s.Routes = append(s.Routes, r) }

// Assign inserts the task into route at pos and records it as assigned.
// A task can be assigned once.
func (s *Solution) Assign(r *Route, pos int, t Task, delta float64) error {
	if _, ok := s.assigned[t.ID]; ok {
		return fmt.Errorf("assign task: task %d is already assigned", t.ID)
	}
	if err := r.InsertAt(pos, t, delta); err != nil {
		return fmt.Errorf("assign task: %w", err)
	}
	s.assigned[t.ID] = struct{}{}
	return nil
}

func (s *Solution) IsAssigned(taskID int) bool {
	_, ok := s.assigned[taskID]
	return ok
}

func (s *Solution) AssignedCount() int { return len(s.assigned) }

// Assigned returns the assigned task ids in ascending order.
func (s *Solution) Assigned() []int {
	out := make([]int, 0, len(s.assigned))
	for id := range s.assigned {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Unassigned returns the ids in 0..TotalTasks-1 that no route serves.
func (s *Solution) Unassigned() []int {
	out := []int{}
	for id := 0; id < s.TotalTasks; id++ {
		if _, ok := s.assigned[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// ActiveRoutes returns routes with at least one task, in route order.
func (s *Solution) ActiveRoutes() []*Route {
	out := make([]*Route, 0, len(s.Routes))
	for _, r := range s.Routes {
		if !r.IsEmpty() {
			out = append(out, r)
		}
	}
	return out
}

// RecomputeMetrics finalizes the aggregate fields from the routes.
func (s *Solution) RecomputeMetrics() {
	s.TotalCost = 0
	s.VehiclesUsed = 0
	s.Makespan = 0

	first := true
	var lo, hi int
	for _, r := range s.Routes {
		s.TotalCost += r.Cost
		if r.IsEmpty() {
			continue
		}
		s.VehiclesUsed++
		if first {
			lo, hi = r.WindowStart, r.WindowEnd
			first = false
			continue
		}
		lo = min(lo, r.WindowStart)
		hi = max(hi, r.WindowEnd)
	}
	if !first {
		s.Makespan = hi - lo
	}
	s.Feasible = len(s.assigned) == s.TotalTasks
}

type RouteStat struct {
	VehicleID   int     `json:"vehicle_id"`
	DepotID     int     `json:"depot_id"`
	Tasks       []int   `json:"tasks"`
	Cost        float64 `json:"cost"`
	WindowStart int     `json:"window_start"`
	WindowEnd   int     `json:"window_end"`
}

type Summary struct {
	Feasible      bool        `json:"feasible"`
	TotalCost     float64     `json:"total_cost"`
	VehiclesUsed  int         `json:"vehicles_used"`
	AssignedCount int         `json:"assigned_count"`
	Routes        []RouteStat `json:"routes"`
}

// Summary reports the finalized solution; only routes with tasks are listed.
func (s *Solution) Summary() Summary {
	sum := Summary{
		Feasible:      s.Feasible,
		TotalCost:     s.TotalCost,
		VehiclesUsed:  s.VehiclesUsed,
		AssignedCount: len(s.assigned),
		Routes:        []RouteStat{},
	}
	for _, r := range s.ActiveRoutes() {
		sum.Routes = append(sum.Routes, RouteStat{
			VehicleID:   r.VehicleID,
			DepotID:     r.DepotID,
			Tasks:       slices.Clone(r.Tasks),
			Cost:        r.Cost,
			WindowStart: r.WindowStart,
			WindowEnd:   r.WindowEnd,
		})
	}
	return sum
}

// SolutionStats are the per-run aggregates used in experiment reports.
type SolutionStats struct {
	ActiveRoutes     int     `json:"active_routes"`
	TasksPerRouteAvg float64 `json:"tasks_per_route_avg"`
	TasksPerRouteMax int     `json:"tasks_per_route_max"`
	TasksPerRouteMin int     `json:"tasks_per_route_min"`
	CostPerVehicle   float64 `json:"cost_per_vehicle"`
	Utilization      float64 `json:"utilization_pct"`
}

// Stats derives route-level aggregates; availableVehicles is the fleet size.
func (s *Solution) Stats(availableVehicles int) SolutionStats {
	active := s.ActiveRoutes()
	st := SolutionStats{ActiveRoutes: len(active)}
	if len(active) == 0 {
		return st
	}

	total := 0
	cost := 0.0
	for i, r := range active {
		n := r.Len()
		total += n
		cost += r.Cost
		if i == 0 {
			st.TasksPerRouteMax, st.TasksPerRouteMin = n, n
			continue
		}
		st.TasksPerRouteMax = max(st.TasksPerRouteMax, n)
		st.TasksPerRouteMin = min(st.TasksPerRouteMin, n)
	}
	st.TasksPerRouteAvg = float64(total) / float64(len(active))
	st.CostPerVehicle = cost / float64(len(active))
	if availableVehicles > 0 {
		st.Utilization = float64(len(active)) / float64(availableVehicles) * 100
	}
	return st
}
