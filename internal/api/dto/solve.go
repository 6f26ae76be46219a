package dto

import (
	"time"

	"vehicle-scheduling-service/internal/domain"
)

type SolveRequest struct {
	Instance  string `json:"instance"`
	Algorithm string `json:"algorithm"`
	Strategy  string `json:"strategy"`
	Validate  bool   `json:"validate"`
}

type SolveStatsResponse struct {
	Iterations        int     `json:"iterations"`
	Assignments       int     `json:"assignments"`
	RoutesOpened      int     `json:"routes_opened"`
	InsertionsTried   int     `json:"insertions_tried"`
	FeasibilityChecks int     `json:"feasibility_checks"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
}

type SolveResponse struct {
	RunID      string             `json:"run_id,omitempty"`
	Instance   string             `json:"instance"`
	Algorithm  string             `json:"algorithm"`
	Strategy   string             `json:"strategy,omitempty"`
	Cached     bool               `json:"cached"`
	Solution   domain.Summary     `json:"solution"`
	Unassigned []int              `json:"unassigned"`
	Problems   []string           `json:"problems,omitempty"`
	Stats      SolveStatsResponse `json:"stats"`
}

// ProgressEvent is one streamed assignment.
type ProgressEvent struct {
	Type      string  `json:"type"`
	TaskID    int     `json:"task_id"`
	VehicleID int     `json:"vehicle_id"`
	Position  int     `json:"position"`
	Delta     float64 `json:"delta"`
	Assigned  int     `json:"assigned"`
	Total     int     `json:"total"`
}

// StreamMessage wraps the terminal frame of a stream: a result or an error.
type StreamMessage struct {
	Type   string         `json:"type"`
	Result *SolveResponse `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type RunResponse struct {
	ID                string               `json:"id"`
	Instance          string               `json:"instance"`
	Algorithm         string               `json:"algorithm"`
	Strategy          string               `json:"strategy,omitempty"`
	Boundary          string               `json:"boundary"`
	Depots            int                  `json:"depots"`
	Tasks             int                  `json:"tasks"`
	VehiclesAvailable int                  `json:"vehicles_available"`
	TotalCost         float64              `json:"total_cost"`
	VehiclesUsed      int                  `json:"vehicles_used"`
	AssignedTasks     int                  `json:"assigned_tasks"`
	Feasible          bool                 `json:"feasible"`
	Stats             domain.SolutionStats `json:"stats"`
	ElapsedSeconds    float64              `json:"elapsed_seconds"`
	Error             string               `json:"error,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

type ListRunsResponse struct {
	Runs []RunResponse `json:"runs"`
}
