package domain

import "time"

// RunRecord is the persisted outcome of solving one instance once.
// Failed runs keep Error set and zero solution fields.
type RunRecord struct {
	ID                string
	Instance          string
	Algorithm         string
	Strategy          string
	Boundary          string
	Depots            int
	Tasks             int
	VehiclesAvailable int
	TotalCost         float64
	VehiclesUsed      int
	AssignedTasks     int
	Feasible          bool
	Stats             SolutionStats
	Elapsed           time.Duration
	Error             string
	CreatedAt         time.Time
}

func (r RunRecord) Failed() bool { return r.Error != "" }
