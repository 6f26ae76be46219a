package ports

import (
	"context"
	"time"

	"vehicle-scheduling-service/internal/domain"
)

// SolveKey identifies a deterministic solve.
type SolveKey struct {
	Instance  string
	Algorithm string
	Strategy  string
	Boundary  string
}

// CachedSolve is what a cache stores for a SolveKey. It carries the instance
// shape and route stats so a hit can be recorded like a fresh run.
type CachedSolve struct {
	Summary           domain.Summary       `json:"summary"`
	Strategy          string               `json:"strategy"`
	Unassigned        []int                `json:"unassigned"`
	Elapsed           time.Duration        `json:"elapsed"`
	Depots            int                  `json:"depots"`
	Tasks             int                  `json:"tasks"`
	VehiclesAvailable int                  `json:"vehicles_available"`
	Stats             domain.SolutionStats `json:"stats"`
}

// Complete reports whether the entry carries the instance shape. Entries
// written before the shape was stored are treated as misses.
func (c CachedSolve) Complete() bool { return c.Depots > 0 }

// Optional cache of solve results. A miss returns ok == false and no error.
type SolutionCache interface {
	Get(ctx context.Context, key SolveKey) (CachedSolve, bool, error)
	Put(ctx context.Context, key SolveKey, v CachedSolve) error
}
