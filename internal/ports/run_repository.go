package ports

import (
	"context"

	"vehicle-scheduling-service/internal/domain"
)

// RunFilter narrows ListRuns; zero values mean "any".
type RunFilter struct {
	Instance  string
	Algorithm string
	Limit     int
}

// Port: persistence for solve outcomes.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.RunRecord) error
	// Return runs newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]domain.RunRecord, error)
}
