package ports

import (
	"context"

	"vehicle-scheduling-service/internal/domain"
)

// Port: a boundary for discovering and loading scheduling instances.
type InstanceSource interface {
	// Return the names of all loadable instances, sorted.
	ListInstances(ctx context.Context) ([]string, error)
	// Load a validated instance prepared for the given problem kind.
	// Fails with domain.ErrNotFound or *domain.FormatError.
	LoadInstance(ctx context.Context, name string, kind domain.Kind) (*domain.Instance, error)
	// Policy is the time-window boundary every loaded instance is built with.
	Policy() domain.BoundaryPolicy
}
