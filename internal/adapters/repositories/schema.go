package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema for solve runs and cached solve results.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS solve_runs (
		id UUID PRIMARY KEY,
		instance TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		boundary TEXT NOT NULL,
		depots INTEGER NOT NULL,
		tasks INTEGER NOT NULL,
		vehicles_available INTEGER NOT NULL,
		total_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		vehicles_used INTEGER NOT NULL DEFAULT 0,
		assigned_tasks INTEGER NOT NULL DEFAULT 0,
		feasible BOOLEAN NOT NULL DEFAULT FALSE,
		active_routes INTEGER NOT NULL DEFAULT 0,
		tasks_per_route_avg DOUBLE PRECISION NOT NULL DEFAULT 0,
		tasks_per_route_max INTEGER NOT NULL DEFAULT 0,
		tasks_per_route_min INTEGER NOT NULL DEFAULT 0,
		cost_per_vehicle DOUBLE PRECISION NOT NULL DEFAULT 0,
		utilization_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		elapsed_us BIGINT NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_solve_runs_instance_created
	ON solve_runs(instance, created_at DESC);
	`

	createSolutionCacheQuery := `
	CREATE TABLE IF NOT EXISTS solution_cache (
		instance TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		strategy TEXT NOT NULL,
		boundary TEXT NOT NULL,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (instance, algorithm, strategy, boundary)
	);
	`

	statements := []string{
		createRunsQuery,
		createIndexQuery,
		createSolutionCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
