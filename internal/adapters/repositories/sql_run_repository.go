package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/ports"
)

// Postgres-backed implementation of the RunRepository port.
type SQLRunRepository struct{ DB *sql.DB }

func NewSQLRunRepository(db *sql.DB) *SQLRunRepository {
	return &SQLRunRepository{DB: db}
}

const runColumns = `
	id, instance, algorithm, strategy, boundary,
	depots, tasks, vehicles_available,
	total_cost, vehicles_used, assigned_tasks, feasible,
	active_routes, tasks_per_route_avg, tasks_per_route_max, tasks_per_route_min,
	cost_per_vehicle, utilization_pct, elapsed_us, error, created_at`

// Insert or replace one run record.
func (s *SQLRunRepository) SaveRun(ctx context.Context, run domain.RunRecord) (err error) {
	defer obs.Time(ctx, "runs.Save")(&err)

	if s.DB == nil {
		return errors.New("save run: db is nil")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("save run: id must not be empty")
	}

	q := `
	INSERT INTO solve_runs (` + runColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (id) DO UPDATE
	SET total_cost = EXCLUDED.total_cost,
		vehicles_used = EXCLUDED.vehicles_used,
		assigned_tasks = EXCLUDED.assigned_tasks,
		feasible = EXCLUDED.feasible,
		elapsed_us = EXCLUDED.elapsed_us,
		error = EXCLUDED.error;
	`

	st := run.Stats
	_, err = s.DB.ExecContext(ctx, q,
		run.ID, run.Instance, run.Algorithm, run.Strategy, run.Boundary,
		run.Depots, run.Tasks, run.VehiclesAvailable,
		run.TotalCost, run.VehiclesUsed, run.AssignedTasks, run.Feasible,
		st.ActiveRoutes, st.TasksPerRouteAvg, st.TasksPerRouteMax, st.TasksPerRouteMin,
		st.CostPerVehicle, st.Utilization, run.Elapsed.Microseconds(), run.Error, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save run: insert id=%s: %w", run.ID, err)
	}
	return nil
}

// Return runs matching the filter, newest first.
func (s *SQLRunRepository) ListRuns(ctx context.Context, filter ports.RunFilter) (_ []domain.RunRecord, err error) {
	defer obs.Time(ctx, "runs.List")(&err)

	if s.DB == nil {
		return nil, errors.New("list runs: db is nil")
	}

	var (
		where []string
		args  []any
	)
	if filter.Instance != "" {
		args = append(args, filter.Instance)
		where = append(where, fmt.Sprintf("instance = $%d", len(args)))
	}
	if filter.Algorithm != "" {
		args = append(args, filter.Algorithm)
		where = append(where, fmt.Sprintf("algorithm = $%d", len(args)))
	}

	q := `SELECT ` + runColumns + ` FROM solve_runs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: query solve_runs table: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.RunRecord, 0, 64)
	for rows.Next() {
		var (
			r         domain.RunRecord
			elapsedUS int64
		)
		err := rows.Scan(
			&r.ID, &r.Instance, &r.Algorithm, &r.Strategy, &r.Boundary,
			&r.Depots, &r.Tasks, &r.VehiclesAvailable,
			&r.TotalCost, &r.VehiclesUsed, &r.AssignedTasks, &r.Feasible,
			&r.Stats.ActiveRoutes, &r.Stats.TasksPerRouteAvg, &r.Stats.TasksPerRouteMax, &r.Stats.TasksPerRouteMin,
			&r.Stats.CostPerVehicle, &r.Stats.Utilization, &elapsedUS, &r.Error, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list runs: scan row: %w", err)
		}
		r.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: row iteration: %w", err)
	}

	return runs, nil
}
