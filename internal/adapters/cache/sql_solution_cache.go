package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/ports"
)

// SQLSolutionCache is a Postgres-backed solution cache for deployments
// without Redis. The table is created by repositories.InitSchema.
type SQLSolutionCache struct {
	DB *sql.DB
}

func NewSQLSolutionCache(db *sql.DB) *SQLSolutionCache {
	return &SQLSolutionCache{DB: db}
}

func (s *SQLSolutionCache) Get(ctx context.Context, key ports.SolveKey) (_ ports.CachedSolve, _ bool, err error) {
	defer obs.Time(ctx, "solution.cache.sql.Get")(&err)

	var v ports.CachedSolve
	if s.DB == nil {
		return v, false, errors.New("solution cache: db is nil")
	}

	q := `
	SELECT payload
	FROM solution_cache
	WHERE instance = $1
		AND algorithm = $2
		AND strategy = $3
		AND boundary = $4;
	`

	var payload []byte
	err = s.DB.QueryRowContext(ctx, q, key.Instance, key.Algorithm, key.Strategy, key.Boundary).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("get solution cache: query solution_cache table: %w", err)
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, false, fmt.Errorf("get solution cache: decode payload: %w", err)
	}
	return v, true, nil
}

func (s *SQLSolutionCache) Put(ctx context.Context, key ports.SolveKey, v ports.CachedSolve) error {
	if s.DB == nil {
		return errors.New("solution cache: db is nil")
	}
	if key.Instance == "" {
		return errors.New("insert solution cache: instance must not be empty")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("insert solution cache: encode: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO solution_cache (instance, algorithm, strategy, boundary, payload, updated_at)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (instance, algorithm, strategy, boundary) DO UPDATE
	SET payload = EXCLUDED.payload,
		updated_at = EXCLUDED.updated_at;
	`, key.Instance, key.Algorithm, key.Strategy, key.Boundary, payload)
	if err != nil {
		return fmt.Errorf("insert solution cache: %w", err)
	}
	return nil
}
