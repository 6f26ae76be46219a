package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/db"
	"vehicle-scheduling-service/internal/ports"
)

func sampleRuns(base time.Time) []domain.RunRecord {
	return []domain.RunRecord{
		{ID: uuid.NewString(), Instance: "m4n500s0", Algorithm: "mdvsp", Boundary: "nonstrict", Tasks: 500, Depots: 4, TotalCost: 1200, Feasible: true, CreatedAt: base},
		{ID: uuid.NewString(), Instance: "m4n500s0", Algorithm: "vsp", Strategy: "mixed", Boundary: "nonstrict", Tasks: 500, Depots: 1, CreatedAt: base.Add(time.Minute), Error: "fleet exhausted"},
		{ID: uuid.NewString(), Instance: "m8n1000s1", Algorithm: "mdvsp", Boundary: "strict", Tasks: 1000, Depots: 8, Elapsed: 1500 * time.Microsecond, CreatedAt: base.Add(2 * time.Minute)},
	}
}

func exerciseRepository(t *testing.T, repo ports.RunRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	runs := sampleRuns(base)
	for _, r := range runs {
		require.NoError(t, repo.SaveRun(ctx, r))
	}

	all, err := repo.ListRuns(ctx, ports.RunFilter{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 3)

	mine, err := repo.ListRuns(ctx, ports.RunFilter{Instance: "m4n500s0", Limit: 10})
	require.NoError(t, err)
	var ids []string
	for _, r := range mine {
		if r.ID == runs[0].ID || r.ID == runs[1].ID {
			ids = append(ids, r.ID)
		}
	}
	// newest first
	require.Equal(t, []string{runs[1].ID, runs[0].ID}, ids)

	limited, err := repo.ListRuns(ctx, ports.RunFilter{Algorithm: "mdvsp", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	require.Error(t, repo.SaveRun(ctx, domain.RunRecord{}))
}

func TestMemoryRunRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRunRepository())
}

func TestMemoryRunRepositoryKeepsFields(t *testing.T) {
	repo := NewMemoryRunRepository()
	run := sampleRuns(time.Now())[2]
	require.NoError(t, repo.SaveRun(context.Background(), run))

	got, err := repo.ListRuns(context.Background(), ports.RunFilter{Instance: "m8n1000s1"})
	require.NoError(t, err)
	require.Equal(t, []domain.RunRecord{run}, got)
}

func TestSQLRunRepositoryIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, url)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, InitSchema(ctx, conn))
	exerciseRepository(t, NewSQLRunRepository(conn))
}

func TestSQLRunRepositoryNilDB(t *testing.T) {
	repo := &SQLRunRepository{}
	require.Error(t, repo.SaveRun(context.Background(), domain.RunRecord{ID: "x"}))
	_, err := repo.ListRuns(context.Background(), ports.RunFilter{})
	require.Error(t, err)
}
