package repositories

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/ports"
)

// In-memory RunRepository used when no DATABASE_URL is configured.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]domain.RunRecord
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]domain.RunRecord)}
}

func (m *MemoryRunRepository) SaveRun(_ context.Context, run domain.RunRecord) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("save run: id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *MemoryRunRepository) ListRuns(_ context.Context, filter ports.RunFilter) ([]domain.RunRecord, error) {
	m.mu.RLock()
	out := make([]domain.RunRecord, 0, len(m.runs))
	for _, r := range m.runs {
		if filter.Instance != "" && r.Instance != filter.Instance {
			continue
		}
		if filter.Algorithm != "" && r.Algorithm != filter.Algorithm {
			continue
		}
		out = append(out, r)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.RunRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
