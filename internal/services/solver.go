package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/metrics"
	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/ports"
)

// StrategyBest asks the VSP scheduler to try every strategy.
const StrategyBest = "best"

// Solver loads instances, runs the requested scheduler and records the
// outcome. Runs and Cache are optional. The boundary policy is the source's.
type Solver struct {
	Source ports.InstanceSource
	Runs   ports.RunRepository
	Cache  ports.SolutionCache
}

type SolveRequest struct {
	Instance  string
	Algorithm string
	// Strategy is a VSP strategy name or StrategyBest; ignored for MDVSP.
	Strategy string
	Validate bool
	// OnAssign streams progress; requests with a hook bypass the cache.
	OnAssign func(AssignEvent)
}

type SolveResult struct {
	RunID    string
	Summary  domain.Summary
	Strategy string
	// Solution is nil when the result came from the cache.
	Solution   *domain.Solution
	Instance   *domain.Instance
	Stats      RunStats
	Unassigned []int
	Problems   []string
	Cached     bool
	Record     domain.RunRecord
}

// normalize fills defaults and rejects unknown algorithms or strategies.
func (r SolveRequest) normalize() (SolveRequest, error) {
	r.Instance = strings.TrimSpace(r.Instance)
	r.Algorithm = strings.ToLower(strings.TrimSpace(r.Algorithm))
	r.Strategy = strings.ToLower(strings.TrimSpace(r.Strategy))

	switch r.Algorithm {
	case "", AlgorithmMDVSP:
		r.Algorithm = AlgorithmMDVSP
		r.Strategy = ""
	case AlgorithmVSP:
		if r.Strategy == "" {
			r.Strategy = EarliestStart.String()
		}
		if r.Strategy != StrategyBest {
			s, err := ParseStrategy(r.Strategy)
			if err != nil {
				return r, err
			}
			r.Strategy = s.String()
		}
	default:
		return r, fmt.Errorf("unknown algorithm %q", r.Algorithm)
	}
	return r, nil
}

// ValidateRequest reports whether req names a known algorithm and strategy.
// The instance name is not checked.
func ValidateRequest(req SolveRequest) error {
	_, err := req.normalize()
	return err
}

// Solve runs one request. On scheduling failure the returned result still
// carries the failed run record.
func (s *Solver) Solve(ctx context.Context, req SolveRequest) (res SolveResult, err error) {
	defer obs.Time(ctx, "solver.Solve")(&err)

	req, err = req.normalize()
	if err != nil {
		return res, fmt.Errorf("solve: %w", err)
	}
	if req.Instance == "" {
		return res, errors.New("solve: instance is required")
	}

	key := ports.SolveKey{
		Instance:  req.Instance,
		Algorithm: req.Algorithm,
		Strategy:  req.Strategy,
		Boundary:  s.Source.Policy().String(),
	}
	useCache := s.Cache != nil && req.OnAssign == nil && !req.Validate
	if useCache {
		if hit, ok, cerr := s.Cache.Get(ctx, key); cerr != nil {
			log.Printf("req_id=%s solution cache get failed: %v", obs.RequestID(ctx), cerr)
		} else if ok && hit.Complete() {
			metrics.ObserveSolve(req.Algorithm, req.Strategy, "cached", 0, len(hit.Unassigned))
			res = SolveResult{
				RunID:      uuid.NewString(),
				Summary:    hit.Summary,
				Strategy:   hit.Strategy,
				Unassigned: hit.Unassigned,
				Stats:      RunStats{Elapsed: hit.Elapsed, Unassigned: hit.Unassigned},
				Cached:     true,
			}
			res.Record = cachedRecord(res.RunID, key, hit)
			s.saveRun(ctx, res.Record)
			return res, nil
		}
	}

	kind := domain.MDVSP
	if req.Algorithm == AlgorithmVSP {
		kind = domain.VSP
	}

	res.RunID = uuid.NewString()
	inst, err := s.Source.LoadInstance(ctx, req.Instance, kind)
	if err != nil {
		res.Record = s.failedRecord(res.RunID, req, nil, err)
		s.finish(ctx, res.Record, 0)
		return res, fmt.Errorf("solve: %w", err)
	}
	res.Instance = inst

	opts := Options{OnAssign: req.OnAssign}
	var (
		sol   *domain.Solution
		stats RunStats
	)
	switch {
	case req.Algorithm == AlgorithmMDVSP:
		sol, stats, err = NewConcurrentSchedule(opts).Solve(ctx, inst)
	case req.Strategy == StrategyBest:
		var best StrategyResult
		best, _, err = NewVSPConstructive(opts).SolveAllStrategies(ctx, inst)
		sol, stats = best.Solution, best.Stats
	default:
		strategy, _ := ParseStrategy(req.Strategy)
		sol, stats, err = NewVSPConstructive(opts).Solve(ctx, inst, strategy)
	}
	if err != nil {
		res.Stats = stats
		res.Record = s.failedRecord(res.RunID, req, inst, err)
		s.finish(ctx, res.Record, 0)
		return res, fmt.Errorf("solve: %w", err)
	}

	res.Solution = sol
	res.Stats = stats
	res.Summary = sol.Summary()
	res.Strategy = sol.Strategy
	res.Unassigned = stats.Unassigned
	if req.Validate {
		res.Problems = ValidateSolution(inst, sol)
	}
	res.Record = NewRunRecord(res.RunID, inst, sol, stats)
	if len(res.Problems) > 0 {
		res.Record.Error = "validation: " + strings.Join(res.Problems, "; ")
	}
	s.finish(ctx, res.Record, len(stats.Unassigned))

	if useCache {
		entry := ports.CachedSolve{
			Summary:           res.Summary,
			Strategy:          res.Strategy,
			Unassigned:        res.Unassigned,
			Elapsed:           stats.Elapsed,
			Depots:            res.Record.Depots,
			Tasks:             res.Record.Tasks,
			VehiclesAvailable: res.Record.VehiclesAvailable,
			Stats:             res.Record.Stats,
		}
		if perr := s.Cache.Put(ctx, key, entry); perr != nil {
			log.Printf("req_id=%s solution cache put failed: %v", obs.RequestID(ctx), perr)
		}
	}
	return res, nil
}

// finish records metrics and persists the run; persistence failures are
// logged, not returned.
func (s *Solver) finish(ctx context.Context, rec domain.RunRecord, unassigned int) {
	outcome := "feasible"
	switch {
	case rec.Failed():
		outcome = "failed"
	case !rec.Feasible:
		outcome = "partial"
	}
	metrics.ObserveSolve(rec.Algorithm, rec.Strategy, outcome, rec.Elapsed, unassigned)
	s.saveRun(ctx, rec)
}

func (s *Solver) saveRun(ctx context.Context, rec domain.RunRecord) {
	if s.Runs == nil {
		return
	}
	if err := s.Runs.SaveRun(ctx, rec); err != nil {
		log.Printf("req_id=%s save run failed: run_id=%s err=%v", obs.RequestID(ctx), rec.ID, err)
	}
}

// NewRunRecord summarizes a finished solve.
func NewRunRecord(id string, inst *domain.Instance, sol *domain.Solution, stats RunStats) domain.RunRecord {
	return domain.RunRecord{
		ID:                id,
		Instance:          inst.Name,
		Algorithm:         sol.Algorithm,
		Strategy:          sol.Strategy,
		Boundary:          inst.Boundary.String(),
		Depots:            len(inst.Depots),
		Tasks:             inst.NumTasks(),
		VehiclesAvailable: inst.TotalVehicles(),
		TotalCost:         sol.TotalCost,
		VehiclesUsed:      sol.VehiclesUsed,
		AssignedTasks:     sol.AssignedCount(),
		Feasible:          sol.Feasible,
		Stats:             sol.Stats(inst.TotalVehicles()),
		Elapsed:           stats.Elapsed,
		CreatedAt:         time.Now().UTC(),
	}
}

// cachedRecord rebuilds the run record of a cache hit.
func cachedRecord(id string, key ports.SolveKey, hit ports.CachedSolve) domain.RunRecord {
	return domain.RunRecord{
		ID:                id,
		Instance:          key.Instance,
		Algorithm:         key.Algorithm,
		Strategy:          hit.Strategy,
		Boundary:          key.Boundary,
		Depots:            hit.Depots,
		Tasks:             hit.Tasks,
		VehiclesAvailable: hit.VehiclesAvailable,
		TotalCost:         hit.Summary.TotalCost,
		VehiclesUsed:      hit.Summary.VehiclesUsed,
		AssignedTasks:     hit.Summary.AssignedCount,
		Feasible:          hit.Summary.Feasible,
		Stats:             hit.Stats,
		Elapsed:           hit.Elapsed,
		CreatedAt:         time.Now().UTC(),
	}
}

func (s *Solver) failedRecord(id string, req SolveRequest, inst *domain.Instance, err error) domain.RunRecord {
	rec := domain.RunRecord{
		ID:        id,
		Instance:  req.Instance,
		Algorithm: req.Algorithm,
		Strategy:  req.Strategy,
		Boundary:  s.Source.Policy().String(),
		Error:     err.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if inst != nil {
		rec.Depots = len(inst.Depots)
		rec.Tasks = inst.NumTasks()
		rec.VehiclesAvailable = inst.TotalVehicles()
	}
	return rec
}
