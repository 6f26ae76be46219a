package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/obs"
)

const defaultWorkers = 4

// ExperimentRequest describes a batch. An empty Instances list means every
// instance the source lists; Limit caps it after sorting.
type ExperimentRequest struct {
	Instances []string
	Limit     int
	Algorithm string
	Strategy  string
	Workers   int
	Validate  bool
	// OnRecord is called once per finished instance, from worker goroutines.
	OnRecord func(domain.RunRecord)
}

type ExperimentResult struct {
	Records []domain.RunRecord
	Summary ExperimentSummary
	Elapsed time.Duration
}

// ExperimentSummary aggregates the successful runs of a batch. Time, cost and
// vehicle fields are zero when nothing succeeded.
type ExperimentSummary struct {
	Total          int           `json:"total"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	SuccessRate    float64       `json:"success_rate_pct"`
	TotalTime      time.Duration `json:"total_time"`
	AvgTime        time.Duration `json:"avg_time"`
	MinTime        time.Duration `json:"min_time"`
	MaxTime        time.Duration `json:"max_time"`
	AvgCost        float64       `json:"avg_cost"`
	MinCost        float64       `json:"min_cost"`
	MaxCost        float64       `json:"max_cost"`
	AvgVehicles    float64       `json:"avg_vehicles"`
	AvgAvailable   float64       `json:"avg_available"`
	AvgUtilization float64       `json:"avg_utilization_pct"`
	AllFeasible    bool          `json:"all_feasible"`
	ByDepots       []DepotGroup  `json:"by_depots"`
}

// DepotGroup aggregates successful runs sharing a depot count.
type DepotGroup struct {
	Depots      int           `json:"depots"`
	Runs        int           `json:"runs"`
	AvgCost     float64       `json:"avg_cost"`
	AvgVehicles float64       `json:"avg_vehicles"`
	AvgTime     time.Duration `json:"avg_time"`
}

// RunExperiment solves every requested instance with bounded concurrency.
// Per-instance failures become failed records; only cancellation aborts the
// batch. Records keep the instance order.
func RunExperiment(ctx context.Context, solver *Solver, req ExperimentRequest) (res ExperimentResult, err error) {
	defer obs.Time(ctx, "experiment.Run")(&err)
	start := time.Now()

	if err := ValidateRequest(SolveRequest{Algorithm: req.Algorithm, Strategy: req.Strategy}); err != nil {
		return res, fmt.Errorf("experiment: %w", err)
	}

	names := slices.Clone(req.Instances)
	if len(names) == 0 {
		names, err = solver.Source.ListInstances(ctx)
		if err != nil {
			return res, fmt.Errorf("experiment: list instances: %w", err)
		}
	}
	if req.Limit > 0 && len(names) > req.Limit {
		names = names[:req.Limit]
	}

	workers := req.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	records := make([]domain.RunRecord, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := solver.Solve(gctx, SolveRequest{
				Instance:  name,
				Algorithm: req.Algorithm,
				Strategy:  req.Strategy,
				Validate:  req.Validate,
			})
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			rec := out.Record
			if err != nil {
				log.Printf("req_id=%s experiment instance=%s failed: %v", obs.RequestID(ctx), name, err)
				if rec.ID == "" {
					rec = domain.RunRecord{Instance: name, Algorithm: req.Algorithm, Strategy: req.Strategy, Error: err.Error(), CreatedAt: time.Now().UTC()}
				}
			}
			records[i] = rec
			if req.OnRecord != nil {
				req.OnRecord(rec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("experiment: %w", err)
	}

	res.Records = records
	res.Elapsed = time.Since(start)
	res.Summary = Summarize(records, res.Elapsed)
	return res, nil
}

// Summarize computes batch aggregates over the successful records.
func Summarize(records []domain.RunRecord, total time.Duration) ExperimentSummary {
	sum := ExperimentSummary{Total: len(records), TotalTime: total, ByDepots: []DepotGroup{}}

	groups := map[int]*DepotGroup{}
	var (
		timeSum          time.Duration
		costSum, vehSum  float64
		availSum, utlSum float64
	)
	sum.AllFeasible = true
	for _, r := range records {
		if r.Failed() {
			sum.Failed++
			continue
		}
		if sum.Succeeded == 0 {
			sum.MinTime, sum.MaxTime = r.Elapsed, r.Elapsed
			sum.MinCost, sum.MaxCost = r.TotalCost, r.TotalCost
		}
		sum.Succeeded++
		sum.MinTime = min(sum.MinTime, r.Elapsed)
		sum.MaxTime = max(sum.MaxTime, r.Elapsed)
		sum.MinCost = min(sum.MinCost, r.TotalCost)
		sum.MaxCost = max(sum.MaxCost, r.TotalCost)
		timeSum += r.Elapsed
		costSum += r.TotalCost
		vehSum += float64(r.VehiclesUsed)
		availSum += float64(r.VehiclesAvailable)
		utlSum += r.Stats.Utilization
		sum.AllFeasible = sum.AllFeasible && r.Feasible

		g, ok := groups[r.Depots]
		if !ok {
			g = &DepotGroup{Depots: r.Depots}
			groups[r.Depots] = g
		}
		g.Runs++
		g.AvgCost += r.TotalCost
		g.AvgVehicles += float64(r.VehiclesUsed)
		g.AvgTime += r.Elapsed
	}

	if sum.Total > 0 {
		sum.SuccessRate = float64(sum.Succeeded) / float64(sum.Total) * 100
	}
	if sum.Succeeded == 0 {
		sum.AllFeasible = false
		return sum
	}

	n := float64(sum.Succeeded)
	sum.AvgTime = timeSum / time.Duration(sum.Succeeded)
	sum.AvgCost = costSum / n
	sum.AvgVehicles = vehSum / n
	sum.AvgAvailable = availSum / n
	sum.AvgUtilization = utlSum / n

	for _, g := range groups {
		runs := float64(g.Runs)
		g.AvgCost /= runs
		g.AvgVehicles /= runs
		g.AvgTime /= time.Duration(g.Runs)
		sum.ByDepots = append(sum.ByDepots, *g)
	}
	slices.SortFunc(sum.ByDepots, func(a, b DepotGroup) int { return a.Depots - b.Depots })
	return sum
}

// Criterion orders successful records for BestRuns.
type Criterion string

const (
	ByCost        Criterion = "cost"
	ByVehicles    Criterion = "vehicles"
	ByTime        Criterion = "time"
	ByUtilization Criterion = "utilization"
)

// BestRuns returns up to top successful records ranked by c. Utilization
// ranks highest first, the rest lowest first.
func BestRuns(records []domain.RunRecord, c Criterion, top int) ([]domain.RunRecord, error) {
	var cmp func(a, b domain.RunRecord) int
	switch c {
	case ByCost:
		cmp = func(a, b domain.RunRecord) int { return compareFloat(a.TotalCost, b.TotalCost) }
	case ByVehicles:
		cmp = func(a, b domain.RunRecord) int { return a.VehiclesUsed - b.VehiclesUsed }
	case ByTime:
		cmp = func(a, b domain.RunRecord) int { return compareFloat(float64(a.Elapsed), float64(b.Elapsed)) }
	case ByUtilization:
		cmp = func(a, b domain.RunRecord) int { return compareFloat(b.Stats.Utilization, a.Stats.Utilization) }
	default:
		return nil, fmt.Errorf("unknown criterion %q", c)
	}

	out := make([]domain.RunRecord, 0, len(records))
	for _, r := range records {
		if !r.Failed() {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, cmp)
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out, nil
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
