package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"vehicle-scheduling-service/internal/domain"
)

const AlgorithmVSP = "vsp"

// Strategy is the order in which the VSP scheduler visits tasks.
type Strategy int

const (
	EarliestStart Strategy = iota
	EarliestFinish
	ShortestDuration
	Mixed
)

// Strategies lists every strategy in the order SolveAllStrategies tries them.
var Strategies = []Strategy{EarliestStart, EarliestFinish, ShortestDuration, Mixed}

func (s Strategy) String() string {
	switch s {
	case EarliestStart:
		return "earliest_start"
	case EarliestFinish:
		return "earliest_finish"
	case ShortestDuration:
		return "shortest_duration"
	case Mixed:
		return "mixed"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func (s Strategy) valid() bool { return s >= EarliestStart && s <= Mixed }

// ParseStrategy maps a strategy name to its value; unknown names fail here
// rather than during a solve.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	for _, s := range Strategies {
		if s.String() == n {
			return s, nil
		}
	}
	return EarliestStart, fmt.Errorf("parse strategy: unknown strategy %q", name)
}

// Compare orders two tasks under the strategy; task id breaks every tie.
func (s Strategy) Compare(a, b domain.Task) int {
	var c int
	switch s {
	case EarliestStart:
		c = cmp.Compare(a.Start, b.Start)
	case EarliestFinish:
		c = cmp.Compare(a.End, b.End)
	case ShortestDuration:
		c = cmp.Compare(a.Duration(), b.Duration())
	case Mixed:
		c = cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.Duration(), b.Duration()))
	}
	return cmp.Or(c, cmp.Compare(a.ID, b.ID))
}

// Order returns a sorted copy of tasks.
func (s Strategy) Order(tasks []domain.Task) []domain.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, s.Compare)
	return out
}

// VSPConstructive is the single-depot scheduler: one ordered pass, each task
// going to its cheapest feasible insertion or to a new vehicle.
type VSPConstructive struct {
	Options Options
}

func NewVSPConstructive(opts Options) *VSPConstructive {
	return &VSPConstructive{Options: opts}
}

// Solve fails with *domain.FleetExhaustedError or *domain.DepotUnreachableError
// when a task cannot be served; a VSP solution missing a task is not returned.
func (v *VSPConstructive) Solve(ctx context.Context, inst *domain.Instance, strategy Strategy) (*domain.Solution, RunStats, error) {
	start := time.Now()
	var stats RunStats

	if !strategy.valid() {
		return nil, stats, fmt.Errorf("vsp constructive: unknown strategy %d", int(strategy))
	}
	if err := inst.Validate(); err != nil {
		return nil, stats, fmt.Errorf("vsp constructive: %w", err)
	}
	if inst.Kind != domain.VSP {
		return nil, stats, fmt.Errorf("vsp constructive: instance %q is %s, want vsp", inst.Name, inst.Kind)
	}

	sol := domain.NewSolution(inst.Name, AlgorithmVSP, inst.NumTasks())
	sol.Strategy = strategy.String()
	fleet := inst.Depots[0].Vehicles

	for _, t := range strategy.Order(inst.Tasks) {
		if err := ctx.Err(); err != nil {
			return nil, stats, fmt.Errorf("vsp constructive: %w", err)
		}
		stats.Iterations++

		route, ins, ok := v.cheapestRoute(inst, sol, t, &stats)
		if !ok {
			var err error
			route, ins, err = v.openRoute(inst, sol, t, fleet, &stats)
			if err != nil {
				stats.Elapsed = time.Since(start)
				return nil, stats, fmt.Errorf("vsp constructive: %s: %w", strategy, err)
			}
		}

		if err := sol.Assign(route, ins.Position, t, ins.Delta); err != nil {
			return nil, stats, fmt.Errorf("vsp constructive: %w", err)
		}
		stats.Assignments++
		v.Options.emit(sol, route, t, ins)
	}

	sol.RecomputeMetrics()
	stats.Unassigned = sol.Unassigned()
	stats.Elapsed = time.Since(start)
	return sol, stats, nil
}

func (v *VSPConstructive) cheapestRoute(
	inst *domain.Instance,
	sol *domain.Solution,
	t domain.Task,
	stats *RunStats,
) (*domain.Route, Insertion, bool) {
	var (
		bestRoute *domain.Route
		best      Insertion
	)
	for _, r := range sol.Routes {
		if r.IsEmpty() {
			continue
		}
		ins, ok := bestInsertion(inst, r, t, stats)
		if !ok {
			continue
		}
		if bestRoute == nil || ins.Delta < best.Delta {
			bestRoute, best = r, ins
		}
	}
	return bestRoute, best, bestRoute != nil
}

func (v *VSPConstructive) openRoute(
	inst *domain.Instance,
	sol *domain.Solution,
	t domain.Task,
	fleet int,
	stats *RunStats,
) (*domain.Route, Insertion, error) {
	if len(sol.Routes) >= fleet {
		return nil, Insertion{}, &domain.FleetExhaustedError{TaskID: t.ID, Vehicles: fleet}
	}

	r := domain.NewRoute(len(sol.Routes), 0)
	ins, ok := bestInsertion(inst, r, t, stats)
	if !ok {
		return nil, Insertion{}, &domain.DepotUnreachableError{TaskID: t.ID}
	}
	sol.AddRoute(r)
	stats.RoutesOpened++
	return r, ins, nil
}

// StrategyResult is the outcome of one strategy in SolveAllStrategies.
type StrategyResult struct {
	Strategy Strategy
	Solution *domain.Solution
	Stats    RunStats
	Err      error
}

// SolveAllStrategies runs every strategy independently and returns the
// solution with the fewest vehicles, then the lowest cost; earlier strategies
// win exact ties. Strategies that fail are skipped. If all fail, the joined
// errors are returned.
func (v *VSPConstructive) SolveAllStrategies(ctx context.Context, inst *domain.Instance) (StrategyResult, []StrategyResult, error) {
	results := make([]StrategyResult, 0, len(Strategies))
	var (
		best  StrategyResult
		found bool
		errs  []error
	)

	for _, s := range Strategies {
		sol, stats, err := v.Solve(ctx, inst, s)
		res := StrategyResult{Strategy: s, Solution: sol, Stats: stats, Err: err}
		results = append(results, res)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return StrategyResult{}, results, fmt.Errorf("solve all strategies: %w", ctxErr)
			}
			errs = append(errs, err)
			continue
		}
		if !found || betterVSP(sol, best.Solution) {
			best, found = res, true
		}
	}

	if !found {
		return StrategyResult{}, results, fmt.Errorf("solve all strategies: %w", errors.Join(errs...))
	}
	return best, results, nil
}

func betterVSP(a, b *domain.Solution) bool {
	if a.VehiclesUsed != b.VehiclesUsed {
		return a.VehiclesUsed < b.VehiclesUsed
	}
	return a.TotalCost < b.TotalCost
}
