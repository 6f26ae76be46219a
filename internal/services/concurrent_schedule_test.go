package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-scheduling-service/internal/domain"
)

func TestConcurrentScheduleChainsTasks(t *testing.T) {
	inst := mdvspInstance(t, [][2]int{{0, 10}, {15, 25}, {30, 40}}, []int{2}, uniformRaw(3, 1, 5, 10))

	sol, stats, err := NewConcurrentSchedule(Options{}).Solve(context.Background(), inst)
	require.NoError(t, err)

	require.True(t, sol.Feasible)
	require.Len(t, sol.Routes, 2)
	require.Equal(t, 1, sol.VehiclesUsed)
	require.Equal(t, 30.0, sol.TotalCost)
	require.Equal(t, []int{0, 1, 2}, sol.Routes[0].Tasks)
	require.Equal(t, 3, stats.Assignments)
	require.Equal(t, 2, stats.RoutesOpened)
	require.Empty(t, stats.Unassigned)
}

func TestConcurrentSchedulePicksCheapestDepot(t *testing.T) {
	// depot 1 is closer to the single task
	raw := uniformRaw(1, 2, 5, 10)
	raw.Set(2, 0, 3)
	raw.Set(0, 2, 4)
	inst := mdvspInstance(t, [][2]int{{0, 10}}, []int{1, 1}, raw)

	sol, _, err := NewConcurrentSchedule(Options{}).Solve(context.Background(), inst)
	require.NoError(t, err)
	require.True(t, sol.Feasible)
	require.True(t, sol.Routes[0].IsEmpty())
	require.Equal(t, 1, sol.Routes[1].DepotID)
	require.Equal(t, []int{0}, sol.Routes[1].Tasks)
	require.Equal(t, 7.0, sol.TotalCost)
}

func TestConcurrentScheduleStrandsUnreachableTask(t *testing.T) {
	raw := uniformRaw(3, 2, 5, 10)
	for _, d := range []int{3, 4} {
		raw.Set(d, 1, domain.Infeasible)
	}
	// task 1 overlaps both other tasks, so no route can take it
	inst := mdvspInstance(t, [][2]int{{0, 10}, {5, 20}, {18, 30}}, []int{1, 1}, raw)

	sol, stats, err := NewConcurrentSchedule(Options{}).Solve(context.Background(), inst)
	require.NoError(t, err)

	require.False(t, sol.Feasible)
	require.False(t, sol.IsAssigned(1))
	require.Equal(t, []int{1}, stats.Unassigned)
	require.Equal(t, []int{0, 2}, sol.Assigned())
	require.Empty(t, ValidateSolution(inst, sol))
}

func TestConcurrentScheduleTieBreaksOnFirstTask(t *testing.T) {
	// both tasks cost 20 on an empty route; task 0 is enumerated first
	inst := mdvspInstance(t, [][2]int{{0, 10}, {0, 10}}, []int{1, 1}, uniformRaw(2, 2, 5, 10))

	var order []int
	opts := Options{OnAssign: func(ev AssignEvent) { order = append(order, ev.TaskID) }}
	sol, _, err := NewConcurrentSchedule(opts).Solve(context.Background(), inst)
	require.NoError(t, err)

	require.Equal(t, []int{0, 1}, order)
	require.Equal(t, []int{0}, sol.Routes[0].Tasks)
	require.Equal(t, []int{1}, sol.Routes[1].Tasks)
}

func TestConcurrentScheduleInvariantsHoldAfterEveryInsertion(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		windows, raw := randomRaw(seed, 30, 3)
		inst := mdvspInstance(t, windows, []int{3, 2, 2}, raw)

		events := 0
		opts := Options{OnAssign: func(ev AssignEvent) {
			events++
			require.Equal(t, events, ev.Assigned)
			requireRoutesConsistent(t, inst, ev.Solution)
		}}

		sol, stats, err := NewConcurrentSchedule(opts).Solve(context.Background(), inst)
		require.NoError(t, err)
		require.Equal(t, stats.Assignments, events)
		require.Equal(t, inst.NumTasks(), sol.AssignedCount()+len(stats.Unassigned))
		require.Equal(t, sol.Feasible, len(stats.Unassigned) == 0)
		require.Empty(t, ValidateSolution(inst, sol), "seed %d", seed)
	}
}

func TestConcurrentScheduleIsDeterministic(t *testing.T) {
	windows, raw := randomRaw(99, 40, 2)
	inst := mdvspInstance(t, windows, []int{4, 4}, raw)

	a, statsA, err := NewConcurrentSchedule(Options{}).Solve(context.Background(), inst)
	require.NoError(t, err)
	b, statsB, err := NewConcurrentSchedule(Options{}).Solve(context.Background(), inst)
	require.NoError(t, err)

	require.Equal(t, a.Summary(), b.Summary())
	require.Equal(t, statsA.Unassigned, statsB.Unassigned)
	require.Equal(t, statsA.FeasibilityChecks, statsB.FeasibilityChecks)
}

func TestConcurrentScheduleHonoursCancellation(t *testing.T) {
	inst := mdvspInstance(t, [][2]int{{0, 10}}, []int{1}, uniformRaw(1, 1, 5, 10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewConcurrentSchedule(Options{}).Solve(ctx, inst)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBestInsertionPositions(t *testing.T) {
	inst := mdvspInstance(t, [][2]int{{0, 10}, {20, 30}, {40, 50}}, []int{1}, uniformRaw(3, 1, 5, 10))
	r := domain.NewRoute(0, 0)
	r.Append(inst.Tasks[0], 20)
	r.Append(inst.Tasks[2], 5)

	ins, ok := BestInsertion(inst, r, inst.Tasks[1])
	require.True(t, ok)
	require.Equal(t, Insertion{Position: 1, Delta: 5}, ins)

	// a task overlapping everything on the route has no position
	inst.Tasks = append(inst.Tasks, domain.Task{ID: 3, Start: 5, End: 45})
	raw := uniformRaw(4, 1, 5, 10)
	arcs, err := BuildMDVSPMatrix(raw, inst.Tasks, inst.Depots, domain.NonStrict)
	require.NoError(t, err)
	inst.Arcs = arcs
	_, ok = BestInsertion(inst, r, inst.Tasks[3])
	require.False(t, ok)
}

func TestValidateSolutionFlagsTamperedCost(t *testing.T) {
	inst := mdvspInstance(t, [][2]int{{0, 10}, {15, 25}}, []int{1}, uniformRaw(2, 1, 5, 10))
	sol, _, err := NewConcurrentSchedule(Options{}).Solve(context.Background(), inst)
	require.NoError(t, err)
	require.Empty(t, ValidateSolution(inst, sol))

	sol.Routes[0].Cost += 1
	require.NotEmpty(t, ValidateSolution(inst, sol))
}
