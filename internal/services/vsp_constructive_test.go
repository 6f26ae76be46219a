package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-scheduling-service/internal/domain"
)

func TestVSPChainsTasksOnOneVehicle(t *testing.T) {
	inst := vspInstance(t, [][2]int{{0, 10}, {15, 25}, {30, 40}}, 2, uniformRaw(3, 1, 5, 10))

	sol, stats, err := NewVSPConstructive(Options{}).Solve(context.Background(), inst, EarliestStart)
	require.NoError(t, err)

	require.True(t, sol.Feasible)
	require.Equal(t, 1, sol.VehiclesUsed)
	require.Equal(t, 30.0, sol.TotalCost)
	require.Equal(t, []int{0, 1, 2}, sol.Routes[0].Tasks)
	require.Equal(t, 0, sol.Routes[0].DepotID)
	require.Equal(t, 1, stats.RoutesOpened)
	require.Equal(t, 3, stats.Assignments)
	require.Empty(t, stats.Unassigned)
}

func TestVSPFleetExhausted(t *testing.T) {
	inst := vspInstance(t, [][2]int{{0, 10}, {5, 15}}, 1, uniformRaw(2, 1, 3, 10))

	_, _, err := NewVSPConstructive(Options{}).Solve(context.Background(), inst, EarliestStart)
	var fe *domain.FleetExhaustedError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, 1, fe.TaskID)
	require.Equal(t, 1, fe.Vehicles)
}

func TestVSPDepotUnreachable(t *testing.T) {
	raw := uniformRaw(2, 1, 3, 10)
	raw.Set(1, 2, domain.Infeasible)
	inst := vspInstance(t, [][2]int{{0, 10}, {5, 15}}, 3, raw)

	_, _, err := NewVSPConstructive(Options{}).Solve(context.Background(), inst, EarliestStart)
	var de *domain.DepotUnreachableError
	require.ErrorAs(t, err, &de)
	require.Equal(t, 1, de.TaskID)
}

func TestVSPInsertsBeforeExistingTasks(t *testing.T) {
	// shortest_duration visits the late short task first, so the long early
	// task has to go in front of it.
	inst := vspInstance(t, [][2]int{{0, 30}, {40, 45}}, 2, uniformRaw(2, 1, 5, 10))

	sol, _, err := NewVSPConstructive(Options{}).Solve(context.Background(), inst, ShortestDuration)
	require.NoError(t, err)
	require.Equal(t, 1, sol.VehiclesUsed)
	require.Equal(t, []int{0, 1}, sol.Routes[0].Tasks)
	require.Equal(t, 25.0, sol.TotalCost)
}

func TestVSPInvariantsHoldAfterEveryInsertion(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		windows, raw := randomRaw(seed, 25, 1)
		inst := vspInstance(t, windows, 25, raw)
		openDepotLegs(inst, 15)

		for _, s := range Strategies {
			events := 0
			opts := Options{OnAssign: func(ev AssignEvent) {
				events++
				require.Equal(t, events, ev.Assigned)
				requireRoutesConsistent(t, inst, ev.Solution)
			}}

			sol, _, err := NewVSPConstructive(opts).Solve(context.Background(), inst, s)
			require.NoError(t, err, "seed %d strategy %s", seed, s)
			require.Equal(t, inst.NumTasks(), events)
			require.True(t, sol.Feasible)
			require.Empty(t, ValidateSolution(inst, sol), "seed %d strategy %s", seed, s)
		}
	}
}

func TestVSPIsDeterministic(t *testing.T) {
	windows, raw := randomRaw(42, 30, 1)
	inst := vspInstance(t, windows, 30, raw)
	openDepotLegs(inst, 15)

	for _, s := range Strategies {
		a, _, err := NewVSPConstructive(Options{}).Solve(context.Background(), inst, s)
		require.NoError(t, err)
		b, _, err := NewVSPConstructive(Options{}).Solve(context.Background(), inst, s)
		require.NoError(t, err)
		require.Equal(t, a.Summary(), b.Summary())
	}
}

func TestSolveAllStrategiesPicksFewestVehicles(t *testing.T) {
	windows, raw := randomRaw(3, 20, 1)
	inst := vspInstance(t, windows, 20, raw)
	openDepotLegs(inst, 20)

	best, all, err := NewVSPConstructive(Options{}).SolveAllStrategies(context.Background(), inst)
	require.NoError(t, err)
	require.Len(t, all, len(Strategies))

	for _, res := range all {
		require.NoError(t, res.Err)
		require.False(t, betterVSP(res.Solution, best.Solution), "strategy %s beats the pick", res.Strategy)
	}
	require.Equal(t, best.Strategy.String(), best.Solution.Strategy)
}

func TestSolveAllStrategiesReportsWhenAllFail(t *testing.T) {
	inst := vspInstance(t, [][2]int{{0, 10}, {5, 15}}, 1, uniformRaw(2, 1, 3, 10))

	_, all, err := NewVSPConstructive(Options{}).SolveAllStrategies(context.Background(), inst)
	require.Error(t, err)
	require.Len(t, all, len(Strategies))
	var fe *domain.FleetExhaustedError
	require.ErrorAs(t, err, &fe)
}

func TestVSPHonoursCancellation(t *testing.T) {
	inst := vspInstance(t, [][2]int{{0, 10}, {15, 25}}, 2, uniformRaw(2, 1, 5, 10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewVSPConstructive(Options{}).Solve(ctx, inst, EarliestStart)
	require.ErrorIs(t, err, context.Canceled)
}

func TestVSPRejectsMultiDepotInstance(t *testing.T) {
	inst := mdvspInstance(t, [][2]int{{0, 10}}, []int{1, 1}, uniformRaw(1, 2, 5, 10))
	_, _, err := NewVSPConstructive(Options{}).Solve(context.Background(), inst, EarliestStart)
	require.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
	got, err := ParseStrategy("Earliest-Finish")
	require.NoError(t, err)
	require.Equal(t, EarliestFinish, got)

	_, err = ParseStrategy("random")
	require.Error(t, err)
}

func TestStrategyOrder(t *testing.T) {
	tasks := tasksFromWindows([][2]int{{10, 30}, {10, 15}, {0, 40}, {10, 15}})

	ids := func(ts []domain.Task) []int {
		out := make([]int, len(ts))
		for i, t := range ts {
			out[i] = t.ID
		}
		return out
	}

	require.Equal(t, []int{2, 0, 1, 3}, ids(EarliestStart.Order(tasks)))
	require.Equal(t, []int{1, 3, 0, 2}, ids(EarliestFinish.Order(tasks)))
	require.Equal(t, []int{1, 3, 0, 2}, ids(ShortestDuration.Order(tasks)))
	require.Equal(t, []int{2, 1, 3, 0}, ids(Mixed.Order(tasks)))
	// input is not reordered
	require.Equal(t, []int{0, 1, 2, 3}, ids(tasks))
}
