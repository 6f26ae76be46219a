package services

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-scheduling-service/internal/domain"
)

func tasksFromWindows(windows [][2]int) []domain.Task {
	tasks := make([]domain.Task, len(windows))
	for i, w := range windows {
		tasks[i] = domain.Task{ID: i, Start: w[0], End: w[1]}
	}
	return tasks
}

// uniformRaw returns a task-first raw matrix with one cost between tasks and
// another for every depot leg.
func uniformRaw(nTasks, nDepots int, taskCost, depotCost float64) *domain.ArcMatrix {
	n := nTasks + nDepots
	m := domain.NewArcMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == j:
				m.Set(i, j, 0)
			case i < nTasks && j < nTasks:
				m.Set(i, j, taskCost)
			case i < nTasks || j < nTasks:
				m.Set(i, j, depotCost)
			default:
				m.Set(i, j, 0)
			}
		}
	}
	return m
}

func vspInstance(t *testing.T, windows [][2]int, vehicles int, raw *domain.ArcMatrix) *domain.Instance {
	t.Helper()
	tasks := tasksFromWindows(windows)
	arcs, err := BuildVSPMatrix(raw, tasks, domain.NonStrict)
	require.NoError(t, err)
	return &domain.Instance{
		Name:   "test-vsp",
		Kind:   domain.VSP,
		Tasks:  tasks,
		Depots: []domain.Depot{{ID: 0, Vehicles: vehicles}},
		Arcs:   arcs,
	}
}

func mdvspInstance(t *testing.T, windows [][2]int, vehicles []int, raw *domain.ArcMatrix) *domain.Instance {
	t.Helper()
	tasks := tasksFromWindows(windows)
	depots := make([]domain.Depot, len(vehicles))
	for i, v := range vehicles {
		depots[i] = domain.Depot{ID: i, Vehicles: v}
	}
	arcs, err := BuildMDVSPMatrix(raw, tasks, depots, domain.NonStrict)
	require.NoError(t, err)
	return &domain.Instance{
		Name:   "test-mdvsp",
		Kind:   domain.MDVSP,
		Tasks:  tasks,
		Depots: depots,
		Arcs:   arcs,
	}
}

// openDepotLegs makes every depot leg of a built instance usable at cost.
func openDepotLegs(inst *domain.Instance, cost float64) {
	for d := range inst.Depots {
		node := inst.DepotNode(d)
		for i := range inst.Tasks {
			inst.Arcs.Set(node, i, cost)
			inst.Arcs.Set(i, node, cost)
		}
	}
}

// randomRaw builds a reproducible instance shape: windows inside [0,300],
// task travel 1..30, depot legs 10..60 with a few unusable ones.
func randomRaw(seed uint64, nTasks, nDepots int) ([][2]int, *domain.ArcMatrix) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	windows := make([][2]int, nTasks)
	for i := range windows {
		s := rng.IntN(260)
		windows[i] = [2]int{s, s + 5 + rng.IntN(35)}
	}

	n := nTasks + nDepots
	m := domain.NewArcMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == j:
				m.Set(i, j, 0)
			case i < nTasks && j < nTasks:
				if rng.IntN(10) == 0 {
					m.Set(i, j, domain.Infeasible)
				} else {
					m.Set(i, j, float64(1+rng.IntN(30)))
				}
			case i < nTasks || j < nTasks:
				if rng.IntN(20) == 0 {
					m.Set(i, j, domain.Infeasible)
				} else {
					m.Set(i, j, float64(10+rng.IntN(50)))
				}
			default:
				m.Set(i, j, float64(rng.IntN(50)))
			}
		}
	}
	return windows, m
}

// requireRoutesConsistent asserts the temporal chain of every route and the
// task conservation of the solution.
func requireRoutesConsistent(t *testing.T, inst *domain.Instance, sol *domain.Solution) {
	t.Helper()
	routed := 0
	seen := map[int]bool{}
	for _, r := range sol.Routes {
		routed += r.Len()
		for i, id := range r.Tasks {
			require.False(t, seen[id], "task %d appears twice", id)
			seen[id] = true
			if i == 0 {
				continue
			}
			a, b := inst.Tasks[r.Tasks[i-1]], inst.Tasks[id]
			require.True(t, inst.Arcs.Feasible(a.ID, b.ID), "arc %d->%d infeasible", a.ID, b.ID)
			require.LessOrEqual(t, float64(a.End)+inst.Arcs.ArcCost(a.ID, b.ID), float64(b.Start),
				"vehicle %d: %d -> %d breaks time order", r.VehicleID, a.ID, b.ID)
		}
	}
	require.Equal(t, sol.AssignedCount(), routed)
	require.Len(t, sol.Assigned(), routed)
}
