package instancefile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/services"
)

const (
	costExt  = ".cst"
	timesExt = ".tim"

	// Header limits, checked before sizing the matrix.
	maxNodes    = 20000
	maxVehicles = 1000000
)

// FileInstanceSource reads <name>.cst / <name>.tim pairs from Dir.
//
// The .cst header is either "depots tasks veh_1 ... veh_D" (multi-depot,
// matrix rows in depot-first node order) or "tasks vehicles" (single depot,
// matrix rows in task-first order with the depot last). The .tim file holds
// all start times followed by all end times.
type FileInstanceSource struct {
	Dir      string
	Boundary domain.BoundaryPolicy
}

func NewFileInstanceSource(dir string, boundary domain.BoundaryPolicy) *FileInstanceSource {
	return &FileInstanceSource{Dir: dir, Boundary: boundary}
}

func (s *FileInstanceSource) Policy() domain.BoundaryPolicy { return s.Boundary }

// Return instance names that have both files, sorted.
func (s *FileInstanceSource) ListInstances(ctx context.Context) (_ []string, err error) {
	defer obs.Time(ctx, "instances.List")(&err)

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("list instances: dir %q: %w: %w", s.Dir, domain.ErrNotFound, err)
		}
		return nil, fmt.Errorf("list instances: read dir %q: %w", s.Dir, err)
	}

	costs := map[string]bool{}
	times := map[string]bool{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch filepath.Ext(name) {
		case costExt:
			costs[strings.TrimSuffix(name, costExt)] = true
		case timesExt:
			times[strings.TrimSuffix(name, timesExt)] = true
		}
	}

	names := make([]string, 0, len(costs))
	for n := range costs {
		if times[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load and validate one instance, with its arc matrix built for kind.
// A multi-depot file loaded as VSP has its depots folded into one whose fleet
// is the sum of all depots.
func (s *FileInstanceSource) LoadInstance(ctx context.Context, name string, kind domain.Kind) (_ *domain.Instance, err error) {
	defer obs.Time(ctx, "instances.Load")(&err)

	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, &domain.FormatError{Source: "instance name", Msg: fmt.Sprintf("invalid name %q", name)}
	}

	costPath := filepath.Join(s.Dir, name+costExt)
	timesPath := filepath.Join(s.Dir, name+timesExt)

	header, raw, err := readCostFile(costPath)
	if err != nil {
		return nil, fmt.Errorf("load instance %q: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load instance %q: %w", name, err)
	}

	tasks, err := readTimesFile(timesPath, header.tasks)
	if err != nil {
		return nil, fmt.Errorf("load instance %q: %w", name, err)
	}

	inst := &domain.Instance{
		Name:     name,
		Kind:     kind,
		Tasks:    tasks,
		Boundary: s.Boundary,
	}

	switch kind {
	case domain.VSP:
		matrix := raw
		if len(header.vehicles) > 1 {
			matrix, err = services.FoldDepots(raw, header.tasks, len(header.vehicles))
			if err != nil {
				return nil, fmt.Errorf("load instance %q: %w", name, err)
			}
		}
		total := 0
		for _, v := range header.vehicles {
			total += v
		}
		inst.Depots = []domain.Depot{{ID: 0, Vehicles: total}}
		inst.Arcs, err = services.BuildVSPMatrix(matrix, tasks, s.Boundary)
	default:
		inst.Depots = make([]domain.Depot, len(header.vehicles))
		for i, v := range header.vehicles {
			inst.Depots[i] = domain.Depot{ID: i, Vehicles: v}
		}
		inst.Arcs, err = services.BuildMDVSPMatrix(raw, tasks, inst.Depots, s.Boundary)
	}
	if err != nil {
		return nil, fmt.Errorf("load instance %q: %w", name, err)
	}

	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("load instance %q: %w", name, err)
	}
	return inst, nil
}

type costHeader struct {
	tasks    int
	vehicles []int
}

// readCostFile returns the header and the raw matrix in task-first order.
func readCostFile(path string) (costHeader, *domain.ArcMatrix, error) {
	var h costHeader

	data, err := readFile(path)
	if err != nil {
		return h, nil, err
	}

	firstLine, rest, _ := strings.Cut(string(data), "\n")
	fields := strings.Fields(firstLine)

	depotFirst := false
	switch {
	case len(fields) == 2:
		if h.tasks, err = atoiField(path, "task count", fields[0]); err != nil {
			return h, nil, err
		}
		v, err := atoiField(path, "vehicle count", fields[1])
		if err != nil {
			return h, nil, err
		}
		h.vehicles = []int{v}
	case len(fields) >= 3:
		nDepots, err := atoiField(path, "depot count", fields[0])
		if err != nil {
			return h, nil, err
		}
		if h.tasks, err = atoiField(path, "task count", fields[1]); err != nil {
			return h, nil, err
		}
		if nDepots < 1 || len(fields) != 2+nDepots {
			return h, nil, &domain.FormatError{
				Source: path,
				Msg:    fmt.Sprintf("header declares %d depots but has %d vehicle counts", nDepots, len(fields)-2),
			}
		}
		for i := 0; i < nDepots; i++ {
			v, err := atoiField(path, fmt.Sprintf("vehicle count of depot %d", i), fields[2+i])
			if err != nil {
				return h, nil, err
			}
			h.vehicles = append(h.vehicles, v)
		}
		depotFirst = true
	default:
		return h, nil, &domain.FormatError{Source: path, Msg: fmt.Sprintf("header has %d fields", len(fields))}
	}

	if h.tasks < 0 {
		return h, nil, &domain.FormatError{Source: path, Msg: fmt.Sprintf("negative task count %d", h.tasks)}
	}
	for i, v := range h.vehicles {
		if v <= 0 || v > maxVehicles {
			return h, nil, &domain.FormatError{Source: path, Msg: fmt.Sprintf("depot %d has %d vehicles", i, v)}
		}
	}

	nDepots := len(h.vehicles)
	if h.tasks > maxNodes-nDepots {
		return h, nil, &domain.FormatError{
			Source: path,
			Msg:    fmt.Sprintf("%d tasks and %d depots exceed %d nodes", h.tasks, nDepots, maxNodes),
		}
	}
	dim := h.tasks + nDepots
	tokens := strings.Fields(rest)
	if dim > len(tokens) || len(tokens) != dim*dim {
		return h, nil, &domain.FormatError{
			Source: path,
			Msg:    fmt.Sprintf("matrix has %d values, want %d for dimension %d", len(tokens), dim*dim, dim),
		}
	}

	m := domain.NewArcMatrix(dim)
	for k, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return h, nil, &domain.FormatError{Source: path, Msg: fmt.Sprintf("matrix value #%d", k+1), Err: err}
		}
		i, j := k/dim, k%dim
		if depotFirst {
			i, j = taskFirst(i, h.tasks, nDepots), taskFirst(j, h.tasks, nDepots)
		}
		m.Set(i, j, v)
	}
	return h, m, nil
}

// taskFirst maps a depot-first node index to the task-first layout.
func taskFirst(k, nTasks, nDepots int) int {
	if k < nDepots {
		return nTasks + k
	}
	return k - nDepots
}

func readTimesFile(path string, nTasks int) ([]domain.Task, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(string(data))
	if len(tokens) != 2*nTasks {
		return nil, &domain.FormatError{
			Source: path,
			Msg:    fmt.Sprintf("got %d times, want %d for %d tasks", len(tokens), 2*nTasks, nTasks),
		}
	}

	tasks := make([]domain.Task, nTasks)
	for i := range tasks {
		start, err := atoiField(path, fmt.Sprintf("start of task %d", i), tokens[i])
		if err != nil {
			return nil, err
		}
		end, err := atoiField(path, fmt.Sprintf("end of task %d", i), tokens[nTasks+i])
		if err != nil {
			return nil, err
		}
		tasks[i] = domain.Task{ID: i, Start: start, End: end}
	}
	return tasks, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %q: %w: %w", path, domain.ErrNotFound, err)
		}
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return data, nil
}

func atoiField(path, what, tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, &domain.FormatError{Source: path, Msg: what, Err: err}
	}
	return v, nil
}
