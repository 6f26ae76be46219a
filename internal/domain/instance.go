package domain

import (
	"fmt"
	"strings"
)

// Kind selects the problem variant an instance is prepared for.
type Kind int

const (
	MDVSP Kind = iota
	VSP
)

func (k Kind) String() string {
	if k == VSP {
		return "vsp"
	}
	return "mdvsp"
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mdvsp":
		return MDVSP, nil
	case "vsp":
		return VSP, nil
	default:
		return MDVSP, fmt.Errorf("parse kind: unknown problem kind %q", s)
	}
}

// Instance is the validated input of one solve. Nodes 0..T-1 are tasks and
// T..T+D-1 are depots; Arcs already carries the feasibility bans.
// It is read-only while schedulers run.
type Instance struct {
	Name     string
	Kind     Kind
	Tasks    []Task
	Depots   []Depot
	Arcs     *ArcMatrix
	Boundary BoundaryPolicy
}

func (in *Instance) NumTasks() int { return len(in.Tasks) }

// DepotNode maps a depot position to its node index in Arcs.
func (in *Instance) DepotNode(d int) int { return len(in.Tasks) + d }

func (in *Instance) TotalVehicles() int {
	total := 0
	for _, d := range in.Depots {
		total += d.Vehicles
	}
	return total
}

// Validate checks the structural invariants the schedulers rely on.
func (in *Instance) Validate() error {
	if len(in.Depots) == 0 {
		return &FormatError{Source: in.Name, Msg: "instance has no depots"}
	}
	if in.Kind == VSP && len(in.Depots) != 1 {
		return &FormatError{Source: in.Name, Msg: fmt.Sprintf("vsp instance has %d depots, want 1", len(in.Depots))}
	}
	for i, d := range in.Depots {
		if d.Vehicles <= 0 {
			return &FormatError{Source: in.Name, Msg: fmt.Sprintf("depot %d has %d vehicles", i, d.Vehicles)}
		}
	}
	for i, t := range in.Tasks {
		if t.ID != i {
			return &FormatError{Source: in.Name, Msg: fmt.Sprintf("task at position %d has id %d", i, t.ID)}
		}
		if t.End < t.Start || (in.Kind == VSP && t.End == t.Start) {
			return &FormatError{Source: in.Name, Msg: fmt.Sprintf("task %d has window [%d,%d]", i, t.Start, t.End)}
		}
	}
	if in.Arcs == nil {
		return &FormatError{Source: in.Name, Msg: "arc matrix is missing"}
	}
	if want := len(in.Tasks) + len(in.Depots); in.Arcs.Dim() != want {
		return &FormatError{Source: in.Name, Msg: fmt.Sprintf("arc matrix dimension %d, want %d", in.Arcs.Dim(), want)}
	}
	return nil
}

// InstanceStats is a compact description used by listings and reports.
type InstanceStats struct {
	Name         string      `json:"name"`
	Kind         string      `json:"kind"`
	Depots       int         `json:"depots"`
	Tasks        int         `json:"tasks"`
	Vehicles     int         `json:"vehicles"`
	HorizonStart int         `json:"horizon_start"`
	HorizonEnd   int         `json:"horizon_end"`
	MinDuration  int         `json:"min_duration"`
	MaxDuration  int         `json:"max_duration"`
	MeanDuration float64     `json:"mean_duration"`
	Arcs         MatrixStats `json:"arcs"`
}

func (in *Instance) Stats() InstanceStats {
	st := InstanceStats{
		Name:     in.Name,
		Kind:     in.Kind.String(),
		Depots:   len(in.Depots),
		Tasks:    len(in.Tasks),
		Vehicles: in.TotalVehicles(),
	}
	if in.Arcs != nil {
		st.Arcs = in.Arcs.Stats()
	}
	if len(in.Tasks) == 0 {
		return st
	}

	sum := 0
	for i, t := range in.Tasks {
		d := t.Duration()
		sum += d
		if i == 0 {
			st.HorizonStart, st.HorizonEnd = t.Start, t.End
			st.MinDuration, st.MaxDuration = d, d
			continue
		}
		st.HorizonStart = min(st.HorizonStart, t.Start)
		st.HorizonEnd = max(st.HorizonEnd, t.End)
		st.MinDuration = min(st.MinDuration, d)
		st.MaxDuration = max(st.MaxDuration, d)
	}
	st.MeanDuration = float64(sum) / float64(len(in.Tasks))
	return st
}
