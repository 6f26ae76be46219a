package domain

import "fmt"

const (
	// Infeasible marks an arc that no vehicle may use.
	Infeasible = 1e8
	// Prohibited is the raw VSP matrix value meaning "no such connection".
	Prohibited = 0.0
)

// ArcMatrix is a square, row-major cost buffer over task and depot nodes.
type ArcMatrix struct {
	n    int
	data []float64
}

// NewArcMatrix returns an n×n matrix filled with zeros.
func NewArcMatrix(n int) *ArcMatrix {
	return &ArcMatrix{n: n, data: make([]float64, n*n)}
}

// NewArcMatrixFromValues wraps a flattened row-major slice of length n².
func NewArcMatrixFromValues(n int, values []float64) (*ArcMatrix, error) {
	if n < 0 || len(values) != n*n {
		return nil, &FormatError{
			Source: "arc matrix",
			Msg:    fmt.Sprintf("got %d values for dimension %d (want %d)", len(values), n, n*n),
		}
	}
	data := make([]float64, len(values))
	copy(data, values)
	return &ArcMatrix{n: n, data: data}, nil
}

// NewArcMatrixFromRows copies a row slice into a matrix; rows must be square.
func NewArcMatrixFromRows(rows [][]float64) (*ArcMatrix, error) {
	n := len(rows)
	m := NewArcMatrix(n)
	for i, row := range rows {
		if len(row) != n {
			return nil, &FormatError{
				Source: "arc matrix",
				Msg:    fmt.Sprintf("row %d has %d values, want %d", i, len(row), n),
			}
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m, nil
}

func (m *ArcMatrix) Dim() int { return m.n }

// ArcCost returns the cost of moving directly from node i to node j.
func (m *ArcMatrix) ArcCost(i, j int) float64 { return m.data[i*m.n+j] }

func (m *ArcMatrix) Set(i, j int, v float64) { m.data[i*m.n+j] = v }

// Feasible reports whether the arc is below the infeasibility sentinel.
func (m *ArcMatrix) Feasible(i, j int) bool { return m.ArcCost(i, j) < Infeasible }

func (m *ArcMatrix) Clone() *ArcMatrix {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &ArcMatrix{n: m.n, data: data}
}

// Row returns a copy of row i.
func (m *ArcMatrix) Row(i int) []float64 {
	out := make([]float64, m.n)
	copy(out, m.data[i*m.n:(i+1)*m.n])
	return out
}

// MatrixStats summarizes how constrained a matrix is.
type MatrixStats struct {
	Dim             int     `json:"dim"`
	FeasibleArcs    int     `json:"feasible_arcs"`
	InfeasibleArcs  int     `json:"infeasible_arcs"`
	FeasibleRatio   float64 `json:"feasible_ratio"`
	MinFeasibleCost float64 `json:"min_feasible_cost"`
	MaxFeasibleCost float64 `json:"max_feasible_cost"`
}

func (m *ArcMatrix) Stats() MatrixStats {
	st := MatrixStats{Dim: m.n}
	first := true
	for _, v := range m.data {
		if v >= Infeasible {
			st.InfeasibleArcs++
			continue
		}
		st.FeasibleArcs++
		if first || v < st.MinFeasibleCost {
			st.MinFeasibleCost = v
		}
		if first || v > st.MaxFeasibleCost {
			st.MaxFeasibleCost = v
		}
		first = false
	}
	if total := len(m.data); total > 0 {
		st.FeasibleRatio = float64(st.FeasibleArcs) / float64(total)
	}
	return st
}
