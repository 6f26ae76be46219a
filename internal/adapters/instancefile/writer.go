package instancefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vehicle-scheduling-service/internal/domain"
)

// WriteSolution writes one line per used vehicle: its 0-indexed task ids in
// visiting order, separated by spaces.
func WriteSolution(w io.Writer, sol *domain.Solution) error {
	bw := bufio.NewWriter(w)
	for _, r := range sol.ActiveRoutes() {
		ids := make([]string, len(r.Tasks))
		for i, id := range r.Tasks {
			ids[i] = strconv.Itoa(id)
		}
		if _, err := bw.WriteString(strings.Join(ids, " ") + "\n"); err != nil {
			return fmt.Errorf("write solution: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write solution: flush: %w", err)
	}
	return nil
}

// SaveSolution writes the solution file at path, creating parent dirs.
func SaveSolution(path string, sol *domain.Solution) error {
	return writeFile(path, func(w io.Writer) error { return WriteSolution(w, sol) })
}

// WriteMatrixDiagnostic dumps a matrix as ';'-terminated rows of rounded
// costs under a title line.
func WriteMatrixDiagnostic(w io.Writer, title string, m *domain.ArcMatrix) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "\n%s\n", title); err != nil {
		return fmt.Errorf("write matrix diagnostic: %w", err)
	}

	n := m.Dim()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.Reset()
		for j := 0; j < n; j++ {
			sb.WriteString(strconv.FormatFloat(m.ArcCost(i, j), 'f', 0, 64))
			sb.WriteByte(';')
		}
		sb.WriteByte('\n')
		if _, err := bw.WriteString(sb.String()); err != nil {
			return fmt.Errorf("write matrix diagnostic: row %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write matrix diagnostic: flush: %w", err)
	}
	return nil
}

// SaveMatrixDiagnostic writes <dir>/<name>_<kind>_matrix.csv and returns its path.
func SaveMatrixDiagnostic(dir string, inst *domain.Instance) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_matrix.csv", inst.Name, inst.Kind))
	err := writeFile(path, func(w io.Writer) error {
		return WriteMatrixDiagnostic(w, inst.Name, inst.Arcs)
	})
	return path, err
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %q: create dir: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %q: close: %w", path, err)
	}
	return nil
}
