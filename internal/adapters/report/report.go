// Package report writes experiment results: a CSV row per run and a
// plain-text summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/sysinfo"
	"vehicle-scheduling-service/internal/services"
)

const (
	CSVFile  = "detailed_results.csv"
	TextFile = "experiment_report.txt"
)

var csvHeader = []string{
	"instance", "algorithm", "strategy", "depots", "tasks", "vehicles_available",
	"total_cost", "vehicles_used", "assigned_tasks", "elapsed_seconds", "feasible",
	"active_routes", "tasks_per_route_avg", "tasks_per_route_max", "tasks_per_route_min",
	"cost_per_vehicle", "utilization_pct", "error",
}

// WriteCSV writes one row per record. Solution columns are left empty for
// failed runs.
func WriteCSV(w io.Writer, records []domain.RunRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("write csv: %s: %w", r.Instance, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func csvRow(r domain.RunRecord) []string {
	row := []string{
		r.Instance, r.Algorithm, r.Strategy,
		strconv.Itoa(r.Depots), strconv.Itoa(r.Tasks), strconv.Itoa(r.VehiclesAvailable),
	}
	if r.Failed() {
		row = append(row, "", "", "", "", "false", "", "", "", "", "", "", r.Error)
		return row
	}
	st := r.Stats
	return append(row,
		formatFloat(r.TotalCost),
		strconv.Itoa(r.VehiclesUsed),
		strconv.Itoa(r.AssignedTasks),
		strconv.FormatFloat(r.Elapsed.Seconds(), 'f', 6, 64),
		strconv.FormatBool(r.Feasible),
		strconv.Itoa(st.ActiveRoutes),
		strconv.FormatFloat(st.TasksPerRouteAvg, 'f', 2, 64),
		strconv.Itoa(st.TasksPerRouteMax),
		strconv.Itoa(st.TasksPerRouteMin),
		strconv.FormatFloat(st.CostPerVehicle, 'f', 2, 64),
		strconv.FormatFloat(st.Utilization, 'f', 2, 64),
		"",
	)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Meta is the descriptive header of a text report.
type Meta struct {
	Algorithm string
	Strategy  string
	Boundary  string
	Host      sysinfo.SysInfo
	Generated time.Time
}

// WriteText renders the aggregate statistics of a batch.
func WriteText(w io.Writer, meta Meta, sum services.ExperimentSummary) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	sub := strings.Repeat("-", 30)

	fmt.Fprintf(&b, "EXPERIMENT REPORT - %s\n%s\n\n", strings.ToUpper(meta.Algorithm), rule)
	fmt.Fprintf(&b, "Generated: %s\n", meta.Generated.Format("2006-01-02 15:04:05"))
	if meta.Strategy != "" {
		fmt.Fprintf(&b, "Strategy: %s\n", meta.Strategy)
	}
	if meta.Boundary != "" {
		fmt.Fprintf(&b, "Boundary policy: %s\n", meta.Boundary)
	}
	fmt.Fprintf(&b, "Host: %s\n", meta.Host)
	fmt.Fprintf(&b, "Instances processed: %d\n\n", sum.Total)

	fmt.Fprintf(&b, "OVERALL\n%s\n", sub)
	fmt.Fprintf(&b, "Succeeded: %d\n", sum.Succeeded)
	fmt.Fprintf(&b, "Failed: %d\n", sum.Failed)
	fmt.Fprintf(&b, "Success rate: %.1f%%\n", sum.SuccessRate)
	fmt.Fprintf(&b, "Total time: %.2fs\n\n", sum.TotalTime.Seconds())

	if sum.Succeeded > 0 {
		fmt.Fprintf(&b, "PERFORMANCE\n%s\n", sub)
		fmt.Fprintf(&b, "Average time per instance: %.4fs\n", sum.AvgTime.Seconds())
		fmt.Fprintf(&b, "Minimum time: %.4fs\n", sum.MinTime.Seconds())
		fmt.Fprintf(&b, "Maximum time: %.4fs\n\n", sum.MaxTime.Seconds())

		fmt.Fprintf(&b, "QUALITY\n%s\n", sub)
		fmt.Fprintf(&b, "Average cost: %.0f\n", sum.AvgCost)
		fmt.Fprintf(&b, "Minimum cost: %.0f\n", sum.MinCost)
		fmt.Fprintf(&b, "Maximum cost: %.0f\n", sum.MaxCost)
		fmt.Fprintf(&b, "Vehicles used (avg): %.1f\n", sum.AvgVehicles)
		fmt.Fprintf(&b, "Vehicles available (avg): %.1f\n", sum.AvgAvailable)
		fmt.Fprintf(&b, "Average utilization: %.1f%%\n", sum.AvgUtilization)
		fmt.Fprintf(&b, "All solutions feasible: %s\n", yesNo(sum.AllFeasible))

		if len(sum.ByDepots) > 0 {
			fmt.Fprintf(&b, "\nBY DEPOT COUNT\n%s\n", sub)
			fmt.Fprintf(&b, "%-8s %6s %12s %10s %10s\n", "depots", "runs", "avg_cost", "avg_veh", "avg_time")
			for _, g := range sum.ByDepots {
				fmt.Fprintf(&b, "%-8d %6d %12.0f %10.1f %9.4fs\n", g.Depots, g.Runs, g.AvgCost, g.AvgVehicles, g.AvgTime.Seconds())
			}
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Save writes both report files into dir and returns their paths.
func Save(dir string, records []domain.RunRecord, meta Meta, sum services.ExperimentSummary) (csvPath, textPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("save report: %w", err)
	}

	csvPath = filepath.Join(dir, CSVFile)
	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, records) }); err != nil {
		return "", "", err
	}
	textPath = filepath.Join(dir, TextFile)
	if err := writeFile(textPath, func(w io.Writer) error { return WriteText(w, meta, sum) }); err != nil {
		return "", "", err
	}
	return csvPath, textPath, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("save report: close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
