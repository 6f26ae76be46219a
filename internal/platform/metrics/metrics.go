package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated registry served at /metrics.
	Registry = prometheus.NewRegistry()

	// Solves counts finished solves by algorithm, strategy and outcome
	// (feasible, partial, failed, cached).
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vsched_solves_total", Help: "Solves by algorithm, strategy and outcome."},
		[]string{"algorithm", "strategy", "outcome"},
	)
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vsched_solve_duration_seconds",
			Help:    "Scheduler run time in seconds.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"algorithm"},
	)
	UnassignedTasks = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vsched_unassigned_tasks",
			Help:    "Tasks left unassigned by a solve.",
			Buckets: []float64{0, 1, 5, 10, 50, 100},
		},
		[]string{"algorithm"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vsched_http_requests_total", Help: "HTTP requests by method, path and status."},
		[]string{"method", "path", "status"},
	)
)

var regOnce sync.Once

// Register adds the collectors to Registry; safe to call more than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(Solves, SolveDuration, UnassignedTasks, HTTPRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// ObserveSolve records one finished solve.
func ObserveSolve(algorithm, strategy, outcome string, elapsed time.Duration, unassigned int) {
	Solves.WithLabelValues(algorithm, strategy, outcome).Inc()
	if outcome == "failed" || outcome == "cached" {
		return
	}
	SolveDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
	UnassignedTasks.WithLabelValues(algorithm).Observe(float64(unassigned))
}
