package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"vehicle-scheduling-service/internal/api/handlers"
	"vehicle-scheduling-service/internal/platform/metrics"
	"vehicle-scheduling-service/internal/ports"
	"vehicle-scheduling-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
// solveLimit throttles both solve endpoints and may be nil.
func NewRouter(source ports.InstanceSource, runs ports.RunRepository, solver *services.Solver, solveLimit *rate.Limiter) http.Handler {
	mux := http.NewServeMux()
	metrics.Register()

	healthHandler := &handlers.HealthHandler{Source: source}
	instHandler := &handlers.InstanceHandler{Source: source}
	solveHandler := &handlers.SolveHandler{Solver: solver}
	streamHandler := &handlers.StreamHandler{Solver: solver}
	runHandler := &handlers.RunHandler{Runs: runs}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/instances", instHandler.List)
	mux.HandleFunc("/instances/{name}", instHandler.Get)
	mux.HandleFunc("/solve", rateLimited(solveLimit, solveHandler.Solve))
	mux.HandleFunc("/solve/stream", rateLimited(solveLimit, streamHandler.Stream))
	mux.HandleFunc("/runs", runHandler.List)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return loggingMiddleware(mux)
}
