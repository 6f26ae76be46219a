package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"vehicle-scheduling-service/internal/api/dto"
	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("req_id=%s encode failed: method=%s path=%s err=%v", obs.RequestID(r.Context()), r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeOne decodes exactly one JSON object with no unknown fields.
func decodeOne(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// writeSolveError maps service errors onto HTTP statuses. Input and
// scheduling failures are reported to the client; anything else is logged.
func writeSolveError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		format *domain.FormatError
		fleet  *domain.FleetExhaustedError
		depot  *domain.DepotUnreachableError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "instance not found")
	case errors.As(err, &format), errors.As(err, &fleet), errors.As(err, &depot):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Printf("req_id=%s solve failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toSolveResponse(req services.SolveRequest, res services.SolveResult) dto.SolveResponse {
	unassigned := res.Unassigned
	if unassigned == nil {
		unassigned = []int{}
	}
	algorithm := req.Algorithm
	if res.Solution != nil {
		algorithm = res.Solution.Algorithm
	}
	return dto.SolveResponse{
		RunID:      res.RunID,
		Instance:   req.Instance,
		Algorithm:  algorithm,
		Strategy:   res.Strategy,
		Cached:     res.Cached,
		Solution:   res.Summary,
		Unassigned: unassigned,
		Problems:   res.Problems,
		Stats: dto.SolveStatsResponse{
			Iterations:        res.Stats.Iterations,
			Assignments:       res.Stats.Assignments,
			RoutesOpened:      res.Stats.RoutesOpened,
			InsertionsTried:   res.Stats.InsertionsTried,
			FeasibilityChecks: res.Stats.FeasibilityChecks,
			ElapsedSeconds:    res.Stats.Elapsed.Seconds(),
		},
	}
}

func toRunResponse(r domain.RunRecord) dto.RunResponse {
	return dto.RunResponse{
		ID:                r.ID,
		Instance:          r.Instance,
		Algorithm:         r.Algorithm,
		Strategy:          r.Strategy,
		Boundary:          r.Boundary,
		Depots:            r.Depots,
		Tasks:             r.Tasks,
		VehiclesAvailable: r.VehiclesAvailable,
		TotalCost:         r.TotalCost,
		VehiclesUsed:      r.VehiclesUsed,
		AssignedTasks:     r.AssignedTasks,
		Feasible:          r.Feasible,
		Stats:             r.Stats,
		ElapsedSeconds:    r.Elapsed.Seconds(),
		Error:             r.Error,
		CreatedAt:         r.CreatedAt,
	}
}
