package handlers

import (
	"log"
	"net/http"
	"strconv"

	"vehicle-scheduling-service/internal/api/dto"
	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/ports"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// RunHandler lists persisted solve runs, newest first.
type RunHandler struct {
	Runs ports.RunRepository
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	limit := defaultRunLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.Runs.ListRuns(r.Context(), ports.RunFilter{
		Instance:  q.Get("instance"),
		Algorithm: q.Get("algorithm"),
		Limit:     limit,
	})
	if err != nil {
		log.Printf("req_id=%s list runs failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListRunsResponse{Runs: make([]dto.RunResponse, 0, len(runs))}
	for _, run := range runs {
		res.Runs = append(res.Runs, toRunResponse(run))
	}
	writeJSON(w, r, http.StatusOK, res)
}
