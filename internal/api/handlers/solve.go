package handlers

import (
	"net/http"

	"vehicle-scheduling-service/internal/api/dto"
	"vehicle-scheduling-service/internal/services"
)

type SolveHandler struct {
	Solver *services.Solver
}

// Solve runs one scheduler synchronously. A solve that leaves tasks
// unassigned is still a 200; the response carries feasible=false.
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body dto.SolveRequest
	if err := decodeOne(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req := services.SolveRequest{
		Instance:  body.Instance,
		Algorithm: body.Algorithm,
		Strategy:  body.Strategy,
		Validate:  body.Validate,
	}
	if body.Instance == "" {
		writeError(w, r, http.StatusBadRequest, "instance is required")
		return
	}
	if err := services.ValidateRequest(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Solver.Solve(r.Context(), req)
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSolveResponse(req, res))
}
