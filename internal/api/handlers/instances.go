package handlers

import (
	"log"
	"net/http"

	"vehicle-scheduling-service/internal/api/dto"
	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/ports"
)

// InstanceHandler exposes read-only instance discovery endpoints.
type InstanceHandler struct {
	Source ports.InstanceSource
}

func (h *InstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	names, err := h.Source.ListInstances(r.Context())
	if err != nil {
		log.Printf("req_id=%s list instances failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ListInstancesResponse{Instances: names})
}

// Get loads one instance and reports its statistics. kind selects the
// MDVSP or folded VSP view and defaults to mdvsp.
func (h *InstanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	kind := domain.MDVSP
	if q := r.URL.Query().Get("kind"); q != "" {
		k, err := domain.ParseKind(q)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "kind must be mdvsp or vsp")
			return
		}
		kind = k
	}

	inst, err := h.Source.LoadInstance(r.Context(), r.PathValue("name"), kind)
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.InstanceResponse{
		InstanceStats: inst.Stats(),
		Boundary:      inst.Boundary.String(),
	})
}
