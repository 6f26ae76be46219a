package handlers

import (
	"log"
	"net/http"

	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/ports"
)

type HealthHandler struct {
	Source ports.InstanceSource
}

type healthResponse struct {
	Status    string `json:"status"`
	Instances int    `json:"instances"`
}

// Health reports liveness and whether the instance source can be listed.
// An unreadable source answers 503 with status "degraded".
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	names, err := h.Source.ListInstances(r.Context())
	if err != nil {
		log.Printf("req_id=%s health: %v", obs.RequestID(r.Context()), err)
		writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Instances: len(names)})
}
