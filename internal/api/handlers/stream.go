package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"vehicle-scheduling-service/internal/api/dto"
	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/services"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// StreamHandler runs a solve over a WebSocket: one "progress" frame per
// assignment, then a single "result" or "error" frame.
type StreamHandler struct {
	Solver *services.Solver
}

// Stream reads the request from the query string
// (?instance=&algorithm=&strategy=). Closing the socket cancels the solve.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	req := services.SolveRequest{
		Instance:  q.Get("instance"),
		Algorithm: q.Get("algorithm"),
		Strategy:  q.Get("strategy"),
	}
	if req.Instance == "" {
		writeError(w, r, http.StatusBadRequest, "instance is required")
		return
	}
	if err := services.ValidateRequest(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Client frames are ignored; a read error means the peer went away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	write := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}

	req.OnAssign = func(ev services.AssignEvent) {
		err := write(dto.ProgressEvent{
			Type:      "progress",
			TaskID:    ev.TaskID,
			VehicleID: ev.VehicleID,
			Position:  ev.Position,
			Delta:     ev.Delta,
			Assigned:  ev.Assigned,
			Total:     ev.Total,
		})
		if err != nil {
			cancel()
		}
	}

	res, err := h.Solver.Solve(ctx, req)
	if err != nil {
		log.Printf("req_id=%s stream solve failed: %v", obs.RequestID(r.Context()), err)
		_ = write(dto.StreamMessage{Type: "error", Error: err.Error()})
	} else {
		out := toSolveResponse(req, res)
		_ = write(dto.StreamMessage{Type: "result", Result: &out})
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
