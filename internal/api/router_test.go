package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"vehicle-scheduling-service/internal/adapters/instancefile"
	"vehicle-scheduling-service/internal/adapters/repositories"
	"vehicle-scheduling-service/internal/api/dto"
	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/ports"
	"vehicle-scheduling-service/internal/services"
)

// Two depots and two chainable tasks, rows in depot-first order.
const twoDepotCost = `2 2 3 4
0 0 10 11
0 0 12 13
20 21 0 5
22 23 6 0
`

// Two overlapping tasks and a single vehicle.
const clashCost = `2 1
0 5 10
6 0 11
12 13 0
`

func newTestRouter(t *testing.T, lim *rate.Limiter) (http.Handler, *repositories.MemoryRunRepository) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"m2.cst":    twoDepotCost,
		"m2.tim":    "0 20\n10 30\n",
		"clash.cst": clashCost,
		"clash.tim": "0 5\n10 15\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	source := instancefile.NewFileInstanceSource(dir, domain.NonStrict)
	runs := repositories.NewMemoryRunRepository()
	solver := &services.Solver{Source: source, Runs: runs}
	return NewRouter(source, runs, solver, lim), runs
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","instances":2}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = do(t, h, http.MethodPost, "/health", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestHealthDegradedWithoutInstanceDir(t *testing.T) {
	source := instancefile.NewFileInstanceSource(filepath.Join(t.TempDir(), "absent"), domain.NonStrict)
	runs := repositories.NewMemoryRunRepository()
	h := NewRouter(source, runs, &services.Solver{Source: source, Runs: runs}, nil)

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"status":"degraded","instances":0}`, rec.Body.String())
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestInstances(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/instances", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.ListInstancesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, []string{"clash", "m2"}, list.Instances)

	rec = do(t, h, http.MethodGet, "/instances/m2?kind=vsp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var inst dto.InstanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inst))
	require.Equal(t, "vsp", inst.Kind)
	require.Equal(t, 1, inst.Depots)
	require.Equal(t, 7, inst.Vehicles)
	require.Equal(t, "nonstrict", inst.Boundary)

	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/instances/nope", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/instances/m2?kind=tsp", "").Code)
}

func TestSolve(t *testing.T) {
	h, runs := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/solve", `{"instance":"m2","algorithm":"mdvsp","validate":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res dto.SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "mdvsp", res.Algorithm)
	require.True(t, res.Solution.Feasible)
	require.Equal(t, 2, res.Solution.AssignedCount)
	require.Empty(t, res.Unassigned)
	require.Empty(t, res.Problems)
	require.NotEmpty(t, res.RunID)

	stored, err := runs.ListRuns(context.Background(), ports.RunFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, res.RunID, stored[0].ID)
}

func TestSolveErrors(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	for _, tc := range []struct {
		body string
		code int
	}{
		{`not json`, http.StatusBadRequest},
		{`{"instance":"m2"}{}`, http.StatusBadRequest},
		{`{"instance":"m2","depot_limit":3}`, http.StatusBadRequest},
		{`{"algorithm":"mdvsp"}`, http.StatusBadRequest},
		{`{"instance":"m2","algorithm":"ant_colony"}`, http.StatusBadRequest},
		{`{"instance":"m2","algorithm":"vsp","strategy":"random"}`, http.StatusBadRequest},
		{`{"instance":"missing","algorithm":"mdvsp"}`, http.StatusNotFound},
		{`{"instance":"clash","algorithm":"vsp"}`, http.StatusUnprocessableEntity},
	} {
		rec := do(t, h, http.MethodPost, "/solve", tc.body)
		require.Equal(t, tc.code, rec.Code, tc.body)
	}

	require.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/solve", "").Code)
}

func TestSolveRateLimited(t *testing.T) {
	h, _ := newTestRouter(t, rate.NewLimiter(rate.Limit(0.001), 1))
	body := `{"instance":"m2","algorithm":"mdvsp"}`

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/solve", body).Code)
	rec := do(t, h, http.MethodPost, "/solve", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))

	// other endpoints are not throttled
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestRuns(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	do(t, h, http.MethodPost, "/solve", `{"instance":"m2","algorithm":"mdvsp"}`)
	do(t, h, http.MethodPost, "/solve", `{"instance":"m2","algorithm":"vsp","strategy":"best"}`)
	do(t, h, http.MethodPost, "/solve", `{"instance":"clash","algorithm":"vsp"}`)

	rec := do(t, h, http.MethodGet, "/runs?instance=m2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.ListRunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 2)
	for _, r := range list.Runs {
		require.Equal(t, "m2", r.Instance)
		require.Empty(t, r.Error)
	}

	rec = do(t, h, http.MethodGet, "/runs?instance=clash", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	require.NotEmpty(t, list.Runs[0].Error)

	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/runs?limit=0", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/runs?limit=abc", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	do(t, h, http.MethodPost, "/solve", `{"instance":"m2","algorithm":"mdvsp"}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "vsched_solves_total")
	require.Contains(t, rec.Body.String(), "vsched_http_requests_total")
}

func TestSolveStream(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/solve/stream?instance=m2&algorithm=vsp&strategy=earliest_start"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var progress int
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var head struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &head))
		if head.Type == "progress" {
			progress++
			continue
		}

		require.Equal(t, "result", head.Type, string(data))
		var msg dto.StreamMessage
		require.NoError(t, json.NewDecoder(bytes.NewReader(data)).Decode(&msg))
		require.NotNil(t, msg.Result)
		require.True(t, msg.Result.Solution.Feasible)
		break
	}
	require.Equal(t, 2, progress)
}

func TestSolveStreamRejectsBadQuery(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := do(t, h, http.MethodGet, "/solve/stream?algorithm=vsp", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
