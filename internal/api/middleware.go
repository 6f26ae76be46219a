package api

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"vehicle-scheduling-service/internal/platform/metrics"
	"vehicle-scheduling-service/internal/platform/obs"
)

const requestIDHeader = "X-Request-ID"

// statusWriter captures the final HTTP status code and number of bytes written.
// This helps distinguish "handler returned 200" from "client received a response".
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Record implicit 200 responses when handlers write without calling WriteHeader.
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Hijack lets the WebSocket upgrader take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// loggingMiddleware assigns a request id, then logs end-to-end request
// duration and response size and counts the request by route pattern.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := obs.WithRequestID(r.Context(), r.Header.Get(requestIDHeader))
		r = r.WithContext(ctx)
		w.Header().Set(requestIDHeader, obs.RequestID(ctx))

		sw := &statusWriter{
			ResponseWriter: w,
			status:         0,
		}

		next.ServeHTTP(sw, r)

		duration := time.Since(start).Milliseconds()

		// The mux fills Pattern; unmatched requests share one label.
		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(sw.status)).Inc()

		log.Printf(
			"req_id=%s method=%s path=%s status=%d bytes=%d dur=%dms",
			obs.RequestID(ctx), r.Method, r.URL.RequestURI(), sw.status, sw.bytes, duration,
		)
	})
}

// rateLimited rejects requests beyond lim with 429. A nil limiter allows all.
func rateLimited(lim *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	if lim == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
			return
		}
		next(w, r)
	}
}
