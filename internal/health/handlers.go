// Package health exposes the liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checker probes the dependencies readiness reports on.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler serves the probe endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live answers as long as the process can serve HTTP.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready pings Postgres and Redis and reports per-dependency state. Any
// failing dependency flips the response to 503.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	report := map[string]string{
		"db":    probe(func(t time.Duration) error { return h.Checker.PingDB(ctx, t) }, h.DBTimeout, 500*time.Millisecond),
		"redis": probe(func(t time.Duration) error { return h.Checker.PingRedis(ctx, t) }, h.RedisTimeout, 300*time.Millisecond),
	}

	code := http.StatusOK
	for _, state := range report {
		if state != "ok" {
			code = http.StatusServiceUnavailable
			break
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}

func probe(ping func(time.Duration) error, timeout, fallback time.Duration) string {
	if timeout <= 0 {
		timeout = fallback
	}
	if err := ping(timeout); err != nil {
		return err.Error()
	}
	return "ok"
}
