// Package health provides liveness and readiness probe endpoints. Checks
// run on demand when a probe is requested, each under its own timeout.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component: nil means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New creates a Health in the not-ready state; call SetReady(true) once
// initialization finished.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that gates the liveness probe.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a check that gates the readiness probe.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the readiness gate. A not-ready service fails the
// readiness probe regardless of check results, which is how graceful
// shutdown drains traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := h.liveness
	h.mu.RUnlock()
	h.serve(w, r, checks, true)
}

// ReadyEndpoint serves the readiness probe.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := h.readiness
	h.mu.RUnlock()
	h.serve(w, r, checks, h.ready.Load())
}

func (h *Health) serve(w http.ResponseWriter, r *http.Request, checks []check, gate bool) {
	results := make(map[string]string, len(checks))
	healthy := gate
	if !gate {
		results["service"] = "not ready"
	}

	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			healthy = false
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": results,
	})
}

// GoroutineCountCheck returns a check that fails when the process exceeds
// the given goroutine count, a cheap leak detector.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := numGoroutine(); n > threshold {
			return &tooManyGoroutinesError{count: n, threshold: threshold}
		}
		return nil
	}
}
