package handler

import (
	"context"
	"net/http"
	"time"
)

type ReadinessChecker interface {
	IsReady() bool
}

// Pinger is a dependency whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	ready ReadinessChecker
	deps  map[string]Pinger
}

func NewHealthHandler(ready ReadinessChecker, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		ready: ready,
		deps:  deps,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready        bool              `json:"ready"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	ServerTime   time.Time         `json:"serverTime"`
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.ready.IsReady()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var deps map[string]string
	if len(h.deps) > 0 {
		deps = make(map[string]string, len(h.deps))
		for name, dep := range h.deps {
			if err := dep.Ping(ctx); err != nil {
				deps[name] = err.Error()
				ready = false
				continue
			}
			deps[name] = "ok"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, ReadyResponse{
		Ready:        ready,
		Dependencies: deps,
		ServerTime:   time.Now(),
	})
}
