package api

import (
	"context"
	"net/http"
)

// ReadinessChecker reports whether the backing store answers.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// ReadyHandler handles readiness probes.
type ReadyHandler struct {
	checker ReadinessChecker
}

// NewReadyHandler creates a new readiness handler.
func NewReadyHandler(checker ReadinessChecker) *ReadyHandler {
	return &ReadyHandler{checker: checker}
}

// HandleReady handles GET /readyz requests.
func (h *ReadyHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if err := h.checker.Ready(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
