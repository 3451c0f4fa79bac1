package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	// Store is pinged on every request when set.
	Store Pinger
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload := map[string]string{
		"status": "ok",
	}

	if h.Store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.Store.Ping(pingCtx); err != nil {
			payload["status"] = "degraded"
			payload["store"] = "unreachable"
			respondJSON(ctx, w, http.StatusServiceUnavailable, payload)
			return
		}
		payload["store"] = "ok"
	}

	respondJSON(ctx, w, http.StatusOK, payload)
}
