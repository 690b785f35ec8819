package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	mode      string
	source    string
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler that reports the run mode and the
// market source in use.
func NewHealthHandler(mode, source string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		mode:      mode,
		source:    source,
		startedAt: time.Now().UTC(),
		logger:    logHandler(logger, "health"),
	}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"mode":           h.mode,
		"market_source":  h.source,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
