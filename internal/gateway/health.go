// ABOUTME: Liveness and readiness endpoints
// ABOUTME: Readiness pings the Mattermost server; liveness only proves the process answers

package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "mcp-server-mattermost"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// handleReady returns 200 OK if Mattermost answers /system/ping.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	settings := g.config.Mattermost
	settings.MaxRetries = 0
	opts := append([]mattermost.Option{mattermost.WithLogger(g.logger)}, g.clientOpts...)
	if err := mattermost.Ping(r.Context(), settings, opts...); err != nil {
		g.logger.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unavailable",
			"service": ServiceName,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": ServiceName,
	})
}
