package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonmw "github.com/telhawk-systems/telhawk-edge/common/middleware"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/handlers"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/middleware"
)

// NewRouter constructs a ServeMux with the edge API routes registered.
// auth is optional; when non-nil the ingest endpoint requires a valid
// device bearer token.
func NewRouter(h *handlers.IngestHandler, auth *middleware.AuthMiddleware) http.Handler {
	mux := http.NewServeMux()

	ingest := h.HandleIngest
	if auth != nil {
		ingest = auth.RequireAuth(ingest)
	}
	mux.HandleFunc("/ingest", ingest)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return commonmw.RequestID(mux)
}
