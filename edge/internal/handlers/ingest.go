package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/telhawk-systems/telhawk-edge/common/httputil"
	"github.com/telhawk-systems/telhawk-edge/common/logging"
	"github.com/telhawk-systems/telhawk-edge/common/model"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/engine"
)

// IngestResponse is the body for every ingest outcome.
type IngestResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
}

// IngestHandler exposes the decision engine over HTTP.
type IngestHandler struct {
	engine *engine.Engine
	logger *logging.Logger
}

func NewIngestHandler(e *engine.Engine, logger *logging.Logger) *IngestHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestHandler{
		engine: e,
		logger: logger,
	}
}

// HandleIngest maps engine outcomes onto the HTTP surface:
// 200 accepted, 409 duplicate, 400 invalid, 503 overloaded.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var msg model.TelemetryMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	defer r.Body.Close()

	decision, err := h.engine.Decide(r.Context(), &msg)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "ingest decision failed",
			logging.DeviceID(msg.DeviceID),
			logging.SequenceID(msg.SequenceID),
			logging.Error(err),
		)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := IngestResponse{
		Status:        decision.Outcome.String(),
		Message:       decision.Reason,
		CorrelationID: decision.CorrelationID,
	}

	switch decision.Outcome {
	case engine.OutcomeAccepted:
		httputil.WriteJSON(w, http.StatusOK, resp)
	case engine.OutcomeDuplicate:
		httputil.WriteJSON(w, http.StatusConflict, resp)
	case engine.OutcomeInvalid:
		httputil.WriteJSON(w, http.StatusBadRequest, resp)
	case engine.OutcomeOverloaded:
		httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "unknown outcome")
	}
}

// Health reports liveness.
func (h *IngestHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports readiness to serve ingest traffic.
func (h *IngestHandler) Ready(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
