package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-edge/common/model"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/dedup"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/engine"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/repository"
)

// fixedRand always returns the same value, pinning the overload gate.
type fixedRand struct{ v float64 }

func (r fixedRand) Float64() float64 { return r.v }

func newTestHandler(t *testing.T, overloadProb float64) *IngestHandler {
	t.Helper()

	cache := dedup.NewMemoryCache(time.Minute)
	t.Cleanup(func() { cache.Close() })

	e := engine.New(cache, repository.NewInMemoryStore(), engine.Config{
		OverloadProbability: overloadProb,
	}, fixedRand{0.5}, nil, nil)

	return NewIngestHandler(e, nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func telemetryBody(t *testing.T, deviceID string, seq int64) []byte {
	t.Helper()

	body, err := json.Marshal(model.TelemetryMessage{
		DeviceID:    deviceID,
		SequenceID:  seq,
		Timestamp:   time.Now().UTC(),
		Temperature: 22.5,
		Humidity:    48.0,
		Pressure:    1005.2,
	})
	require.NoError(t, err)
	return body
}

func TestHandleIngest_Accepted(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := postJSON(t, h.HandleIngest, telemetryBody(t, "sensor-001", 1))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp.Status)
	assert.NotEmpty(t, resp.CorrelationID)
}

func TestHandleIngest_DuplicateAnswers409(t *testing.T) {
	h := newTestHandler(t, 0)
	body := telemetryBody(t, "sensor-001", 7)

	first := postJSON(t, h.HandleIngest, body)
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, h.HandleIngest, body)
	require.Equal(t, http.StatusConflict, second.Code)

	var firstResp, secondResp IngestResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	assert.Equal(t, "duplicate", secondResp.Status)
	assert.NotEqual(t, firstResp.CorrelationID, secondResp.CorrelationID,
		"each delivery attempt gets its own correlation id")
}

func TestHandleIngest_InvalidPayloadAnswers400(t *testing.T) {
	h := newTestHandler(t, 0)

	tests := []struct {
		name string
		body []byte
	}{
		{"malformed JSON", []byte(`{"device_id": `)},
		{"empty device_id", telemetryBody(t, "", 1)},
		{"negative sequence", telemetryBody(t, "sensor-001", -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.HandleIngest, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleIngest_OverloadAnswers503(t *testing.T) {
	// Probability 1.0 forces the overload gate for every request.
	h := newTestHandler(t, 1.0)

	rec := postJSON(t, h.HandleIngest, telemetryBody(t, "sensor-001", 1))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "overloaded", resp.Status)
}

func TestHandleIngest_RejectsNonPost(t *testing.T) {
	h := newTestHandler(t, 0)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/ingest", nil)
		rec := httptest.NewRecorder()
		h.HandleIngest(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
}

func TestHandleIngest_SequencesAreIndependentAcrossDevices(t *testing.T) {
	h := newTestHandler(t, 0)

	for i := 0; i < 3; i++ {
		rec := postJSON(t, h.HandleIngest, telemetryBody(t, fmt.Sprintf("sensor-%03d", i), 42))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])
}
