package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-edge/common/model"
)

func testMessage() *model.TelemetryMessage {
	return &model.TelemetryMessage{
		DeviceID:    "sensor-001",
		SequenceID:  1,
		Timestamp:   time.Now().UTC(),
		Temperature: 22.0,
		Humidity:    50.0,
		Pressure:    1000.0,
	}
}

func TestIngest_Accepted(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ingest", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var msg model.TelemetryMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "sensor-001", msg.DeviceID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":         "accepted",
			"message":        "telemetry ingested successfully",
			"correlation_id": "corr-123",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token")
	result, err := c.Ingest(testMessage())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "accepted", result.Status)
	assert.Equal(t, "corr-123", result.CorrelationID)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestIngest_NonOKStillDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"status":         "duplicate",
			"message":        "duplicate message",
			"correlation_id": "corr-456",
		})
	}))
	defer srv.Close()

	result, err := New(srv.URL, "").Ingest(testMessage())
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, result.StatusCode)
	assert.Equal(t, "duplicate", result.Status)
}

func TestIngest_NoTokenOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Ingest(testMessage())
	require.NoError(t, err)
}

func TestIngest_TransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	_, err := c.Ingest(testMessage())
	require.Error(t, err)
}

func TestHealthAndReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "timestamp": "2026-01-01T00:00:00Z"})
		case "/readyz":
			json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")

	health, err := c.Health()
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.NotEmpty(t, health.Timestamp)

	ready, err := c.Ready()
	require.NoError(t, err)
	assert.Equal(t, "ready", ready.Status)
}

func TestHealth_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Health()
	require.Error(t, err)
}
