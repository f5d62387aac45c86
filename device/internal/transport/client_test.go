package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-edge/common/model"
)

func sampleMessage() *model.TelemetryMessage {
	return &model.TelemetryMessage{
		DeviceID:    "device-001",
		SequenceID:  3,
		Timestamp:   time.Now().UTC(),
		Temperature: 21.5,
		Humidity:    48.2,
		Pressure:    1001.3,
	}
}

func TestSend_Accepted(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var msg model.TelemetryMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "device-001", msg.DeviceID)
		assert.Equal(t, int64(3), msg.SequenceID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":         "accepted",
			"correlation_id": "corr-abc",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second, "secret-token")
	res, err := c.Send(context.Background(), sampleMessage())

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "corr-abc", res.CorrelationID)
	assert.Equal(t, "/ingest", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestSend_NonSuccessStatusIsNotAnError(t *testing.T) {
	tests := []int{http.StatusConflict, http.StatusBadRequest, http.StatusServiceUnavailable}

	for _, status := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := New(srv.URL, 2*time.Second, "")
		res, err := c.Send(context.Background(), sampleMessage())

		require.NoError(t, err)
		assert.Equal(t, status, res.StatusCode)
		srv.Close()
	}
}

func TestSend_NoAuthHeaderWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second, "")
	_, err := c.Send(context.Background(), sampleMessage())
	require.NoError(t, err)
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond, "")
	res, err := c.Send(context.Background(), sampleMessage())

	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(srv.URL, time.Second, "")
	res, err := c.Send(context.Background(), sampleMessage())

	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestSend_CancelledContextIsNotANetworkFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := New(srv.URL, 5*time.Second, "")
	_, err := c.Send(ctx, sampleMessage())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrConnection)
	assert.NotErrorIs(t, err, ErrTimeout)
}
