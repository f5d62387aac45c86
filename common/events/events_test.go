package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-edge/common/logging"
)

func newBufferSink(t *testing.T) (*SlogSink, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	return NewSlogSink(&logging.Logger{Logger: slog.New(handler)}), &buf
}

func TestSlogSink_Emit(t *testing.T) {
	sink, buf := newBufferSink(t)

	sink.Emit(context.Background(), Event{
		Name:          EventTelemetryAccepted,
		Severity:      SeverityInfo,
		Component:     "edge",
		DeviceID:      "device-001",
		SequenceID:    7,
		CorrelationID: "corr-1",
		Reason:        "new_message",
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, EventTelemetryAccepted, record["msg"])
	assert.Equal(t, "edge", record["component"])
	assert.Equal(t, "device-001", record["device_id"])
	assert.Equal(t, float64(7), record["sequence_id"])
	assert.Equal(t, "corr-1", record["correlation_id"])
	assert.Equal(t, "new_message", record["reason"])
}

func TestSlogSink_SeverityMapsToLevel(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "INFO"},
		{SeverityWarn, "WARN"},
		{SeverityError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			sink, buf := newBufferSink(t)
			sink.Emit(context.Background(), Event{
				Name:     EventPacketDropped,
				Severity: tt.severity,
			})

			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tt.want, record["level"])
		})
	}
}

func TestSlogSink_ExtraFields(t *testing.T) {
	sink, buf := newBufferSink(t)
	sink.Emit(context.Background(), Event{
		Name:     EventBackoffScheduled,
		Severity: SeverityInfo,
		Extra:    map[string]any{"backoff_seconds": 1.5},
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, 1.5, record["backoff_seconds"])
}

func TestMultiSink(t *testing.T) {
	sink1, buf1 := newBufferSink(t)
	sink2, buf2 := newBufferSink(t)

	multi := MultiSink{sink1, sink2, NoopSink{}}
	multi.Emit(context.Background(), Event{Name: EventAttemptSent, Severity: SeverityInfo})

	assert.NotEmpty(t, buf1.Bytes())
	assert.NotEmpty(t, buf2.Bytes())
}
