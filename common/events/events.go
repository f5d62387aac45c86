// Package events defines the structured protocol-event sink invoked at
// every sender and receiver decision point. The protocol core emits events
// through the Sink interface and is agnostic to where they land (slog,
// NATS, nothing).
package events

import (
	"context"
	"log/slog"

	"github.com/telhawk-systems/telhawk-edge/common/logging"
)

// Severity classifies a protocol event for downstream filtering.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Event names emitted by the delivery agent and the ingest engine.
const (
	EventPacketDropped      = "packet_dropped"
	EventJitterApplied      = "jitter_applied"
	EventDuplicateTriggered = "duplicate_triggered"
	EventAttemptSent        = "attempt_sent"
	EventDeliverySucceeded  = "delivery_succeeded"
	EventDuplicateAcked     = "duplicate_acknowledged"
	EventTransientError     = "transient_error"
	EventTerminalError      = "terminal_error"
	EventBackoffScheduled   = "backoff_scheduled"
	EventRetriesExhausted   = "retries_exhausted"
	EventTelemetryReceived  = "telemetry_received"
	EventOverloadSimulated  = "overload_simulated"
	EventValidationFailed   = "validation_failed"
	EventDuplicateDetected  = "duplicate_detected"
	EventTelemetryAccepted  = "telemetry_accepted"
)

// Event is one protocol decision, with enough identifiers to correlate the
// sender and receiver sides of a delivery.
type Event struct {
	Name          string         `json:"event"`
	Severity      Severity       `json:"severity"`
	Component     string         `json:"component"`
	DeviceID      string         `json:"device_id,omitempty"`
	SequenceID    int64          `json:"sequence_id"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Sink receives protocol events. Implementations must be safe for
// concurrent use and must not block the protocol path for long; slow
// transports should buffer or drop.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// NoopSink discards all events.
type NoopSink struct{}

func (NoopSink) Emit(context.Context, Event) {}

// SlogSink writes events as structured log records.
type SlogSink struct {
	logger *logging.Logger
}

// NewSlogSink creates a sink backed by the given logger.
func NewSlogSink(logger *logging.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, ev Event) {
	attrs := []any{
		slog.String("component", ev.Component),
		logging.DeviceID(ev.DeviceID),
		logging.SequenceID(ev.SequenceID),
	}
	if ev.CorrelationID != "" {
		attrs = append(attrs, logging.CorrelationID(ev.CorrelationID))
	}
	if ev.Reason != "" {
		attrs = append(attrs, logging.Reason(ev.Reason))
	}
	for k, v := range ev.Extra {
		attrs = append(attrs, slog.Any(k, v))
	}

	switch ev.Severity {
	case SeverityWarn:
		s.logger.WarnContext(ctx, ev.Name, attrs...)
	case SeverityError:
		s.logger.ErrorContext(ctx, ev.Name, attrs...)
	default:
		s.logger.InfoContext(ctx, ev.Name, attrs...)
	}
}

// MultiSink fans out each event to all wrapped sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}
