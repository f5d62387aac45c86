// Package agent owns the per-message delivery loop: fault injection,
// transmission, outcome classification and bounded retries with backoff.
package agent

import (
	"context"
	"net/http"
	"time"

	"github.com/telhawk-systems/telhawk-edge/common/events"
	"github.com/telhawk-systems/telhawk-edge/common/logging"
	"github.com/telhawk-systems/telhawk-edge/common/model"
	"github.com/telhawk-systems/telhawk-edge/device/internal/backoff"
	"github.com/telhawk-systems/telhawk-edge/device/internal/classify"
	"github.com/telhawk-systems/telhawk-edge/device/internal/fault"
	"github.com/telhawk-systems/telhawk-edge/device/internal/transport"
)

// Transport sends one message and reports the edge's response or a typed
// transport error.
type Transport interface {
	Send(ctx context.Context, msg *model.TelemetryMessage) (*transport.Result, error)
}

// Status is the terminal outcome of one Deliver invocation.
type Status int

const (
	// StatusDelivered means the edge durably accepted the message (or
	// acknowledged it as a duplicate, which is equivalent).
	StatusDelivered Status = iota
	// StatusDropped means fault injection suppressed the cycle before any
	// network I/O.
	StatusDropped
	// StatusFailed means the message is permanently failed: a terminal
	// error, retry exhaustion, or cancellation.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusDropped:
		return "dropped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultMaxRetries bounds transient retries per message.
const DefaultMaxRetries = 5

// Agent delivers telemetry messages with bounded retries. One Agent serves
// one device identity and runs strictly sequentially.
type Agent struct {
	transport  Transport
	policy     *backoff.Policy
	injector   *fault.Injector
	maxRetries int
	sink       events.Sink
	logger     *logging.Logger
}

// New creates a delivery agent. maxRetries < 0 falls back to
// DefaultMaxRetries; a nil sink falls back to events.NoopSink.
func New(t Transport, policy *backoff.Policy, injector *fault.Injector, maxRetries int, sink events.Sink, logger *logging.Logger) *Agent {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if sink == nil {
		sink = events.NoopSink{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Agent{
		transport:  t,
		policy:     policy,
		injector:   injector,
		maxRetries: maxRetries,
		sink:       sink,
		logger:     logger,
	}
}

// Deliver runs one message through the retry loop. The returned error is
// non-nil only when the context was cancelled; protocol outcomes (drop,
// terminal failure, exhaustion) are reported through Status alone.
//
// The drop decision is evaluated once, before any attempt: a dropped cycle
// abandons the message entirely with no retries and no network I/O.
func (a *Agent) Deliver(ctx context.Context, msg *model.TelemetryMessage) (Status, error) {
	if a.injector.Drop() {
		a.emit(ctx, events.Event{
			Name:       events.EventPacketDropped,
			Severity:   events.SeverityWarn,
			DeviceID:   msg.DeviceID,
			SequenceID: msg.SequenceID,
			Reason:     "simulated_network_instability",
		})
		return StatusDropped, nil
	}

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if delay, ok := a.injector.Jitter(); ok {
			a.emit(ctx, events.Event{
				Name:       events.EventJitterApplied,
				Severity:   events.SeverityInfo,
				DeviceID:   msg.DeviceID,
				SequenceID: msg.SequenceID,
				Extra:      map[string]any{"delay_seconds": delay.Seconds()},
			})
			if err := sleep(ctx, delay); err != nil {
				return StatusFailed, err
			}
		}

		a.emit(ctx, events.Event{
			Name:       events.EventAttemptSent,
			Severity:   events.SeverityInfo,
			DeviceID:   msg.DeviceID,
			SequenceID: msg.SequenceID,
			Extra:      map[string]any{"attempt": attempt},
		})

		res, err := a.transport.Send(ctx, msg)
		if ctx.Err() != nil {
			return StatusFailed, ctx.Err()
		}

		switch classify.Classify(res, err) {
		case classify.Success:
			name := events.EventDeliverySucceeded
			if res.StatusCode == http.StatusConflict {
				name = events.EventDuplicateAcked
			}
			a.emit(ctx, events.Event{
				Name:          name,
				Severity:      events.SeverityInfo,
				DeviceID:      msg.DeviceID,
				SequenceID:    msg.SequenceID,
				CorrelationID: res.CorrelationID,
				Extra:         map[string]any{"status": res.StatusCode, "attempt": attempt},
			})
			return StatusDelivered, nil

		case classify.Terminal:
			ev := events.Event{
				Name:       events.EventTerminalError,
				Severity:   events.SeverityError,
				DeviceID:   msg.DeviceID,
				SequenceID: msg.SequenceID,
				Reason:     "validation_or_auth_error",
				Extra:      map[string]any{"attempt": attempt},
			}
			if err != nil {
				ev.Reason = "unclassified_error"
				ev.Extra["error"] = err.Error()
			} else {
				ev.Extra["status"] = res.StatusCode
			}
			a.emit(ctx, ev)
			return StatusFailed, nil

		case classify.Transient:
			ev := events.Event{
				Name:       events.EventTransientError,
				Severity:   events.SeverityWarn,
				DeviceID:   msg.DeviceID,
				SequenceID: msg.SequenceID,
				Extra:      map[string]any{"attempt": attempt},
			}
			if err != nil {
				ev.Extra["error"] = err.Error()
			} else {
				ev.Extra["status"] = res.StatusCode
			}
			a.emit(ctx, ev)

			if attempt == a.maxRetries {
				a.emit(ctx, events.Event{
					Name:       events.EventRetriesExhausted,
					Severity:   events.SeverityError,
					DeviceID:   msg.DeviceID,
					SequenceID: msg.SequenceID,
					Extra:      map[string]any{"max_retries": a.maxRetries},
				})
				return StatusFailed, nil
			}

			d := a.policy.Delay(attempt)
			a.emit(ctx, events.Event{
				Name:       events.EventBackoffScheduled,
				Severity:   events.SeverityInfo,
				DeviceID:   msg.DeviceID,
				SequenceID: msg.SequenceID,
				Extra:      map[string]any{"backoff_seconds": d.Seconds(), "attempt": attempt},
			})
			if err := sleep(ctx, d); err != nil {
				return StatusFailed, err
			}
		}
	}

	// Unreachable: the loop exits through one of the cases above.
	return StatusFailed, nil
}

func (a *Agent) emit(ctx context.Context, ev events.Event) {
	ev.Component = "device"
	a.sink.Emit(ctx, ev)
}

// sleep blocks for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
