// Package engine decides the outcome of each incoming telemetry message:
// overloaded, invalid, duplicate, or accepted.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-edge/common/events"
	"github.com/telhawk-systems/telhawk-edge/common/logging"
	"github.com/telhawk-systems/telhawk-edge/common/model"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/dedup"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/metrics"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/repository"
)

// Rand is the injected source of randomness for the overload gate.
type Rand interface {
	Float64() float64
}

// Outcome is the protocol-level result of one ingest decision.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeDuplicate
	OutcomeInvalid
	OutcomeOverloaded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeOverloaded:
		return "overloaded"
	default:
		return "unknown"
	}
}

// Decision is produced fresh per delivery attempt and never persisted
// beyond the response. The correlation id exists for traceability only; it
// is not part of protocol semantics.
type Decision struct {
	Outcome       Outcome
	CorrelationID string
	Reason        string
}

// Config tunes the decision engine.
type Config struct {
	// OverloadProbability triggers the simulated backpressure gate.
	OverloadProbability float64
}

// Engine evaluates each message through a fixed gate order: overload,
// validation, dedup, accept. The dedup check and mark run as one atomic
// critical section so concurrent identical deliveries yield exactly one
// acceptance.
type Engine struct {
	cache  dedup.Cache
	store  repository.Store
	cfg    Config
	rng    Rand
	sink   events.Sink
	logger *logging.Logger
}

// New creates an engine. A nil sink falls back to events.NoopSink.
func New(cache dedup.Cache, store repository.Store, cfg Config, rng Rand, sink events.Sink, logger *logging.Logger) *Engine {
	if sink == nil {
		sink = events.NoopSink{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		cache:  cache,
		store:  store,
		cfg:    cfg,
		rng:    rng,
		sink:   sink,
		logger: logger,
	}
}

// Decide runs the gate sequence for one message. The returned error is an
// infrastructure failure (cache unreachable); protocol outcomes, including
// rejections, are carried by the Decision.
func (e *Engine) Decide(ctx context.Context, msg *model.TelemetryMessage) (*Decision, error) {
	start := time.Now()
	defer func() {
		metrics.DecisionDuration.Observe(time.Since(start).Seconds())
	}()

	correlationID := uuid.New().String()
	metrics.ReceivedTotal.Inc()

	e.emit(ctx, events.Event{
		Name:          events.EventTelemetryReceived,
		Severity:      events.SeverityInfo,
		DeviceID:      msg.DeviceID,
		SequenceID:    msg.SequenceID,
		CorrelationID: correlationID,
	})

	// Gate 1: simulated overload. No cache interaction, no validation;
	// must surface as transient to the sender.
	if e.rng.Float64() < e.cfg.OverloadProbability {
		metrics.OverloadTotal.Inc()
		e.emit(ctx, events.Event{
			Name:          events.EventOverloadSimulated,
			Severity:      events.SeverityWarn,
			DeviceID:      msg.DeviceID,
			SequenceID:    msg.SequenceID,
			CorrelationID: correlationID,
			Reason:        "simulated_backpressure",
		})
		return &Decision{
			Outcome:       OutcomeOverloaded,
			CorrelationID: correlationID,
			Reason:        "service temporarily overloaded",
		}, nil
	}

	// Gate 2: validation. Terminal for the sender; nothing is remembered.
	if reason, ok := validate(msg); !ok {
		metrics.RejectedTotal.Inc()
		e.emit(ctx, events.Event{
			Name:          events.EventValidationFailed,
			Severity:      events.SeverityError,
			DeviceID:      msg.DeviceID,
			SequenceID:    msg.SequenceID,
			CorrelationID: correlationID,
			Reason:        reason,
		})
		return &Decision{
			Outcome:       OutcomeInvalid,
			CorrelationID: correlationID,
			Reason:        reason,
		}, nil
	}

	// Gates 3+4: dedup check and accept as one atomic critical section.
	seen, err := e.cache.CheckAndMark(ctx, msg.DeviceID, msg.SequenceID)
	if err != nil {
		return nil, fmt.Errorf("dedup lookup failed: %w", err)
	}

	if seen {
		metrics.DuplicatesTotal.Inc()
		e.emit(ctx, events.Event{
			Name:          events.EventDuplicateDetected,
			Severity:      events.SeverityInfo,
			DeviceID:      msg.DeviceID,
			SequenceID:    msg.SequenceID,
			CorrelationID: correlationID,
			Reason:        "already_processed",
		})
		return &Decision{
			Outcome:       OutcomeDuplicate,
			CorrelationID: correlationID,
			Reason:        "duplicate message",
		}, nil
	}

	if err := e.store.SaveReading(ctx, &repository.Reading{
		DeviceID:      msg.DeviceID,
		SequenceID:    msg.SequenceID,
		Timestamp:     msg.Timestamp,
		Temperature:   msg.Temperature,
		Humidity:      msg.Humidity,
		Pressure:      msg.Pressure,
		CorrelationID: correlationID,
		AcceptedAt:    time.Now().UTC(),
	}); err != nil {
		// Roll back the dedup mark so the sender's retry is not misread
		// as a duplicate, then surface as overloaded (transient).
		metrics.StorageErrors.Inc()
		if ferr := e.cache.Forget(ctx, msg.DeviceID, msg.SequenceID); ferr != nil {
			e.logger.ErrorContext(ctx, "failed to roll back dedup mark",
				logging.DeviceID(msg.DeviceID),
				logging.SequenceID(msg.SequenceID),
				logging.Error(ferr),
			)
		}
		e.logger.ErrorContext(ctx, "failed to store accepted reading",
			logging.DeviceID(msg.DeviceID),
			logging.SequenceID(msg.SequenceID),
			logging.CorrelationID(correlationID),
			logging.Error(err),
		)
		return &Decision{
			Outcome:       OutcomeOverloaded,
			CorrelationID: correlationID,
			Reason:        "storage unavailable",
		}, nil
	}

	metrics.AcceptedTotal.Inc()
	e.emit(ctx, events.Event{
		Name:          events.EventTelemetryAccepted,
		Severity:      events.SeverityInfo,
		DeviceID:      msg.DeviceID,
		SequenceID:    msg.SequenceID,
		CorrelationID: correlationID,
		Reason:        "new_message",
	})
	return &Decision{
		Outcome:       OutcomeAccepted,
		CorrelationID: correlationID,
		Reason:        "telemetry ingested successfully",
	}, nil
}

func validate(msg *model.TelemetryMessage) (string, bool) {
	if msg.DeviceID == "" {
		return "device_id must not be empty", false
	}
	if msg.SequenceID < 0 {
		return "sequence_id must be >= 0", false
	}
	return "", true
}

func (e *Engine) emit(ctx context.Context, ev events.Event) {
	ev.Component = "edge"
	e.sink.Emit(ctx, ev)
}
