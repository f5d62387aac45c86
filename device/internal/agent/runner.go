package agent

import (
	"context"
	"time"

	"github.com/telhawk-systems/telhawk-edge/common/events"
	"github.com/telhawk-systems/telhawk-edge/common/logging"
	"github.com/telhawk-systems/telhawk-edge/device/internal/fault"
	"github.com/telhawk-systems/telhawk-edge/device/internal/telemetry"
)

// RunnerConfig configures the per-device send loop.
type RunnerConfig struct {
	// Interval between telemetry samples.
	Interval time.Duration
	// DuplicatePause is the fixed wait before a duplicate resend.
	DuplicatePause time.Duration
}

// DefaultRunnerConfig matches the simulated device defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Interval:       3 * time.Second,
		DuplicatePause: 500 * time.Millisecond,
	}
}

// Runner drives one device identity: it generates a sample, runs a full
// delivery cycle (including retries and any duplicate resend), then waits
// for the next tick. Cycles never overlap; a cycle whose retries outlive
// the interval simply delays the next sample.
type Runner struct {
	agent    *Agent
	gen      *telemetry.Generator
	injector *fault.Injector
	cfg      RunnerConfig
	sink     events.Sink
	logger   *logging.Logger
}

// NewRunner creates a runner. The injector must be the same instance the
// agent uses so drop and duplicate draws share one random stream.
func NewRunner(a *Agent, gen *telemetry.Generator, injector *fault.Injector, cfg RunnerConfig, sink events.Sink, logger *logging.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRunnerConfig().Interval
	}
	if cfg.DuplicatePause <= 0 {
		cfg.DuplicatePause = DefaultRunnerConfig().DuplicatePause
	}
	if sink == nil {
		sink = events.NoopSink{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		agent:    a,
		gen:      gen,
		injector: injector,
		cfg:      cfg,
		sink:     sink,
		logger:   logger,
	}
}

// Run loops until ctx is cancelled. The first sample is sent immediately,
// subsequent samples on each tick. Returns ctx.Err() on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := r.cycle(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// cycle runs one complete send cycle: deliver, then, if the delivery
// succeeded and the duplicate fault fires, a second independent delivery of
// the very same message after a short fixed pause. The resend exercises the
// edge's idempotency: it is expected to come back as a duplicate ack.
func (r *Runner) cycle(ctx context.Context) error {
	msg := r.gen.Next()

	status, err := r.agent.Deliver(ctx, msg)
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "delivery cycle finished",
		logging.DeviceID(msg.DeviceID),
		logging.SequenceID(msg.SequenceID),
		logging.Decision(status.String()),
	)

	if status != StatusDelivered {
		return nil
	}

	if !r.injector.Duplicate() {
		return nil
	}

	r.sink.Emit(ctx, events.Event{
		Name:       events.EventDuplicateTriggered,
		Severity:   events.SeverityWarn,
		Component:  "device",
		DeviceID:   msg.DeviceID,
		SequenceID: msg.SequenceID,
		Reason:     "simulated_network_instability",
	})

	if err := sleep(ctx, r.cfg.DuplicatePause); err != nil {
		return err
	}

	_, err = r.agent.Deliver(ctx, msg)
	return err
}
