package agent

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-edge/common/events"
	"github.com/telhawk-systems/telhawk-edge/device/internal/backoff"
	"github.com/telhawk-systems/telhawk-edge/device/internal/fault"
	"github.com/telhawk-systems/telhawk-edge/device/internal/telemetry"
)

func newTestRunner(t *testing.T, ft *fakeTransport, injCfg fault.Config) (*Runner, *recordingSink) {
	t.Helper()
	rng := fixedRand{0.5}
	sink := &recordingSink{}
	policy := backoff.New(time.Millisecond, 4*time.Millisecond, 0.5, rng)
	inj := fault.New(injCfg, rng)
	a := New(ft, policy, inj, 2, sink, nil)
	gen := telemetry.NewGenerator("device-001", 1)
	cfg := RunnerConfig{Interval: time.Hour, DuplicatePause: 5 * time.Millisecond}
	return NewRunner(a, gen, inj, cfg, sink, nil), sink
}

func TestCycle_NoDuplicate(t *testing.T) {
	ft := &fakeTransport{script: []attemptOutcome{status(http.StatusOK)}}
	r, _ := newTestRunner(t, ft, noFaults())

	require.NoError(t, r.cycle(context.Background()))
	assert.Equal(t, 1, ft.calls())
}

// A triggered duplicate resends the very same message (same sequence
// number) through a fresh delivery, which the edge is expected to answer
// with a duplicate ack.
func TestCycle_DuplicateResendsSameSequence(t *testing.T) {
	cfg := noFaults()
	cfg.DuplicateProbability = 1
	ft := &fakeTransport{script: []attemptOutcome{
		status(http.StatusOK),
		status(http.StatusConflict),
	}}
	r, sink := newTestRunner(t, ft, cfg)

	require.NoError(t, r.cycle(context.Background()))

	require.Equal(t, 2, ft.calls())
	assert.Equal(t, ft.messages[0].SequenceID, ft.messages[1].SequenceID)
	assert.Equal(t, ft.messages[0].DeviceID, ft.messages[1].DeviceID)
	assert.Equal(t, 1, sink.count(events.EventDuplicateTriggered))
	assert.Equal(t, 1, sink.count(events.EventDeliverySucceeded))
	assert.Equal(t, 1, sink.count(events.EventDuplicateAcked))
}

func TestCycle_DropSuppressesDuplicateConsideration(t *testing.T) {
	cfg := noFaults()
	cfg.DropProbability = 1
	cfg.DuplicateProbability = 1
	ft := &fakeTransport{script: []attemptOutcome{status(http.StatusOK)}}
	r, sink := newTestRunner(t, ft, cfg)

	require.NoError(t, r.cycle(context.Background()))

	assert.Zero(t, ft.calls())
	assert.Zero(t, sink.count(events.EventDuplicateTriggered))
}

func TestCycle_FailedDeliveryNotDuplicated(t *testing.T) {
	cfg := noFaults()
	cfg.DuplicateProbability = 1
	ft := &fakeTransport{script: []attemptOutcome{status(http.StatusBadRequest)}}
	r, sink := newTestRunner(t, ft, cfg)

	require.NoError(t, r.cycle(context.Background()))

	assert.Equal(t, 1, ft.calls())
	assert.Zero(t, sink.count(events.EventDuplicateTriggered))
}

func TestCycle_SequenceAdvancesAcrossCycles(t *testing.T) {
	ft := &fakeTransport{script: []attemptOutcome{status(http.StatusOK)}}
	r, _ := newTestRunner(t, ft, noFaults())

	require.NoError(t, r.cycle(context.Background()))
	require.NoError(t, r.cycle(context.Background()))
	require.NoError(t, r.cycle(context.Background()))

	require.Equal(t, 3, ft.calls())
	assert.Equal(t, int64(0), ft.messages[0].SequenceID)
	assert.Equal(t, int64(1), ft.messages[1].SequenceID)
	assert.Equal(t, int64(2), ft.messages[2].SequenceID)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ft := &fakeTransport{script: []attemptOutcome{status(http.StatusOK)}}
	r, _ := newTestRunner(t, ft, noFaults())
	r.cfg.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancellation")
	}

	assert.GreaterOrEqual(t, ft.calls(), 1)
}
