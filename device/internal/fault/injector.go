// Package fault simulates network instability on the sender side: dropped
// packets, injected delay, and duplicate sends.
package fault

import "time"

// Rand is the injected source of randomness, next() -> [0,1).
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// minJitter keeps injected delays observable instead of degenerate.
const minJitter = 100 * time.Millisecond

// Config holds the three independent Bernoulli probabilities plus the
// jitter delay range.
type Config struct {
	DropProbability      float64
	JitterProbability    float64
	DuplicateProbability float64
	MaxJitter            time.Duration
}

// DefaultConfig matches the simulated field conditions: 15% drops, 20%
// jitter up to 2s, 10% duplicates.
func DefaultConfig() Config {
	return Config{
		DropProbability:      0.15,
		JitterProbability:    0.20,
		DuplicateProbability: 0.10,
		MaxJitter:            2 * time.Second,
	}
}

// Injector makes per-cycle fault decisions. The three decisions are
// independent draws; drop is terminal for a cycle and the caller must not
// consult Duplicate after a drop. Not safe for concurrent use: each device
// runner owns its own Injector.
type Injector struct {
	cfg Config
	rng Rand
}

// New creates an Injector with the given probabilities and random source.
func New(cfg Config, rng Rand) *Injector {
	if cfg.MaxJitter <= minJitter {
		cfg.MaxJitter = DefaultConfig().MaxJitter
	}
	return &Injector{cfg: cfg, rng: rng}
}

// Drop reports whether this cycle's send should be suppressed entirely,
// modeling sender-side packet loss before any network I/O.
func (i *Injector) Drop() bool {
	return i.rng.Float64() < i.cfg.DropProbability
}

// Jitter reports whether to delay before transmitting, and for how long.
// The delay is uniform in [minJitter, MaxJitter].
func (i *Injector) Jitter() (time.Duration, bool) {
	if i.rng.Float64() >= i.cfg.JitterProbability {
		return 0, false
	}
	span := float64(i.cfg.MaxJitter - minJitter)
	return minJitter + time.Duration(i.rng.Float64()*span), true
}

// Duplicate reports whether the just-delivered message should be sent a
// second time through a fresh, independent delivery.
func (i *Injector) Duplicate() bool {
	return i.rng.Float64() < i.cfg.DuplicateProbability
}
