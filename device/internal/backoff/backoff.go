// Package backoff computes retry delays for the delivery agent.
package backoff

import "time"

// Rand is the source of randomness for backoff jitter. *math/rand.Rand
// satisfies it; tests substitute a fixed sequence.
type Rand interface {
	Float64() float64
}

const (
	// DefaultBase is the delay before the first retry.
	DefaultBase = 1 * time.Second
	// DefaultMax caps the exponential growth.
	DefaultMax = 30 * time.Second
	// DefaultJitterRange perturbs the capped delay by ±50%.
	DefaultJitterRange = 0.5
	// Floor is the smallest delay ever returned. Keeps jitter from
	// producing a zero or negative sleep.
	Floor = 100 * time.Millisecond
)

// Policy computes exponential backoff with symmetric jitter.
// The zero value is not usable; construct with New.
type Policy struct {
	base        time.Duration
	max         time.Duration
	jitterRange float64
	rng         Rand
}

// New creates a Policy with the given parameters. Non-positive base or max
// fall back to the defaults; jitterRange outside (0, 1] falls back to
// DefaultJitterRange.
func New(base, max time.Duration, jitterRange float64, rng Rand) *Policy {
	if base <= 0 {
		base = DefaultBase
	}
	if max <= 0 {
		max = DefaultMax
	}
	if jitterRange <= 0 || jitterRange > 1 {
		jitterRange = DefaultJitterRange
	}
	return &Policy{
		base:        base,
		max:         max,
		jitterRange: jitterRange,
		rng:         rng,
	}
}

// Delay returns the backoff before retry number attempt (0-based).
// The result is base*2^attempt capped at max, perturbed by uniform jitter
// in ±jitterRange of the capped value, and floored at Floor.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := p.base
	for i := 0; i < attempt && d < p.max; i++ {
		d *= 2
	}
	if d > p.max {
		d = p.max
	}

	// rng.Float64() is in [0,1); scale to [-jitterRange, +jitterRange)
	jitter := (p.rng.Float64()*2 - 1) * p.jitterRange
	d += time.Duration(float64(d) * jitter)

	if d < Floor {
		d = Floor
	}
	return d
}
