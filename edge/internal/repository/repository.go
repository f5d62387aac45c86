// Package repository persists accepted telemetry readings. Dedup state is
// deliberately not persisted here; only payloads that passed the full
// ingest decision are stored.
package repository

import (
	"context"
	"time"
)

// Reading is one accepted telemetry sample with its ingest correlation id.
type Reading struct {
	DeviceID      string
	SequenceID    int64
	Timestamp     time.Time
	Temperature   float64
	Humidity      float64
	Pressure      float64
	CorrelationID string
	AcceptedAt    time.Time
}

// Store writes accepted readings.
type Store interface {
	SaveReading(ctx context.Context, r *Reading) error
	Close()
}
