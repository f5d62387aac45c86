// Package telemetry generates periodic sensor samples for a simulated
// device.
package telemetry

import (
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/telhawk-systems/telhawk-edge/common/model"
)

// Reading ranges for the simulated environment sensors.
const (
	TemperatureMin = 18.0
	TemperatureMax = 28.0
	HumidityMin    = 30.0
	HumidityMax    = 70.0
	PressureMin    = 980.0
	PressureMax    = 1020.0
)

// Generator produces TelemetryMessages with monotonically increasing
// sequence numbers for one device identity. Not safe for concurrent use.
type Generator struct {
	deviceID string
	seq      int64
	faker    *gofakeit.Faker
}

// NewGenerator creates a generator for deviceID. seed 0 means
// time-based randomness; any other seed is deterministic.
func NewGenerator(deviceID string, seed int64) *Generator {
	return &Generator{
		deviceID: deviceID,
		faker:    gofakeit.New(seed),
	}
}

// Next returns the next sample. Sequence numbers start at 0 and increase by
// one per call; dropped cycles still consume their number, which is why the
// edge must tolerate gaps.
func (g *Generator) Next() *model.TelemetryMessage {
	msg := &model.TelemetryMessage{
		DeviceID:    g.deviceID,
		SequenceID:  g.seq,
		Timestamp:   time.Now().UTC(),
		Temperature: round2(g.faker.Float64Range(TemperatureMin, TemperatureMax)),
		Humidity:    round2(g.faker.Float64Range(HumidityMin, HumidityMax)),
		Pressure:    round2(g.faker.Float64Range(PressureMin, PressureMax)),
	}
	g.seq++
	return msg
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
