// Package model defines the telemetry wire format shared by the device
// fleet, the edge service and the CLI.
package model

import "time"

// TelemetryMessage is one periodic sample from a device. It is an immutable
// value: a duplicate resend carries exactly the same payload, including the
// sequence number, which is what the edge dedup path keys on.
//
// SequenceID is monotonically increasing per device but not required to be
// contiguous (dropped cycles leave gaps).
type TelemetryMessage struct {
	DeviceID    string    `json:"device_id"`
	SequenceID  int64     `json:"sequence_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
}
