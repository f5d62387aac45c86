package logging

import "log/slog"

// Common field names for consistent logging across services.
const (
	FieldService       = "service"
	FieldDeviceID      = "device_id"
	FieldSequenceID    = "sequence_id"
	FieldCorrelationID = "correlation_id"
	FieldAttempt       = "attempt"
	FieldStatus        = "status"
	FieldDecision      = "decision"
	FieldReason        = "reason"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// DeviceID returns a slog attribute for the device identifier.
func DeviceID(id string) slog.Attr {
	return slog.String(FieldDeviceID, id)
}

// SequenceID returns a slog attribute for the message sequence number.
func SequenceID(seq int64) slog.Attr {
	return slog.Int64(FieldSequenceID, seq)
}

// CorrelationID returns a slog attribute for a correlation identifier.
func CorrelationID(id string) slog.Attr {
	return slog.String(FieldCorrelationID, id)
}

// Attempt returns a slog attribute for a delivery attempt index.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// Status returns a slog attribute for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Decision returns a slog attribute for an ingest decision.
func Decision(d string) slog.Attr {
	return slog.String(FieldDecision, d)
}

// Reason returns a slog attribute explaining a decision.
func Reason(r string) slog.Attr {
	return slog.String(FieldReason, r)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
