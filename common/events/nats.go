package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/telhawk-systems/telhawk-edge/common/logging"
)

// SubjectPrefix is the root subject for protocol events. The event name is
// appended so consumers can subscribe to a single decision kind
// (e.g. "telhawk.edge.protocol.telemetry_accepted") or use a wildcard.
const SubjectPrefix = "telhawk.edge.protocol"

// NATSConfig holds connection settings for the NATS event sink.
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns a Config with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "telhawk-edge-events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NATSSink publishes protocol events to NATS subjects. Publish failures are
// logged and dropped; the protocol path never blocks on the event bus.
type NATSSink struct {
	conn   *nats.Conn
	logger *logging.Logger
}

// NewNATSSink connects to NATS and returns a publishing sink.
func NewNATSSink(cfg NATSConfig, logger *logging.Logger) (*NATSSink, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logging.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSSink{conn: conn, logger: logger}, nil
}

func (s *NATSSink) Emit(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal protocol event", logging.Error(err))
		return
	}

	subject := SubjectPrefix + "." + ev.Name
	if err := s.conn.Publish(subject, data); err != nil {
		s.logger.WarnContext(ctx, "failed to publish protocol event",
			logging.Error(err), logging.Reason(subject))
	}
}

// Close drains the connection, flushing buffered publishes.
func (s *NATSSink) Close() {
	if s.conn != nil {
		_ = s.conn.Drain()
	}
}
