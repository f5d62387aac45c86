// Package transport carries telemetry messages to the edge ingest endpoint
// over HTTP. Timeouts and connection failures surface as distinguished
// sentinel errors so the classifier can treat them as transient.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/telhawk-systems/telhawk-edge/common/model"
)

var (
	// ErrTimeout wraps transport-level timeouts.
	ErrTimeout = errors.New("request timed out")
	// ErrConnection wraps connection-level failures (refused, reset, DNS).
	ErrConnection = errors.New("connection failed")
)

// Result is the edge's answer to one delivery attempt. Non-2xx statuses are
// results, not errors; classification happens in the caller.
type Result struct {
	StatusCode    int
	CorrelationID string
}

// Client posts telemetry to the edge ingest endpoint.
type Client struct {
	ingestURL string
	authToken string
	client    *http.Client
}

// New creates a transport client for the given edge base URL. authToken is
// optional; when set it is sent as a bearer token.
func New(baseURL string, timeout time.Duration, authToken string) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		ingestURL: baseURL + "/ingest",
		authToken: authToken,
		client:    &http.Client{Timeout: timeout},
	}
}

// Send delivers one message. A non-nil Result is returned for any response
// the edge produced, regardless of status. A nil Result with an error means
// the message may or may not have arrived.
func (c *Client) Send(ctx context.Context, msg *model.TelemetryMessage) (*Result, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal telemetry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ingestURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	result := &Result{StatusCode: resp.StatusCode}

	// Bodies are informational: the 200 body carries the correlation id,
	// error bodies carry a reason. Decode failures are not delivery failures.
	var payload struct {
		CorrelationID string `json:"correlation_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		result.CorrelationID = payload.CorrelationID
	}

	return result, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	// Caller cancellation is not a network fault.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
