// Package client is a thin HTTP client for the edge ingest API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/telhawk-systems/telhawk-edge/common/model"
)

// Client talks to a single edge instance.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// IngestResult is the edge's answer to one delivery.
type IngestResult struct {
	StatusCode    int    `json:"status_code"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
}

// HealthStatus is the body of the health and readiness endpoints.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Ingest delivers one telemetry message. All protocol outcomes (accepted,
// duplicate, invalid, overloaded) come back as an IngestResult; the error
// covers transport failures only.
func (c *Client) Ingest(msg *model.TelemetryMessage) (*IngestResult, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/ingest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := IngestResult{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ingest response (status %d): %w", resp.StatusCode, err)
	}

	return &result, nil
}

// Health queries the liveness endpoint.
func (c *Client) Health() (*HealthStatus, error) {
	return c.getStatus("/healthz")
}

// Ready queries the readiness endpoint.
func (c *Client) Ready() (*HealthStatus, error) {
	return c.getStatus("/readyz")
}

func (c *Client) getStatus(path string) (*HealthStatus, error) {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s answered status %d", path, resp.StatusCode)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}
