package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pagelens/pagelens/internal/api/dto"
	"github.com/pagelens/pagelens/internal/audit/domain"
)

const (
	defaultInitialInterval = 1 * time.Second
	defaultMaxInterval     = 10 * time.Second
	defaultMaxWait         = 2 * time.Minute
)

// Client talks to the audit service. Polling uses exponential backoff
// with a capped interval and a maximum overall wait, so a stuck audit
// never turns into unbounded request volume.
type Client struct {
	baseURL         string
	http            *http.Client
	initialInterval time.Duration
	maxInterval     time.Duration
	maxWait         time.Duration
}

// Config tunes the poller. Zero values select the defaults.
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxWait         time.Duration
}

// New creates a Client for the service at baseURL.
func New(baseURL string, cfg Config) *Client {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaultInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaultMaxInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}
	return &Client{
		baseURL:         baseURL,
		http:            &http.Client{Timeout: 30 * time.Second},
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		maxWait:         cfg.MaxWait,
	}
}

// Submit posts a URL for auditing and returns the audit id.
func (c *Client) Submit(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(dto.AnalyzeRequest{URL: url})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit audit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("submit audit: status %d: %s", resp.StatusCode, payload)
	}

	var out dto.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	return out.AuditID, nil
}

// Status fetches the current state of one audit.
func (c *Client) Status(ctx context.Context, auditID string) (*dto.StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status/"+auditID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrAuditNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch status: status %d", resp.StatusCode)
	}

	var out dto.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &out, nil
}

// WaitForResult polls until the audit reaches a terminal status.
// Transient server errors are retried within the same backoff budget;
// an unknown id fails immediately.
func (c *Client) WaitForResult(ctx context.Context, auditID string) (*dto.StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()

	interval := c.initialInterval
	for {
		status, err := c.Status(ctx, auditID)
		if err == nil && domain.IsTerminal(status.Status) {
			return status, nil
		}
		if errors.Is(err, domain.ErrAuditNotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("audit %s did not finish within %s: %w", auditID, c.maxWait, ctx.Err())
		case <-time.After(interval):
		}

		interval *= 2
		if interval > c.maxInterval {
			interval = c.maxInterval
		}
	}
}
