package discovery

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"infra-inventory/feature/vmsync/models"

	"go.uber.org/zap"
)

// ErrDiscoveryFailed is wrapped by every error caused by the discovery service
// itself (transport errors, non-2xx statuses, success=false responses).
var ErrDiscoveryFailed = errors.New("discovery failed")

// Source returns the virtual machines currently observed on a hypervisor endpoint.
type Source interface {
	Discover(ctx context.Context, endpoint models.Endpoint) (*models.DiscoveryResult, error)
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the discovery service over HTTP.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
	breaker *Breaker
	logger  *zap.Logger
}

// NewClient creates a discovery client from the configuration.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		//nolint:gosec // opt-in for lab deployments with self-signed discovery services
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout, Transport: transport},
		breaker: NewBreaker("discovery", cfg.BreakerFailureThreshold, time.Duration(cfg.BreakerTimeoutSeconds)*time.Second, logger),
		logger:  logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(doer HTTPDoer) *Client {
	c.http = doer
	return c
}

// Breaker exposes the circuit breaker for status reporting.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// Discover posts the endpoint descriptor to {base_url}/discover and decodes the batch.
func (c *Client) Discover(ctx context.Context, endpoint models.Endpoint) (*models.DiscoveryResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: discovery base url is not configured", ErrDiscoveryFailed)
	}

	var result *models.DiscoveryResult
	err := c.breaker.Execute(func() error {
		var err error
		result, err = c.discover(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) discover(ctx context.Context, endpoint models.Endpoint) (*models.DiscoveryResult, error) {
	body, err := json.Marshal(endpoint)
	if err != nil {
		return nil, fmt.Errorf("encode endpoint: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/discover", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build discovery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: endpoint %s: status %d: %s", ErrDiscoveryFailed, endpoint.Name, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	result, err := decodeResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrDiscoveryFailed, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: endpoint %s reported an unsuccessful discovery", ErrDiscoveryFailed, endpoint.Name)
	}

	c.logger.Debug("Discovery call finished",
		zap.String("endpoint", endpoint.Name),
		zap.Int("records", len(result.Records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
