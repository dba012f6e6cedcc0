package socotra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Client is the direct transport: it calls the remote API itself, injecting
// bearer authorization and the tenant policy path prefix.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option configures a Client or RelayClient.
type Option func(*clientOpts)

type clientOpts struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used for remote calls. Tests use
// this to point the transport at an httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOpts) {
		o.httpClient = hc
	}
}

// NewClient creates a direct transport from a validated configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		slog.Error("socotra.NewClient: invalid configuration", "error", err)
		return nil, err
	}
	var o clientOpts
	for _, opt := range opts {
		opt(&o)
	}
	hc := o.httpClient
	if hc == nil {
		hc = http.DefaultClient
	}
	slog.Debug("socotra.NewClient: direct transport configured", "apiURL", cfg.APIURL, "tenant", cfg.TenantLocator)
	return &Client{cfg: cfg, httpClient: hc}, nil
}

// Request forwards one call to the remote API and returns the raw JSON body.
// Non-2xx responses come back as *APIError.
func (c *Client) Request(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/policy/%s%s", c.cfg.APIURL, c.cfg.TenantLocator, endpoint)
	slog.Debug("socotra.Client.Request: calling remote API", "method", method, "endpoint", endpoint)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("socotra.Client.Request: transport failure", "method", method, "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("remote call %s %s failed: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, resp.Status, raw)
		slog.Warn("socotra.Client.Request: remote error response", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	slog.Debug("socotra.Client.Request: remote call succeeded", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
	return json.RawMessage(raw), nil
}
