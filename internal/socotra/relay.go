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

// RelayClient is the forwarding transport: every call becomes a POST to a
// same-origin relay endpoint carrying the intended endpoint, method and body.
// The relay holds the credentials, so this transport needs only its URL.
type RelayClient struct {
	relayURL   string
	httpClient *http.Client
}

// relayRequest is the envelope the relay endpoint expects.
type relayRequest struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
	Data     any    `json:"data,omitempty"`
}

// NewRelayClient creates a forwarding transport.
func NewRelayClient(relayURL string, opts ...Option) (*RelayClient, error) {
	if relayURL == "" {
		return nil, &ConfigurationError{Missing: []string{"SOCOTRA_RELAY_URL"}}
	}
	var o clientOpts
	for _, opt := range opts {
		opt(&o)
	}
	hc := o.httpClient
	if hc == nil {
		hc = http.DefaultClient
	}
	slog.Debug("socotra.NewRelayClient: relay transport configured", "relayURL", relayURL)
	return &RelayClient{relayURL: relayURL, httpClient: hc}, nil
}

// Request forwards one call through the relay and returns the raw JSON body.
// The error contract matches the direct client exactly.
func (c *RelayClient) Request(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	slog.Debug("socotra.RelayClient.Request: forwarding through relay", "method", method, "endpoint", endpoint)

	envelope, err := json.Marshal(relayRequest{Endpoint: endpoint, Method: method, Data: body})
	if err != nil {
		return nil, fmt.Errorf("failed to encode relay envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("socotra.RelayClient.Request: transport failure", "method", method, "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("relay call %s %s failed: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read relay response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, resp.Status, raw)
		slog.Warn("socotra.RelayClient.Request: relay error response", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	slog.Debug("socotra.RelayClient.Request: relay call succeeded", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
	return json.RawMessage(raw), nil
}
