package socotra

import (
	"context"
	"encoding/json"
	"fmt"
)

// Gateway is the request relay consumed by the quote orchestrator. Endpoint
// paths are tenant-relative (e.g. "/accounts/list"); the transport is
// responsible for authorization and path prefixing.
type Gateway interface {
	Request(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error)
}

// APIError normalizes a non-2xx or non-JSON remote response into a single
// error shape the orchestrator can inspect.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed (%d): %s", e.Status, e.Message)
}

// errorBody is the error payload shape the remote system usually returns.
type errorBody struct {
	Message string `json:"message"`
	Err     string `json:"error"`
}

// newAPIError extracts a human-readable message from a raw error body,
// falling back to the raw text when it is not JSON.
func newAPIError(status int, statusText string, raw []byte) *APIError {
	msg := statusText
	var parsed errorBody
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			msg = parsed.Message
		} else if parsed.Err != "" {
			msg = parsed.Err
		}
	} else if len(raw) > 0 {
		msg = string(raw)
	}
	return &APIError{Status: status, Message: msg, Details: string(raw)}
}
