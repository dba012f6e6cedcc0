// Package testutil provides common test utilities and helpers for Gemshield tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gemshield/gemshield/internal/api"
	"github.com/gemshield/gemshield/internal/flow"
	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/store"
)

// StubQuoteGenerator returns canned results instead of driving the remote
// quoting workflow.
type StubQuoteGenerator struct {
	Result      *models.CanonicalQuoteResult
	IssueResult *models.IssueResult
	Err         error
}

func (g *StubQuoteGenerator) GenerateQuote(_ context.Context, rec models.UserRecord) (*models.CanonicalQuoteResult, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	if g.Result != nil {
		return g.Result, nil
	}
	return &models.CanonicalQuoteResult{
		QuoteLocator:   "qt-test",
		AccountLocator: "acc-test",
		MonthlyPremium: 13,
		AnnualPremium:  150,
		TotalValue:     rec.TotalValue(),
	}, nil
}

func (g *StubQuoteGenerator) Issue(_ context.Context, quoteLocator string) (*models.IssueResult, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	if g.IssueResult != nil {
		return g.IssueResult, nil
	}
	return &models.IssueResult{PolicyLocator: "pol-test"}, nil
}

// NewTestServer creates a test API server with in-memory dependencies.
// This centralizes the test server creation logic used across multiple test files.
func NewTestServer() *api.Server {
	manager := flow.NewManager(store.NewInMemoryStore(), &StubQuoteGenerator{})
	return api.NewServer(manager)
}

// NewTestServerWith creates a test API server over a specific generator and store.
func NewTestServerWith(st store.Store, gen flow.QuoteGenerator) *api.Server {
	return api.NewServer(flow.NewManager(st, gen))
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}
