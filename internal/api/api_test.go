package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/store"
	"github.com/gemshield/gemshield/internal/testutil"
)

// blockingGenerator holds the quoting workflow open until released so tests
// can observe the session mid-generation.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *blockingGenerator) GenerateQuote(_ context.Context, rec models.UserRecord) (*models.CanonicalQuoteResult, error) {
	close(g.started)
	<-g.release
	return &models.CanonicalQuoteResult{QuoteLocator: "qt-blocked", TotalValue: rec.TotalValue()}, nil
}

func (g *blockingGenerator) Issue(_ context.Context, _ string) (*models.IssueResult, error) {
	return &models.IssueResult{PolicyLocator: "pol-blocked"}, nil
}

func startSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions", nil))
	testutil.AssertHTTPStatus(t, http.StatusCreated, rr.Code, "create session")
	resp := testutil.AssertJSONResponse(t, rr, "ok")

	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing result in create response: %v", resp)
	}
	id, _ := result["session_id"].(string)
	if id == "" {
		t.Fatal("create response missing session_id")
	}
	return id
}

func TestCreateSessionPresentsFirstQuestion(t *testing.T) {
	handler := testutil.NewTestServer().Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions", nil))
	testutil.AssertHTTPStatus(t, http.StatusCreated, rr.Code, "create session")
	resp := testutil.AssertJSONResponse(t, rr, "ok")

	result := resp["result"].(map[string]interface{})
	state := result["state"].(map[string]interface{})
	if state["phase"] != "awaiting_answer" {
		t.Errorf("expected awaiting_answer after start, got %v", state["phase"])
	}
	prompt, ok := result["prompt"].(map[string]interface{})
	if !ok {
		t.Fatal("expected a prompt in create response")
	}
	if prompt["id"] != "zip_code" {
		t.Errorf("expected first input question zip_code, got %v", prompt["id"])
	}
	transcript, ok := result["transcript"].([]interface{})
	if !ok || len(transcript) == 0 {
		t.Error("expected welcome message in transcript")
	}
}

func TestCreateSessionMethodNotAllowed(t *testing.T) {
	handler := testutil.NewTestServer().Handler()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "GET", "/sessions", nil))
	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "create session with GET")
}

func TestAnswerAdvancesFlow(t *testing.T) {
	handler := testutil.NewTestServer().Handler()
	id := startSession(t, handler)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/answer", map[string]any{"value": "10001"}))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "submit zip code")
	resp := testutil.AssertJSONResponse(t, rr, "ok")

	result := resp["result"].(map[string]interface{})
	prompt := result["prompt"].(map[string]interface{})
	if prompt["id"] != "has_multiple_items" {
		t.Errorf("expected has_multiple_items after zip, got %v", prompt["id"])
	}
}

func TestAnswerRejectionKeepsQuestion(t *testing.T) {
	handler := testutil.NewTestServer().Handler()
	id := startSession(t, handler)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/answer", map[string]any{"value": "not-a-zip"}))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "submit invalid zip")
	resp := testutil.AssertJSONResponse(t, rr, "rejected")

	if resp["message"] == "" {
		t.Error("expected a rejection reason")
	}
	result := resp["result"].(map[string]interface{})
	prompt := result["prompt"].(map[string]interface{})
	if prompt["id"] != "zip_code" {
		t.Errorf("expected zip_code re-presented, got %v", prompt["id"])
	}
}

func TestAnswerInvalidJSON(t *testing.T) {
	handler := testutil.NewTestServer().Handler()
	id := startSession(t, handler)

	req := httptest.NewRequest("POST", "/sessions/"+id+"/answer", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "empty answer body")
}

func TestSessionNotFound(t *testing.T) {
	handler := testutil.NewTestServer().Handler()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "GET", "/sessions/sess_missing/status", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "unknown session")
	testutil.AssertJSONResponse(t, rr, "error")
}

func TestResultBeforeCompletion(t *testing.T) {
	handler := testutil.NewTestServer().Handler()
	id := startSession(t, handler)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "GET", "/sessions/"+id+"/result", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "result before completion")
}

func TestIssueWithoutQuote(t *testing.T) {
	handler := testutil.NewTestServer().Handler()
	id := startSession(t, handler)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/issue", nil))
	testutil.AssertHTTPStatus(t, http.StatusConflict, rr.Code, "issue before quote")
}

func TestResetSession(t *testing.T) {
	handler := testutil.NewTestServer().Handler()
	id := startSession(t, handler)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "DELETE", "/sessions/"+id, nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "reset session")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "GET", "/sessions/"+id+"/status", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "status after reset")
}

func TestFullQuestionnaireOverHTTP(t *testing.T) {
	handler := testutil.NewTestServerWith(store.NewInMemoryStore(), &testutil.StubQuoteGenerator{}).Handler()
	id := startSession(t, handler)

	answers := []any{
		"10001",           // zip_code
		"No",              // has_multiple_items
		"Engagement Ring", // single_item_type
		"15000",           // single_item_value
		"skip",            // image_upload
		"standard",        // coverage_tier
		"Ada",             // owner_first_name
		"Lovelace",        // owner_last_name
		"ada@example.com", // owner_email
		"+12125551234",    // owner_phone
	}

	var last map[string]interface{}
	for _, answer := range answers {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/answer", map[string]any{"value": answer}))
		testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, fmt.Sprintf("answer %v", answer))
		last = testutil.AssertJSONResponse(t, rr, "ok")
	}

	state := last["result"].(map[string]interface{})["state"].(map[string]interface{})
	if state["phase"] != "complete" {
		t.Fatalf("expected complete flow, got phase %v", state["phase"])
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "GET", "/sessions/"+id+"/result", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "fetch result")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	result := resp["result"].(map[string]interface{})
	if result["quote_locator"] != "qt-test" {
		t.Errorf("expected stubbed quote locator, got %v", result["quote_locator"])
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/issue", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "issue policy")
}

func TestAnswerDuringGenerationReturnsCurrentState(t *testing.T) {
	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	handler := testutil.NewTestServerWith(store.NewInMemoryStore(), gen).Handler()
	id := startSession(t, handler)

	answers := []any{"10001", "No", "Engagement Ring", "15000", "skip", "standard", "Ada", "Lovelace", "ada@example.com", "+12125551234"}
	for _, answer := range answers[:len(answers)-1] {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/answer", map[string]any{"value": answer}))
		testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, fmt.Sprintf("answer %v", answer))
	}

	triggerReq := testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/answer", map[string]any{"value": answers[len(answers)-1]})
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(httptest.NewRecorder(), triggerReq)
	}()
	<-gen.started

	// The concurrent submission is dropped, not queued and not an error; the
	// caller just sees the session still generating.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/answer", map[string]any{"value": "anything"}))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "answer during generation")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	state := resp["result"].(map[string]interface{})["state"].(map[string]interface{})
	if state["phase"] != string(models.PhaseGeneratingQuote) {
		t.Errorf("expected generating_quote while blocked, got %v", state["phase"])
	}

	close(gen.release)
	<-done

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "GET", "/sessions/"+id+"/result", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "result after release")
}

func TestFailedGenerationSurfacesError(t *testing.T) {
	gen := &testutil.StubQuoteGenerator{Err: errors.New("remote unavailable")}
	handler := testutil.NewTestServerWith(store.NewInMemoryStore(), gen).Handler()
	id := startSession(t, handler)

	answers := []any{"10001", "No", "Engagement Ring", "15000", "skip", "standard", "Ada", "Lovelace", "ada@example.com", "+12125551234"}
	for _, answer := range answers {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "POST", "/sessions/"+id+"/answer", map[string]any{"value": answer}))
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "GET", "/sessions/"+id+"/status", nil))
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	state := resp["result"].(map[string]interface{})
	if state["phase"] != string(models.PhaseFailed) {
		t.Fatalf("expected failed phase, got %v", state["phase"])
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, "GET", "/sessions/"+id+"/result", nil))
	testutil.AssertHTTPStatus(t, http.StatusBadGateway, rr.Code, "result after failed generation")
}
