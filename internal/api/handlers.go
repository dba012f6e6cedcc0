// Package api provides HTTP handlers for Gemshield endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gemshield/gemshield/internal/flow"
	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/quote"
)

// sessionView is the composite payload returned by session-producing
// endpoints: the flow state plus whatever the UI needs to render next.
type sessionView struct {
	SessionID  string                 `json:"session_id"`
	State      models.FlowState       `json:"state"`
	Prompt     *flow.PromptView       `json:"prompt,omitempty"`
	Transcript []flow.TranscriptEntry `json:"transcript,omitempty"`
}

func viewOf(sess *flow.Session) sessionView {
	return sessionView{
		SessionID:  sess.ID(),
		State:      sess.Status(),
		Prompt:     sess.CurrentPrompt(),
		Transcript: sess.Transcript(),
	}
}

// createSessionHandler handles POST /sessions
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.createSessionHandler: processing request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.createSessionHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess := s.manager.Start(r.Context())
	writeJSONResponse(w, http.StatusCreated, models.Success(viewOf(sess)))
}

// sessionHandler routes /sessions/{id} and /sessions/{id}/{action}.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session ID required"))
		return
	}
	id := parts[0]

	sess, err := s.manager.Get(id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		slog.Error("Server.sessionHandler: session lookup failed", "sessionID", id, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			w.Header().Set("Allow", http.MethodDelete)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.resetSessionHandler(w, r, id)
		return
	}

	switch parts[1] {
	case "prompt":
		s.promptHandler(w, r, sess)
	case "answer":
		s.answerHandler(w, r, sess)
	case "status":
		s.statusHandler(w, r, sess)
	case "result":
		s.resultHandler(w, r, sess)
	case "issue":
		s.issueHandler(w, r, sess)
	default:
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session endpoint"))
	}
}

// promptHandler handles GET /sessions/{id}/prompt
func (s *Server) promptHandler(w http.ResponseWriter, r *http.Request, sess *flow.Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(viewOf(sess)))
}

// answerHandler handles POST /sessions/{id}/answer
func (s *Server) answerHandler(w http.ResponseWriter, r *http.Request, sess *flow.Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.answerHandler: failed to decode JSON", "sessionID", sess.ID(), "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	outcome, err := sess.SubmitAnswer(r.Context(), req.Value)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrFlowComplete):
			writeJSONResponse(w, http.StatusConflict, models.Error("Flow already complete"))
		case errors.Is(err, models.ErrNotAwaiting):
			writeJSONResponse(w, http.StatusConflict, models.Error("No question awaiting an answer"))
		default:
			slog.Error("Server.answerHandler: submit failed", "sessionID", sess.ID(), "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process answer"))
		}
		return
	}

	// A submission dropped by the busy flag is not an error to the caller;
	// the current state is returned and the client simply re-renders it.
	if outcome.Dropped {
		writeJSONResponse(w, http.StatusOK, models.Success(viewOf(sess)))
		return
	}
	if outcome.Rejection != nil {
		resp := models.NewAPIResponseBuilder().
			WithStatus(models.APIStatusRejected).
			WithMessage(outcome.Rejection.Reason).
			WithResult(viewOf(sess)).
			Build()
		writeJSONResponse(w, http.StatusOK, resp)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(viewOf(sess)))
}

// statusHandler handles GET /sessions/{id}/status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request, sess *flow.Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess.Status()))
}

// resultHandler handles GET /sessions/{id}/result
func (s *Server) resultHandler(w http.ResponseWriter, r *http.Request, sess *flow.Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	result := sess.Result()
	if result == nil {
		state := sess.Status()
		if state.Phase == models.PhaseFailed {
			writeJSONResponse(w, http.StatusBadGateway, models.Error("Quote generation failed: "+state.LastError))
			return
		}
		writeJSONResponse(w, http.StatusNotFound, models.Error("Quote not generated yet"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// issueHandler handles POST /sessions/{id}/issue
func (s *Server) issueHandler(w http.ResponseWriter, r *http.Request, sess *flow.Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	result, err := sess.Issue(r.Context())
	if err != nil {
		var vErr *quote.ValidationFailedError
		switch {
		case errors.Is(err, models.ErrNoQuoteResult):
			writeJSONResponse(w, http.StatusConflict, models.Error("No quote available to issue"))
		case errors.Is(err, models.ErrQuoteInFlight):
			writeJSONResponse(w, http.StatusConflict, models.Error("Quote generation in progress"))
		case errors.As(err, &vErr):
			resp := models.NewAPIResponseBuilder().
				WithStatus(models.APIStatusRejected).
				WithMessage("Remote validation failed").
				WithResult(vErr.Issues).
				Build()
			writeJSONResponse(w, http.StatusUnprocessableEntity, resp)
		default:
			slog.Error("Server.issueHandler: issue failed", "sessionID", sess.ID(), "error", err)
			writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to issue policy"))
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Policy issued", result))
}

// resetSessionHandler handles DELETE /sessions/{id}
func (s *Server) resetSessionHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.manager.Reset(id); err != nil {
		slog.Error("Server.resetSessionHandler: reset failed", "sessionID", id, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to reset session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session reset", nil))
}
