package flow

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/userdata"
	"github.com/gemshield/gemshield/internal/validate"
)

// QuoteGenerator is the orchestration boundary consumed by the flow engine.
type QuoteGenerator interface {
	// GenerateQuote runs the remote quoting workflow for the collected record.
	GenerateQuote(ctx context.Context, rec models.UserRecord) (*models.CanonicalQuoteResult, error)
	// Issue converts a previously generated quote into a bound policy.
	Issue(ctx context.Context, quoteLocator string) (*models.IssueResult, error)
}

// Saver persists session snapshots; satisfied by store.Store.
type Saver interface {
	SaveSession(rec models.SessionRecord) error
}

// PromptView is the UI-facing rendering of the current question.
type PromptView struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Prompt  string   `json:"prompt"`
	Input   string   `json:"input,omitempty"`
	Options []string `json:"options,omitempty"`
}

// TranscriptEntry is one rendered bot message, kept so the UI can replay
// messages that auto-advanced past.
type TranscriptEntry struct {
	QuestionID string    `json:"question_id"`
	Message    string    `json:"message"`
	Time       time.Time `json:"time"`
}

// SubmitOutcome describes what happened to one submitted answer.
type SubmitOutcome struct {
	Dropped   bool             `json:"dropped,omitempty"`   // a concurrent advance was in flight; the answer was discarded
	Rejection *validate.Result `json:"rejection,omitempty"` // validator rejection; the question is re-presented
	State     models.FlowState `json:"state"`
}

// Session owns one user's walk through the question sequence. All state
// mutation happens under the session mutex; the busy flag guarantees at most
// one advance in flight, with re-entrant requests dropped rather than queued.
type Session struct {
	id        string
	questions []Question
	gen       QuoteGenerator
	saver     Saver

	busy atomic.Bool

	mu         sync.Mutex
	record     models.UserRecord
	state      models.FlowState
	result     *models.CanonicalQuoteResult
	transcript []TranscriptEntry
}

// NewSession creates a session in the Idle phase. It does not present
// anything until Start is called.
func NewSession(id string, questions []Question, gen QuoteGenerator, saver Saver) *Session {
	now := time.Now()
	return &Session{
		id:        id,
		questions: questions,
		gen:       gen,
		saver:     saver,
		state: models.FlowState{
			SessionID: id,
			Phase:     models.PhaseIdle,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// ID returns the session locator.
func (s *Session) ID() string {
	return s.id
}

// Start presents the first visible question. Calling Start on an already
// started session is a no-op.
func (s *Session) Start(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		slog.Debug("Session.Start: advance already in flight, dropping", "sessionID", s.id)
		return
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != models.PhaseIdle {
		slog.Debug("Session.Start: session already started", "sessionID", s.id, "phase", s.state.Phase)
		return
	}
	slog.Info("Session.Start: starting flow", "sessionID", s.id, "questions", len(s.questions))
	s.advanceLocked(ctx)
	s.persistLocked()
}

// CurrentPrompt returns the question awaiting input, or nil when the session
// is complete, failed, or still generating.
func (s *Session) CurrentPrompt() *PromptView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != models.PhaseAwaitingAnswer {
		return nil
	}
	q := s.questions[s.state.Cursor]
	return &PromptView{
		ID:      q.ID,
		Kind:    string(q.Kind),
		Prompt:  q.RenderPrompt(s.record),
		Input:   string(q.Input),
		Options: q.Options,
	}
}

// Status returns a copy of the session's flow state.
func (s *Session) Status() models.FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record returns the latest answer snapshot.
func (s *Session) Record() models.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// Transcript returns the bot messages rendered so far.
func (s *Session) Transcript() []TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Result returns the canonical quote result, or nil before completion.
func (s *Session) Result() *models.CanonicalQuoteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SubmitAnswer validates and commits an answer for the question currently
// awaiting input, then advances the cursor. A submission while another
// advance is in flight is dropped, not queued.
func (s *Session) SubmitAnswer(ctx context.Context, value any) (SubmitOutcome, error) {
	if !s.busy.CompareAndSwap(false, true) {
		slog.Debug("Session.SubmitAnswer: advance already in flight, dropping", "sessionID", s.id)
		return SubmitOutcome{Dropped: true, State: s.Status()}, nil
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	if s.state.Phase != models.PhaseAwaitingAnswer {
		state := s.state
		s.mu.Unlock()
		slog.Warn("Session.SubmitAnswer: no question awaiting answer", "sessionID", s.id, "phase", state.Phase)
		if state.Completed {
			return SubmitOutcome{State: state}, models.ErrFlowComplete
		}
		return SubmitOutcome{State: state}, models.ErrNotAwaiting
	}

	q := s.questions[s.state.Cursor]

	// Validation rejections are recovered locally: same question, new reason.
	if res := validate.Check(q.Validator, value); !res.Accepted {
		state := s.state
		s.mu.Unlock()
		slog.Debug("Session.SubmitAnswer: answer rejected", "sessionID", s.id, "question", q.ID, "reason", res.Reason)
		return SubmitOutcome{Rejection: &res, State: state}, nil
	}

	// Commit through the resolver; conditions downstream see this snapshot.
	if q.Field != "" {
		s.record = userdata.Apply(s.record, q.Field, value)
	}
	s.state.Cursor++
	s.state.Phase = models.PhaseAdvancing
	s.state.UpdatedAt = time.Now()
	slog.Debug("Session.SubmitAnswer: answer committed", "sessionID", s.id, "question", q.ID, "cursor", s.state.Cursor)

	s.advanceLocked(ctx)
	s.persistLocked()
	outcome := SubmitOutcome{State: s.state}
	s.mu.Unlock()
	return outcome, nil
}

// advanceLocked moves the cursor forward until it lands on a visible question
// needing input, triggers quote generation, or passes the end of the
// sequence. The loop is bounded by the sequence length so a buggy condition
// cannot spin forever. Caller holds s.mu.
func (s *Session) advanceLocked(ctx context.Context) {
	for steps := 0; steps <= len(s.questions); steps++ {
		if s.state.Cursor >= len(s.questions) {
			s.state.Phase = models.PhaseComplete
			s.state.Completed = true
			s.state.UpdatedAt = time.Now()
			slog.Info("Session.advance: sequence exhausted, flow complete", "sessionID", s.id)
			return
		}

		q := s.questions[s.state.Cursor]
		if !q.Visible(s.record) {
			slog.Debug("Session.advance: condition false, skipping", "sessionID", s.id, "question", q.ID)
			s.state.Cursor++
			continue
		}

		if q.NeedsInput() {
			s.state.Phase = models.PhaseAwaitingAnswer
			s.state.UpdatedAt = time.Now()
			slog.Debug("Session.advance: presenting question", "sessionID", s.id, "question", q.ID, "cursor", s.state.Cursor)
			return
		}

		// Message questions render, then either trigger the quote or fall
		// through to the next index without waiting for input.
		s.state.Phase = models.PhasePresenting
		s.appendTranscriptLocked(q)
		if q.TriggerQuote {
			s.generateQuoteLocked(ctx)
			return
		}
		s.state.Cursor++
	}

	// Only reachable if every remaining question was skipped.
	s.state.Phase = models.PhaseComplete
	s.state.Completed = true
	s.state.UpdatedAt = time.Now()
}

func (s *Session) appendTranscriptLocked(q Question) {
	msg := q.RenderPrompt(s.record)
	s.transcript = append(s.transcript, TranscriptEntry{
		QuestionID: q.ID,
		Message:    msg,
		Time:       time.Now(),
	})
	slog.Debug("Session.advance: rendered message", "sessionID", s.id, "question", q.ID)
}

// generateQuoteLocked runs the remote workflow. The session mutex is released
// for the duration of the remote calls so status reads stay responsive; the
// busy flag still excludes concurrent advances. Caller holds s.mu.
func (s *Session) generateQuoteLocked(ctx context.Context) {
	s.state.Phase = models.PhaseGeneratingQuote
	s.state.Loading = true
	s.state.UpdatedAt = time.Now()
	snapshot := s.record.Clone()
	s.persistLocked()
	s.mu.Unlock()

	slog.Info("Session.generateQuote: invoking orchestrator", "sessionID", s.id, "totalValue", snapshot.TotalValue())
	result, err := s.gen.GenerateQuote(ctx, snapshot)

	s.mu.Lock()
	s.state.Loading = false
	s.state.UpdatedAt = time.Now()
	if err != nil {
		s.state.Phase = models.PhaseFailed
		s.state.LastError = err.Error()
		slog.Error("Session.generateQuote: orchestration failed", "sessionID", s.id, "error", err)
		return
	}
	s.result = result
	s.state.Phase = models.PhaseComplete
	s.state.Completed = true
	s.state.LastError = ""
	slog.Info("Session.generateQuote: quote ready", "sessionID", s.id, "quoteLocator", result.QuoteLocator)
}

// Issue converts the session's generated quote into a bound policy.
func (s *Session) Issue(ctx context.Context) (*models.IssueResult, error) {
	s.mu.Lock()
	result := s.result
	generating := s.state.Phase == models.PhaseGeneratingQuote
	s.mu.Unlock()
	if generating {
		return nil, models.ErrQuoteInFlight
	}
	if result == nil {
		return nil, models.ErrNoQuoteResult
	}
	slog.Info("Session.Issue: issuing quote", "sessionID", s.id, "quoteLocator", result.QuoteLocator)
	return s.gen.Issue(ctx, result.QuoteLocator)
}

// Snapshot builds the persistable view of the session.
func (s *Session) Snapshot() models.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() models.SessionRecord {
	return models.SessionRecord{
		ID:        s.id,
		Record:    s.record.Clone(),
		State:     s.state,
		Result:    s.result,
		CreatedAt: s.state.CreatedAt,
		UpdatedAt: s.state.UpdatedAt,
	}
}

// persistLocked saves the current snapshot; persistence failures are logged,
// not surfaced, because the in-memory session remains authoritative for the
// life of the process. Caller holds s.mu.
func (s *Session) persistLocked() {
	if s.saver == nil {
		return
	}
	if err := s.saver.SaveSession(s.snapshotLocked()); err != nil {
		slog.Error("Session.persist: failed to save session", "sessionID", s.id, "error", err)
	}
}

// restore rehydrates a session from a persisted record. A record persisted
// mid-generation means the process died before the remote workflow finished;
// the in-flight call is gone, so the session is moved to the failed phase with
// the collected answers intact instead of waiting on a call that will never
// return.
func restore(rec models.SessionRecord, questions []Question, gen QuoteGenerator, saver Saver) *Session {
	state := rec.State
	if state.Phase == models.PhaseGeneratingQuote {
		slog.Warn("Session.restore: quote generation interrupted by restart, marking failed", "sessionID", rec.ID)
		state.Phase = models.PhaseFailed
		state.Loading = false
		state.LastError = "quote generation was interrupted by a restart; reset the session to retry"
		state.UpdatedAt = time.Now()
	}
	return &Session{
		id:        rec.ID,
		questions: questions,
		gen:       gen,
		saver:     saver,
		record:    rec.Record.Clone(),
		state:     state,
		result:    rec.Result,
	}
}
