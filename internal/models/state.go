// Package models defines state management structures for Gemshield flows.
package models

import "time"

// FlowPhase identifies where a session currently sits in the question flow
// state machine.
type FlowPhase string

const (
	// PhaseIdle indicates the session has been created but not started.
	PhaseIdle FlowPhase = "idle"
	// PhasePresenting indicates a question is being rendered to the user.
	PhasePresenting FlowPhase = "presenting"
	// PhaseAwaitingAnswer indicates the engine is waiting for user input.
	PhaseAwaitingAnswer FlowPhase = "awaiting_answer"
	// PhaseAdvancing indicates the cursor is moving past skipped questions.
	PhaseAdvancing FlowPhase = "advancing"
	// PhaseGeneratingQuote indicates the remote quoting workflow is running.
	PhaseGeneratingQuote FlowPhase = "generating_quote"
	// PhaseComplete indicates the flow finished and a result may be available.
	PhaseComplete FlowPhase = "complete"
	// PhaseFailed indicates quote generation failed; answers are preserved.
	PhaseFailed FlowPhase = "failed"
)

// FlowState represents the cursor and status of one session's walk through the
// question sequence. Mutated exclusively by the flow engine.
type FlowState struct {
	SessionID string    `json:"session_id"`
	Phase     FlowPhase `json:"phase"`
	Cursor    int       `json:"cursor"`
	Completed bool      `json:"completed"`
	Loading   bool      `json:"loading"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRecord is the persisted snapshot of a session: the answers collected
// so far, the flow state, and the canonical result once one exists.
type SessionRecord struct {
	ID        string                `json:"id"`
	Record    UserRecord            `json:"record"`
	State     FlowState             `json:"state"`
	Result    *CanonicalQuoteResult `json:"result,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
