package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Classification is the query difficulty label produced by the classifier node.
type Classification string

const (
	// ClassificationUnset means the classifier has not run yet.
	ClassificationUnset Classification = ""
	// ClassificationSimple routes to single-shot retrieval.
	ClassificationSimple Classification = "simple"
	// ClassificationComplex routes to planning and stepwise execution.
	ClassificationComplex Classification = "complex"
)

// RunState is the single mutable object threaded through the orchestration
// graph for one query's lifetime. It is owned exclusively by one run and is
// never shared across concurrent runs, so it carries no locking.
type RunState struct {
	// RunID correlates log lines, events and persisted traces for one run.
	RunID string `json:"run_id"`

	// ConversationID is an opaque correlation id supplied by the caller.
	// It never influences routing.
	ConversationID string `json:"conversation_id,omitempty"`

	// Query is immutable after construction.
	Query string `json:"query"`

	// Classification is set exactly once by the classifier node.
	Classification Classification `json:"classification,omitempty"`

	// PlanSteps is populated once by the planner and only read afterwards.
	PlanSteps []string `json:"plan_steps,omitempty"`

	// CurrentStep is the cursor into PlanSteps. Invariant:
	// 0 <= CurrentStep <= len(PlanSteps).
	CurrentStep int `json:"current_step"`

	// ToolResults accumulates one entry per tool invocation, in execution
	// order. This order is the citation order used by synthesis.
	ToolResults []ToolResult `json:"tool_results,omitempty"`

	// FinalAnswer is set exactly once, by the synthesis node.
	FinalAnswer string `json:"final_answer,omitempty"`

	// ThinkingTrace is the append-only observability log. Control logic
	// never reads it; it only surfaces to the caller.
	ThinkingTrace []ThinkingStep `json:"thinking_trace,omitempty"`

	// StartedAt records run creation time.
	StartedAt time.Time `json:"started_at"`
}

// ThinkingStep is one human-readable progress entry in the trace.
type ThinkingStep struct {
	Step        string `json:"step"`
	Description string `json:"description"`
	Detail      any    `json:"detail,omitempty"`
}

// NewRunState creates a fresh state for a single query.
func NewRunState(query, conversationID string) *RunState {
	return &RunState{
		RunID:          ulid.MustNew(ulid.Now(), rand.Reader).String(),
		ConversationID: conversationID,
		Query:          query,
		StartedAt:      time.Now().UTC(),
	}
}

// Think appends a trace entry. Every node records at least one.
func (s *RunState) Think(step, description string, detail any) {
	s.ThinkingTrace = append(s.ThinkingTrace, ThinkingStep{
		Step:        step,
		Description: description,
		Detail:      detail,
	})
}

// Citations returns the evidence entries in the order synthesis saw them.
func (s *RunState) Citations() []ToolResult {
	return s.ToolResults
}
