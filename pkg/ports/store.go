package ports

import (
	"context"
	"time"

	"github.com/finagentlabs/finagent/pkg/domain"
)

// RunRecord is the persisted outcome of one run, keyed by conversation id.
// The core never reads these back; persistence is an adapter concern so the
// API layer can replay answers and traces to reconnecting clients.
type RunRecord struct {
	RunID          string                `json:"run_id"`
	ConversationID string                `json:"conversation_id"`
	Query          string                `json:"query"`
	Answer         string                `json:"answer"`
	Citations      []domain.ToolResult   `json:"citations,omitempty"`
	Trace          []domain.ThinkingStep `json:"trace,omitempty"`
	CompletedAt    time.Time             `json:"completed_at"`
}

// TraceStore persists run records per conversation.
type TraceStore interface {
	// Save appends a run record to the conversation's history.
	Save(ctx context.Context, conversationID string, rec *RunRecord) error

	// Load retrieves all run records for a conversation, oldest first.
	// Returns domain.ErrConversationNotFound for unknown ids.
	Load(ctx context.Context, conversationID string) ([]RunRecord, error)

	// Delete removes a conversation's history.
	Delete(ctx context.Context, conversationID string) error
}
