package finagent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/finagentlabs/finagent/internal/logging"
	"github.com/finagentlabs/finagent/internal/orchestrator"
	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/ports"
)

// Version is the release version, overridden at build time via ldflags.
var Version = "dev"

// Agent is the high-level entry point: the run driver that invokes the
// orchestration graph once per user query, in batch or streamed mode.
type Agent struct {
	engine *orchestrator.Engine
	store  ports.TraceStore
	logger *slog.Logger

	reasoner ports.Reasoner
	tools    ports.ToolRegistry
	hooks    domain.LifecycleHooks
	searchN  int
}

// Option defines a functional option for configuring the Agent.
type Option func(*Agent)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithHooks registers observability hooks, invoked for every run.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Agent) { a.hooks = hooks }
}

// WithTraceStore enables persistence of completed runs per conversation.
// The engine itself stays memoryless; records only serve replay.
func WithTraceStore(store ports.TraceStore) Option {
	return func(a *Agent) { a.store = store }
}

// WithSearchResults overrides the direct-retrieval result count.
func WithSearchResults(n int) Option {
	return func(a *Agent) { a.searchN = n }
}

// New creates an Agent over a reasoning client and a tool registry.
func New(reasoner ports.Reasoner, tools ports.ToolRegistry, opts ...Option) *Agent {
	a := &Agent{
		reasoner: reasoner,
		tools:    tools,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	engineOpts := []orchestrator.Option{
		orchestrator.WithLogger(a.logger),
		orchestrator.WithHooks(a.hooks),
	}
	if a.searchN > 0 {
		engineOpts = append(engineOpts, orchestrator.WithSearchResults(a.searchN))
	}
	a.engine = orchestrator.NewEngine(reasoner, tools, engineOpts...)
	return a
}

// Result is the outcome of one batch run.
type Result struct {
	RunID          string                `json:"run_id"`
	ConversationID string                `json:"conversation_id,omitempty"`
	Answer         string                `json:"answer"`
	Citations      []domain.ToolResult   `json:"citations,omitempty"`
	ThinkingTrace  []domain.ThinkingStep `json:"thinking_trace,omitempty"`
	// Degraded marks an answer produced after a reasoning-client failure
	// aborted the run early.
	Degraded bool `json:"degraded,omitempty"`
}

// Run executes one query to completion. A reasoning-client failure does not
// surface as an error: the result degrades to an apologetic answer and keeps
// the trace entries recorded before the failure. Only context cancellation
// returns an error.
func (a *Agent) Run(ctx context.Context, query, conversationID string) (*Result, error) {
	state, err := a.engine.Run(ctx, query, conversationID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, domain.ErrReasonerUnavailable) {
			return nil, err
		}
		a.logger.Warn("degrading run after reasoner failure", "run_id", state.RunID, "err", err)
		state.FinalAnswer = orchestrator.DegradedAnswer()
		result := a.result(state)
		result.Degraded = true
		return result, nil
	}

	result := a.result(state)
	a.persist(ctx, state.Query, result)
	return result, nil
}

// RunStream executes one query, emitting a NodeEvent per completed node.
// Events arrive strictly in node execution order; the error channel carries
// at most one reasoner failure. Consumers accumulate the final state.
func (a *Agent) RunStream(ctx context.Context, query, conversationID string) (<-chan domain.NodeEvent, <-chan error) {
	return a.engine.RunStream(ctx, query, conversationID)
}

// History returns previously persisted runs for a conversation, oldest
// first. Requires a trace store.
func (a *Agent) History(ctx context.Context, conversationID string) ([]ports.RunRecord, error) {
	if a.store == nil {
		return nil, domain.ErrConversationNotFound
	}
	return a.store.Load(ctx, conversationID)
}

// Tools exposes the registry, for adapters that surface the palette.
func (a *Agent) Tools() ports.ToolRegistry {
	return a.tools
}

func (a *Agent) result(state *domain.RunState) *Result {
	return &Result{
		RunID:          state.RunID,
		ConversationID: state.ConversationID,
		Answer:         state.FinalAnswer,
		Citations:      state.Citations(),
		ThinkingTrace:  state.ThinkingTrace,
	}
}

func (a *Agent) persist(ctx context.Context, query string, result *Result) {
	if a.store == nil || result.ConversationID == "" {
		return
	}
	rec := &ports.RunRecord{
		RunID:          result.RunID,
		ConversationID: result.ConversationID,
		Query:          query,
		Answer:         result.Answer,
		Citations:      result.Citations,
		Trace:          result.ThinkingTrace,
		CompletedAt:    time.Now().UTC(),
	}
	if err := a.store.Save(ctx, result.ConversationID, rec); err != nil {
		// Persistence is replay convenience, not run correctness.
		a.logger.Warn("failed to persist run record", "run_id", result.RunID, "err", err)
	}
}

// DegradedAnswer is re-exported for adapters that must degrade streamed
// runs at their own boundary.
func DegradedAnswer() string {
	return orchestrator.DegradedAnswer()
}
