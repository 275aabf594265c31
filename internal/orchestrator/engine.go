package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finagentlabs/finagent/internal/logging"
	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/ports"
)

const defaultSearchResults = 5

// Engine drives the five-node orchestration graph for one query at a time.
// It holds no per-run state; concurrent runs each own their RunState and may
// share one Engine, provided the reasoner and registry are concurrency-safe.
type Engine struct {
	reasoner ports.Reasoner
	tools    ports.ToolRegistry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	searchN  int
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithSearchResults overrides the default result count for the direct
// retrieval path.
func WithSearchResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.searchN = n
		}
	}
}

// NewEngine creates an engine over the given reasoner and tool registry.
func NewEngine(reasoner ports.Reasoner, tools ports.ToolRegistry, opts ...Option) *Engine {
	e := &Engine{
		reasoner: reasoner,
		tools:    tools,
		logger:   logging.NewNop(),
		searchN:  defaultSearchResults,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the graph to completion and returns the final state.
// The returned error is non-nil only for reasoning-client failures (or
// context cancellation); the partial state, including any trace entries
// already recorded, is returned alongside it for diagnostics.
func (e *Engine) Run(ctx context.Context, query, conversationID string) (*domain.RunState, error) {
	state := domain.NewRunState(query, conversationID)
	err := e.drive(ctx, state, nil)
	return state, err
}

// RunStream executes the graph, emitting one NodeEvent per completed node on
// the returned channel, in node execution order. The event channel closes
// after the node that sets the final answer; a reasoner failure is delivered
// on the error channel instead. The returned sequence is finite and
// non-restartable.
func (e *Engine) RunStream(ctx context.Context, query, conversationID string) (<-chan domain.NodeEvent, <-chan error) {
	events := make(chan domain.NodeEvent)
	errs := make(chan error, 1)

	state := domain.NewRunState(query, conversationID)
	go func() {
		defer close(events)
		defer close(errs)

		emit := func(ev domain.NodeEvent) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := e.drive(ctx, state, emit); err != nil {
			errs <- err
		}
	}()
	return events, errs
}

// drive is the single-path dispatch loop. Each iteration executes the
// current node, emits its delta, then evaluates the transition function.
// The only revisited node is execute_step, which strictly increments the
// cursor, so the loop terminates in at most len(PlanSteps) extra iterations.
func (e *Engine) drive(ctx context.Context, state *domain.RunState, emit func(domain.NodeEvent) error) error {
	current := domain.NodeClassify
	for {
		e.nodeEnter(ctx, state, current)

		delta, err := e.executeNode(ctx, current, state)
		if err != nil {
			e.logger.Error("run aborted", "run_id", state.RunID, "node", string(current), "err", err)
			return fmt.Errorf("node %s: %w", current, err)
		}

		ev := domain.NodeEvent{
			Timestamp: time.Now().UTC(),
			RunID:     state.RunID,
			Node:      current,
			Delta:     delta,
		}
		e.nodeLeave(ctx, &ev)
		if emit != nil {
			if err := emit(ev); err != nil {
				return err
			}
		}

		next, done := e.next(current, state)
		if done {
			return nil
		}
		current = next
	}
}

// next is the transition function of the graph. It reads only
// Classification, PlanSteps and CurrentStep; the trace never influences
// routing.
func (e *Engine) next(current domain.NodeName, state *domain.RunState) (domain.NodeName, bool) {
	switch current {
	case domain.NodeClassify:
		if state.Classification == domain.ClassificationComplex {
			return domain.NodePlan, false
		}
		return domain.NodeRetrieve, false
	case domain.NodeRetrieve:
		return domain.NodeSynthesize, false
	case domain.NodePlan:
		// An empty plan has nothing to execute; route straight to
		// synthesis instead of indexing past the plan bounds.
		if len(state.PlanSteps) == 0 {
			return domain.NodeSynthesize, false
		}
		return domain.NodeExecuteStep, false
	case domain.NodeExecuteStep:
		if state.CurrentStep < len(state.PlanSteps) {
			return domain.NodeExecuteStep, false
		}
		return domain.NodeSynthesize, false
	case domain.NodeSynthesize:
		return "", true
	default:
		return "", true
	}
}

func (e *Engine) executeNode(ctx context.Context, node domain.NodeName, state *domain.RunState) (domain.StateDelta, error) {
	switch node {
	case domain.NodeClassify:
		return e.classify(ctx, state)
	case domain.NodePlan:
		return e.plan(ctx, state)
	case domain.NodeRetrieve:
		return e.retrieve(ctx, state)
	case domain.NodeExecuteStep:
		return e.executeStep(ctx, state)
	case domain.NodeSynthesize:
		return e.synthesize(ctx, state)
	default:
		return domain.StateDelta{}, fmt.Errorf("unknown node %q", node)
	}
}

func (e *Engine) nodeEnter(ctx context.Context, state *domain.RunState, node domain.NodeName) {
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			Timestamp: time.Now().UTC(),
			RunID:     state.RunID,
			Node:      node,
		})
	}
}

func (e *Engine) nodeLeave(ctx context.Context, ev *domain.NodeEvent) {
	if e.hooks.OnNodeLeave != nil {
		e.hooks.OnNodeLeave(ctx, ev)
	}
}

// invokeTool runs one registry tool and packages the outcome as a result
// payload. Tool failures become error-shaped payloads, never run failures;
// only context cancellation propagates.
func (e *Engine) invokeTool(ctx context.Context, state *domain.RunState, node domain.NodeName, call domain.ToolCall) (string, error) {
	started := time.Now()
	if e.hooks.OnToolCall != nil {
		e.hooks.OnToolCall(ctx, &domain.ToolEvent{
			Timestamp: started.UTC(),
			RunID:     state.RunID,
			Node:      node,
			ToolName:  call.Name,
			Args:      call.Args,
		})
	}

	result, err := e.tools.Invoke(ctx, call.Name, call.Args)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		result = fmt.Sprintf(`{"error": %q}`, err.Error())
	}

	if e.hooks.OnToolReturn != nil {
		e.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			Timestamp: time.Now().UTC(),
			RunID:     state.RunID,
			Node:      node,
			ToolName:  call.Name,
			Result:    result,
			Duration:  time.Since(started),
		})
	}
	return result, nil
}
