package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/finagentlabs/finagent/pkg/domain"
)

// Node implementations. Each mutates the shared RunState in place and
// returns the delta it produced, which is what streamed consumers see.
// Malformed model output is absorbed by documented fallbacks; only a
// reasoner failure returns an error.

func (e *Engine) classify(ctx context.Context, state *domain.RunState) (domain.StateDelta, error) {
	response, err := e.reasoner.Complete(ctx, systemPrompt, classificationPrompt(state.Query))
	if err != nil {
		return domain.StateDelta{}, fmt.Errorf("%w: %v", domain.ErrReasonerUnavailable, err)
	}

	label := domain.Classification(strings.ToLower(strings.TrimSpace(response)))
	if label != domain.ClassificationSimple && label != domain.ClassificationComplex {
		// Ambiguous output takes the cheaper path.
		label = domain.ClassificationSimple
	}
	state.Classification = label

	state.Think("classify",
		fmt.Sprintf("Classified query as '%s'", label),
		fmt.Sprintf("Query: %s", state.Query))
	e.logger.Debug("query classified", "run_id", state.RunID, "classification", string(label))

	return domain.StateDelta{
		Classification: label,
		ThinkingSteps:  lastThought(state),
	}, nil
}

func (e *Engine) plan(ctx context.Context, state *domain.RunState) (domain.StateDelta, error) {
	response, err := e.reasoner.Complete(ctx, systemPrompt, planningPrompt(state.Query, e.tools.Specs()))
	if err != nil {
		return domain.StateDelta{}, fmt.Errorf("%w: %v", domain.ErrReasonerUnavailable, err)
	}

	plan := ParsePlan(response)
	state.PlanSteps = plan.Steps
	state.CurrentStep = 0
	if plan.Fallback != FallbackNone {
		e.logger.Debug("plan parse fallback", "run_id", state.RunID, "fallback", plan.Fallback)
	}

	state.Think("plan",
		fmt.Sprintf("Created plan with %d steps", len(plan.Steps)),
		plan.Steps)

	zero := 0
	return domain.StateDelta{
		PlanSteps:     plan.Steps,
		CurrentStep:   &zero,
		ThinkingSteps: lastThought(state),
	}, nil
}

func (e *Engine) retrieve(ctx context.Context, state *domain.RunState) (domain.StateDelta, error) {
	call := domain.ToolCall{
		Name: e.tools.Default(),
		Args: map[string]any{"query": state.Query, "n_results": e.searchN},
	}
	result, err := e.invokeTool(ctx, state, domain.NodeRetrieve, call)
	if err != nil {
		return domain.StateDelta{}, err
	}

	tr := domain.ToolResult{Tool: call.Name, Result: result}
	state.ToolResults = append(state.ToolResults, tr)
	state.Think("retrieve", "Performed vector search for direct answer", state.Query)

	return domain.StateDelta{
		ToolResults:   []domain.ToolResult{tr},
		ThinkingSteps: lastThought(state),
	}, nil
}

func (e *Engine) executeStep(ctx context.Context, state *domain.RunState) (domain.StateDelta, error) {
	idx := state.CurrentStep
	step := state.PlanSteps[idx]

	names := make([]string, 0, len(e.tools.Specs()))
	for _, spec := range e.tools.Specs() {
		names = append(names, spec.Name)
	}

	response, err := e.reasoner.Complete(ctx, systemPrompt, toolSelectionPrompt(step, names))
	if err != nil {
		return domain.StateDelta{}, fmt.Errorf("%w: %v", domain.ErrReasonerUnavailable, err)
	}

	selection := ParseToolSelection(response, step, e.tools.Default())
	if !e.tools.Lookup(selection.Call.Name) {
		// Second fallback: an unknown tool name still has to produce a
		// result, so the step runs against the default tool.
		selection = SelectionResult{
			Call:     defaultCall(e.tools.Default(), step),
			Fallback: FallbackUnknownTool,
		}
	}
	if selection.Fallback != FallbackNone {
		e.logger.Debug("tool selection fallback",
			"run_id", state.RunID, "step", idx, "fallback", selection.Fallback)
	}

	result, err := e.invokeTool(ctx, state, domain.NodeExecuteStep, selection.Call)
	if err != nil {
		return domain.StateDelta{}, err
	}

	tr := domain.ToolResult{Tool: selection.Call.Name, Step: step, Result: result}
	state.ToolResults = append(state.ToolResults, tr)
	state.CurrentStep = idx + 1

	state.Think(fmt.Sprintf("execute_step_%d", idx),
		fmt.Sprintf("Step %d: %s", idx+1, step),
		map[string]any{"tool": selection.Call.Name, "args": selection.Call.Args})

	cursor := state.CurrentStep
	return domain.StateDelta{
		CurrentStep:   &cursor,
		ToolResults:   []domain.ToolResult{tr},
		ThinkingSteps: lastThought(state),
	}, nil
}

func (e *Engine) synthesize(ctx context.Context, state *domain.RunState) (domain.StateDelta, error) {
	response, err := e.reasoner.Complete(ctx, systemPrompt, synthesisPrompt(state.Query, state.ToolResults))
	if err != nil {
		return domain.StateDelta{}, fmt.Errorf("%w: %v", domain.ErrReasonerUnavailable, err)
	}

	state.FinalAnswer = response
	state.Think("synthesize",
		"Synthesized final answer from all tool results",
		fmt.Sprintf("Combined %d results", len(state.ToolResults)))
	e.logger.Debug("run complete", "run_id", state.RunID, "results", len(state.ToolResults))

	return domain.StateDelta{
		FinalAnswer:   response,
		ThinkingSteps: lastThought(state),
	}, nil
}

func lastThought(state *domain.RunState) []domain.ThinkingStep {
	if len(state.ThinkingTrace) == 0 {
		return nil
	}
	return state.ThinkingTrace[len(state.ThinkingTrace)-1:]
}

// DegradedAnswer is the user-visible response when the reasoning client
// fails mid-run. Callers surface it instead of the error so a live session
// degrades rather than crashes; recorded trace entries stay visible.
func DegradedAnswer() string {
	return "I wasn't able to finish analyzing your documents because the " +
		"reasoning service is temporarily unavailable. Please try again in a moment."
}
