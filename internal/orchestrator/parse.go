package orchestrator

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/finagentlabs/finagent/pkg/domain"
)

// Model output never fails a run: every parse site returns a tagged result
// with the fallback construction colocated, so the policies are unit-testable
// without a model.

// PlanResult is the outcome of parsing the planner's response.
// Fallback is empty when the response parsed as a JSON array; otherwise it
// names the fallback that produced the steps.
type PlanResult struct {
	Steps    []string
	Fallback string
}

const (
	// FallbackNone marks a clean parse.
	FallbackNone = ""
	// FallbackSingleStep means the response was valid JSON but not an
	// array, so the raw text became one plan step.
	FallbackSingleStep = "single_step"
	// FallbackLineSplit means the response was not valid JSON and was
	// split into bulleted lines.
	FallbackLineSplit = "line_split"
	// FallbackParse marks a tool selection that could not be decoded.
	FallbackParse = "parse_error"
	// FallbackUnknownTool marks a selection naming an unregistered tool.
	FallbackUnknownTool = "unknown_tool"
)

// ParsePlan turns the planner's free-text response into ordered plan steps.
// Preference order: JSON array as-is; valid non-array JSON as a single step;
// otherwise non-empty lines with leading "- " bullets stripped. A response
// yielding zero lines still becomes one step equal to the raw text.
func ParsePlan(raw string) PlanResult {
	trimmed := strings.TrimSpace(raw)

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return PlanResult{Steps: splitLines(trimmed), Fallback: FallbackLineSplit}
	}

	list, ok := parsed.([]any)
	if !ok {
		return PlanResult{Steps: []string{trimmed}, Fallback: FallbackSingleStep}
	}

	steps := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			steps = append(steps, s)
			continue
		}
		b, _ := json.Marshal(item)
		steps = append(steps, string(b))
	}
	return PlanResult{Steps: steps}
}

func splitLines(raw string) []string {
	var steps []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if line != "" {
			steps = append(steps, line)
		}
	}
	if len(steps) == 0 {
		// Zero surviving lines: the raw response is the single step.
		steps = []string{raw}
	}
	return steps
}

// SelectionResult is the outcome of parsing a tool-selection response.
type SelectionResult struct {
	Call     domain.ToolCall
	Fallback string
}

// defaultCall constructs the fail-safe selection: the registry's default
// tool queried with the step description.
func defaultCall(defaultTool, step string) domain.ToolCall {
	return domain.ToolCall{
		Name: defaultTool,
		Args: map[string]any{"query": step},
	}
}

// ParseToolSelection decodes a {"tool": ..., "args": {...}} response.
// Any parse failure, a missing tool name, or a wrong-shaped args object
// resolves to the default tool with a constructed query argument.
func ParseToolSelection(raw, step, defaultTool string) SelectionResult {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return SelectionResult{Call: defaultCall(defaultTool, step), Fallback: FallbackParse}
	}

	var call domain.ToolCall
	if err := mapstructure.Decode(obj, &call); err != nil {
		return SelectionResult{Call: defaultCall(defaultTool, step), Fallback: FallbackParse}
	}
	if call.Name == "" {
		call.Name = defaultTool
	}
	if call.Args == nil {
		call.Args = map[string]any{"query": step}
	}
	return SelectionResult{Call: call}
}
