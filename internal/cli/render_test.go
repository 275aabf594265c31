package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/pkg/domain"
)

func TestFormatNodeEvent(t *testing.T) {
	ev := domain.NodeEvent{
		Node: domain.NodeClassify,
		Delta: domain.StateDelta{
			ThinkingSteps: []domain.ThinkingStep{
				{Step: "classify", Description: "Classified query as simple"},
			},
		},
	}
	assert.Equal(t, "[classify] Classified query as simple", FormatNodeEvent(ev))

	// The latest step wins when a node adds several.
	ev.Delta.ThinkingSteps = append(ev.Delta.ThinkingSteps,
		domain.ThinkingStep{Step: "classify", Description: "Routing to retrieval"})
	assert.Equal(t, "[classify] Routing to retrieval", FormatNodeEvent(ev))
}

func TestFormatNodeEvent_NoThinkingStep(t *testing.T) {
	ev := domain.NodeEvent{Node: domain.NodeSynthesize}
	assert.Empty(t, FormatNodeEvent(ev))
}

func TestFormatResult(t *testing.T) {
	result := &finagent.Result{
		Answer: "The total is INR 5,000.",
		Citations: []domain.ToolResult{
			{Tool: "vector_search", Step: "find the invoice total"},
			{Tool: "vector_search"},
		},
	}
	out := FormatResult(result)

	assert.Contains(t, out, "The total is INR 5,000.")
	assert.Contains(t, out, "## Sources")
	assert.Contains(t, out, "1. `vector_search` (find the invoice total)")
	assert.Contains(t, out, "2. `vector_search` (direct retrieval)")
	assert.NotContains(t, out, "degraded")
}

func TestFormatResult_Degraded(t *testing.T) {
	result := &finagent.Result{Answer: finagent.DegradedAnswer(), Degraded: true}
	out := FormatResult(result)

	assert.Contains(t, out, finagent.DegradedAnswer())
	assert.Contains(t, out, "degraded answer")
}
