package domain

import (
	"context"
	"time"
)

// NodeName identifies one processing stage of the orchestration graph.
type NodeName string

const (
	NodeClassify    NodeName = "classify"
	NodePlan        NodeName = "plan"
	NodeRetrieve    NodeName = "retrieve"
	NodeExecuteStep NodeName = "execute_step"
	NodeSynthesize  NodeName = "synthesize"
)

// NodeEvent is emitted after a node completes during a streamed run.
// Delta carries only the fields that node changed; the consumer accumulates
// the final state. Events arrive strictly in node execution order.
type NodeEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	RunID     string     `json:"run_id"`
	Node      NodeName   `json:"node"`
	Delta     StateDelta `json:"delta"`
}

// StateDelta is the per-node state change surfaced to stream consumers.
type StateDelta struct {
	Classification Classification `json:"classification,omitempty"`
	PlanSteps      []string       `json:"plan_steps,omitempty"`
	CurrentStep    *int           `json:"current_step,omitempty"`
	ToolResults    []ToolResult   `json:"tool_results,omitempty"`
	FinalAnswer    string         `json:"final_answer,omitempty"`
	ThinkingSteps  []ThinkingStep `json:"thinking_steps,omitempty"`
}

// ToolEvent describes a tool invocation for observability hooks.
type ToolEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Node      NodeName  `json:"node"`
	ToolName  string    `json:"tool_name"`
	Args      any       `json:"args,omitempty"`
	Result    string    `json:"result,omitempty"`
	Duration  time.Duration
}

// LifecycleHooks defines callbacks for engine observability. All callbacks
// are optional and must be safe for concurrent invocation from multiple runs.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeLeave  func(context.Context, *NodeEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
}
