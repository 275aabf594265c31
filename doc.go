// Package finagent is a financial-document question answering agent built
// around a small orchestration graph. A query is classified, optionally
// planned into steps, executed against a fixed tool palette, and synthesized
// into a cited answer.
//
// The root package is the run driver. Construct an Agent from a reasoning
// client and a tool registry, then execute runs in batch or streamed mode:
//
//	reasoner, _ := reasoning.NewClient(reasoning.Config{})
//	registry, _ := tools.NewRegistry(deps)
//	agent := finagent.New(reasoner, registry)
//	result, err := agent.Run(ctx, "What is the total GST liability for Q3?", "")
//
// Streamed mode emits one event per completed graph node:
//
//	events, errs := agent.RunStream(ctx, query, conversationID)
//	for ev := range events {
//		fmt.Println(ev.Node, ev.Delta.FinalAnswer)
//	}
//
// Subpackages:
//
//   - pkg/domain: run state, events, and hook types
//   - pkg/ports: interfaces the core depends on
//   - pkg/registry: ordered, schema-validated tool registry
//   - pkg/tools: the seven built-in financial tools
//   - pkg/reasoning: Anthropic API and AWS Bedrock clients
//   - pkg/retrieval: in-memory document retriever
//   - pkg/reports: report template rendering and CSV export
//   - pkg/store/sqlite: document and discrepancy persistence
//   - pkg/adapters: HTTP, MCP, Redis, and in-memory adapters
package finagent
