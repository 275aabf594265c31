package orchestrator

import (
	"fmt"
	"strings"

	"github.com/finagentlabs/finagent/pkg/domain"
)

// systemPrompt frames every reasoning call. Kept stable so runs against a
// fixed model version stay repeatable.
const systemPrompt = `You are FinAgent, an expert financial document analyst. You help users ` +
	`analyze invoices, bank statements, GST returns, and other financial documents.

Key guidelines:
- Always cite your sources with document names and page numbers.
- Be precise with numbers; financial accuracy is critical.
- Use the Indian Rupee (INR) for currency values.
- When presenting tables, align columns for readability.
- Flag any discrepancies or anomalies you notice.
- If data is insufficient to answer confidently, say so explicitly.`

const classificationTemplate = `Analyze the following user query and classify it as one of:
- "simple": A direct factual question answerable from a single document lookup ` +
	`(e.g., "What is the total on invoice #1234?", "Who is the vendor on this bill?").
- "complex": Requires multiple steps, comparisons across documents, calculations, ` +
	`aggregations, or report generation (e.g., "Compare all invoices from Q3 against bank ` +
	`statements", "Generate a GST summary for last quarter").

User query: %s

Respond with ONLY the word "simple" or "complex".`

func classificationPrompt(query string) string {
	return fmt.Sprintf(classificationTemplate, query)
}

const planningTemplate = `You are a financial analysis planner. Break down this complex ` +
	`financial query into a sequence of specific sub-tasks. Each sub-task should map to ` +
	`one of the available tools:

Available tools:
%s

User query: %s

Return a JSON array of step descriptions. Each step should be a short, actionable ` +
	`instruction that maps to exactly one tool. Example:
["Search for all Q3 invoices", "Query total amounts by vendor", "Calculate variance"]`

func planningPrompt(query string, tools []domain.ToolSpec) string {
	var b strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	return fmt.Sprintf(planningTemplate, strings.TrimRight(b.String(), "\n"), query)
}

func toolSelectionPrompt(step string, toolNames []string) string {
	return fmt.Sprintf("Given this sub-task: %q\n"+
		"Available tools: %s\n"+
		`Respond with a JSON object: {"tool": "tool_name", "args": {...}}`+"\n"+
		"Use only valid tool names and appropriate arguments.",
		step, strings.Join(toolNames, ", "))
}

const synthesisTemplate = `Synthesize the results from all the steps below into a clear, ` +
	`accurate, and well-structured answer to the user's original query.

Original query: %s

Steps and results:
%s

Guidelines:
- Include citations in the format [Source: filename, page X] where available.
- Present numerical data in formatted tables when appropriate.
- Highlight any discrepancies or anomalies found.
- Use INR for all currency amounts.
- If any step produced incomplete or uncertain results, note the limitation.
- End with a brief summary or recommendation if applicable.`

// synthesisPrompt builds the evidence transcript in execution order; this
// ordering is the citation order expected in the answer.
func synthesisPrompt(query string, results []domain.ToolResult) string {
	var b strings.Builder
	for i, tr := range results {
		label := tr.Step
		if label == "" {
			label = tr.Tool
		}
		fmt.Fprintf(&b, "\n--- Step %d: %s ---\n%s\n", i+1, label, tr.Result)
	}
	return fmt.Sprintf(synthesisTemplate, query, b.String())
}
