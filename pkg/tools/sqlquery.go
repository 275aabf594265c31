package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/finagentlabs/finagent/pkg/domain"
)

const sqlSystemPrompt = "You translate questions about financial document metadata into SQL."

const sqlPromptTemplate = `Convert this question to a SQLite SELECT query. Available tables:
- documents (id TEXT, filename TEXT, file_type TEXT, doc_type TEXT, processing_status TEXT, extracted_data TEXT, upload_timestamp TIMESTAMP)
- discrepancy_records (id TEXT, severity TEXT, affected_documents TEXT, description TEXT, recommended_action TEXT, created_at TIMESTAMP)
- reports (id TEXT, report_type TEXT, status TEXT, generated_at TIMESTAMP, data TEXT)

IMPORTANT: Return ONLY the SQL query, nothing else. Only SELECT queries are allowed.

Question: %s`

type sqlArgs struct {
	Question string `mapstructure:"question"`
}

func newSQLQuery(deps Deps) ToolDef {
	return ToolDef{
		Spec: domain.ToolSpec{
			Name:        "sql_query",
			Description: "Query the financial metadata database using natural language",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string"},
				},
				"required": []any{"question"},
			},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			var a sqlArgs
			if err := decodeArgs(args, &a); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}

			response, err := deps.Reasoner.Complete(ctx, sqlSystemPrompt,
				fmt.Sprintf(sqlPromptTemplate, a.Question))
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return errorResult(fmt.Sprintf("query translation failed: %v", err)), nil
			}

			query := stripFences(response)
			if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") {
				return errorResult("Only SELECT queries are allowed for safety."), nil
			}

			rows, err := deps.Store.Select(ctx, query)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return jsonResult(map[string]any{
					"question": a.Question,
					"sql":      query,
					"error":    err.Error(),
				}), nil
			}

			return jsonResult(map[string]any{
				"question":  a.Question,
				"sql":       query,
				"rows":      rows,
				"row_count": len(rows),
			}), nil
		},
	}
}

// stripFences removes markdown code fences the model tends to wrap SQL in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
