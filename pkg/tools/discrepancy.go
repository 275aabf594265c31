package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/store/sqlite"
)

var validSeverities = map[string]bool{
	"low":      true,
	"medium":   true,
	"high":     true,
	"critical": true,
}

type discrepancyArgs struct {
	Description  string `mapstructure:"description"`
	Severity     string `mapstructure:"severity"`
	AffectedDocs string `mapstructure:"affected_docs"`
}

func newFlagDiscrepancy(deps Deps) ToolDef {
	return ToolDef{
		Spec: domain.ToolSpec{
			Name:        "flag_discrepancy",
			Description: "Flag a financial discrepancy and save it to the database",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"description":   map[string]any{"type": "string"},
					"severity":      map[string]any{"type": "string"},
					"affected_docs": map[string]any{"type": "string"},
				},
				"required": []any{"description"},
			},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			var a discrepancyArgs
			if err := decodeArgs(args, &a); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if a.Severity == "" {
				a.Severity = "medium"
			}
			if !validSeverities[a.Severity] {
				return errorResult("Severity must be one of: critical, high, low, medium"), nil
			}

			var docList []string
			for _, d := range strings.Split(a.AffectedDocs, ",") {
				if d = strings.TrimSpace(d); d != "" {
					docList = append(docList, d)
				}
			}

			record := sqlite.Discrepancy{
				ID:                uuid.NewString(),
				Severity:          a.Severity,
				AffectedDocuments: docList,
				Description:       a.Description,
				RecommendedAction: fmt.Sprintf("Review %s-severity discrepancy: %s", a.Severity, a.Description),
			}
			if err := deps.Store.SaveDiscrepancy(ctx, record); err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				// Persistence failed; the flag still surfaces to synthesis.
				return jsonResult(map[string]any{
					"error":       err.Error(),
					"severity":    a.Severity,
					"description": a.Description,
					"status":      "flagged_locally",
				}), nil
			}

			return jsonResult(map[string]any{
				"discrepancy_id": record.ID,
				"severity":       a.Severity,
				"description":    a.Description,
				"affected_docs":  docList,
				"status":         "flagged",
			}), nil
		},
	}
}
