package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/finagentlabs/finagent/pkg/domain"
)

type reportArgs struct {
	ReportType string `mapstructure:"report_type"`
	Parameters any    `mapstructure:"parameters"`
}

func newGenerateReport(deps Deps) ToolDef {
	return ToolDef{
		Spec: domain.ToolSpec{
			Name:        "generate_report",
			Description: "Generate a structured financial report",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"report_type": map[string]any{"type": "string"},
					"parameters":  map[string]any{},
				},
				"required": []any{"report_type"},
			},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			var a reportArgs
			if err := decodeArgs(args, &a); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}

			params, err := reportParams(a.Parameters)
			if err != nil {
				return errorResult(err.Error()), nil
			}

			report, err := deps.Reports.Generate(a.ReportType, params)
			if err != nil {
				return errorResult(fmt.Sprintf("Unknown report type. Must be one of: %s",
					strings.Join(deps.Reports.Kinds(), ", "))), nil
			}

			if deps.Store != nil {
				// Persistence is best effort; the payload is the result.
				if err := deps.Store.SaveReport(ctx, uuid.NewString(), a.ReportType, report); err != nil && ctx.Err() != nil {
					return "", ctx.Err()
				}
			}

			return jsonResult(map[string]any{
				"report_type": a.ReportType,
				"status":      "generated",
				"data":        report,
			}), nil
		},
	}
}

// reportParams accepts either an object or a JSON string, the two shapes
// models produce for nested parameters.
func reportParams(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]any{}, nil
		}
		var params map[string]any
		if err := json.Unmarshal([]byte(v), &params); err != nil {
			return nil, fmt.Errorf("parameters must be a JSON object: %v", err)
		}
		return params, nil
	default:
		return nil, fmt.Errorf("parameters must be a JSON object")
	}
}
