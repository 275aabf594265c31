package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/finagentlabs/finagent/pkg/domain"
)

type compareArgs struct {
	DocIDs         []string `mapstructure:"doc_ids"`
	ComparisonType string   `mapstructure:"comparison_type"`
}

func newCompareDocuments(deps Deps) ToolDef {
	return ToolDef{
		Spec: domain.ToolSpec{
			Name:        "compare_documents",
			Description: "Cross-reference financial documents to find discrepancies",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"doc_ids": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"comparison_type": map[string]any{"type": "string"},
				},
				"required": []any{"doc_ids"},
			},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			var a compareArgs
			if err := decodeArgs(args, &a); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if a.ComparisonType == "" {
				a.ComparisonType = "amount"
			}

			docs, err := deps.Store.GetDocuments(ctx, a.DocIDs)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return errorResult(fmt.Sprintf("fetch documents: %v", err)), nil
			}
			if len(docs) < 2 {
				return errorResult(fmt.Sprintf("Need at least 2 documents, found %d", len(docs))), nil
			}

			var matches, mismatches []map[string]any
			for i, docA := range docs {
				for _, docB := range docs[i+1:] {
					totalA := extractedTotal(docA.ExtractedData)
					totalB := extractedTotal(docB.ExtractedData)
					if totalA == totalB {
						matches = append(matches, map[string]any{
							"doc_a":  docA.Filename,
							"doc_b":  docB.Filename,
							"amount": totalA,
						})
					} else {
						mismatches = append(mismatches, map[string]any{
							"doc_a":      docA.Filename,
							"doc_b":      docB.Filename,
							"amount_a":   totalA,
							"amount_b":   totalB,
							"difference": math.Abs(totalA - totalB),
						})
					}
				}
			}

			return jsonResult(map[string]any{
				"doc_ids":         a.DocIDs,
				"comparison_type": a.ComparisonType,
				"matches":         matches,
				"mismatches":      mismatches,
				"summary":         fmt.Sprintf("%d matches, %d mismatches", len(matches), len(mismatches)),
			}), nil
		},
	}
}

func extractedTotal(data map[string]any) float64 {
	switch v := data["total"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
