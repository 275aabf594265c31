package tools

import (
	"context"
	"fmt"

	"github.com/finagentlabs/finagent/pkg/domain"
)

type searchArgs struct {
	Query    string `mapstructure:"query"`
	NResults int    `mapstructure:"n_results"`
	DocType  string `mapstructure:"doc_type"`
}

func newVectorSearch(deps Deps) ToolDef {
	return ToolDef{
		Spec: domain.ToolSpec{
			Name:        "vector_search",
			Description: "Search financial documents using semantic similarity",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":     map[string]any{"type": "string"},
					"n_results": map[string]any{"type": "integer", "minimum": 1},
					"doc_type":  map[string]any{"type": "string"},
				},
				"required": []any{"query"},
			},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			var a searchArgs
			if err := decodeArgs(args, &a); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if a.NResults <= 0 {
				a.NResults = 5
			}

			snippets, err := deps.Retriever.Search(ctx, a.Query, a.NResults, a.DocType)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return errorResult(fmt.Sprintf("search failed: %v", err)), nil
			}

			if len(snippets) == 0 {
				return jsonResult(map[string]any{
					"query":   a.Query,
					"chunks":  []any{},
					"message": "No matching documents found.",
				}), nil
			}
			return jsonResult(map[string]any{
				"query":  a.Query,
				"chunks": snippets,
			}), nil
		},
	}
}
