package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finagentlabs/finagent/pkg/domain"
)

type calcArgs struct {
	Expression string `mapstructure:"expression"`
}

func newCalculate(Deps) ToolDef {
	return ToolDef{
		Spec: domain.ToolSpec{
			Name:        "calculate",
			Description: "Perform financial calculations with decimal precision",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expression": map[string]any{"type": "string"},
				},
				"required": []any{"expression"},
			},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			var a calcArgs
			if err := decodeArgs(args, &a); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}

			expr := strings.TrimSpace(a.Expression)
			if !validExpression(expr) {
				return errorResult("Invalid characters in expression. Only numbers and +-*/() are allowed."), nil
			}

			result, err := evalDecimal(expr)
			if err != nil {
				return jsonResult(map[string]any{
					"expression": a.Expression,
					"error":      err.Error(),
				}), nil
			}

			return jsonResult(map[string]any{
				"expression": a.Expression,
				"result":     result.String(),
				"formatted":  "INR " + groupDigits(result),
			}), nil
		},
	}
}

func validExpression(expr string) bool {
	if expr == "" {
		return false
	}
	for _, r := range expr {
		if !strings.ContainsRune("0123456789.+-*/() ", r) {
			return false
		}
	}
	return true
}

// groupDigits renders a decimal with two fraction digits and thousands
// separators, e.g. 1234567.5 -> "1,234,567.50".
func groupDigits(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
