// Package tools implements the fixed financial tool palette: semantic
// search, natural-language SQL, decimal arithmetic, document comparison,
// report generation, data export and discrepancy flagging.
//
// Tools never raise for malformed input; they return an error-shaped JSON
// payload so orchestration can always append a result and continue. A
// non-nil error is reserved for context cancellation.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/ports"
	"github.com/finagentlabs/finagent/pkg/registry"
	"github.com/finagentlabs/finagent/pkg/reports"
	"github.com/finagentlabs/finagent/pkg/store/sqlite"
)

// Deps are the collaborators behind the tool palette.
type Deps struct {
	Retriever ports.Retriever
	Reasoner  ports.Reasoner
	Store     *sqlite.Store
	Reports   *reports.Generator
}

// ToolDef pairs a tool's descriptor with its implementation.
type ToolDef struct {
	Spec domain.ToolSpec
	Fn   ports.ToolFunc
}

// RegisterAll fills the registry with the full palette and seals it.
// Order matters: vector_search registers first and is therefore the
// fallback default.
func RegisterAll(r *registry.Registry, deps Deps) error {
	builders := []func(Deps) ToolDef{
		newVectorSearch,
		newSQLQuery,
		newCalculate,
		newCompareDocuments,
		newGenerateReport,
		newExportData,
		newFlagDiscrepancy,
	}
	for _, build := range builders {
		def := build(deps)
		if err := r.Register(def.Spec, def.Fn); err != nil {
			return err
		}
	}
	r.Seal()
	return nil
}

// NewRegistry is the common construction path: a sealed registry holding
// the full palette.
func NewRegistry(deps Deps) (*registry.Registry, error) {
	r := registry.New()
	if err := RegisterAll(r, deps); err != nil {
		return nil, err
	}
	return r, nil
}

// jsonResult serializes a payload map; marshal failures degrade to an
// error payload rather than propagating.
func jsonResult(payload map[string]any) string {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("encode result: %v", err))
	}
	return string(raw)
}

func errorResult(msg string) string {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return string(raw)
}

// decodeArgs maps loosely typed argument maps into a typed struct,
// tolerating string/number mismatches from model output.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}
