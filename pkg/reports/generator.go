// Package reports builds structured financial report payloads and exports
// them to CSV, powering the generate_report and export_data tools.
package reports

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Kind names accepted by Generate.
const (
	KindGSTSummary     = "gst_summary"
	KindReconciliation = "reconciliation"
	KindDiscrepancy    = "discrepancy"
	KindCashflow       = "cashflow"
)

type template struct {
	Title  string   `yaml:"title"`
	Fields []string `yaml:"fields"`
}

type templateFile struct {
	Reports map[string]template `yaml:"reports"`
}

// Generator builds report payloads from its embedded templates.
type Generator struct {
	templates map[string]template
	now       func() time.Time
}

// NewGenerator loads the embedded report templates.
func NewGenerator() (*Generator, error) {
	var file templateFile
	if err := yaml.Unmarshal(templatesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse report templates: %w", err)
	}
	return &Generator{templates: file.Reports, now: time.Now}, nil
}

// Kinds lists the supported report kinds, sorted.
func (g *Generator) Kinds() []string {
	kinds := make([]string, 0, len(g.templates))
	for k := range g.templates {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Generate builds the payload for one report kind from caller parameters.
// Unknown kinds return an error; callers decide how to surface it.
func (g *Generator) Generate(kind string, params map[string]any) (map[string]any, error) {
	tpl, ok := g.templates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown report type %q", kind)
	}

	if params == nil {
		params = map[string]any{}
	}

	out := map[string]any{
		"report_type":  tpl.Title,
		"generated_at": g.now().UTC().Format(time.RFC3339),
	}

	switch kind {
	case KindGSTSummary:
		g.gstSummary(out, params)
	case KindReconciliation:
		g.reconciliation(out, params)
	case KindDiscrepancy:
		g.discrepancy(out, params)
	case KindCashflow:
		g.cashflow(out, params)
	}
	return out, nil
}

func (g *Generator) gstSummary(out, params map[string]any) {
	out["period"] = stringParam(params, "period", "Q4 2024")
	out["gstin"] = stringParam(params, "gstin", "N/A")
	outputTax := floatParam(params, "output_tax")
	inputTax := floatParam(params, "input_tax")
	out["output_tax"] = outputTax
	out["input_tax"] = inputTax
	out["net_liability"] = outputTax - inputTax
	out["total_taxable_value"] = floatParam(params, "total_taxable_value")
	out["cgst"] = floatParam(params, "cgst")
	out["sgst"] = floatParam(params, "sgst")
	out["igst"] = floatParam(params, "igst")
	out["details"] = itemsParam(params, "details")
}

func (g *Generator) reconciliation(out, params map[string]any) {
	items := itemsParam(params, "items")
	var matched, unmatched int
	var totalInvoice, totalBank float64
	for _, item := range items {
		if stringParam(item, "status", "") == "matched" {
			matched++
		} else {
			unmatched++
		}
		totalInvoice += floatParam(item, "invoice_amount")
		totalBank += floatParam(item, "bank_debit")
	}
	out["vendor"] = stringParam(params, "vendor", "All Vendors")
	out["period"] = stringParam(params, "period", "All Time")
	out["items"] = items
	out["matched_count"] = matched
	out["unmatched_count"] = unmatched
	out["total_invoice_amount"] = totalInvoice
	out["total_bank_debit"] = totalBank
	out["total_variance"] = totalInvoice - totalBank
}

func (g *Generator) discrepancy(out, params map[string]any) {
	items := itemsParam(params, "items")
	bySeverity := map[string]int{}
	for _, item := range items {
		bySeverity[stringParam(item, "severity", "medium")]++
	}
	out["items"] = items
	out["total_count"] = len(items)
	out["by_severity"] = bySeverity
}

func (g *Generator) cashflow(out, params map[string]any) {
	income := floatParam(params, "total_income")
	expenses := floatParam(params, "total_expenses")
	out["period"] = stringParam(params, "period", "All Time")
	out["total_income"] = income
	out["total_expenses"] = expenses
	out["net_cashflow"] = income - expenses
	out["monthly_breakdown"] = itemsParam(params, "monthly_breakdown")
	out["category_breakdown"] = itemsParam(params, "category_breakdown")
}

// ExportCSV flattens a report payload into CSV bytes. Row-shaped "items"
// become records under a header; otherwise scalar top-level keys are written
// as key,value pairs.
func (g *Generator) ExportCSV(report map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	items := itemsParam(report, "items")
	if len(items) > 0 {
		header := make([]string, 0, len(items[0]))
		for k := range items[0] {
			header = append(header, k)
		}
		sort.Strings(header)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		for _, item := range items {
			record := make([]string, len(header))
			for i, col := range header {
				record[i] = fmt.Sprint(item[col])
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	} else {
		keys := make([]string, 0, len(report))
		for k := range report {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch report[k].(type) {
			case []any, []map[string]any, map[string]any, map[string]int:
				continue
			}
			if err := w.Write([]string{k, fmt.Sprint(report[k])}); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stringParam(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func floatParam(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func itemsParam(m map[string]any, key string) []map[string]any {
	switch v := m[key].(type) {
	case []map[string]any:
		return v
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, entry := range v {
			if row, ok := entry.(map[string]any); ok {
				items = append(items, row)
			}
		}
		return items
	default:
		return nil
	}
}
