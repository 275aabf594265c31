package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagentlabs/finagent/pkg/ports"
	"github.com/finagentlabs/finagent/pkg/registry"
	"github.com/finagentlabs/finagent/pkg/reports"
	"github.com/finagentlabs/finagent/pkg/retrieval"
	"github.com/finagentlabs/finagent/pkg/store/sqlite"
	"github.com/finagentlabs/finagent/pkg/tools"
)

// cannedReasoner returns a fixed response for every completion.
type cannedReasoner struct {
	response string
	err      error
}

func (c *cannedReasoner) Complete(_ context.Context, _, _ string) (string, error) {
	return c.response, c.err
}

func newTestRegistry(t *testing.T, reasoner ports.Reasoner) (*registry.Registry, *sqlite.Store, *retrieval.Index) {
	t.Helper()

	store, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index := retrieval.NewIndex()

	generator, err := reports.NewGenerator()
	require.NoError(t, err)

	if reasoner == nil {
		reasoner = &cannedReasoner{}
	}
	reg, err := tools.NewRegistry(tools.Deps{
		Retriever: index,
		Reasoner:  reasoner,
		Store:     store,
		Reports:   generator,
	})
	require.NoError(t, err)
	return reg, store, index
}

func decode(t *testing.T, payload string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &out))
	return out
}

func TestPalette(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	specs := reg.Specs()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}

	assert.Equal(t, []string{
		"vector_search",
		"sql_query",
		"calculate",
		"compare_documents",
		"generate_report",
		"export_data",
		"flag_discrepancy",
	}, names)
	assert.Equal(t, "vector_search", reg.Default())
}

func TestVectorSearch_NoMatches(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "vector_search",
		map[string]any{"query": "GST liability"})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "GST liability", out["query"])
	assert.Empty(t, out["chunks"])
	assert.Equal(t, "No matching documents found.", out["message"])
}

func TestVectorSearch_RankedChunks(t *testing.T) {
	reg, _, index := newTestRegistry(t, nil)
	index.Add(
		ports.Snippet{DocumentID: "d1", Filename: "invoice_q3.txt", DocType: "invoice",
			Text: "Invoice total GST liability for Q3 is 45000"},
		ports.Snippet{DocumentID: "d2", Filename: "memo.txt", DocType: "memo",
			Text: "Team lunch next Friday"},
	)

	payload, err := reg.Invoke(context.Background(), "vector_search",
		map[string]any{"query": "GST liability Q3", "n_results": 3})
	require.NoError(t, err)

	out := decode(t, payload)
	chunks, ok := out["chunks"].([]any)
	require.True(t, ok)
	require.Len(t, chunks, 1)
	first := chunks[0].(map[string]any)
	assert.Equal(t, "invoice_q3.txt", first["filename"])
}

func TestVectorSearch_DocTypeFilter(t *testing.T) {
	reg, _, index := newTestRegistry(t, nil)
	index.Add(
		ports.Snippet{DocumentID: "d1", Filename: "inv.txt", DocType: "invoice", Text: "payment of 100"},
		ports.Snippet{DocumentID: "d2", Filename: "stmt.txt", DocType: "bank_statement", Text: "payment of 100"},
	)

	payload, err := reg.Invoke(context.Background(), "vector_search",
		map[string]any{"query": "payment", "doc_type": "invoice"})
	require.NoError(t, err)

	chunks := decode(t, payload)["chunks"].([]any)
	require.Len(t, chunks, 1)
	assert.Equal(t, "inv.txt", chunks[0].(map[string]any)["filename"])
}

func TestVectorSearch_SchemaRequiresQuery(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)
	payload, err := reg.Invoke(context.Background(), "vector_search", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, payload, "invalid arguments")
}

func TestCalculate(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	cases := []struct {
		expr   string
		result string
	}{
		{"2+3*4", "14"},
		{"(2+3)*4", "20"},
		{"10/4", "2.5"},
		{"-5+2", "-3"},
		{"1000000*1.18", "1180000"},
	}
	for _, tc := range cases {
		payload, err := reg.Invoke(context.Background(), "calculate",
			map[string]any{"expression": tc.expr})
		require.NoError(t, err)
		out := decode(t, payload)
		assert.Equal(t, tc.result, out["result"], "expr %s", tc.expr)
	}
}

func TestCalculate_INRFormatting(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "calculate",
		map[string]any{"expression": "1234567.5"})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "INR 1,234,567.50", out["formatted"])
}

func TestCalculate_RejectsInvalidCharacters(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "calculate",
		map[string]any{"expression": "1; DROP TABLE documents"})
	require.NoError(t, err)
	assert.Contains(t, payload, "Invalid characters")
}

func TestCalculate_DivisionByZero(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "calculate",
		map[string]any{"expression": "5/0"})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Contains(t, out["error"], "division by zero")
}

func TestSQLQuery(t *testing.T) {
	reasoner := &cannedReasoner{response: "```sql\nSELECT filename, doc_type FROM documents\n```"}
	reg, store, _ := newTestRegistry(t, reasoner)

	require.NoError(t, store.SaveDocument(context.Background(), sqlite.Document{
		ID: "d1", Filename: "invoice_042.pdf", FileType: "pdf", DocType: "invoice",
		ExtractedData: map[string]any{"total": 45000.0},
	}))

	payload, err := reg.Invoke(context.Background(), "sql_query",
		map[string]any{"question": "list all documents"})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "SELECT filename, doc_type FROM documents", out["sql"])
	assert.EqualValues(t, 1, out["row_count"])
	rows := out["rows"].([]any)
	assert.Equal(t, "invoice_042.pdf", rows[0].(map[string]any)["filename"])
}

func TestSQLQuery_RejectsNonSelect(t *testing.T) {
	reasoner := &cannedReasoner{response: "DELETE FROM documents"}
	reg, _, _ := newTestRegistry(t, reasoner)

	payload, err := reg.Invoke(context.Background(), "sql_query",
		map[string]any{"question": "remove everything"})
	require.NoError(t, err)
	assert.Contains(t, payload, "Only SELECT queries are allowed")
}

func TestSQLQuery_ReasonerFailureBecomesPayload(t *testing.T) {
	reasoner := &cannedReasoner{err: assert.AnError}
	reg, _, _ := newTestRegistry(t, reasoner)

	payload, err := reg.Invoke(context.Background(), "sql_query",
		map[string]any{"question": "anything"})
	require.NoError(t, err)
	assert.Contains(t, payload, "query translation failed")
}

func TestCompareDocuments(t *testing.T) {
	reg, store, _ := newTestRegistry(t, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, sqlite.Document{
		ID: "a", Filename: "invoice.pdf", ExtractedData: map[string]any{"total": 5000.0}}))
	require.NoError(t, store.SaveDocument(ctx, sqlite.Document{
		ID: "b", Filename: "statement.pdf", ExtractedData: map[string]any{"total": 5000.0}}))
	require.NoError(t, store.SaveDocument(ctx, sqlite.Document{
		ID: "c", Filename: "ledger.pdf", ExtractedData: map[string]any{"total": 4750.0}}))

	payload, err := reg.Invoke(ctx, "compare_documents",
		map[string]any{"doc_ids": []string{"a", "b", "c"}})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "1 matches, 2 mismatches", out["summary"])
	mismatches := out["mismatches"].([]any)
	require.Len(t, mismatches, 2)
	assert.EqualValues(t, 250, mismatches[0].(map[string]any)["difference"])
}

func TestCompareDocuments_NeedsTwo(t *testing.T) {
	reg, store, _ := newTestRegistry(t, nil)
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, sqlite.Document{ID: "solo", Filename: "solo.pdf"}))

	payload, err := reg.Invoke(ctx, "compare_documents",
		map[string]any{"doc_ids": []string{"solo", "missing"}})
	require.NoError(t, err)
	assert.Contains(t, payload, "Need at least 2 documents, found 1")
}

func TestGenerateReport(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "generate_report", map[string]any{
		"report_type": "gst_summary",
		"parameters": map[string]any{
			"period":     "Q3 2025",
			"output_tax": 90000,
			"input_tax":  65000,
		},
	})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "generated", out["status"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "GST Summary", data["report_type"])
	assert.Equal(t, "Q3 2025", data["period"])
	assert.EqualValues(t, 25000, data["net_liability"])
}

func TestGenerateReport_ParametersAsJSONString(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "generate_report", map[string]any{
		"report_type": "cashflow",
		"parameters":  `{"total_income": 200000, "total_expenses": 150000}`,
	})
	require.NoError(t, err)

	data := decode(t, payload)["data"].(map[string]any)
	assert.EqualValues(t, 50000, data["net_cashflow"])
}

func TestGenerateReport_UnknownKind(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "generate_report",
		map[string]any{"report_type": "balance_sheet"})
	require.NoError(t, err)
	assert.Contains(t, payload, "Unknown report type. Must be one of: cashflow, discrepancy, gst_summary, reconciliation")
}

func TestExportData_CSV(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "export_data", map[string]any{
		"data": `{"items": [{"vendor": "Acme", "amount": 100}, {"vendor": "Zenith", "amount": 250}]}`,
	})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "csv", out["format"])
	assert.Equal(t, "exported", out["status"])
	assert.Greater(t, out["size_bytes"].(float64), 0.0)
}

func TestExportData_PDF(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "export_data",
		map[string]any{"data": "whatever", "format": "pdf"})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "pdf", out["format"])
	assert.Equal(t, "PDF export ready", out["message"])
}

func TestExportData_BadFormat(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	// The enum in the parameter schema rejects this before the tool runs.
	payload, err := reg.Invoke(context.Background(), "export_data",
		map[string]any{"data": "x", "format": "xlsx"})
	require.NoError(t, err)
	assert.Contains(t, payload, "invalid arguments for export_data")
}

func TestFlagDiscrepancy(t *testing.T) {
	reg, store, _ := newTestRegistry(t, nil)
	ctx := context.Background()

	payload, err := reg.Invoke(ctx, "flag_discrepancy", map[string]any{
		"description":   "Invoice 042 exceeds PO by 4,750",
		"severity":      "high",
		"affected_docs": "doc-a, doc-b",
	})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "flagged", out["status"])
	assert.Equal(t, "high", out["severity"])
	assert.Equal(t, []any{"doc-a", "doc-b"}, out["affected_docs"])
	assert.NotEmpty(t, out["discrepancy_id"])

	// Persisted and queryable.
	rows, err := store.Select(ctx, "SELECT severity, description FROM discrepancy_records")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "high", rows[0]["severity"])
}

func TestFlagDiscrepancy_DefaultSeverity(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "flag_discrepancy",
		map[string]any{"description": "minor rounding difference"})
	require.NoError(t, err)
	assert.Equal(t, "medium", decode(t, payload)["severity"])
}

func TestFlagDiscrepancy_InvalidSeverity(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	payload, err := reg.Invoke(context.Background(), "flag_discrepancy",
		map[string]any{"description": "x", "severity": "catastrophic"})
	require.NoError(t, err)
	assert.Contains(t, payload, "Severity must be one of")
}
