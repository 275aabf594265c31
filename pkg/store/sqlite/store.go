// Package sqlite provides the document metadata store backing the sql_query,
// compare_documents and flag_discrepancy tools.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps an SQLite database with finagent-specific operations.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) an SQLite database at the given path.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens an in-memory database, used by tests and the demo CLI.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	file_type TEXT NOT NULL DEFAULT '',
	doc_type TEXT NOT NULL DEFAULT '',
	processing_status TEXT NOT NULL DEFAULT 'completed',
	extracted_data TEXT NOT NULL DEFAULT '{}',
	upload_timestamp TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS discrepancy_records (
	id TEXT PRIMARY KEY,
	severity TEXT NOT NULL,
	affected_documents TEXT NOT NULL DEFAULT '[]',
	description TEXT NOT NULL,
	recommended_action TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	report_type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'generated',
	generated_at TIMESTAMP NOT NULL,
	data TEXT NOT NULL DEFAULT '{}'
);`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Document is one ingested financial document's metadata row. ExtractedData
// holds the structured fields produced by the (external) extraction pipeline.
type Document struct {
	ID               string         `json:"id"`
	Filename         string         `json:"filename"`
	FileType         string         `json:"file_type"`
	DocType          string         `json:"doc_type"`
	ProcessingStatus string         `json:"processing_status"`
	ExtractedData    map[string]any `json:"extracted_data"`
	UploadedAt       time.Time      `json:"upload_timestamp"`
}

// SaveDocument inserts or replaces a document row.
func (s *Store) SaveDocument(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc.ExtractedData)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.ProcessingStatus == "" {
		doc.ProcessingStatus = "completed"
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents
			(id, filename, file_type, doc_type, processing_status, extracted_data, upload_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.FileType, doc.DocType, doc.ProcessingStatus, string(data), doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// GetDocuments fetches documents by id, preserving only rows that exist.
func (s *Store) GetDocuments(ctx context.Context, ids []string) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, filename, file_type, doc_type, processing_status, extracted_data, upload_timestamp
		 FROM documents WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var raw string
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.FileType, &doc.DocType,
			&doc.ProcessingStatus, &raw, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &doc.ExtractedData); err != nil {
			doc.ExtractedData = map[string]any{}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListDocuments returns all document rows, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, filename, file_type, doc_type, processing_status, extracted_data, upload_timestamp
		 FROM documents ORDER BY upload_timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var raw string
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.FileType, &doc.DocType,
			&doc.ProcessingStatus, &raw, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &doc.ExtractedData); err != nil {
			doc.ExtractedData = map[string]any{}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Discrepancy is a flagged financial inconsistency.
type Discrepancy struct {
	ID                string    `json:"id"`
	Severity          string    `json:"severity"`
	AffectedDocuments []string  `json:"affected_documents"`
	Description       string    `json:"description"`
	RecommendedAction string    `json:"recommended_action"`
	CreatedAt         time.Time `json:"created_at"`
}

// SaveDiscrepancy persists a flagged discrepancy and returns nothing; the
// caller already owns the generated id.
func (s *Store) SaveDiscrepancy(ctx context.Context, d Discrepancy) error {
	affected, err := json.Marshal(d.AffectedDocuments)
	if err != nil {
		return fmt.Errorf("marshal affected documents: %w", err)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO discrepancy_records
			(id, severity, affected_documents, description, recommended_action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Severity, string(affected), d.Description, d.RecommendedAction, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("save discrepancy: %w", err)
	}
	return nil
}

// SaveReport records a generated report payload.
func (s *Store) SaveReport(ctx context.Context, id, reportType string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal report data: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports (id, report_type, status, generated_at, data)
		VALUES (?, ?, 'generated', ?, ?)`,
		id, reportType, time.Now().UTC(), string(raw))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Select runs a read-only SELECT statement and returns generic rows. Any
// statement that is not a single SELECT is rejected; this is the safety
// boundary for model-generated SQL.
func (s *Store) Select(ctx context.Context, query string) ([]map[string]any, error) {
	if !isSelect(query) {
		return nil, fmt.Errorf("only SELECT queries are allowed")
	}

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		scan := make([]any, len(cols))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func isSelect(query string) bool {
	q := strings.TrimSpace(strings.ToUpper(query))
	if !strings.HasPrefix(q, "SELECT") {
		return false
	}
	// Reject stacked statements: a trailing semicolon is fine, an
	// embedded one is not.
	if i := strings.Index(q, ";"); i >= 0 && strings.TrimSpace(q[i+1:]) != "" {
		return false
	}
	return true
}
