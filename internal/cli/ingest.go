package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finagentlabs/finagent/pkg/ports"
	"github.com/finagentlabs/finagent/pkg/store/sqlite"
)

// chunkSize bounds snippet length in runes. Retrieval scores per snippet,
// so oversized chunks drown the overlap signal.
const chunkSize = 1200

var ingestExtensions = map[string]string{
	".txt": "text",
	".md":  "markdown",
	".csv": "csv",
}

// Ingest loads plain-text documents from a directory into the store and the
// retrieval index. Returns the number of documents ingested.
func Ingest(ctx context.Context, app *App, dir, docType string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		fileType, ok := ingestExtensions[ext]
		if !ok {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return count, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		doc := sqlite.Document{
			ID:       uuid.NewString(),
			Filename: entry.Name(),
			FileType: fileType,
			DocType:  docType,
			ExtractedData: map[string]any{
				"text":       string(raw),
				"char_count": len(raw),
			},
			UploadedAt: time.Now().UTC(),
		}
		if err := app.Store.SaveDocument(ctx, doc); err != nil {
			return count, err
		}
		app.Index.Add(SnippetsFromDocument(doc)...)
		count++
		app.Logger.Info("ingested document", "filename", doc.Filename, "doc_type", docType)
	}
	return count, nil
}

// SnippetsFromDocument chunks a stored document's text into retrieval
// snippets. Documents without extracted text yield nothing.
func SnippetsFromDocument(doc sqlite.Document) []ports.Snippet {
	text, _ := doc.ExtractedData["text"].(string)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var snippets []ports.Snippet
	for page, chunk := range chunk(text, chunkSize) {
		snippets = append(snippets, ports.Snippet{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			DocType:    doc.DocType,
			Page:       page + 1,
			Text:       chunk,
		})
	}
	return snippets
}

// chunk splits text into rune-bounded pieces on paragraph boundaries where
// possible.
func chunk(text string, size int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for len([]rune(p)) > size {
			runes := []rune(p)
			flush()
			chunks = append(chunks, string(runes[:size]))
			p = strings.TrimSpace(string(runes[size:]))
		}
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(p)) > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()
	return chunks
}
