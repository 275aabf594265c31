package ports

import "context"

// Snippet is one ranked text fragment returned by document retrieval.
type Snippet struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	DocType    string  `json:"doc_type,omitempty"`
	Page       int     `json:"page,omitempty"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Retriever is the semantic-search collaborator. How snippets are embedded,
// chunked and stored is outside the core; the engine only consumes scored
// text. An empty result set is a valid answer, not an error.
type Retriever interface {
	Search(ctx context.Context, query string, n int, docType string) ([]Snippet, error)
}
