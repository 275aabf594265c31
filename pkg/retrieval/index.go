// Package retrieval provides an in-memory snippet index implementing
// ports.Retriever. It scores by token overlap; production deployments swap
// in an embedding-backed retriever behind the same port. How vectors are
// computed and stored is outside the engine's contract.
package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/finagentlabs/finagent/pkg/ports"
)

// Index is a concurrency-safe in-memory snippet store.
type Index struct {
	mu       sync.RWMutex
	snippets []ports.Snippet
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Add indexes snippets. Score fields on input are ignored; Search computes
// its own.
func (i *Index) Add(snippets ...ports.Snippet) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.snippets = append(i.snippets, snippets...)
}

// Search returns up to n snippets ranked by token overlap with the query,
// optionally filtered by document type. Zero matches is a valid result.
func (i *Index) Search(ctx context.Context, query string, n int, docType string) ([]ports.Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 5
	}

	terms := tokenize(query)

	i.mu.RLock()
	defer i.mu.RUnlock()

	var matches []ports.Snippet
	for _, s := range i.snippets {
		if docType != "" && s.DocType != docType {
			continue
		}
		score := overlap(terms, tokenize(s.Text))
		if score > 0 {
			s.Score = score
			matches = append(matches, s)
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

func tokenize(text string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		if len(tok) > 1 {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var hits int
	for tok := range query {
		if _, ok := doc[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

var _ ports.Retriever = (*Index)(nil)
