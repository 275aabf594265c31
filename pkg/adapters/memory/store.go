// Package memory provides an in-memory ports.TraceStore for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/ports"
)

// Store implements ports.TraceStore in memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string][]ports.RunRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string][]ports.RunRecord)}
}

// Save appends the record to the conversation's history.
func (s *Store) Save(ctx context.Context, conversationID string, rec *ports.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = append(s.data[conversationID], *rec)
	return nil
}

// Load returns a copy of the conversation's records, oldest first.
func (s *Store) Load(ctx context.Context, conversationID string) ([]ports.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.data[conversationID]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	out := make([]ports.RunRecord, len(records))
	copy(out, records)
	return out, nil
}

// Delete removes the conversation.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

var _ ports.TraceStore = (*Store)(nil)
