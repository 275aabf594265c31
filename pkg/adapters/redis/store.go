// Package redis implements ports.TraceStore on Redis, so the API layer can
// replay answers and thinking traces to reconnecting clients.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/ports"
)

// Store keeps one Redis list of run records per conversation, plus a ZSET
// index for expiry-aware listing.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for conversation histories.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store from connection settings.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "finagent:conversation:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(conversationID string) string {
	return s.prefix + conversationID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save appends one run record to the conversation's history.
func (s *Store) Save(ctx context.Context, conversationID string, rec *ports.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.key(conversationID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(conversationID), s.ttl)
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().Unix()),
		Member: conversationID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save conversation %s: %w", conversationID, err)
	}
	return nil
}

// Load returns the conversation's run records, oldest first.
func (s *Store) Load(ctx context.Context, conversationID string) ([]ports.RunRecord, error) {
	raw, err := s.client.LRange(ctx, s.key(conversationID), 0, -1).Result()
	if err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrConversationNotFound
	}

	records := make([]ports.RunRecord, 0, len(raw))
	for _, entry := range raw {
		var rec ports.RunRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			return nil, fmt.Errorf("decode run record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes a conversation's history.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(conversationID))
	pipe.ZRem(ctx, s.indexKey(), conversationID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete conversation %s: %w", conversationID, err)
	}
	return nil
}

// List returns known conversation ids, most recent first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return ids, nil
}

var _ ports.TraceStore = (*Store)(nil)
