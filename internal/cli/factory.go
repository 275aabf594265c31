// Package cli wires configuration into a running agent for the command
// line entry points.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/internal/config"
	"github.com/finagentlabs/finagent/internal/logging"
	"github.com/finagentlabs/finagent/pkg/adapters/memory"
	redisadapter "github.com/finagentlabs/finagent/pkg/adapters/redis"
	"github.com/finagentlabs/finagent/pkg/observability"
	"github.com/finagentlabs/finagent/pkg/ports"
	"github.com/finagentlabs/finagent/pkg/reasoning"
	"github.com/finagentlabs/finagent/pkg/reports"
	"github.com/finagentlabs/finagent/pkg/retrieval"
	"github.com/finagentlabs/finagent/pkg/store/sqlite"
	"github.com/finagentlabs/finagent/pkg/tools"
)

// App bundles the wired agent with the resources it owns.
type App struct {
	Agent   *finagent.Agent
	Store   *sqlite.Store
	Index   *retrieval.Index
	Logger  *slog.Logger
	Metrics *observability.Metrics

	redis *goredis.Client
}

// Build constructs the agent from configuration: reasoning client, SQLite
// store, retrieval index (rebuilt from stored documents), tool registry,
// and the trace store (Redis when configured, in-memory otherwise).
func Build(ctx context.Context, cfg *config.Config, serverMode bool) (*App, error) {
	logger := newLogger(cfg, serverMode)

	reasoner, err := reasoning.NewClient(reasoning.Config{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
		MaxTokens:     int64(cfg.Anthropic.MaxTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("create reasoning client: %w", err)
	}

	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	index := retrieval.NewIndex()
	if err := reindex(ctx, store, index); err != nil {
		store.Close()
		return nil, err
	}

	generator, err := reports.NewGenerator()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load report templates: %w", err)
	}

	registry, err := tools.NewRegistry(tools.Deps{
		Retriever: index,
		Reasoner:  reasoner,
		Store:     store,
		Reports:   generator,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	metrics := observability.NewMetrics()

	opts := []finagent.Option{
		finagent.WithLogger(logger),
		finagent.WithHooks(metrics.Hooks()),
	}
	if cfg.Retrieval.SearchResults > 0 {
		opts = append(opts, finagent.WithSearchResults(cfg.Retrieval.SearchResults))
	}

	app := &App{
		Store:   store,
		Index:   index,
		Logger:  logger,
		Metrics: metrics,
	}

	var traceStore ports.TraceStore
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			store.Close()
			client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		app.redis = client
		traceStore = redisadapter.NewFromClient(client)
	} else {
		traceStore = memory.NewStore()
	}
	opts = append(opts, finagent.WithTraceStore(traceStore))

	app.Agent = finagent.New(reasoner, registry, opts...)
	return app, nil
}

// Close releases the app's database and redis handles.
func (a *App) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// reindex rebuilds the in-memory retrieval index from stored documents.
func reindex(ctx context.Context, store *sqlite.Store, index *retrieval.Index) error {
	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("rebuild retrieval index: %w", err)
	}
	for _, doc := range docs {
		index.Add(SnippetsFromDocument(doc)...)
	}
	return nil
}

func newLogger(cfg *config.Config, serverMode bool) *slog.Logger {
	level := parseLevel(cfg.Log.Level)
	if serverMode || strings.EqualFold(cfg.Log.Format, "json") {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
