package ports

import (
	"context"

	"github.com/finagentlabs/finagent/pkg/domain"
)

// ToolFunc is a tool implementation. It receives decoded arguments and
// returns a string payload. Tools are expected to encode failures inside the
// payload (e.g. {"error": "..."}) rather than returning an error, so the
// orchestration layer can always append a result and continue; a non-nil
// error is reserved for context cancellation.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// ToolRegistry is the fixed palette of named operations available to the
// engine. Implementations are immutable after construction and safe for
// concurrent invocation from multiple runs.
type ToolRegistry interface {
	// Invoke executes the named tool. Unknown names return
	// domain.ErrToolNotFound.
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)

	// Lookup reports whether a tool with the given name is registered.
	Lookup(name string) bool

	// Default returns the name of the fallback tool (by convention the
	// first registered one, semantic search).
	Default() string

	// Specs lists the registered tools in registration order, for
	// prompting and adapter exposure.
	Specs() []domain.ToolSpec
}
