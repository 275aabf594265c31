package ports

import "context"

// Reasoner is the single abstraction over a large-language-model call.
// Implementations run at deterministic (zero) temperature so repeated
// identical prompts yield repeatable output for a fixed model version.
// Must be safe for concurrent use from multiple runs.
type Reasoner interface {
	// Complete sends a system instruction and a user instruction and
	// returns the free-text response content.
	Complete(ctx context.Context, system, user string) (string, error)
}
