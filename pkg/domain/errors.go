package domain

import "errors"

// ErrConversationNotFound is returned when a conversation id cannot be found
// in the trace store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrReasonerUnavailable wraps reasoning-client failures. It is the only
// failure class that aborts a run early; the driver converts it into a
// degraded answer instead of crashing the caller.
var ErrReasonerUnavailable = errors.New("reasoning client unavailable")

// ErrToolNotFound is returned by the registry for unknown tool names.
// Orchestration never propagates it; it falls back to the default tool.
var ErrToolNotFound = errors.New("tool not found")
