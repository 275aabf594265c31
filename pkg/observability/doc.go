// Package observability provides Prometheus collectors exposed through the
// engine's lifecycle hooks, plus a helper for chaining hook sets.
package observability
