/*
Package domain contains the core value types of the finagent orchestration
engine: the per-run mutable state, tool call and result shapes, stream events
and lifecycle hooks.

Types here have no behavior beyond trivial accessors and no dependencies on
the engine, adapters or stores, so every layer can share them.
*/
package domain
