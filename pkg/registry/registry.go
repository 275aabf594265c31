// Package registry implements the fixed tool palette available to the
// orchestration engine: an immutable name-to-function mapping built once at
// startup and passed by reference into the engine.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/ports"
)

type entry struct {
	spec   domain.ToolSpec
	fn     ports.ToolFunc
	schema *jsonschema.Schema
}

// Registry is an ordered, immutable tool table. The first registered tool is
// the default fallback. Safe for concurrent invocation once built.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]entry
	sealed  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool. Registration order is preserved; the first tool
// becomes the default. Re-registering a name or registering after Seal is a
// programming error and fails loudly.
func (r *Registry) Register(spec domain.ToolSpec, fn ports.ToolFunc) error {
	if spec.Name == "" {
		return fmt.Errorf("tool missing name")
	}
	if fn == nil {
		return fmt.Errorf("tool %s missing implementation", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("registry is sealed")
	}
	if _, exists := r.entries[spec.Name]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}

	e := entry{spec: spec, fn: fn}
	if spec.Parameters != nil {
		schema, err := compileSchema(spec.Name, spec.Parameters)
		if err != nil {
			return fmt.Errorf("tool %s schema: %w", spec.Name, err)
		}
		e.schema = schema
	}

	r.entries[spec.Name] = e
	r.order = append(r.order, spec.Name)
	return nil
}

// MustRegister is Register for wiring code where a failure is fatal.
func (r *Registry) MustRegister(spec domain.ToolSpec, fn ports.ToolFunc) {
	if err := r.Register(spec, fn); err != nil {
		panic(err)
	}
}

// Seal freezes the registry. Further Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Invoke executes the named tool. Schema violations do not raise: the tool
// contract is "always return a payload", so they come back as an
// error-shaped result string the engine can append and continue with.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}

	if args == nil {
		args = map[string]any{}
	}
	if e.schema != nil {
		if err := e.schema.Validate(roundTrip(args)); err != nil {
			payload, _ := json.Marshal(map[string]string{
				"error": fmt.Sprintf("invalid arguments for %s: %v", name, err),
			})
			return string(payload), nil
		}
	}

	return e.fn(ctx, args)
}

// Lookup reports whether the named tool exists.
func (r *Registry) Lookup(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Default returns the fallback tool name: the first registered tool.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

// Specs lists tool descriptors in registration order.
func (r *Registry) Specs() []domain.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]domain.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.entries[name].spec)
	}
	return specs
}

func compileSchema(name string, parameters map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(parameters)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	url := "finagent://tools/" + name
	if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// roundTrip normalizes Go values (ints, structs) into the generic JSON shape
// the schema validator expects.
func roundTrip(args map[string]any) any {
	raw, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return args
	}
	return out
}

var _ ports.ToolRegistry = (*Registry)(nil)
