package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/registry"
)

func echoTool(_ context.Context, args map[string]any) (string, error) {
	return "echo", nil
}

func TestRegistry_RegistrationOrder(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(domain.ToolSpec{Name: "first", Description: "a"}, echoTool))
	require.NoError(t, r.Register(domain.ToolSpec{Name: "second", Description: "b"}, echoTool))
	require.NoError(t, r.Register(domain.ToolSpec{Name: "third", Description: "c"}, echoTool))

	assert.Equal(t, "first", r.Default())

	specs := r.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "first", specs[0].Name)
	assert.Equal(t, "second", specs[1].Name)
	assert.Equal(t, "third", specs[2].Name)
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(domain.ToolSpec{Name: "dup"}, echoTool))
	err := r.Register(domain.ToolSpec{Name: "dup"}, echoTool)
	assert.ErrorContains(t, err, "already registered")
}

func TestRegistry_RegisterAfterSeal(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(domain.ToolSpec{Name: "only"}, echoTool))
	r.Seal()
	err := r.Register(domain.ToolSpec{Name: "late"}, echoTool)
	assert.ErrorContains(t, err, "sealed")
}

func TestRegistry_MissingNameOrFn(t *testing.T) {
	r := registry.New()
	assert.Error(t, r.Register(domain.ToolSpec{}, echoTool))
	assert.Error(t, r.Register(domain.ToolSpec{Name: "x"}, nil))
}

func TestRegistry_InvokeUnknown(t *testing.T) {
	r := registry.New()
	_, err := r.Invoke(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
	assert.False(t, r.Lookup("ghost"))
}

func TestRegistry_SchemaViolationBecomesPayload(t *testing.T) {
	r := registry.New()
	spec := domain.ToolSpec{
		Name: "strict",
		Parameters: map[string]any{
			"type":     "object",
			"required": []string{"query"},
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
		},
	}
	called := false
	require.NoError(t, r.Register(spec, func(_ context.Context, _ map[string]any) (string, error) {
		called = true
		return "ok", nil
	}))

	// Missing required argument: payload, not error, and the tool never runs.
	payload, err := r.Invoke(context.Background(), "strict", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, payload, "invalid arguments for strict")
	assert.False(t, called)

	// Valid arguments pass through.
	payload, err = r.Invoke(context.Background(), "strict", map[string]any{"query": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", payload)
	assert.True(t, called)
}

func TestRegistry_SchemaAcceptsGoInts(t *testing.T) {
	r := registry.New()
	spec := domain.ToolSpec{
		Name: "numeric",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"n_results": map[string]any{"type": "integer"},
			},
		},
	}
	require.NoError(t, r.Register(spec, echoTool))

	// The engine passes native ints; validation sees the JSON shape.
	payload, err := r.Invoke(context.Background(), "numeric", map[string]any{"n_results": 5})
	require.NoError(t, err)
	assert.Equal(t, "echo", payload)
}

func TestRegistry_NilArgs(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(domain.ToolSpec{Name: "tolerant"}, func(_ context.Context, args map[string]any) (string, error) {
		require.NotNil(t, args)
		return "ok", nil
	}))
	payload, err := r.Invoke(context.Background(), "tolerant", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", payload)
}

func TestRegistry_EmptyDefault(t *testing.T) {
	assert.Equal(t, "", registry.New().Default())
}
