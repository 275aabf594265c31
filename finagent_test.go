package finagent_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/pkg/adapters/memory"
	"github.com/finagentlabs/finagent/pkg/domain"
)

// stubReasoner answers classification prompts with "simple" and everything
// else with a fixed answer. failAll simulates an outage.
type stubReasoner struct {
	answer  string
	failAll bool
}

func (s *stubReasoner) Complete(ctx context.Context, _, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.failAll {
		return "", errors.New("service unavailable")
	}
	if strings.Contains(user, "classify it as one of") {
		return "simple", nil
	}
	return s.answer, nil
}

type stubRegistry struct{}

func (stubRegistry) Invoke(_ context.Context, name string, _ map[string]any) (string, error) {
	return `{"chunks": []}`, nil
}
func (stubRegistry) Lookup(name string) bool { return name == "vector_search" }
func (stubRegistry) Default() string         { return "vector_search" }
func (stubRegistry) Specs() []domain.ToolSpec {
	return []domain.ToolSpec{{Name: "vector_search", Description: "semantic search"}}
}

func TestAgent_Run(t *testing.T) {
	store := memory.NewStore()
	agent := finagent.New(&stubReasoner{answer: "The total is INR 5,000."}, stubRegistry{},
		finagent.WithTraceStore(store))

	result, err := agent.Run(context.Background(), "What is the total?", "conv-1")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "conv-1", result.ConversationID)
	assert.Equal(t, "The total is INR 5,000.", result.Answer)
	assert.False(t, result.Degraded)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "vector_search", result.Citations[0].Tool)
	assert.NotEmpty(t, result.ThinkingTrace)

	// The run was persisted under the conversation id.
	records, err := agent.History(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.RunID, records[0].RunID)
	assert.Equal(t, "What is the total?", records[0].Query)
	assert.Equal(t, result.Answer, records[0].Answer)
}

func TestAgent_RunWithoutConversationSkipsPersistence(t *testing.T) {
	store := memory.NewStore()
	agent := finagent.New(&stubReasoner{answer: "ok"}, stubRegistry{},
		finagent.WithTraceStore(store))

	_, err := agent.Run(context.Background(), "q", "")
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestAgent_DegradesOnReasonerFailure(t *testing.T) {
	agent := finagent.New(&stubReasoner{failAll: true}, stubRegistry{})

	result, err := agent.Run(context.Background(), "q", "conv-1")
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, finagent.DegradedAnswer(), result.Answer)
}

func TestAgent_HistoryWithoutStore(t *testing.T) {
	agent := finagent.New(&stubReasoner{answer: "ok"}, stubRegistry{})
	_, err := agent.History(context.Background(), "conv-1")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestAgent_RunStream(t *testing.T) {
	agent := finagent.New(&stubReasoner{answer: "streamed answer"}, stubRegistry{})

	events, errs := agent.RunStream(context.Background(), "q", "")
	var nodes []domain.NodeName
	var answer string
	for ev := range events {
		nodes = append(nodes, ev.Node)
		if ev.Delta.FinalAnswer != "" {
			answer = ev.Delta.FinalAnswer
		}
	}
	require.NoError(t, <-errs)

	assert.Equal(t, []domain.NodeName{
		domain.NodeClassify,
		domain.NodeRetrieve,
		domain.NodeSynthesize,
	}, nodes)
	assert.Equal(t, "streamed answer", answer)
}

func TestAgent_CancelledContext(t *testing.T) {
	agent := finagent.New(&stubReasoner{answer: "ok"}, stubRegistry{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agent.Run(ctx, "q", "")
	assert.ErrorIs(t, err, context.Canceled)
}
