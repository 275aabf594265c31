package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/internal/logging"
	httpadapter "github.com/finagentlabs/finagent/pkg/adapters/http"
	"github.com/finagentlabs/finagent/pkg/adapters/memory"
	"github.com/finagentlabs/finagent/pkg/domain"
)

type stubReasoner struct {
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
	return "The total is INR 5,000.", nil
}

type stubRegistry struct{}

func (stubRegistry) Invoke(_ context.Context, _ string, _ map[string]any) (string, error) {
	return `{"chunks": []}`, nil
}
func (stubRegistry) Lookup(name string) bool { return name == "vector_search" }
func (stubRegistry) Default() string         { return "vector_search" }
func (stubRegistry) Specs() []domain.ToolSpec {
	return []domain.ToolSpec{{Name: "vector_search", Description: "semantic search"}}
}

func newServer(t *testing.T, failing bool) *httptest.Server {
	t.Helper()
	agent := finagent.New(&stubReasoner{failAll: failing}, stubRegistry{},
		finagent.WithTraceStore(memory.NewStore()))
	srv := httptest.NewServer(httpadapter.NewHandler(agent, logging.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChat(t *testing.T) {
	srv := newServer(t, false)

	resp := postJSON(t, srv.URL+"/chat", `{"query": "What is the total?", "conversation_id": "conv-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result finagent.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "The total is INR 5,000.", result.Answer)
	assert.Equal(t, "conv-1", result.ConversationID)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.Degraded)
}

func TestChat_DegradedStillOK(t *testing.T) {
	srv := newServer(t, true)

	resp := postJSON(t, srv.URL+"/chat", `{"query": "q"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result finagent.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Degraded)
	assert.Equal(t, finagent.DegradedAnswer(), result.Answer)
}

func TestChat_BadRequests(t *testing.T) {
	srv := newServer(t, false)

	resp := postJSON(t, srv.URL+"/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatStream(t *testing.T) {
	srv := newServer(t, false)

	resp := postJSON(t, srv.URL+"/chat/stream", `{"query": "What is the total?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := readAll(t, resp)
	// One node event per completed node, then the terminal event.
	assert.Equal(t, 3, strings.Count(body, "event: node"))
	assert.Contains(t, body, `"node":"classify"`)
	assert.Contains(t, body, `"node":"retrieve"`)
	assert.Contains(t, body, `"node":"synthesize"`)
	assert.Contains(t, body, "event: done")
}

func TestChatStream_Degraded(t *testing.T) {
	srv := newServer(t, true)

	resp := postJSON(t, srv.URL+"/chat/stream", `{"query": "q"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readAll(t, resp)
	assert.Contains(t, body, "event: degraded")
	assert.NotContains(t, body, "event: done")
}

func TestGetConversation(t *testing.T) {
	srv := newServer(t, false)

	resp, err := http.Get(srv.URL + "/conversations/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Run once, then history exists.
	postJSON(t, srv.URL+"/chat", `{"query": "q", "conversation_id": "conv-9"}`)

	resp, err = http.Get(srv.URL + "/conversations/conv-9")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "q", records[0]["query"])
}

func TestGetTools(t *testing.T) {
	srv := newServer(t, false)

	resp, err := http.Get(srv.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var specs []domain.ToolSpec
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&specs))
	require.Len(t, specs, 1)
	assert.Equal(t, "vector_search", specs[0].Name)
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, false)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t, false)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/chat", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		b.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return b.String()
}
