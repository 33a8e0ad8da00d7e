package agent

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseEvent(name, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", name, data)
}

func textStream(stopReason string, chunks ...string) string {
	var b strings.Builder
	b.WriteString(sseEvent("message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`))
	b.WriteString(sseEvent("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`))
	for _, c := range chunks {
		b.WriteString(sseEvent("content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%q}}`, c)))
	}
	b.WriteString(sseEvent("content_block_stop", `{"type":"content_block_stop","index":0}`))
	b.WriteString(sseEvent("message_delta", fmt.Sprintf(`{"type":"message_delta","delta":{"stop_reason":%q,"stop_sequence":null},"usage":{"output_tokens":5}}`, stopReason)))
	b.WriteString(sseEvent("message_stop", `{"type":"message_stop"}`))
	return b.String()
}

func fakeAPI(t *testing.T, bodies ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(bodies) {
			n = len(bodies) - 1
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(bodies[n]))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestAgent(t *testing.T, baseURL string) *AnthropicAgent {
	t.Helper()
	a, err := NewAnthropicAgent(Config{APIKey: "test-key", BaseURL: baseURL})
	require.NoError(t, err)
	return a
}

func TestAnthropicAgent_StreamsText(t *testing.T) {
	srv, calls := fakeAPI(t, textStream("end_turn", "Nothing new.\n", "SILENT"))
	a := newTestAgent(t, srv.URL)

	msgs, err := collect(t, a, Request{Prompt: "research", AllowedTools: []string{ToolWebSearch}, MaxTurns: 3})
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, "Nothing new.\n", msgs[0].Text)
	assert.Equal(t, "SILENT", msgs[1].Text)

	result := msgs[2]
	assert.Equal(t, KindResult, result.Kind)
	assert.Equal(t, "end_turn", result.StopReason)
	assert.Equal(t, 1, result.Turns)
	assert.Equal(t, int64(10), result.Usage.InputTokens)
	assert.Equal(t, int64(5), result.Usage.OutputTokens)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnthropicAgent_ResumesPausedTurn(t *testing.T) {
	srv, calls := fakeAPI(t,
		textStream("pause_turn", "Searching..."),
		textStream("end_turn", "ALERT: found it"),
	)
	a := newTestAgent(t, srv.URL)

	msgs, err := collect(t, a, Request{Prompt: "research", MaxTurns: 5})
	require.NoError(t, err)

	result := msgs[len(msgs)-1]
	assert.Equal(t, 2, result.Turns)
	assert.Equal(t, "end_turn", result.StopReason)
	assert.Equal(t, int64(20), result.Usage.InputTokens)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropicAgent_MaxTurns(t *testing.T) {
	srv, calls := fakeAPI(t, textStream("pause_turn", "still going"))
	a := newTestAgent(t, srv.URL)

	msgs, err := collect(t, a, Request{Prompt: "research", MaxTurns: 2})
	require.NoError(t, err)

	result := msgs[len(msgs)-1]
	assert.Equal(t, "max_turns", result.StopReason)
	assert.Equal(t, 2, result.Turns)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropicAgent_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()
	a := newTestAgent(t, srv.URL)

	_, err := collect(t, a, Request{Prompt: "research"})
	require.Error(t, err)

	var ie *InvocationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Turn)
	assert.Contains(t, fmt.Sprintf("%+v", err), "messages stream")
}

func TestNewAnthropicAgent_RequiresCredentials(t *testing.T) {
	_, err := NewAnthropicAgent(Config{})
	require.Error(t, err)
}

func TestAnthropicAgent_Tools(t *testing.T) {
	a, err := NewAnthropicAgent(Config{OAuthToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, a.Name())

	tools := a.tools([]string{ToolWebSearch, ToolWebFetch, "Bash"})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfWebSearchTool20250305)
}
