package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-agent/recall/internal/core"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *Anthropic {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Anthropic{baseProvider: newBaseProvider(srv.URL, "test-key", "test-model")}
}

func TestAnthropicChatJoinsSystemMessages(t *testing.T) {
	provider := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		system, ok := payload["system"].(string)
		require.True(t, ok, "system field should be a string")
		assert.Contains(t, system, "You are a helpful assistant.")
		assert.Contains(t, system, "Relevant information from memory:")

		messages, ok := payload["messages"].([]any)
		require.True(t, ok)
		assert.Len(t, messages, 1, "system messages must not leak into the messages array")

		w.Write([]byte(`{"content":[{"type":"text","text":"hello"}]}`))
	})

	msg, err := provider.Chat(context.Background(), []core.Message{
		{Role: core.RoleSystem, Content: "You are a helpful assistant."},
		{Role: core.RoleSystem, Content: "Relevant information from memory:\nUser prefers tea."},
		{Role: core.RoleUser, Content: "what do I drink?"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
}

func TestAnthropicChatParsesToolUse(t *testing.T) {
	provider := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotNil(t, payload["tools"])

		w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "Looking that up."},
				{"type": "tool_use", "id": "toolu_1", "name": "web_search", "input": {"query": "weather"}}
			]
		}`))
	})

	tools := []core.Tool{{
		Type: "function",
		Function: core.Function{
			Name:       "web_search",
			Parameters: json.RawMessage(`{"type":"object"}`),
		},
	}}

	msg, err := provider.Chat(context.Background(), []core.Message{
		{Role: core.RoleUser, Content: "what is the weather"},
	}, tools)
	require.NoError(t, err)

	assert.Equal(t, "Looking that up.", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "toolu_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "web_search", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query":"weather"}`, msg.ToolCalls[0].Function.Arguments)
}
