package translator

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/relaylayer/llmgw/internal/canonical"
)

func TestOpenAIRequestToCanonical(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		want *canonical.ChatRequest
	}{
		{
			name: "system, user, assistant with tool call, and tool result",
			body: `{
				"model": "gpt-4o",
				"messages": [
					{"role": "system", "content": "be terse"},
					{"role": "user", "content": "what's the weather in nyc?"},
					{"role": "assistant", "content": null, "tool_calls": [
						{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"nyc\"}"}}
					]},
					{"role": "tool", "tool_call_id": "call_1", "content": "72 and sunny"}
				],
				"temperature": 0.5,
				"max_tokens": 256
			}`,
			want: &canonical.ChatRequest{
				Model: "gpt-4o",
				Messages: []canonical.Message{
					{Role: canonical.RoleSystem, Text: "be terse"},
					{Role: canonical.RoleUser, Text: "what's the weather in nyc?"},
					{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
						{ID: "call_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
					}},
					{Role: canonical.RoleTool, Text: "72 and sunny", ToolCallID: "call_1"},
				},
				Temperature: f64p(0.5),
				MaxTokens:   i64p(256),
			},
		},
		{
			name: "developer role maps to system, multipart user content",
			body: `{
				"model": "gpt-4o-mini",
				"messages": [
					{"role": "developer", "content": "follow instructions"},
					{"role": "user", "content": [
						{"type": "text", "text": "describe this"},
						{"type": "image_url", "image_url": {"url": "https://example.com/cat.png"}}
					]}
				]
			}`,
			want: &canonical.ChatRequest{
				Model: "gpt-4o-mini",
				Messages: []canonical.Message{
					{Role: canonical.RoleSystem, Text: "follow instructions"},
					{Role: canonical.RoleUser, Parts: []canonical.ContentPart{
						{Type: canonical.ContentText, Text: "describe this"},
						{Type: canonical.ContentImageURL, ImageURL: "https://example.com/cat.png"},
					}},
				},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := openAIRequestToCanonical([]byte(tc.body))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected canonical request (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenAIRequestToCanonicalRejectsEmptyMessages(t *testing.T) {
	_, err := openAIRequestToCanonical([]byte(`{"model":"gpt-4o","messages":[]}`))
	require.Error(t, err)
}

func TestCanonicalToOpenAIRequest(t *testing.T) {
	req := &canonical.ChatRequest{
		Model: "gpt-4o",
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "hi"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "call_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: "72F", ToolCallID: "call_1"},
		},
		Stop: []string{"STOP"},
	}
	body, err := canonicalToOpenAIRequest(req)
	require.NoError(t, err)

	back, err := openAIRequestToCanonical(body)
	require.NoError(t, err)
	if diff := cmp.Diff(req, back); diff != "" {
		t.Fatalf("round trip through openai wire shape changed canonical request (-want +got):\n%s", diff)
	}
}

func TestOpenAIResponseToCanonical(t *testing.T) {
	body := `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 100, "model": "gpt-4o",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13, "prompt_tokens_details": {"cached_tokens": 2}}
	}`
	got, err := openAIResponseToCanonical([]byte(body))
	require.NoError(t, err)

	want := &canonical.ChatResponse{
		ID: "chatcmpl-1", Created: 100, Model: "gpt-4o",
		Choices: []canonical.Choice{{Index: 0, Message: canonical.Message{Role: canonical.RoleAssistant, Text: "hello there"}, FinishReason: canonical.FinishStop}},
		Usage:   &canonical.Usage{PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13, CachedTokens: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected canonical response (-want +got):\n%s", diff)
	}
}

func TestCanonicalToOpenAIResponseRoundTrip(t *testing.T) {
	resp := &canonical.ChatResponse{
		ID: "chatcmpl-2", Created: 5, Model: "gpt-4o",
		Choices: []canonical.Choice{{Index: 0, Message: canonical.Message{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
			{ID: "call_9", Name: "lookup", ArgsRaw: json.RawMessage(`{"q":"x"}`)},
		}}, FinishReason: canonical.FinishToolCalls}},
		Usage: &canonical.Usage{PromptTokens: 4, CompletionTokens: 2, TotalTokens: 6},
	}
	body, err := canonicalToOpenAIResponse(resp)
	require.NoError(t, err)

	back, err := openAIResponseToCanonical(body)
	require.NoError(t, err)
	if diff := cmp.Diff(resp, back); diff != "" {
		t.Fatalf("round trip through openai response wire shape changed canonical response (-want +got):\n%s", diff)
	}
}

func TestErrorBodyToOpenAIFallsBackOnNonJSON(t *testing.T) {
	out := ErrorBodyToOpenAI(502, []byte("<html>bad gateway</html>"))
	var probe struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(out, &probe))
	require.Contains(t, probe.Error.Message, "non-JSON")
}

func f64p(v float64) *float64 { return &v }
func i64p(v int64) *int64     { return &v }
