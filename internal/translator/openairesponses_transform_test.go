package translator

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	oair "github.com/relaylayer/llmgw/internal/apischema/openairesponses"
	"github.com/relaylayer/llmgw/internal/canonical"
)

func TestOpenAIResponsesRequestToCanonical(t *testing.T) {
	body := `{
		"model": "gpt-4o",
		"instructions": "be terse",
		"input": [
			{"type": "message", "role": "user", "content": "what's the weather?"},
			{"type": "function_call", "call_id": "call_1", "name": "get_weather", "arguments": "{\"city\":\"nyc\"}"},
			{"type": "function_call_output", "call_id": "call_1", "output": "72F"}
		]
	}`
	got, err := openaiResponsesRequestToCanonical([]byte(body))
	require.NoError(t, err)

	want := &canonical.ChatRequest{
		Model: "gpt-4o",
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "what's the weather?"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "call_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: "72F", ToolCallID: "call_1"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected canonical request (-want +got):\n%s", diff)
	}
}

func TestOpenAIResponsesRequestToCanonicalPlainTextInput(t *testing.T) {
	got, err := openaiResponsesRequestToCanonical([]byte(`{"model": "gpt-4o", "input": "hello"}`))
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.Equal(t, canonical.RoleUser, got.Messages[0].Role)
	require.Equal(t, "hello", got.Messages[0].Text)
}

func TestOpenAIResponsesRequestToCanonicalRejectsEmptyInput(t *testing.T) {
	_, err := openaiResponsesRequestToCanonical([]byte(`{"model": "gpt-4o"}`))
	require.Error(t, err)
}

func TestCanonicalToOpenAIResponsesRequestRoundTrip(t *testing.T) {
	req := &canonical.ChatRequest{
		Model: "gpt-4o",
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "what's the weather?"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "call_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: "72F", ToolCallID: "call_1"},
		},
	}
	body, err := canonicalToOpenAIResponsesRequest(req)
	require.NoError(t, err)

	back, err := openaiResponsesRequestToCanonical(body)
	require.NoError(t, err)
	if diff := cmp.Diff(req, back); diff != "" {
		t.Fatalf("round trip through responses wire shape changed canonical request (-want +got):\n%s", diff)
	}
}

func TestOpenAIResponsesResponseToCanonical(t *testing.T) {
	body := `{
		"id": "resp_1", "object": "response", "created_at": 100, "model": "gpt-4o", "status": "completed",
		"output": [{"type": "message", "role": "assistant", "content": [{"type": "output_text", "text": "hi there"}]}],
		"usage": {"input_tokens": 10, "output_tokens": 3, "total_tokens": 13}
	}`
	got, err := openaiResponsesResponseToCanonical([]byte(body))
	require.NoError(t, err)

	want := &canonical.ChatResponse{
		ID: "resp_1", Created: 100, Model: "gpt-4o",
		Choices: []canonical.Choice{{Message: canonical.Message{Role: canonical.RoleAssistant, Text: "hi there"}, FinishReason: canonical.FinishStop}},
		Usage:   &canonical.Usage{PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected canonical response (-want +got):\n%s", diff)
	}
}

func TestOpenAIResponsesResponseToCanonicalIncompleteMapsToLength(t *testing.T) {
	body := `{"id": "resp_2", "object": "response", "model": "gpt-4o", "status": "incomplete", "output": []}`
	got, err := openaiResponsesResponseToCanonical([]byte(body))
	require.NoError(t, err)
	require.Equal(t, canonical.FinishLength, got.Choices[0].FinishReason)
}

func TestCanonicalToOpenAIResponsesResponseRoundTrip(t *testing.T) {
	resp := &canonical.ChatResponse{
		ID: "resp_3", Created: 5, Model: "gpt-4o",
		Choices: []canonical.Choice{{Message: canonical.Message{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
			{ID: "call_9", Name: "lookup", ArgsRaw: json.RawMessage(`{"q":"x"}`)},
		}}, FinishReason: canonical.FinishToolCalls}},
		Usage: &canonical.Usage{PromptTokens: 4, CompletionTokens: 2, TotalTokens: 6},
	}
	body, err := canonicalToOpenAIResponsesResponse(resp)
	require.NoError(t, err)

	var wire oair.Response
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Equal(t, oair.StatusCompleted, wire.Status)

	back, err := openaiResponsesResponseToCanonical(body)
	require.NoError(t, err)
	if diff := cmp.Diff(resp, back); diff != "" {
		t.Fatalf("round trip through responses response wire shape changed canonical response (-want +got):\n%s", diff)
	}
}
