package translator

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	gem "github.com/relaylayer/llmgw/internal/apischema/gemini"
	"github.com/relaylayer/llmgw/internal/canonical"
)

func TestGeminiRequestToCanonical(t *testing.T) {
	body := `{
		"contents": [
			{"role": "user", "parts": [{"text": "what's the weather?"}]},
			{"role": "model", "parts": [{"functionCall": {"id": "fc_1", "name": "get_weather", "args": {"city": "nyc"}}}]},
			{"role": "user", "parts": [{"functionResponse": {"id": "fc_1", "name": "get_weather", "response": {"result": "72F"}}}]}
		],
		"system_instruction": {"parts": [{"text": "be terse"}]},
		"generation_config": {"temperature": 0.2, "maxOutputTokens": 256}
	}`
	got, err := geminiRequestToCanonical([]byte(body))
	require.NoError(t, err)

	want := &canonical.ChatRequest{
		MaxTokens:   i64p(256),
		Temperature: f64p(0.20000000298023224),
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "what's the weather?"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "fc_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: `{"result":"72F"}`, ToolCallID: "fc_1"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected canonical request (-want +got):\n%s", diff)
	}
}

func TestGeminiRequestToCanonicalRejectsEmptyContents(t *testing.T) {
	_, err := geminiRequestToCanonical([]byte(`{"contents":[]}`))
	require.Error(t, err)
}

func TestCanonicalToGeminiRequestRoundTrip(t *testing.T) {
	req := &canonical.ChatRequest{
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "what's the weather?"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "fc_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: `{"result":"72F"}`, ToolCallID: "fc_1"},
		},
	}
	body, err := canonicalToGeminiRequest(req)
	require.NoError(t, err)

	back, err := geminiRequestToCanonical(body)
	require.NoError(t, err)
	if diff := cmp.Diff(req, back); diff != "" {
		t.Fatalf("round trip through gemini wire shape changed canonical request (-want +got):\n%s", diff)
	}
}

// TestCanonicalToGeminiRequestFiltersUnsupportedSchemaKeywords exercises
// jsonSchemaToGeminiSchema indirectly through the request translation path,
// the way it is actually reached in production.
func TestCanonicalToGeminiRequestFiltersUnsupportedSchemaKeywords(t *testing.T) {
	req := &canonical.ChatRequest{
		Messages: []canonical.Message{{Role: canonical.RoleUser, Text: "hi"}},
		Tools: []canonical.ToolSchema{{
			Name: "get_weather",
			Parameters: json.RawMessage(`{
				"type": "object",
				"additionalProperties": false,
				"properties": {"city": {"type": ["string", "null"]}},
				"required": ["city"]
			}`),
		}},
	}
	body, err := canonicalToGeminiRequest(req)
	require.NoError(t, err)

	var wire gem.GenerateContentRequest
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Len(t, wire.Tools, 1)
	require.Len(t, wire.Tools[0].FunctionDeclarations, 1)

	paramsJSON, err := json.Marshal(wire.Tools[0].FunctionDeclarations[0].Parameters)
	require.NoError(t, err)
	var params map[string]any
	require.NoError(t, json.Unmarshal(paramsJSON, &params))
	require.NotContains(t, params, "additionalProperties")

	city := params["properties"].(map[string]any)["city"].(map[string]any)
	require.Equal(t, "string", city["type"])
	require.Equal(t, true, city["nullable"])
}

func TestGeminiResponseToCanonical(t *testing.T) {
	body := `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "hi there"}]}, "finishReason": "STOP", "index": 0}],
		"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 3, "totalTokenCount": 13},
		"modelVersion": "gemini-2.0-flash"
	}`
	got, err := geminiResponseToCanonical([]byte(body))
	require.NoError(t, err)

	want := &canonical.ChatResponse{
		Model: "gemini-2.0-flash",
		Choices: []canonical.Choice{{Index: 0, Message: canonical.Message{Role: canonical.RoleAssistant, Text: "hi there"}, FinishReason: canonical.FinishStop}},
		Usage:   &canonical.Usage{PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected canonical response (-want +got):\n%s", diff)
	}
}

func TestGeminiFinishReasonMapping(t *testing.T) {
	for _, tc := range []struct {
		wire gem.FinishReason
		want canonical.FinishReason
	}{
		{gem.FinishReasonStop, canonical.FinishStop},
		{gem.FinishReasonMaxTokens, canonical.FinishLength},
		{gem.FinishReasonSafety, canonical.FinishContentFilter},
	} {
		require.Equal(t, tc.want, geminiFinishToCanonical(tc.wire))
		require.Equal(t, tc.wire, canonicalFinishToGemini(tc.want))
	}
}
