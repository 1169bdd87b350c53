package translator

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	brk "github.com/relaylayer/llmgw/internal/apischema/bedrock"
	"github.com/relaylayer/llmgw/internal/canonical"
)

func TestBedrockRequestToCanonical(t *testing.T) {
	body := `{
		"messages": [
			{"role": "user", "content": [{"text": "what's the weather?"}]},
			{"role": "assistant", "content": [{"toolUse": {"toolUseId": "tu_1", "name": "get_weather", "input": {"city": "nyc"}}}]},
			{"role": "user", "content": [{"toolResult": {"toolUseId": "tu_1", "content": [{"text": "72F"}]}}]}
		],
		"system": [{"text": "be terse"}],
		"inferenceConfig": {"maxTokens": 256, "temperature": 0.2}
	}`
	got, err := bedrockRequestToCanonical([]byte(body))
	require.NoError(t, err)

	want := &canonical.ChatRequest{
		MaxTokens:   i64p(256),
		Temperature: f64p(0.20000000298023224), // float32(0.2) round-tripped through float64
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "what's the weather?"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "tu_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city": "nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: "72F", ToolCallID: "tu_1"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected canonical request (-want +got):\n%s", diff)
	}
}

func TestBedrockRequestToCanonicalRejectsEmptyMessages(t *testing.T) {
	_, err := bedrockRequestToCanonical([]byte(`{"messages":[]}`))
	require.Error(t, err)
}

func TestCanonicalToBedrockRequestRoundTrip(t *testing.T) {
	req := &canonical.ChatRequest{
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "what's the weather?"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "tu_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: "72F", ToolCallID: "tu_1"},
			{Role: canonical.RoleAssistant, Text: "it's 72F"},
		},
		MaxTokens: i64p(512),
	}
	body, err := canonicalToBedrockRequest(req, Defaults{MaxTokens: 1024})
	require.NoError(t, err)

	back, err := bedrockRequestToCanonical(body)
	require.NoError(t, err)
	if diff := cmp.Diff(req, back); diff != "" {
		t.Fatalf("round trip through bedrock converse wire shape changed canonical request (-want +got):\n%s", diff)
	}
}

func TestCanonicalToBedrockRequestAppliesDefaultMaxTokens(t *testing.T) {
	req := &canonical.ChatRequest{Messages: []canonical.Message{{Role: canonical.RoleUser, Text: "hi"}}}
	body, err := canonicalToBedrockRequest(req, Defaults{MaxTokens: 2048})
	require.NoError(t, err)

	var wire brk.ConverseInput
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Equal(t, int32(2048), *wire.InferenceConfig.MaxTokens)
}

func TestBedrockToolChoiceRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		mode string
		tool string
	}{
		{"auto", "auto", ""},
		{"required", "required", ""},
		{"named", "named", "get_weather"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := &canonical.ChatRequest{
				Messages:   []canonical.Message{{Role: canonical.RoleUser, Text: "hi"}},
				Tools:      []canonical.ToolSchema{{Name: "get_weather", Parameters: json.RawMessage(`{"type":"object"}`)}},
				ToolChoice: &canonical.ToolChoice{Mode: tc.mode, Name: tc.tool},
			}
			body, err := canonicalToBedrockRequest(req, Defaults{MaxTokens: 1024})
			require.NoError(t, err)
			back, err := bedrockRequestToCanonical(body)
			require.NoError(t, err)
			require.Equal(t, req.ToolChoice, back.ToolChoice)
		})
	}
}

func TestBedrockResponseToCanonical(t *testing.T) {
	body := `{
		"output": {"message": {"role": "assistant", "content": [{"text": "hi there"}]}},
		"stopReason": "end_turn",
		"usage": {"inputTokens": 10, "outputTokens": 3, "totalTokens": 13}
	}`
	got, err := bedrockResponseToCanonical([]byte(body))
	require.NoError(t, err)

	want := &canonical.ChatResponse{
		Choices: []canonical.Choice{{Message: canonical.Message{Role: canonical.RoleAssistant, Text: "hi there"}, FinishReason: canonical.FinishStop}},
		Usage:   &canonical.Usage{PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected canonical response (-want +got):\n%s", diff)
	}
}

func TestCanonicalToBedrockResponseRejectsNoChoices(t *testing.T) {
	_, err := canonicalToBedrockResponse(&canonical.ChatResponse{})
	require.Error(t, err)
}

func TestBedrockStopReasonMapping(t *testing.T) {
	for _, tc := range []struct {
		wire brk.StopReason
		want canonical.FinishReason
	}{
		{brk.StopReasonEndTurn, canonical.FinishStop},
		{brk.StopReasonMaxTokens, canonical.FinishLength},
		{brk.StopReasonToolUse, canonical.FinishToolCalls},
		{brk.StopReasonContentFiltered, canonical.FinishContentFilter},
	} {
		require.Equal(t, tc.want, bedrockStopReasonToCanonical(tc.wire))
		require.Equal(t, tc.wire, canonicalFinishToBedrock(tc.want))
	}
}
