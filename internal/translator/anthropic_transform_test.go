package translator

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	anth "github.com/relaylayer/llmgw/internal/apischema/anthropic"
	"github.com/relaylayer/llmgw/internal/canonical"
)

func TestAnthropicRequestToCanonical(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		want *canonical.ChatRequest
	}{
		{
			name: "string system prompt, text message",
			body: `{
				"model": "claude-3-5-sonnet-20241022",
				"max_tokens": 512,
				"system": "be terse",
				"messages": [{"role": "user", "content": "hello"}]
			}`,
			want: &canonical.ChatRequest{
				Model:     "claude-3-5-sonnet-20241022",
				MaxTokens: i64p(512),
				Messages: []canonical.Message{
					{Role: canonical.RoleSystem, Text: "be terse"},
					{Role: canonical.RoleUser, Text: "hello"},
				},
			},
		},
		{
			name: "array system prompt, tool use and tool result blocks",
			body: `{
				"model": "claude-3-5-sonnet-20241022",
				"max_tokens": 512,
				"system": [{"type": "text", "text": "part one"}, {"type": "text", "text": "part two"}],
				"messages": [
					{"role": "user", "content": "what's the weather?"},
					{"role": "assistant", "content": [
						{"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": {"city": "nyc"}}
					]},
					{"role": "user", "content": [
						{"type": "tool_result", "tool_use_id": "toolu_1", "content": "72F"}
					]}
				]
			}`,
			want: &canonical.ChatRequest{
				Model:     "claude-3-5-sonnet-20241022",
				MaxTokens: i64p(512),
				Messages: []canonical.Message{
					{Role: canonical.RoleSystem, Text: "part one\n\npart two"},
					{Role: canonical.RoleUser, Text: "what's the weather?"},
					{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
						{ID: "toolu_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city": "nyc"}`)},
					}},
					{Role: canonical.RoleTool, Text: "72F", ToolCallID: "toolu_1"},
				},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := anthropicRequestToCanonical([]byte(tc.body))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected canonical request (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnthropicToolChoiceToCanonical(t *testing.T) {
	for _, tc := range []struct {
		name string
		wire anth.ToolChoice
		want canonical.ToolChoice
	}{
		{name: "named tool", wire: anth.ToolChoice{Type: "tool", Name: "get_weather"}, want: canonical.ToolChoice{Mode: "named", Name: "get_weather"}},
		{name: "any", wire: anth.ToolChoice{Type: "any"}, want: canonical.ToolChoice{Mode: "required"}},
		{name: "auto", wire: anth.ToolChoice{Type: "auto"}, want: canonical.ToolChoice{Mode: "auto"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(anth.MessagesRequest{
				Model: "claude-3-5-sonnet-20241022", MaxTokens: 1,
				Messages:   []anth.Message{{Role: anth.MessageRoleUser, Content: anth.MessageContent{Text: "hi"}}},
				ToolChoice: &tc.wire,
			})
			require.NoError(t, err)
			got, err := anthropicRequestToCanonical(body)
			require.NoError(t, err)
			require.Equal(t, &tc.want, got.ToolChoice)
		})
	}
}

func TestMergeAlternatingRolesInjectsUserBetweenAdjacentAssistants(t *testing.T) {
	in := []canonical.Message{
		{Role: canonical.RoleAssistant, Text: "first"},
		{Role: canonical.RoleAssistant, Text: "second"},
	}
	out := mergeAlternatingRoles(in)
	require.Len(t, out, 3)
	require.Equal(t, canonical.RoleAssistant, out[0].Role)
	require.Equal(t, canonical.RoleUser, out[1].Role)
	require.Equal(t, "", out[1].Text)
	require.Equal(t, canonical.RoleAssistant, out[2].Role)
}

func TestMergeAlternatingRolesMergesAdjacentUserMessages(t *testing.T) {
	in := []canonical.Message{
		{Role: canonical.RoleUser, Text: "part one"},
		{Role: canonical.RoleUser, Text: "part two"},
	}
	out := mergeAlternatingRoles(in)
	require.Len(t, out, 1)
	require.Equal(t, "part one\npart two", out[0].Text)
}

func TestDropSystemMessagesExtractsSystemText(t *testing.T) {
	var systemParts []string
	out := dropSystemMessages([]canonical.Message{
		{Role: canonical.RoleSystem, Text: "be terse"},
		{Role: canonical.RoleUser, Text: "hi"},
	}, &systemParts)
	require.Equal(t, []string{"be terse"}, systemParts)
	require.Len(t, out, 1)
	require.Equal(t, canonical.RoleUser, out[0].Role)
}

func TestCanonicalToAnthropicRequestRoundTrip(t *testing.T) {
	req := &canonical.ChatRequest{
		Model: "claude-3-5-sonnet-20241022",
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "what's the weather?"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "toolu_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: "72F", ToolCallID: "toolu_1"},
			{Role: canonical.RoleAssistant, Text: "it's 72F in nyc"},
		},
		MaxTokens: i64p(512),
	}
	body, err := canonicalToAnthropicRequest(req, Defaults{MaxTokens: 1024})
	require.NoError(t, err)

	back, err := anthropicRequestToCanonical(body)
	require.NoError(t, err)
	if diff := cmp.Diff(req, back); diff != "" {
		t.Fatalf("round trip through anthropic wire shape changed canonical request (-want +got):\n%s", diff)
	}
}

func TestCanonicalToAnthropicRequestAppliesDefaultMaxTokens(t *testing.T) {
	req := &canonical.ChatRequest{
		Model:    "claude-3-5-sonnet-20241022",
		Messages: []canonical.Message{{Role: canonical.RoleUser, Text: "hi"}},
	}
	body, err := canonicalToAnthropicRequest(req, Defaults{MaxTokens: 4096})
	require.NoError(t, err)

	var wire anth.MessagesRequest
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Equal(t, 4096, wire.MaxTokens)
}

func TestAnthropicResponseToCanonical(t *testing.T) {
	body := `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-sonnet-20241022",
		"content": [{"type": "text", "text": "hi there"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 3, "cache_read_input_tokens": 1, "cache_creation_input_tokens": 0}
	}`
	got, err := anthropicResponseToCanonical([]byte(body))
	require.NoError(t, err)

	want := &canonical.ChatResponse{
		ID: "msg_1", Model: "claude-3-5-sonnet-20241022",
		Choices: []canonical.Choice{{Message: canonical.Message{Role: canonical.RoleAssistant, Text: "hi there"}, FinishReason: canonical.FinishStop}},
		Usage:   &canonical.Usage{PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13, CachedTokens: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected canonical response (-want +got):\n%s", diff)
	}
}

func TestCanonicalToAnthropicResponseRejectsNoChoices(t *testing.T) {
	_, err := canonicalToAnthropicResponse(&canonical.ChatResponse{})
	require.Error(t, err)
}

func TestStopReasonMapping(t *testing.T) {
	for _, tc := range []struct {
		wire anth.StopReason
		want canonical.FinishReason
		back anth.StopReason // end_turn and stop_sequence share FinishStop, which maps back to end_turn
	}{
		{anth.StopReasonEndTurn, canonical.FinishStop, anth.StopReasonEndTurn},
		{anth.StopReasonStopSequence, canonical.FinishStop, anth.StopReasonEndTurn},
		{anth.StopReasonMaxTokens, canonical.FinishLength, anth.StopReasonMaxTokens},
		{anth.StopReasonToolUse, canonical.FinishToolCalls, anth.StopReasonToolUse},
	} {
		require.Equal(t, tc.want, anthropicStopReasonToCanonical(tc.wire))
		require.Equal(t, tc.back, canonicalFinishToAnthropic(tc.want))
	}
}
