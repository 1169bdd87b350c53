package translator

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/relaylayer/llmgw/internal/canonical"
)

var allFamilies = []Family{FamilyOpenAI, FamilyAnthropic, FamilyBedrock, FamilyGemini, FamilyOpenAIResponses}

// TestTranslateRequestIsIdentityWhenSrcEqualsDst covers §8.1 invariant 1:
// translating a request to its own family must return the body unchanged,
// byte for byte, without even touching the canonical shape.
func TestTranslateRequestIsIdentityWhenSrcEqualsDst(t *testing.T) {
	body := []byte(`{"model":"whatever","arbitrary":"body","not even valid for any family":true}`)
	for _, f := range allFamilies {
		t.Run(string(f), func(t *testing.T) {
			out, err := TranslateRequest(f, f, body, Defaults{MaxTokens: 1024})
			require.NoError(t, err)
			require.Equal(t, body, out)
		})
	}
}

// TestTranslateResponseIsIdentityWhenSrcEqualsDst mirrors the request-side
// invariant for responses.
func TestTranslateResponseIsIdentityWhenSrcEqualsDst(t *testing.T) {
	body := []byte(`{"not even a valid response":true}`)
	for _, f := range allFamilies {
		t.Run(string(f), func(t *testing.T) {
			out, err := TranslateResponse(f, f, body)
			require.NoError(t, err)
			require.Equal(t, body, out)
		})
	}
}

// TestRequestRoundTripsThroughCanonicalWithoutLoss covers §8.1 invariant 2:
// for every family, ToCanonical then FromCanonical on the resulting
// canonical shape must reproduce the same canonical shape again, i.e. the
// wire encode/decode pair is lossless for the fields each family actually
// carries.
func TestRequestRoundTripsThroughCanonicalWithoutLoss(t *testing.T) {
	defaults := Defaults{MaxTokens: 1024}
	for _, f := range allFamilies {
		t.Run(string(f), func(t *testing.T) {
			req := simpleCanonicalRequest(f)
			body, err := FromCanonical(f, req, defaults)
			require.NoError(t, err)

			back, err := ToCanonical(f, body)
			require.NoError(t, err)
			if diff := cmp.Diff(req, back); diff != "" {
				t.Fatalf("round trip through %s lost or altered fields (-want +got):\n%s", f, diff)
			}
		})
	}
}

// simpleCanonicalRequest returns a family-appropriate fixture: a system
// message, a user message, an assistant tool call, and the matching tool
// result, in the shape that survives each family's own role-merging rules
// unchanged.
func simpleCanonicalRequest(f Family) *canonical.ChatRequest {
	toolResultText := "72F"
	if f == FamilyGemini {
		toolResultText = `{"result":"72F"}`
	}
	model := "test-model"
	if f == FamilyBedrock || f == FamilyGemini {
		model = "" // the Bedrock and Gemini request bodies carry no model field
	}
	return &canonical.ChatRequest{
		Model:     model,
		MaxTokens: i64p(512),
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Text: "be terse"},
			{Role: canonical.RoleUser, Text: "what's the weather in nyc?"},
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
				{ID: "tc_1", Name: "get_weather", ArgsRaw: json.RawMessage(`{"city":"nyc"}`)},
			}},
			{Role: canonical.RoleTool, Text: toolResultText, ToolCallID: "tc_1"},
		},
	}
}

// TestScenarioS1_OpenAIRequestTranslatesToAnthropic is scenario S1: an
// OpenAI-shaped chat completion request crosses to the Anthropic wire
// format, carrying its system message, content, and sampling parameters.
func TestScenarioS1_OpenAIRequestTranslatesToAnthropic(t *testing.T) {
	openAIBody := []byte(`{
		"model": "claude-3-5-sonnet-20241022",
		"messages": [
			{"role": "system", "content": "be terse"},
			{"role": "user", "content": "hello there"}
		],
		"temperature": 0.3,
		"max_tokens": 200
	}`)
	out, err := TranslateRequest(FamilyOpenAI, FamilyAnthropic, openAIBody, Defaults{MaxTokens: 1024})
	require.NoError(t, err)

	var wire struct {
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
		System      any     `json:"system"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
	}
	require.NoError(t, json.Unmarshal(out, &wire))
	require.Equal(t, "be terse", wire.System)
	require.Equal(t, 200, wire.MaxTokens)
	require.InDelta(t, 0.3, wire.Temperature, 1e-9)
	require.Len(t, wire.Messages, 1)
	require.Equal(t, "user", wire.Messages[0].Role)
	require.Equal(t, "hello there", wire.Messages[0].Content)
}

// TestScenarioS3_ToolCallRoundTripsAcrossFamilies is scenario S3: a tool
// call issued in one family's shape, including its synthesized id, survives
// a round trip through every other family and back without the id, name,
// or arguments changing.
func TestScenarioS3_ToolCallRoundTripsAcrossFamilies(t *testing.T) {
	openAIBody := []byte(`{
		"model": "m",
		"messages": [
			{"role": "user", "content": "what's the weather?"},
			{"role": "assistant", "content": null, "tool_calls": [
				{"id": "call_abc", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"nyc\"}"}}
			]}
		]
	}`)

	path := []Family{FamilyAnthropic, FamilyBedrock, FamilyGemini, FamilyOpenAIResponses, FamilyOpenAI}
	body := openAIBody
	src := FamilyOpenAI
	for _, dst := range path {
		var err error
		body, err = TranslateRequest(src, dst, body, Defaults{MaxTokens: 1024})
		require.NoError(t, err, "translating %s -> %s", src, dst)
		src = dst
	}

	back, err := ToCanonical(FamilyOpenAI, body)
	require.NoError(t, err)
	require.Len(t, back.Messages, 2)
	asst := back.Messages[1]
	require.Equal(t, canonical.RoleAssistant, asst.Role)
	require.Len(t, asst.ToolCalls, 1)
	require.Equal(t, "call_abc", asst.ToolCalls[0].ID)
	require.Equal(t, "get_weather", asst.ToolCalls[0].Name)
	require.JSONEq(t, `{"city":"nyc"}`, string(asst.ToolCalls[0].ArgsRaw))
}

// TestEnsureToolCallIDsSynthesizesMissingIDsOnce covers the tool-call id
// synthesis §4.2 requires when a source family omits ids Anthropic and
// Bedrock require.
func TestEnsureToolCallIDsSynthesizesMissingIDsOnce(t *testing.T) {
	req := &canonical.ChatRequest{Messages: []canonical.Message{
		{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{{Name: "get_weather", ArgsRaw: json.RawMessage(`{}`)}}},
	}}
	ensureToolCallIDs(req)
	id := req.Messages[0].ToolCalls[0].ID
	require.NotEmpty(t, id)
	require.Contains(t, id, "tc_")

	ensureToolCallIDs(req)
	require.Equal(t, id, req.Messages[0].ToolCalls[0].ID, "synthesis must not overwrite an id already present")
}

func TestNormalizeUsageHandlesNil(t *testing.T) {
	require.Equal(t, canonical.Usage{}, NormalizeUsage(nil))
}

func TestNormalizeUsagePassesThroughValue(t *testing.T) {
	u := &canonical.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	require.Equal(t, *u, NormalizeUsage(u))
}

func TestToCanonicalRejectsUnknownFamily(t *testing.T) {
	_, err := ToCanonical(Family("made-up"), []byte(`{}`))
	require.Error(t, err)
}

func TestFromCanonicalRejectsUnknownFamily(t *testing.T) {
	_, err := FromCanonical(Family("made-up"), &canonical.ChatRequest{}, Defaults{})
	require.Error(t, err)
}
