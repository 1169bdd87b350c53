package translator

import (
	"encoding/json"
	"strings"

	brk "github.com/relaylayer/llmgw/internal/apischema/bedrock"
	"github.com/relaylayer/llmgw/internal/canonical"
)

func bedrockRequestToCanonical(body []byte) (*canonical.ChatRequest, error) {
	var req brk.ConverseInput
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errTranslation("", "invalid bedrock converse request: %v", err)
	}
	out := &canonical.ChatRequest{}
	if req.InferenceConfig != nil {
		if req.InferenceConfig.MaxTokens != nil {
			mt := int64(*req.InferenceConfig.MaxTokens)
			out.MaxTokens = &mt
		}
		if req.InferenceConfig.Temperature != nil {
			t := float64(*req.InferenceConfig.Temperature)
			out.Temperature = &t
		}
		if req.InferenceConfig.TopP != nil {
			p := float64(*req.InferenceConfig.TopP)
			out.TopP = &p
		}
		out.Stop = req.InferenceConfig.StopSequences
	}
	if len(req.System) > 0 {
		var texts []string
		for _, s := range req.System {
			texts = append(texts, s.Text)
		}
		out.Messages = append(out.Messages, canonical.Message{Role: canonical.RoleSystem, Text: strings.Join(texts, "\n\n")})
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, bedrockMessageToCanonical(m)...)
	}
	if len(out.Messages) == 0 {
		return nil, errTranslation("messages", "messages must contain at least one element")
	}
	if req.ToolConfig != nil {
		for _, t := range req.ToolConfig.Tools {
			if t.ToolSpec == nil {
				continue
			}
			out.Tools = append(out.Tools, canonical.ToolSchema{Name: t.ToolSpec.Name, Description: t.ToolSpec.Description, Parameters: t.ToolSpec.InputSchema.JSON})
		}
		if tc := req.ToolConfig.ToolChoice; tc != nil {
			switch {
			case tc.Tool != nil:
				out.ToolChoice = &canonical.ToolChoice{Mode: "named", Name: tc.Tool.Name}
			case tc.Any != nil:
				out.ToolChoice = &canonical.ToolChoice{Mode: "required"}
			default:
				out.ToolChoice = &canonical.ToolChoice{Mode: "auto"}
			}
		}
	}
	return out, nil
}

func bedrockMessageToCanonical(m brk.Message) []canonical.Message {
	role := canonical.RoleUser
	if m.Role == brk.ConversationRoleAssistant {
		role = canonical.RoleAssistant
	}
	var out []canonical.Message
	var assistantMsg canonical.Message
	assistantMsg.Role = role
	hasAssistant := false
	for _, b := range m.Content {
		switch {
		case b.Text != "":
			if role == canonical.RoleUser {
				out = append(out, canonical.Message{Role: role, Text: b.Text})
			} else {
				assistantMsg.Text += b.Text
				hasAssistant = true
			}
		case b.ToolUse != nil:
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, canonical.ToolCall{ID: b.ToolUse.ToolUseID, Name: b.ToolUse.Name, ArgsRaw: b.ToolUse.Input})
			hasAssistant = true
		case b.ToolResult != nil:
			text := ""
			if len(b.ToolResult.Content) > 0 {
				text = b.ToolResult.Content[0].Text
			}
			out = append(out, canonical.Message{Role: canonical.RoleTool, Text: text, ToolCallID: b.ToolResult.ToolUseID})
		}
	}
	if hasAssistant {
		out = append(out, assistantMsg)
	}
	return out
}

func canonicalToBedrockRequest(req *canonical.ChatRequest, defaults Defaults) ([]byte, error) {
	maxTokens := defaults.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	mt32 := int32(maxTokens)
	out := brk.ConverseInput{InferenceConfig: &brk.InferenceConfig{MaxTokens: &mt32, StopSequences: req.Stop}}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		out.InferenceConfig.Temperature = &t
	}
	if req.TopP != nil {
		p := float32(*req.TopP)
		out.InferenceConfig.TopP = &p
	}

	var systemParts []string
	merged := mergeAlternatingRoles(dropSystemMessages(req.Messages, &systemParts))
	if len(systemParts) > 0 {
		out.System = []brk.SystemContentBlock{{Text: strings.Join(systemParts, "\n\n")}}
	}
	for _, m := range merged {
		out.Messages = append(out.Messages, canonicalMessageToBedrock(m))
	}
	if len(req.Tools) > 0 {
		tc := &brk.ToolConfiguration{}
		for _, t := range req.Tools {
			spec := &brk.ToolSpec{Name: t.Name, Description: t.Description}
			spec.InputSchema.JSON = t.Parameters
			tc.Tools = append(tc.Tools, brk.Tool{ToolSpec: spec})
		}
		if req.ToolChoice != nil {
			switch req.ToolChoice.Mode {
			case "named":
				tc.ToolChoice = &brk.ToolChoice{Tool: &brk.SpecificToolChoice{Name: req.ToolChoice.Name}}
			case "required":
				tc.ToolChoice = &brk.ToolChoice{Any: &brk.AnyToolChoice{}}
			default:
				tc.ToolChoice = &brk.ToolChoice{Auto: &brk.AutoToolChoice{}}
			}
		}
		out.ToolConfig = tc
	}
	return json.Marshal(out)
}

func canonicalMessageToBedrock(m canonical.Message) brk.Message {
	role := brk.ConversationRoleUser
	if m.Role == canonical.RoleAssistant {
		role = brk.ConversationRoleAssistant
	}
	var blocks []brk.ContentBlock
	if m.Text != "" {
		blocks = append(blocks, brk.ContentBlock{Text: m.Text})
	}
	for _, p := range m.Parts {
		if p.Type == canonical.ContentToolResult {
			blocks = append(blocks, brk.ContentBlock{ToolResult: &brk.ToolResultBlock{
				ToolUseID: p.ToolResultForID,
				Content:   []brk.ToolResultContentBlock{{Text: p.Text}},
			}})
		}
	}
	for _, tc := range m.ToolCalls {
		blocks = append(blocks, brk.ContentBlock{ToolUse: &brk.ToolUseBlock{ToolUseID: tc.ID, Name: tc.Name, Input: tc.ArgsRaw}})
	}
	return brk.Message{Role: role, Content: blocks}
}

func bedrockStopReasonToCanonical(r brk.StopReason) canonical.FinishReason {
	switch r {
	case brk.StopReasonEndTurn, brk.StopReasonStopSequence:
		return canonical.FinishStop
	case brk.StopReasonMaxTokens:
		return canonical.FinishLength
	case brk.StopReasonToolUse:
		return canonical.FinishToolCalls
	case brk.StopReasonContentFiltered:
		return canonical.FinishContentFilter
	default:
		return canonical.FinishReason(r)
	}
}

func canonicalFinishToBedrock(f canonical.FinishReason) brk.StopReason {
	switch f {
	case canonical.FinishStop:
		return brk.StopReasonEndTurn
	case canonical.FinishLength:
		return brk.StopReasonMaxTokens
	case canonical.FinishToolCalls:
		return brk.StopReasonToolUse
	case canonical.FinishContentFilter:
		return brk.StopReasonContentFiltered
	default:
		return brk.StopReason(f)
	}
}

func bedrockResponseToCanonical(body []byte) (*canonical.ChatResponse, error) {
	var resp brk.ConverseOutput
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errTranslation("", "invalid bedrock converse response: %v", err)
	}
	cm := canonical.Message{Role: canonical.RoleAssistant}
	for _, b := range resp.Output.Message.Content {
		if b.Text != "" {
			cm.Text += b.Text
		}
		if b.ToolUse != nil {
			cm.ToolCalls = append(cm.ToolCalls, canonical.ToolCall{ID: b.ToolUse.ToolUseID, Name: b.ToolUse.Name, ArgsRaw: b.ToolUse.Input})
		}
	}
	return &canonical.ChatResponse{
		Choices: []canonical.Choice{{Index: 0, Message: cm, FinishReason: bedrockStopReasonToCanonical(resp.StopReason)}},
		Usage: &canonical.Usage{
			PromptTokens: uint32(resp.Usage.InputTokens), CompletionTokens: uint32(resp.Usage.OutputTokens), TotalTokens: uint32(resp.Usage.TotalTokens),
		},
	}, nil
}

func canonicalToBedrockResponse(resp *canonical.ChatResponse) ([]byte, error) {
	if len(resp.Choices) == 0 {
		return nil, errTranslation("choices", "response has no choices")
	}
	c := resp.Choices[0]
	var blocks []brk.ContentBlock
	if c.Message.Text != "" {
		blocks = append(blocks, brk.ContentBlock{Text: c.Message.Text})
	}
	for _, tc := range c.Message.ToolCalls {
		blocks = append(blocks, brk.ContentBlock{ToolUse: &brk.ToolUseBlock{ToolUseID: tc.ID, Name: tc.Name, Input: tc.ArgsRaw}})
	}
	out := brk.ConverseOutput{
		Output:     brk.ConverseOutputMessage{Message: brk.Message{Role: brk.ConversationRoleAssistant, Content: blocks}},
		StopReason: canonicalFinishToBedrock(c.FinishReason),
	}
	if resp.Usage != nil {
		out.Usage = brk.TokenUsage{InputTokens: int32(resp.Usage.PromptTokens), OutputTokens: int32(resp.Usage.CompletionTokens), TotalTokens: int32(resp.Usage.TotalTokens)}
	}
	return json.Marshal(out)
}
