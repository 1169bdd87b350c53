package translator

import (
	"encoding/json"
	"strings"

	anth "github.com/relaylayer/llmgw/internal/apischema/anthropic"
	"github.com/relaylayer/llmgw/internal/canonical"
)

func anthropicRequestToCanonical(body []byte) (*canonical.ChatRequest, error) {
	var req anth.MessagesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errTranslation("", "invalid anthropic messages request: %v", err)
	}
	out := &canonical.ChatRequest{Model: req.Model, Stream: req.Stream, Stop: req.StopSequences}
	if req.MaxTokens > 0 {
		mt := int64(req.MaxTokens)
		out.MaxTokens = &mt
	}
	out.Temperature = req.Temperature
	out.TopP = req.TopP

	if req.System != nil {
		if req.System.Text != "" {
			out.Messages = append(out.Messages, canonical.Message{Role: canonical.RoleSystem, Text: req.System.Text})
		} else {
			var texts []string
			for _, b := range req.System.Array {
				texts = append(texts, b.Text)
			}
			out.Messages = append(out.Messages, canonical.Message{Role: canonical.RoleSystem, Text: strings.Join(texts, "\n\n")})
		}
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, anthropicMessageToCanonical(m)...)
	}
	if len(out.Messages) == 0 {
		return nil, errTranslation("messages", "messages must contain at least one element")
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, canonical.ToolSchema{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	if req.ToolChoice != nil {
		switch req.ToolChoice.Type {
		case "tool":
			out.ToolChoice = &canonical.ToolChoice{Mode: "named", Name: req.ToolChoice.Name}
		case "any":
			out.ToolChoice = &canonical.ToolChoice{Mode: "required"}
		default:
			out.ToolChoice = &canonical.ToolChoice{Mode: "auto"}
		}
	}
	return out, nil
}

// anthropicMessageToCanonical may expand into multiple canonical messages:
// a user message carrying a tool_result block becomes a RoleTool message,
// since Anthropic folds tool results into the user turn but OpenAI models
// them as a distinct role.
func anthropicMessageToCanonical(m anth.Message) []canonical.Message {
	role := canonical.RoleUser
	if m.Role == anth.MessageRoleAssistant {
		role = canonical.RoleAssistant
	}
	if m.Content.Array == nil {
		return []canonical.Message{{Role: role, Text: m.Content.Text}}
	}
	var out []canonical.Message
	var assistantMsg canonical.Message
	assistantMsg.Role = role
	hasAssistantContent := false
	for _, b := range m.Content.Array {
		switch b.Type {
		case anth.ContentBlockText:
			if role == canonical.RoleUser {
				out = append(out, canonical.Message{Role: role, Text: b.Text})
			} else {
				assistantMsg.Text += b.Text
				hasAssistantContent = true
			}
		case anth.ContentBlockImage:
			url := ""
			if b.Source != nil {
				if b.Source.Type == "url" {
					url = b.Source.URL
				} else {
					url = "data:" + b.Source.MediaType + ";base64," + b.Source.Data
				}
			}
			out = append(out, canonical.Message{Role: role, Parts: []canonical.ContentPart{{Type: canonical.ContentImageURL, ImageURL: url}}})
		case anth.ContentBlockToolUse:
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, canonical.ToolCall{ID: b.ID, Name: b.Name, ArgsRaw: b.Input})
			hasAssistantContent = true
		case anth.ContentBlockToolResult:
			text := ""
			if b.Content != nil {
				text = b.Content.Text
			}
			out = append(out, canonical.Message{Role: canonical.RoleTool, Text: text, ToolCallID: b.ToolUseID})
		}
	}
	if hasAssistantContent {
		out = append(out, assistantMsg)
	}
	return out
}

func canonicalToAnthropicRequest(req *canonical.ChatRequest, defaults Defaults) ([]byte, error) {
	out := anth.MessagesRequest{Model: req.Model, Stream: req.Stream, StopSequences: req.Stop}
	out.MaxTokens = int(defaults.MaxTokens)
	if req.MaxTokens != nil {
		out.MaxTokens = int(*req.MaxTokens)
	}
	out.Temperature = req.Temperature
	out.TopP = req.TopP

	var systemParts []string
	merged := mergeAlternatingRoles(dropSystemMessages(req.Messages, &systemParts))
	if len(systemParts) > 0 {
		out.System = &anth.SystemPrompt{Text: strings.Join(systemParts, "\n\n")}
	}
	for _, m := range merged {
		out.Messages = append(out.Messages, canonicalMessageToAnthropic(m)...)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, anth.Tool{Name: t.Name, Description: t.Description, InputSchema: t.Parameters})
	}
	if req.ToolChoice != nil {
		switch req.ToolChoice.Mode {
		case "named":
			out.ToolChoice = &anth.ToolChoice{Type: "tool", Name: req.ToolChoice.Name}
		case "required":
			out.ToolChoice = &anth.ToolChoice{Type: "any"}
		case "none":
			out.ToolChoice = &anth.ToolChoice{Type: "none"}
		default:
			out.ToolChoice = &anth.ToolChoice{Type: "auto"}
		}
	}
	return json.Marshal(out)
}

func dropSystemMessages(in []canonical.Message, systemParts *[]string) []canonical.Message {
	out := make([]canonical.Message, 0, len(in))
	for _, m := range in {
		if m.Role == canonical.RoleSystem {
			*systemParts = append(*systemParts, m.Text)
			continue
		}
		out = append(out, m)
	}
	return out
}

// mergeAlternatingRoles enforces Anthropic/Bedrock's strict user/assistant
// alternation: adjacent same-role messages are merged content-wise, and an
// empty user message is injected between adjacent assistant messages.
func mergeAlternatingRoles(in []canonical.Message) []canonical.Message {
	var out []canonical.Message
	for _, m := range in {
		role := canonical.RoleUser
		if m.Role == canonical.RoleAssistant {
			role = canonical.RoleAssistant
		} else if m.Role == canonical.RoleTool {
			role = canonical.RoleUser // tool results ride along on the user turn
		}
		if len(out) > 0 && out[len(out)-1].Role == role && role != canonical.RoleAssistant {
			last := &out[len(out)-1]
			last.Text = joinNonEmpty(last.Text, m.Text)
			last.Parts = append(last.Parts, m.Parts...)
			if m.Role == canonical.RoleTool {
				last.Parts = append(last.Parts, canonical.ContentPart{Type: canonical.ContentToolResult, ToolResultForID: m.ToolCallID, Text: m.Text})
			}
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == canonical.RoleAssistant && role == canonical.RoleAssistant {
			out = append(out, canonical.Message{Role: canonical.RoleUser, Text: ""})
		}
		mm := m
		mm.Role = role
		if m.Role == canonical.RoleTool {
			mm.Text = ""
			mm.Parts = []canonical.ContentPart{{Type: canonical.ContentToolResult, ToolResultForID: m.ToolCallID, Text: m.Text}}
		}
		out = append(out, mm)
	}
	return out
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n" + b
}

func canonicalMessageToAnthropic(m canonical.Message) []anth.Message {
	role := anth.MessageRoleUser
	if m.Role == canonical.RoleAssistant {
		role = anth.MessageRoleAssistant
	}
	if len(m.Parts) == 0 && len(m.ToolCalls) == 0 {
		return []anth.Message{{Role: role, Content: anth.MessageContent{Text: m.Text}}}
	}
	var blocks []anth.MessagesContentBlock
	if m.Text != "" {
		blocks = append(blocks, anth.MessagesContentBlock{Type: anth.ContentBlockText, Text: m.Text})
	}
	for _, p := range m.Parts {
		switch p.Type {
		case canonical.ContentImageURL:
			blocks = append(blocks, anth.MessagesContentBlock{Type: anth.ContentBlockImage, Source: &anth.ImageSource{Type: "url", URL: p.ImageURL}})
		case canonical.ContentToolResult:
			blocks = append(blocks, anth.MessagesContentBlock{
				Type: anth.ContentBlockToolResult, ToolUseID: p.ToolResultForID,
				Content: &anth.MessageContent{Text: p.Text}, IsError: p.ToolResultIsErr,
			})
		}
	}
	for _, tc := range m.ToolCalls {
		blocks = append(blocks, anth.MessagesContentBlock{Type: anth.ContentBlockToolUse, ID: tc.ID, Name: tc.Name, Input: tc.ArgsRaw})
	}
	return []anth.Message{{Role: role, Content: anth.MessageContent{Array: blocks}}}
}

func anthropicResponseToCanonical(body []byte) (*canonical.ChatResponse, error) {
	var resp anth.MessagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errTranslation("", "invalid anthropic messages response: %v", err)
	}
	cm := canonical.Message{Role: canonical.RoleAssistant}
	for _, b := range resp.Content {
		switch b.Type {
		case anth.ContentBlockText:
			cm.Text += b.Text
		case anth.ContentBlockToolUse:
			cm.ToolCalls = append(cm.ToolCalls, canonical.ToolCall{ID: b.ID, Name: b.Name, ArgsRaw: b.Input})
		}
	}
	finish := canonical.FinishStop
	if resp.StopReason != nil {
		finish = anthropicStopReasonToCanonical(*resp.StopReason)
	}
	out := &canonical.ChatResponse{
		ID: resp.ID, Model: resp.Model,
		Choices: []canonical.Choice{{Index: 0, Message: cm, FinishReason: finish}},
	}
	if resp.Usage != nil {
		out.Usage = &canonical.Usage{
			PromptTokens: uint32(resp.Usage.InputTokens), CompletionTokens: uint32(resp.Usage.OutputTokens),
			TotalTokens: uint32(resp.Usage.InputTokens + resp.Usage.OutputTokens), CachedTokens: uint32(resp.Usage.CacheReadInputTokens),
		}
	}
	return out, nil
}

func anthropicStopReasonToCanonical(r anth.StopReason) canonical.FinishReason {
	switch r {
	case anth.StopReasonEndTurn, anth.StopReasonStopSequence:
		return canonical.FinishStop
	case anth.StopReasonMaxTokens:
		return canonical.FinishLength
	case anth.StopReasonToolUse:
		return canonical.FinishToolCalls
	default:
		return canonical.FinishReason(r)
	}
}

func canonicalFinishToAnthropic(f canonical.FinishReason) anth.StopReason {
	switch f {
	case canonical.FinishStop:
		return anth.StopReasonEndTurn
	case canonical.FinishLength:
		return anth.StopReasonMaxTokens
	case canonical.FinishToolCalls:
		return anth.StopReasonToolUse
	default:
		return anth.StopReason(f)
	}
}

func canonicalToAnthropicResponse(resp *canonical.ChatResponse) ([]byte, error) {
	if len(resp.Choices) == 0 {
		return nil, errTranslation("choices", "response has no choices")
	}
	c := resp.Choices[0]
	out := anth.MessagesResponse{ID: resp.ID, Type: "message", Role: anth.MessageRoleAssistant, Model: resp.Model}
	if c.Message.Text != "" {
		out.Content = append(out.Content, anth.MessagesContentBlock{Type: anth.ContentBlockText, Text: c.Message.Text})
	}
	for _, tc := range c.Message.ToolCalls {
		out.Content = append(out.Content, anth.MessagesContentBlock{Type: anth.ContentBlockToolUse, ID: tc.ID, Name: tc.Name, Input: tc.ArgsRaw})
	}
	reason := canonicalFinishToAnthropic(c.FinishReason)
	out.StopReason = &reason
	if resp.Usage != nil {
		out.Usage = &anth.Usage{
			InputTokens: float64(resp.Usage.PromptTokens), OutputTokens: float64(resp.Usage.CompletionTokens),
			CacheReadInputTokens: float64(resp.Usage.CachedTokens),
		}
	}
	return json.Marshal(out)
}
