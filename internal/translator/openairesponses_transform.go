package translator

import (
	"encoding/json"

	oair "github.com/relaylayer/llmgw/internal/apischema/openairesponses"
	"github.com/relaylayer/llmgw/internal/canonical"
)

func openaiResponsesRequestToCanonical(body []byte) (*canonical.ChatRequest, error) {
	var req oair.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errTranslation("", "invalid responses request: %v", err)
	}
	out := &canonical.ChatRequest{Model: req.Model, Stream: req.Stream, Temperature: req.Temperature, TopP: req.TopP}
	if req.MaxOutputTokens != nil {
		out.MaxTokens = req.MaxOutputTokens
	}
	if req.Instructions != nil && *req.Instructions != "" {
		out.Messages = append(out.Messages, canonical.Message{Role: canonical.RoleSystem, Text: *req.Instructions})
	}
	if req.Input.Text != "" {
		out.Messages = append(out.Messages, canonical.Message{Role: canonical.RoleUser, Text: req.Input.Text})
	}
	for _, item := range req.Input.Items {
		out.Messages = append(out.Messages, responsesInputItemToCanonical(item))
	}
	if len(out.Messages) == 0 {
		return nil, errTranslation("input", "input must contain at least one message")
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, canonical.ToolSchema{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	if req.ToolChoice != nil {
		if req.ToolChoice.Name != "" {
			out.ToolChoice = &canonical.ToolChoice{Mode: "named", Name: req.ToolChoice.Name}
		} else {
			out.ToolChoice = &canonical.ToolChoice{Mode: req.ToolChoice.Mode}
		}
	}
	return out, nil
}

func responsesInputItemToCanonical(item oair.InputItem) canonical.Message {
	switch item.Type {
	case oair.InputItemFunctionCall:
		return canonical.Message{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{
			{ID: item.CallID, Name: item.Name, ArgsRaw: json.RawMessage(item.Arguments)},
		}}
	case oair.InputItemFunctionCallOutput:
		return canonical.Message{Role: canonical.RoleTool, Text: item.Output, ToolCallID: item.CallID}
	default:
		role := canonical.RoleUser
		if item.Role == "assistant" {
			role = canonical.RoleAssistant
		} else if item.Role == "system" || item.Role == "developer" {
			role = canonical.RoleSystem
		}
		if item.Content.Text != "" {
			return canonical.Message{Role: role, Text: item.Content.Text}
		}
		var parts []canonical.ContentPart
		var text string
		for _, p := range item.Content.Parts {
			switch p.Type {
			case "input_text", "output_text":
				text += p.Text
			case "input_image":
				parts = append(parts, canonical.ContentPart{Type: canonical.ContentImageURL, ImageURL: p.ImageURL})
			}
		}
		if len(parts) == 0 {
			return canonical.Message{Role: role, Text: text}
		}
		if text != "" {
			parts = append([]canonical.ContentPart{{Type: canonical.ContentText, Text: text}}, parts...)
		}
		return canonical.Message{Role: role, Parts: parts}
	}
}

func canonicalToOpenAIResponsesRequest(req *canonical.ChatRequest) ([]byte, error) {
	out := oair.Request{Model: req.Model, Stream: req.Stream, Temperature: req.Temperature, TopP: req.TopP, MaxOutputTokens: req.MaxTokens}
	var items []oair.InputItem
	for _, m := range req.Messages {
		if m.Role == canonical.RoleSystem {
			instr := m.Text
			out.Instructions = &instr
			continue
		}
		items = append(items, canonicalMessageToResponsesItem(m)...)
	}
	out.Input = oair.Input{Items: items}
	if len(req.Tools) > 0 {
		for _, t := range req.Tools {
			out.Tools = append(out.Tools, oair.Tool{Type: "function", Name: t.Name, Description: t.Description, Parameters: t.Parameters})
		}
	}
	if req.ToolChoice != nil {
		tc := &oair.ToolChoice{Mode: req.ToolChoice.Mode}
		if req.ToolChoice.Mode == "named" {
			tc.Name = req.ToolChoice.Name
		}
		out.ToolChoice = tc
	}
	return json.Marshal(out)
}

func canonicalMessageToResponsesItem(m canonical.Message) []oair.InputItem {
	if m.Role == canonical.RoleTool {
		return []oair.InputItem{{Type: oair.InputItemFunctionCallOutput, CallID: m.ToolCallID, Output: m.Text}}
	}
	var items []oair.InputItem
	role := "user"
	if m.Role == canonical.RoleAssistant {
		role = "assistant"
	}
	if m.Text != "" || len(m.Parts) > 0 {
		content := oair.InputContent{Text: m.Text}
		if len(m.Parts) > 0 {
			content = oair.InputContent{}
			for _, p := range m.Parts {
				switch p.Type {
				case canonical.ContentText:
					content.Parts = append(content.Parts, oair.InputContentPart{Type: "input_text", Text: p.Text})
				case canonical.ContentImageURL:
					content.Parts = append(content.Parts, oair.InputContentPart{Type: "input_image", ImageURL: p.ImageURL})
				}
			}
		}
		items = append(items, oair.InputItem{Type: oair.InputItemMessage, Role: role, Content: content})
	}
	for _, tc := range m.ToolCalls {
		items = append(items, oair.InputItem{Type: oair.InputItemFunctionCall, CallID: tc.ID, Name: tc.Name, Arguments: string(tc.ArgsRaw)})
	}
	return items
}

func openaiResponsesResponseToCanonical(body []byte) (*canonical.ChatResponse, error) {
	var resp oair.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errTranslation("", "invalid responses response: %v", err)
	}
	out := &canonical.ChatResponse{ID: resp.ID, Created: resp.CreatedAt, Model: resp.Model}
	msg := canonical.Message{Role: canonical.RoleAssistant}
	for _, item := range resp.Output {
		switch item.Type {
		case oair.OutputItemMessage:
			for _, c := range item.Content {
				msg.Text += c.Text
			}
		case oair.OutputItemFunctionCall:
			msg.ToolCalls = append(msg.ToolCalls, canonical.ToolCall{ID: item.CallID, Name: item.Name, ArgsRaw: json.RawMessage(item.Arguments)})
		}
	}
	finish := canonical.FinishStop
	if len(msg.ToolCalls) > 0 {
		finish = canonical.FinishToolCalls
	}
	if resp.Status == oair.StatusIncomplete {
		finish = canonical.FinishLength
	}
	out.Choices = []canonical.Choice{{Message: msg, FinishReason: finish}}
	if resp.Usage != nil {
		out.Usage = &canonical.Usage{
			PromptTokens: uint32(resp.Usage.InputTokens), CompletionTokens: uint32(resp.Usage.OutputTokens), TotalTokens: uint32(resp.Usage.TotalTokens),
		}
	}
	return out, nil
}

func canonicalToOpenAIResponsesResponse(resp *canonical.ChatResponse) ([]byte, error) {
	out := oair.Response{ID: resp.ID, Object: "response", CreatedAt: resp.Created, Model: resp.Model, Status: oair.StatusCompleted}
	if len(resp.Choices) > 0 {
		c := resp.Choices[0]
		if c.FinishReason == canonical.FinishLength {
			out.Status = oair.StatusIncomplete
		}
		if c.Message.Text != "" {
			out.Output = append(out.Output, oair.OutputItem{Type: oair.OutputItemMessage, Role: "assistant", Content: []oair.OutputContentPart{{Type: "output_text", Text: c.Message.Text}}})
		}
		for _, tc := range c.Message.ToolCalls {
			out.Output = append(out.Output, oair.OutputItem{Type: oair.OutputItemFunctionCall, CallID: tc.ID, Name: tc.Name, Arguments: string(tc.ArgsRaw)})
		}
	}
	if resp.Usage != nil {
		out.Usage = &oair.Usage{InputTokens: int64(resp.Usage.PromptTokens), OutputTokens: int64(resp.Usage.CompletionTokens), TotalTokens: int64(resp.Usage.TotalTokens)}
	}
	return json.Marshal(out)
}
