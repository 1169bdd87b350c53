package translator

import (
	"encoding/json"
	"fmt"

	oai "github.com/relaylayer/llmgw/internal/apischema/openai"
	"github.com/relaylayer/llmgw/internal/canonical"
)

func openAIRequestToCanonical(body []byte) (*canonical.ChatRequest, error) {
	var req oai.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errTranslation("", "invalid openai chat completion request: %v", err)
	}
	out := &canonical.ChatRequest{
		Model:    req.Model,
		Stream:   req.Stream,
		Logprobs: req.Logprobs,
		Metadata: req.Metadata,
	}
	if req.Temperature != nil {
		out.Temperature = req.Temperature
	}
	if req.TopP != nil {
		out.TopP = req.TopP
	}
	if req.MaxCompletionTokens != nil {
		out.MaxTokens = req.MaxCompletionTokens
	} else if req.MaxTokens != nil {
		out.MaxTokens = req.MaxTokens
	}
	if req.Stop != nil {
		if req.Stop.OfString != nil {
			out.Stop = []string{*req.Stop.OfString}
		} else {
			out.Stop = req.Stop.OfStringArray
		}
	}
	for _, m := range req.Messages {
		cm, err := openAIMessageToCanonical(m)
		if err != nil {
			return nil, err
		}
		out.Messages = append(out.Messages, cm)
	}
	if len(out.Messages) == 0 {
		return nil, errTranslation("messages", "messages must contain at least one element")
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, canonical.ToolSchema{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
		})
	}
	if req.ToolChoice != nil {
		if req.ToolChoice.OfNamed != nil {
			out.ToolChoice = &canonical.ToolChoice{Mode: "named", Name: req.ToolChoice.OfNamed.Function.Name}
		} else if req.ToolChoice.OfAuto != nil {
			out.ToolChoice = &canonical.ToolChoice{Mode: *req.ToolChoice.OfAuto}
		}
	}
	return out, nil
}

func openAIMessageToCanonical(m oai.ChatCompletionMessageParamUnion) (canonical.Message, error) {
	switch {
	case m.OfSystem != nil:
		return canonical.Message{Role: canonical.RoleSystem, Text: contentUnionText(m.OfSystem.Content), Name: m.OfSystem.Name}, nil
	case m.OfDeveloper != nil:
		return canonical.Message{Role: canonical.RoleSystem, Text: contentUnionText(m.OfDeveloper.Content), Name: m.OfDeveloper.Name}, nil
	case m.OfUser != nil:
		cm := canonical.Message{Role: canonical.RoleUser, Name: m.OfUser.Name}
		if m.OfUser.Content.OfString != nil {
			cm.Text = *m.OfUser.Content.OfString
		} else {
			for _, p := range m.OfUser.Content.OfParts {
				cm.Parts = append(cm.Parts, openAIContentPartToCanonical(p))
			}
		}
		return cm, nil
	case m.OfAssistant != nil:
		cm := canonical.Message{Role: canonical.RoleAssistant, Name: m.OfAssistant.Name}
		if m.OfAssistant.Content != nil {
			cm.Text = contentUnionText(*m.OfAssistant.Content)
		}
		for _, tc := range m.OfAssistant.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, canonical.ToolCall{
				ID: tc.ID, Name: tc.Function.Name, ArgsRaw: json.RawMessage(tc.Function.Arguments),
			})
		}
		return cm, nil
	case m.OfTool != nil:
		return canonical.Message{Role: canonical.RoleTool, Text: contentUnionText(m.OfTool.Content), ToolCallID: m.OfTool.ToolCallID}, nil
	default:
		return canonical.Message{}, errTranslation("messages[]", "message has no recognized role")
	}
}

func contentUnionText(c oai.MessageContentUnion) string {
	if c.OfString != nil {
		return *c.OfString
	}
	var sb []byte
	for i, p := range c.OfParts {
		if p.OfText == nil {
			continue
		}
		if i > 0 {
			sb = append(sb, '\n')
		}
		sb = append(sb, p.OfText.Text...)
	}
	return string(sb)
}

func openAIContentPartToCanonical(p oai.ChatCompletionContentPartUnionParam) canonical.ContentPart {
	if p.OfImageURL != nil {
		return canonical.ContentPart{Type: canonical.ContentImageURL, ImageURL: p.OfImageURL.ImageURL.URL}
	}
	if p.OfText != nil {
		return canonical.ContentPart{Type: canonical.ContentText, Text: p.OfText.Text}
	}
	return canonical.ContentPart{}
}

func canonicalToOpenAIRequest(req *canonical.ChatRequest) ([]byte, error) {
	out := oai.ChatCompletionRequest{
		Model:  req.Model,
		Stream: req.Stream,
	}
	out.Temperature = req.Temperature
	out.TopP = req.TopP
	out.MaxTokens = req.MaxTokens
	if len(req.Stop) == 1 {
		out.Stop = &oai.StopSequence{OfString: &req.Stop[0]}
	} else if len(req.Stop) > 1 {
		out.Stop = &oai.StopSequence{OfStringArray: req.Stop}
	}
	for _, m := range req.Messages {
		u, err := canonicalMessageToOpenAI(m)
		if err != nil {
			return nil, err
		}
		out.Messages = append(out.Messages, u)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, oai.ToolParam{
			Type: "function",
			Function: oai.FunctionDefinitionParam{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	if req.ToolChoice != nil {
		tc := &oai.ToolChoiceUnion{}
		if req.ToolChoice.Mode == "named" {
			named := &oai.ChatCompletionNamedToolChoice{Type: "function"}
			named.Function.Name = req.ToolChoice.Name
			tc.OfNamed = named
		} else {
			mode := req.ToolChoice.Mode
			tc.OfAuto = &mode
		}
		out.ToolChoice = tc
	}
	return json.Marshal(out)
}

func canonicalMessageToOpenAI(m canonical.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case canonical.RoleSystem:
		text := m.Text
		return oai.ChatCompletionMessageParamUnion{OfSystem: &oai.ChatCompletionSystemMessageParam{
			Role: oai.ChatMessageRoleSystem, Content: oai.MessageContentUnion{OfString: &text}, Name: m.Name,
		}}, nil
	case canonical.RoleUser:
		u := &oai.ChatCompletionUserMessageParam{Role: oai.ChatMessageRoleUser, Name: m.Name}
		if len(m.Parts) > 0 {
			for _, p := range m.Parts {
				u.Content.OfParts = append(u.Content.OfParts, canonicalContentPartToOpenAI(p))
			}
		} else {
			text := m.Text
			u.Content.OfString = &text
		}
		return oai.ChatCompletionMessageParamUnion{OfUser: u}, nil
	case canonical.RoleAssistant:
		a := &oai.ChatCompletionAssistantMessageParam{Role: oai.ChatMessageRoleAssistant, Name: m.Name}
		if m.Text != "" || len(m.ToolCalls) == 0 {
			text := m.Text
			a.Content = &oai.MessageContentUnion{OfString: &text}
		}
		for _, tc := range m.ToolCalls {
			call := oai.ChatCompletionMessageToolCallParam{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Name
			call.Function.Arguments = string(tc.ArgsRaw)
			a.ToolCalls = append(a.ToolCalls, call)
		}
		return oai.ChatCompletionMessageParamUnion{OfAssistant: a}, nil
	case canonical.RoleTool:
		text := m.Text
		return oai.ChatCompletionMessageParamUnion{OfTool: &oai.ChatCompletionToolMessageParam{
			Role: oai.ChatMessageRoleTool, Content: oai.MessageContentUnion{OfString: &text}, ToolCallID: m.ToolCallID,
		}}, nil
	default:
		return oai.ChatCompletionMessageParamUnion{}, errTranslation("messages[].role", "unsupported role %q", m.Role)
	}
}

func canonicalContentPartToOpenAI(p canonical.ContentPart) oai.ChatCompletionContentPartUnionParam {
	switch p.Type {
	case canonical.ContentImageURL:
		img := &oai.ChatCompletionContentPartImageParam{Type: "image_url"}
		img.ImageURL.URL = p.ImageURL
		return oai.ChatCompletionContentPartUnionParam{OfImageURL: img}
	default:
		return oai.ChatCompletionContentPartUnionParam{OfText: &oai.ChatCompletionContentPartTextParam{Type: "text", Text: p.Text}}
	}
}

func openAIResponseToCanonical(body []byte) (*canonical.ChatResponse, error) {
	var resp oai.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errTranslation("", "invalid openai chat completion response: %v", err)
	}
	out := &canonical.ChatResponse{ID: resp.ID, Created: resp.Created, Model: resp.Model}
	for _, c := range resp.Choices {
		cm := canonical.Message{Role: canonical.RoleAssistant}
		if c.Message.Content != nil {
			cm.Text = *c.Message.Content
		}
		for _, tc := range c.Message.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, canonical.ToolCall{ID: tc.ID, Name: tc.Function.Name, ArgsRaw: json.RawMessage(tc.Function.Arguments)})
		}
		out.Choices = append(out.Choices, canonical.Choice{
			Index: c.Index, Message: cm, FinishReason: canonical.FinishReason(c.FinishReason),
		})
	}
	if resp.Usage != nil {
		u := &canonical.Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens, TotalTokens: resp.Usage.TotalTokens}
		if resp.Usage.PromptTokensDetails != nil {
			u.CachedTokens = resp.Usage.PromptTokensDetails.CachedTokens
		}
		out.Usage = u
	}
	return out, nil
}

func canonicalToOpenAIResponse(resp *canonical.ChatResponse) ([]byte, error) {
	out := oai.ChatCompletionResponse{ID: resp.ID, Object: "chat.completion", Created: resp.Created, Model: resp.Model}
	for _, c := range resp.Choices {
		msg := oai.ChatCompletionResponseChoiceMessage{Role: oai.ChatMessageRoleAssistant}
		if c.Message.Text != "" || len(c.Message.ToolCalls) == 0 {
			text := c.Message.Text
			msg.Content = &text
		}
		for _, tc := range c.Message.ToolCalls {
			call := oai.ChatCompletionMessageToolCallParam{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Name
			call.Function.Arguments = string(tc.ArgsRaw)
			msg.ToolCalls = append(msg.ToolCalls, call)
		}
		out.Choices = append(out.Choices, oai.ChatCompletionResponseChoice{
			Index: c.Index, Message: msg, FinishReason: oai.ChatCompletionChoicesFinishReason(c.FinishReason),
		})
	}
	if resp.Usage != nil {
		out.Usage = &oai.Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens, TotalTokens: resp.Usage.TotalTokens}
		if resp.Usage.CachedTokens > 0 {
			out.Usage.PromptTokensDetails = &oai.PromptTokensDetails{CachedTokens: resp.Usage.CachedTokens}
		}
	}
	return json.Marshal(out)
}

// ErrorBodyToOpenAI converts an arbitrary upstream non-2xx body into the
// OpenAI-shaped error envelope clients expect, falling back to a generic
// message when the upstream body isn't itself valid JSON.
func ErrorBodyToOpenAI(status int, body []byte) []byte {
	var probe map[string]any
	msg := string(body)
	if json.Unmarshal(body, &probe) != nil {
		msg = fmt.Sprintf("upstream returned non-JSON error body (status %d)", status)
	}
	b, _ := json.Marshal(oai.Error{Error: oai.ErrorType{Type: "upstream_error", Message: msg, Code: fmt.Sprint(status)}})
	return b
}
