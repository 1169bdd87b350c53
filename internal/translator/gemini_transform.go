package translator

import (
	"encoding/json"

	"google.golang.org/genai"

	gem "github.com/relaylayer/llmgw/internal/apischema/gemini"
	"github.com/relaylayer/llmgw/internal/canonical"
)

const geminiAssistantRole = "model"

func geminiRequestToCanonical(body []byte) (*canonical.ChatRequest, error) {
	var req gem.GenerateContentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errTranslation("", "invalid gemini generateContent request: %v", err)
	}
	out := &canonical.ChatRequest{}
	if req.GenerationConfig != nil {
		gc := req.GenerationConfig
		if gc.Temperature != nil {
			t := float64(*gc.Temperature)
			out.Temperature = &t
		}
		if gc.TopP != nil {
			p := float64(*gc.TopP)
			out.TopP = &p
		}
		if gc.MaxOutputTokens != 0 {
			mt := int64(gc.MaxOutputTokens)
			out.MaxTokens = &mt
		}
		out.Stop = gc.StopSequences
	}
	if req.SystemInstruction != nil {
		out.Messages = append(out.Messages, canonical.Message{Role: canonical.RoleSystem, Text: geminiContentText(*req.SystemInstruction)})
	}
	for _, c := range req.Contents {
		out.Messages = append(out.Messages, geminiContentToCanonical(c)...)
	}
	if len(out.Messages) == 0 {
		return nil, errTranslation("contents", "contents must contain at least one element")
	}
	for _, t := range req.Tools {
		for _, fd := range t.FunctionDeclarations {
			params, _ := json.Marshal(fd.Parameters)
			out.Tools = append(out.Tools, canonical.ToolSchema{Name: fd.Name, Description: fd.Description, Parameters: params})
		}
	}
	return out, nil
}

func geminiContentText(c genai.Content) string {
	var text string
	for _, p := range c.Parts {
		if p != nil && p.Text != "" {
			text += p.Text
		}
	}
	return text
}

func geminiContentToCanonical(c genai.Content) []canonical.Message {
	role := canonical.RoleUser
	if c.Role == geminiAssistantRole {
		role = canonical.RoleAssistant
	}
	var out []canonical.Message
	var assistant canonical.Message
	assistant.Role = role
	hasAssistant := false
	for _, p := range c.Parts {
		if p == nil {
			continue
		}
		switch {
		case p.Text != "":
			if role == canonical.RoleUser {
				out = append(out, canonical.Message{Role: role, Text: p.Text})
			} else {
				assistant.Text += p.Text
				hasAssistant = true
			}
		case p.FunctionCall != nil:
			args, _ := json.Marshal(p.FunctionCall.Args)
			assistant.ToolCalls = append(assistant.ToolCalls, canonical.ToolCall{ID: p.FunctionCall.ID, Name: p.FunctionCall.Name, ArgsRaw: args})
			hasAssistant = true
		case p.FunctionResponse != nil:
			resp, _ := json.Marshal(p.FunctionResponse.Response)
			out = append(out, canonical.Message{Role: canonical.RoleTool, Text: string(resp), ToolCallID: p.FunctionResponse.ID})
		}
	}
	if hasAssistant {
		out = append(out, assistant)
	}
	return out
}

func canonicalToGeminiRequest(req *canonical.ChatRequest) ([]byte, error) {
	out := gem.GenerateContentRequest{}
	gc := &genai.GenerationConfig{}
	hasGC := false
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		gc.Temperature = &t
		hasGC = true
	}
	if req.TopP != nil {
		p := float32(*req.TopP)
		gc.TopP = &p
		hasGC = true
	}
	if req.MaxTokens != nil {
		gc.MaxOutputTokens = int32(*req.MaxTokens)
		hasGC = true
	}
	if len(req.Stop) > 0 {
		gc.StopSequences = req.Stop
		hasGC = true
	}
	if hasGC {
		out.GenerationConfig = gc
	}

	var systemParts []string
	nonSystem := dropSystemMessages(req.Messages, &systemParts)
	if len(systemParts) > 0 {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: joinAll(systemParts)}}}
	}
	for _, m := range nonSystem {
		out.Contents = append(out.Contents, canonicalMessageToGemini(m))
	}
	if len(req.Tools) > 0 {
		var decls []*genai.FunctionDeclaration
		for _, t := range req.Tools {
			schema, err := jsonSchemaToGeminiSchema(t.Parameters)
			if err != nil {
				return nil, errTranslation("tools[].parameters", "%v", err)
			}
			decls = append(decls, &genai.FunctionDeclaration{Name: t.Name, Description: t.Description, Parameters: schema})
		}
		out.Tools = []genai.Tool{{FunctionDeclarations: decls}}
	}
	return json.Marshal(out)
}

func joinAll(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

func canonicalMessageToGemini(m canonical.Message) genai.Content {
	role := "user"
	if m.Role == canonical.RoleAssistant {
		role = geminiAssistantRole
	}
	c := genai.Content{Role: role}
	if m.Role == canonical.RoleTool {
		var resp map[string]any
		_ = json.Unmarshal([]byte(m.Text), &resp)
		c.Role = "user"
		c.Parts = append(c.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{ID: m.ToolCallID, Response: resp}})
		return c
	}
	if m.Text != "" {
		c.Parts = append(c.Parts, &genai.Part{Text: m.Text})
	}
	for _, p := range m.Parts {
		if p.Type == canonical.ContentImageURL {
			c.Parts = append(c.Parts, &genai.Part{Text: p.ImageURL}) // best-effort; inline data requires bytes, not a URL
		}
	}
	for _, tc := range m.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal(tc.ArgsRaw, &args)
		c.Parts = append(c.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
	}
	return c
}

func geminiResponseToCanonical(body []byte) (*canonical.ChatResponse, error) {
	var resp gem.GenerateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errTranslation("", "invalid gemini generateContent response: %v", err)
	}
	out := &canonical.ChatResponse{Model: resp.ModelVersion}
	for _, c := range resp.Candidates {
		msgs := geminiContentToCanonical(c.Content)
		var cm canonical.Message
		cm.Role = canonical.RoleAssistant
		for _, m := range msgs {
			if m.Role == canonical.RoleAssistant {
				cm = m
			}
		}
		out.Choices = append(out.Choices, canonical.Choice{Index: c.Index, Message: cm, FinishReason: geminiFinishToCanonical(c.FinishReason)})
	}
	if resp.UsageMetadata != nil {
		out.Usage = &canonical.Usage{
			PromptTokens: uint32(resp.UsageMetadata.PromptTokenCount), CompletionTokens: uint32(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens: uint32(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func geminiFinishToCanonical(f gem.FinishReason) canonical.FinishReason {
	switch f {
	case gem.FinishReasonStop:
		return canonical.FinishStop
	case gem.FinishReasonMaxTokens:
		return canonical.FinishLength
	case gem.FinishReasonSafety:
		return canonical.FinishContentFilter
	default:
		return canonical.FinishReason(f)
	}
}

func canonicalFinishToGemini(f canonical.FinishReason) gem.FinishReason {
	switch f {
	case canonical.FinishStop:
		return gem.FinishReasonStop
	case canonical.FinishLength:
		return gem.FinishReasonMaxTokens
	case canonical.FinishContentFilter:
		return gem.FinishReasonSafety
	default:
		return gem.FinishReason(f)
	}
}

func canonicalToGeminiResponse(resp *canonical.ChatResponse) ([]byte, error) {
	out := gem.GenerateContentResponse{ModelVersion: resp.Model}
	for _, c := range resp.Choices {
		content := canonicalMessageToGemini(c.Message)
		content.Role = geminiAssistantRole
		out.Candidates = append(out.Candidates, gem.Candidate{Content: content, FinishReason: canonicalFinishToGemini(c.FinishReason), Index: c.Index})
	}
	if resp.Usage != nil {
		out.UsageMetadata = &gem.UsageMetadata{
			PromptTokenCount: int32(resp.Usage.PromptTokens), CandidatesTokenCount: int32(resp.Usage.CompletionTokens), TotalTokenCount: int32(resp.Usage.TotalTokens),
		}
	}
	return json.Marshal(out)
}
