// Copyright Envoy AI Gateway Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

// Package openai defines the wire types for the OpenAI Chat Completions API
// that this gateway must preserve losslessly across translation.
package openai

import (
	"encoding/json"
	"fmt"
)

// ChatMessageRole enumerates the message roles understood by the Chat
// Completions API.
type ChatMessageRole string

const (
	ChatMessageRoleSystem    ChatMessageRole = "system"
	ChatMessageRoleDeveloper ChatMessageRole = "developer"
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
	ChatMessageRoleTool      ChatMessageRole = "tool"
)

// ChatCompletionChoicesFinishReason enumerates the values returned in
// choices[].finish_reason.
type ChatCompletionChoicesFinishReason string

const (
	FinishReasonStop          ChatCompletionChoicesFinishReason = "stop"
	FinishReasonLength        ChatCompletionChoicesFinishReason = "length"
	FinishReasonToolCalls     ChatCompletionChoicesFinishReason = "tool_calls"
	FinishReasonContentFilter ChatCompletionChoicesFinishReason = "content_filter"
)

// StopSequence carries either a single string or a list of strings for the
// `stop` request field, per the API's documented union.
type StopSequence struct {
	OfString      *string
	OfStringArray []string
}

// MarshalJSON implements json.Marshaler.
func (s StopSequence) MarshalJSON() ([]byte, error) {
	if s.OfStringArray != nil {
		return json.Marshal(s.OfStringArray)
	}
	if s.OfString != nil {
		return json.Marshal(*s.OfString)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting a bare string or an
// array of strings, the only two shapes the `stop` field's documented
// union allows.
func (s *StopSequence) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("cannot unmarshal stop as string: %w", err)
		}
		s.OfString = &str
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("cannot unmarshal stop as []string: %w", err)
	}
	s.OfStringArray = arr
	return nil
}

// ChatCompletionContentPartTextParam is a `{"type":"text","text":"..."}`
// content part.
type ChatCompletionContentPartTextParam struct {
	Type string `json:"type"` // always "text"
	Text string `json:"text"`
}

// ChatCompletionContentPartImageParam is a `{"type":"image_url",...}`
// content part. URL may be a remote URL or a data: URI.
type ChatCompletionContentPartImageParam struct {
	Type     string `json:"type"` // always "image_url"
	ImageURL struct {
		URL    string `json:"url"`
		Detail string `json:"detail,omitempty"`
	} `json:"image_url"`
}

// ChatCompletionContentPartUnionParam is one element of a multipart user
// message content array.
type ChatCompletionContentPartUnionParam struct {
	OfText     *ChatCompletionContentPartTextParam
	OfImageURL *ChatCompletionContentPartImageParam
}

// MarshalJSON implements json.Marshaler.
func (c ChatCompletionContentPartUnionParam) MarshalJSON() ([]byte, error) {
	if c.OfImageURL != nil {
		return json.Marshal(c.OfImageURL)
	}
	return json.Marshal(c.OfText)
}

// UnmarshalJSON implements json.Unmarshaler, dispatching on the "type" field.
func (c *ChatCompletionContentPartUnionParam) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Type {
	case "image_url":
		var v ChatCompletionContentPartImageParam
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.OfImageURL = &v
	default:
		var v ChatCompletionContentPartTextParam
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.OfText = &v
	}
	return nil
}

// MessageContentUnion carries either plain text or a multipart content
// array, mirroring the API's documented content union for every role.
type MessageContentUnion struct {
	OfString *string
	OfParts  []ChatCompletionContentPartUnionParam
}

// MarshalJSON implements json.Marshaler.
func (m MessageContentUnion) MarshalJSON() ([]byte, error) {
	if m.OfParts != nil {
		return json.Marshal(m.OfParts)
	}
	if m.OfString != nil {
		return json.Marshal(*m.OfString)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MessageContentUnion) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		m.OfString = &str
		return nil
	}
	var parts []ChatCompletionContentPartUnionParam
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	m.OfParts = parts
	return nil
}

// ChatCompletionMessageToolCallFunctionParam is the function call payload of
// a tool call.
type ChatCompletionMessageToolCallFunctionParam struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // opaque JSON string, never parsed
}

// ChatCompletionMessageToolCallParam is one element of an assistant
// message's `tool_calls` array.
type ChatCompletionMessageToolCallParam struct {
	ID       string                                      `json:"id"`
	Type     string                                      `json:"type"` // always "function"
	Function ChatCompletionMessageToolCallFunctionParam   `json:"function"`
}

// ChatCompletionSystemMessageParam is a role="system" message.
type ChatCompletionSystemMessageParam struct {
	Role    ChatMessageRole      `json:"role"`
	Content MessageContentUnion  `json:"content"`
	Name    string               `json:"name,omitempty"`
}

// ChatCompletionDeveloperMessageParam is a role="developer" message, the
// successor to the deprecated system role.
type ChatCompletionDeveloperMessageParam struct {
	Role    ChatMessageRole     `json:"role"`
	Content MessageContentUnion `json:"content"`
	Name    string              `json:"name,omitempty"`
}

// ChatCompletionUserMessageParam is a role="user" message.
type ChatCompletionUserMessageParam struct {
	Role    ChatMessageRole     `json:"role"`
	Content MessageContentUnion `json:"content"`
	Name    string              `json:"name,omitempty"`
}

// ChatCompletionAssistantMessageParam is a role="assistant" message.
type ChatCompletionAssistantMessageParam struct {
	Role      ChatMessageRole                       `json:"role"`
	Content   *MessageContentUnion                  `json:"content,omitempty"`
	Name      string                                `json:"name,omitempty"`
	ToolCalls []ChatCompletionMessageToolCallParam   `json:"tool_calls,omitempty"`
	Refusal   string                                `json:"refusal,omitempty"`
}

// ChatCompletionToolMessageParam is a role="tool" message reporting the
// result of a tool call.
type ChatCompletionToolMessageParam struct {
	Role       ChatMessageRole     `json:"role"`
	Content    MessageContentUnion `json:"content"`
	ToolCallID string              `json:"tool_call_id"`
}

// ChatCompletionMessageParamUnion is one element of the request's `messages`
// array, tagged by its "role" field.
type ChatCompletionMessageParamUnion struct {
	OfSystem    *ChatCompletionSystemMessageParam
	OfDeveloper *ChatCompletionDeveloperMessageParam
	OfUser      *ChatCompletionUserMessageParam
	OfAssistant *ChatCompletionAssistantMessageParam
	OfTool      *ChatCompletionToolMessageParam
}

// MarshalJSON implements json.Marshaler.
func (m ChatCompletionMessageParamUnion) MarshalJSON() ([]byte, error) {
	switch {
	case m.OfSystem != nil:
		return json.Marshal(m.OfSystem)
	case m.OfDeveloper != nil:
		return json.Marshal(m.OfDeveloper)
	case m.OfUser != nil:
		return json.Marshal(m.OfUser)
	case m.OfAssistant != nil:
		return json.Marshal(m.OfAssistant)
	case m.OfTool != nil:
		return json.Marshal(m.OfTool)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler, dispatching on the "role" field.
func (m *ChatCompletionMessageParamUnion) UnmarshalJSON(data []byte) error {
	var probe struct {
		Role ChatMessageRole `json:"role"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Role {
	case ChatMessageRoleSystem:
		var v ChatCompletionSystemMessageParam
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.OfSystem = &v
	case ChatMessageRoleDeveloper:
		var v ChatCompletionDeveloperMessageParam
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.OfDeveloper = &v
	case ChatMessageRoleAssistant:
		var v ChatCompletionAssistantMessageParam
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.OfAssistant = &v
	case ChatMessageRoleTool:
		var v ChatCompletionToolMessageParam
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.OfTool = &v
	default:
		var v ChatCompletionUserMessageParam
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.OfUser = &v
	}
	return nil
}

// FunctionDefinitionParam is the JSON-Schema-bearing function definition
// inside a ToolParam.
type FunctionDefinitionParam struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolParam is one element of the request's `tools` array.
type ToolParam struct {
	Type     string                  `json:"type"` // always "function"
	Function FunctionDefinitionParam `json:"function"`
}

// ChatCompletionNamedToolChoice pins the model to a specific function.
type ChatCompletionNamedToolChoice struct {
	Type     string `json:"type"` // always "function"
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

// ToolChoiceUnion carries "auto"/"none"/"required" or a named tool choice.
type ToolChoiceUnion struct {
	OfAuto  *string
	OfNamed *ChatCompletionNamedToolChoice
}

// MarshalJSON implements json.Marshaler.
func (t ToolChoiceUnion) MarshalJSON() ([]byte, error) {
	if t.OfNamed != nil {
		return json.Marshal(t.OfNamed)
	}
	if t.OfAuto != nil {
		return json.Marshal(*t.OfAuto)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *ToolChoiceUnion) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t.OfAuto = &s
		return nil
	}
	var v ChatCompletionNamedToolChoice
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t.OfNamed = &v
	return nil
}

// ChatCompletionRequest is the request body for POST /v1/chat/completions.
type ChatCompletionRequest struct {
	Model               string                             `json:"model"`
	Messages            []ChatCompletionMessageParamUnion   `json:"messages"`
	Stream              bool                                `json:"stream,omitempty"`
	Temperature         *float64                           `json:"temperature,omitempty"`
	TopP                *float64                           `json:"top_p,omitempty"`
	MaxTokens           *int64                             `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int64                             `json:"max_completion_tokens,omitempty"`
	Stop                *StopSequence                      `json:"stop,omitempty"`
	Tools               []ToolParam                        `json:"tools,omitempty"`
	ToolChoice          *ToolChoiceUnion                   `json:"tool_choice,omitempty"`
	Logprobs            bool                               `json:"logprobs,omitempty"`
	Metadata            map[string]string                  `json:"metadata,omitempty"`
}

// PromptTokensDetails carries the cache breakdown of prompt_tokens.
type PromptTokensDetails struct {
	CachedTokens uint32 `json:"cached_tokens,omitempty"`
}

// Usage is the token accounting block shared by responses and the final
// streaming chunk.
type Usage struct {
	PromptTokens        uint32               `json:"prompt_tokens"`
	CompletionTokens    uint32               `json:"completion_tokens"`
	TotalTokens          uint32               `json:"total_tokens"`
	PromptTokensDetails *PromptTokensDetails `json:"prompt_tokens_details,omitempty"`
}

// ChatCompletionResponseChoiceMessage is the assistant message returned in
// a non-streaming choice.
type ChatCompletionResponseChoiceMessage struct {
	Role      ChatMessageRole                       `json:"role"`
	Content   *string                               `json:"content"`
	ToolCalls []ChatCompletionMessageToolCallParam   `json:"tool_calls,omitempty"`
}

// ChatCompletionResponseChoice is one element of a non-streaming response's
// `choices` array.
type ChatCompletionResponseChoice struct {
	Index        int                                   `json:"index"`
	Message      ChatCompletionResponseChoiceMessage   `json:"message"`
	FinishReason ChatCompletionChoicesFinishReason      `json:"finish_reason"`
}

// ChatCompletionResponse is the response body for a non-streaming
// POST /v1/chat/completions call.
type ChatCompletionResponse struct {
	ID      string                         `json:"id"`
	Object  string                         `json:"object"` // "chat.completion"
	Created int64                          `json:"created"`
	Model   string                         `json:"model"`
	Choices []ChatCompletionResponseChoice `json:"choices"`
	Usage   *Usage                         `json:"usage,omitempty"`
}

// ChatCompletionResponseChunkChoiceDelta is the incremental delta for one
// choice of a streaming chunk.
type ChatCompletionResponseChunkChoiceDelta struct {
	Role      ChatMessageRole                                `json:"role,omitempty"`
	Content   string                                         `json:"content,omitempty"`
	ToolCalls []ChatCompletionMessageToolCallChunkParam       `json:"tool_calls,omitempty"`
}

// ChatCompletionMessageToolCallChunkParam is a streamed tool-call fragment,
// identified by index with optional id/name on the first fragment.
type ChatCompletionMessageToolCallChunkParam struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

// ChatCompletionResponseChunkChoice is one element of a streaming chunk's
// `choices` array.
type ChatCompletionResponseChunkChoice struct {
	Index        int                                     `json:"index"`
	Delta        ChatCompletionResponseChunkChoiceDelta   `json:"delta"`
	FinishReason *ChatCompletionChoicesFinishReason       `json:"finish_reason"`
}

// ChatCompletionResponseChunk is one SSE `data:` payload of a streaming
// POST /v1/chat/completions response.
type ChatCompletionResponseChunk struct {
	ID      string                               `json:"id"`
	Object  string                               `json:"object"` // "chat.completion.chunk"
	Created int64                                `json:"created"`
	Model   string                               `json:"model"`
	Choices []ChatCompletionResponseChunkChoice   `json:"choices"`
	Usage   *Usage                               `json:"usage,omitempty"`
}

// ErrorType is the nested error payload of an Error body.
type ErrorType struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error is the OpenAI-shaped error envelope.
type Error struct {
	Error ErrorType `json:"error"`
}

// Model is one element of the GET /v1/models response.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"` // "model"
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the response body for GET /v1/models.
type ModelList struct {
	Object string  `json:"object"` // "list"
	Data   []Model `json:"data"`
}
