// Package openairesponses defines the wire types for OpenAI's Responses
// API (POST /v1/responses), the newer item-list-based alternative to Chat
// Completions that this gateway also accepts from clients.
package openairesponses

import (
	"encoding/json"
	"fmt"
)

// Input is either a plain string prompt or an array of InputItems, per
// the Responses API's documented request.input union.
type Input struct {
	Text  string
	Items []InputItem
}

func (i Input) MarshalJSON() ([]byte, error) {
	if i.Items != nil {
		return json.Marshal(i.Items)
	}
	return json.Marshal(i.Text)
}

func (i *Input) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &i.Text)
	}
	return json.Unmarshal(data, &i.Items)
}

// InputItemType discriminates InputItem variants.
type InputItemType string

const (
	InputItemMessage            InputItemType = "message"
	InputItemFunctionCall       InputItemType = "function_call"
	InputItemFunctionCallOutput InputItemType = "function_call_output"
)

// InputItem is one element of a Responses request's input array.
type InputItem struct {
	Type InputItemType `json:"type"`

	// message
	Role    string         `json:"role,omitempty"`
	Content InputContent   `json:"content,omitempty"`

	// function_call
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// function_call_output
	Output string `json:"output,omitempty"`
}

// InputContent is a message's content: either a plain string or an array
// of typed content parts (input_text, input_image).
type InputContent struct {
	Text  string
	Parts []InputContentPart
}

func (c InputContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *InputContent) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &c.Text)
	}
	return json.Unmarshal(data, &c.Parts)
}

// InputContentPart is one element of a structured message content array.
type InputContentPart struct {
	Type     string `json:"type"` // "input_text" or "input_image"
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Tool is a function tool offered to the model.
type Tool struct {
	Type        string          `json:"type"` // "function"
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolChoice selects how the model should use tools; either a plain mode
// string ("auto"/"none"/"required") or a named-function object.
type ToolChoice struct {
	Mode string
	Name string
}

func (t ToolChoice) MarshalJSON() ([]byte, error) {
	if t.Name != "" {
		return json.Marshal(map[string]string{"type": "function", "name": t.Name})
	}
	return json.Marshal(t.Mode)
}

func (t *ToolChoice) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Mode)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Name = obj.Name
	return nil
}

// Request is the request body for POST /v1/responses.
type Request struct {
	Model           string      `json:"model"`
	Input           Input       `json:"input"`
	Instructions    *string     `json:"instructions,omitempty"`
	Stream          bool        `json:"stream,omitempty"`
	Temperature     *float64    `json:"temperature,omitempty"`
	TopP            *float64    `json:"top_p,omitempty"`
	MaxOutputTokens *int64      `json:"max_output_tokens,omitempty"`
	Tools           []Tool      `json:"tools,omitempty"`
	ToolChoice      *ToolChoice `json:"tool_choice,omitempty"`
}

// OutputItemType discriminates OutputItem variants.
type OutputItemType string

const (
	OutputItemMessage      OutputItemType = "message"
	OutputItemFunctionCall OutputItemType = "function_call"
)

// OutputContentPart is one element of an output message's content array.
type OutputContentPart struct {
	Type string `json:"type"` // "output_text"
	Text string `json:"text,omitempty"`
}

// OutputItem is one element of a Responses response's output array.
type OutputItem struct {
	Type OutputItemType `json:"type"`

	// message
	Role    string              `json:"role,omitempty"`
	Content []OutputContentPart `json:"content,omitempty"`

	// function_call
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Usage is the Responses API's token accounting block.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Status is the terminal status of a Responses response.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusIncomplete Status = "incomplete"
	StatusFailed     Status = "failed"
)

// Response is the response body for a non-streaming POST /v1/responses
// call, and the final snapshot in response.completed for a streaming one.
type Response struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"` // "response"
	CreatedAt int64        `json:"created_at"`
	Model     string       `json:"model"`
	Status    Status       `json:"status"`
	Output    []OutputItem `json:"output"`
	Usage     *Usage       `json:"usage,omitempty"`
}

// StreamEventType discriminates the subset of Responses streaming events
// this gateway translates: item lifecycle and text/argument deltas.
type StreamEventType string

const (
	StreamEventCreated                 StreamEventType = "response.created"
	StreamEventOutputItemAdded         StreamEventType = "response.output_item.added"
	StreamEventOutputTextDelta         StreamEventType = "response.output_text.delta"
	StreamEventFunctionCallArgsDelta   StreamEventType = "response.function_call_arguments.delta"
	StreamEventOutputItemDone          StreamEventType = "response.output_item.done"
	StreamEventCompleted               StreamEventType = "response.completed"
)

// StreamEvent is one SSE `data:` payload of a streaming /v1/responses
// response.
type StreamEvent struct {
	Type           StreamEventType
	OutputIndex    int
	Delta          string
	Item           *OutputItem
	Response       *Response
}

type streamEventWire struct {
	Type        StreamEventType `json:"type"`
	OutputIndex int             `json:"output_index,omitempty"`
	Delta       string          `json:"delta,omitempty"`
	Item        *OutputItem     `json:"item,omitempty"`
	Response    *Response       `json:"response,omitempty"`
}

func (e StreamEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(streamEventWire{
		Type: e.Type, OutputIndex: e.OutputIndex, Delta: e.Delta, Item: e.Item, Response: e.Response,
	})
}

func (e *StreamEvent) UnmarshalJSON(data []byte) error {
	var w streamEventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("invalid responses stream event: %w", err)
	}
	e.Type, e.OutputIndex, e.Delta, e.Item, e.Response = w.Type, w.OutputIndex, w.Delta, w.Item, w.Response
	return nil
}

// Error is the Responses-shaped error envelope, identical in shape to
// the Chat Completions error envelope.
type Error struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}
