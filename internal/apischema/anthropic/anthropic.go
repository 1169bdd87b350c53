// Copyright Envoy AI Gateway Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

// Package anthropic defines the wire types for the Anthropic Messages API.
package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// MessagesRequest represents a request to the Anthropic Messages API.
// https://docs.claude.com/en/api/messages
type MessagesRequest struct {
	Model string `json:"model,omitempty"`

	// Messages is the list of messages in the conversation.
	// https://docs.claude.com/en/api/messages#body-messages
	Messages []Message `json:"messages"`

	// MaxTokens is the maximum number of tokens to generate. Required by
	// the API; the gateway supplies a configured default if the source
	// format did not carry one.
	MaxTokens int `json:"max_tokens"`

	// Metadata is the metadata for the request.
	Metadata *MessagesMetadata `json:"metadata,omitempty"`

	// StopSequences is the list of stop sequences.
	StopSequences []string `json:"stop_sequences,omitempty"`

	// System is the system prompt to guide the model's behavior.
	System *SystemPrompt `json:"system,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`

	// ToolChoice indicates the tool choice for the model.
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`

	// Tools is the list of tools available to the model.
	Tools []Tool `json:"tools,omitempty"`

	Stream bool `json:"stream,omitempty"`

	TopP *float64 `json:"top_p,omitempty"`
	TopK *int     `json:"top_k,omitempty"`
}

// Message represents a single message in the Anthropic Messages API.
type Message struct {
	Role    MessageRole    `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageRole represents the role of a message in the Anthropic Messages API.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// MessageContent represents the content of a message: either a plain string
// or an array of typed content blocks. Exactly one of Text/Array is
// populated after unmarshaling.
type MessageContent struct {
	Text  string
	Array []MessagesContentBlock
}

// MarshalJSON implements json.Marshaler.
func (m MessageContent) MarshalJSON() ([]byte, error) {
	if m.Array != nil {
		return json.Marshal(m.Array)
	}
	return json.Marshal(m.Text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MessageContent) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		m.Text = text
		return nil
	}
	var array []MessagesContentBlock
	if err := json.Unmarshal(data, &array); err != nil {
		return fmt.Errorf("message content must be either string or array: %w", err)
	}
	m.Array = array
	return nil
}

// ContentBlockType discriminates MessagesContentBlock variants.
type ContentBlockType string

const (
	ContentBlockText       ContentBlockType = "text"
	ContentBlockImage      ContentBlockType = "image"
	ContentBlockToolUse    ContentBlockType = "tool_use"
	ContentBlockToolResult ContentBlockType = "tool_result"
)

// ImageSource is the `source` object of an image content block.
type ImageSource struct {
	Type      string `json:"type"` // "base64" or "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// MessagesContentBlock is one element of a multipart Message content array.
type MessagesContentBlock struct {
	Type ContentBlockType `json:"type"`

	// text blocks
	Text string `json:"text,omitempty"`

	// image blocks
	Source *ImageSource `json:"source,omitempty"`

	// tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result blocks
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   *MessageContent `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// MessagesMetadata represents the metadata for the request.
type MessagesMetadata struct {
	UserID *string `json:"user_id,omitempty"`
}

// SystemPrompt is either a plain string or an array of text blocks, per
// the documented system prompt union.
type SystemPrompt struct {
	Text  string
	Array []MessagesContentBlock
}

// MarshalJSON implements json.Marshaler.
func (s SystemPrompt) MarshalJSON() ([]byte, error) {
	if s.Array != nil {
		return json.Marshal(s.Array)
	}
	return json.Marshal(s.Text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SystemPrompt) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		s.Text = text
		return nil
	}
	var array []MessagesContentBlock
	if err := json.Unmarshal(data, &array); err != nil {
		return err
	}
	s.Array = array
	return nil
}

// Tool represents a tool available to the model.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolChoice represents the tool choice for the model.
type ToolChoice struct {
	Type string `json:"type"` // "auto", "any", "tool", "none"
	Name string `json:"name,omitempty"`
}

// MessagesResponse represents a response from the Anthropic Messages API.
type MessagesResponse struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"` // always "message"
	Role         MessageRole            `json:"role"` // always "assistant"
	Content      []MessagesContentBlock `json:"content"`
	Model        string                 `json:"model"`
	StopReason   *StopReason            `json:"stop_reason,omitempty"`
	StopSequence *string                `json:"stop_sequence,omitempty"`
	Usage        *Usage                 `json:"usage,omitempty"`
}

// StopReason represents the reason for stopping the generation.
type StopReason string

const (
	StopReasonEndTurn                    StopReason = "end_turn"
	StopReasonMaxTokens                  StopReason = "max_tokens"
	StopReasonStopSequence               StopReason = "stop_sequence"
	StopReasonToolUse                    StopReason = "tool_use"
	StopReasonPauseTurn                  StopReason = "pause_turn"
	StopReasonRefusal                    StopReason = "refusal"
	StopReasonModelContextWindowExceeded StopReason = "model_context_window_exceeded"
)

// Usage represents token usage information for the response.
//
// NOTE: all of them are float64 in the API, although they are always
// integers in practice. However, the documentation doesn't explicitly
// state that they are integers in its format, so we use float64 to be
// able to unmarshal both 1234 and 1234.0 without errors.
type Usage struct {
	CacheCreationInputTokens float64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     float64 `json:"cache_read_input_tokens"`
	InputTokens              float64 `json:"input_tokens"`
	OutputTokens             float64 `json:"output_tokens"`
}

// MessagesStreamEvent represents a single event in the streaming response.
// https://docs.claude.com/en/docs/build-with-claude/streaming
type MessagesStreamEvent struct {
	Type MessagesStreamEventType

	MessageStart      *MessagesStreamEventMessageStart
	MessageDelta      *MessagesStreamEventMessageDelta
	ContentBlockStart *MessagesStreamEventContentBlockStart
	ContentBlockDelta *MessagesStreamEventContentBlockDelta
	ContentBlockStop  *MessagesStreamEventContentBlockStop
}

// MessagesStreamEventType represents the type of a streaming event.
type MessagesStreamEventType string

const (
	MessagesStreamEventTypeMessageStart      MessagesStreamEventType = "message_start"
	MessagesStreamEventTypeMessageDelta      MessagesStreamEventType = "message_delta"
	MessagesStreamEventTypeMessageStop       MessagesStreamEventType = "message_stop"
	MessagesStreamEventTypeContentBlockStart MessagesStreamEventType = "content_block_start"
	MessagesStreamEventTypeContentBlockDelta MessagesStreamEventType = "content_block_delta"
	MessagesStreamEventTypeContentBlockStop  MessagesStreamEventType = "content_block_stop"
	MessagesStreamEventTypePing              MessagesStreamEventType = "ping"
)

// MessagesStreamEventMessageStart represents the message content in a
// "message_start" event.
type MessagesStreamEventMessageStart MessagesResponse

// MessagesStreamEventMessageDelta represents a "message_delta" event.
//
// Note: the definition of this event is vague in the Anthropic
// documentation. This follows the same shape used by their official SDK.
type MessagesStreamEventMessageDelta struct {
	Usage Usage                                `json:"usage"`
	Delta MessagesStreamEventMessageDeltaDelta `json:"delta"`
}

type MessagesStreamEventMessageDeltaDelta struct {
	StopReason   StopReason `json:"stop_reason"`
	StopSequence *string    `json:"stop_sequence,omitempty"`
}

// MessagesStreamEventContentBlockStart represents a "content_block_start"
// event, announcing the block type and index for subsequent deltas.
type MessagesStreamEventContentBlockStart struct {
	Index        int                  `json:"index"`
	ContentBlock MessagesContentBlock `json:"content_block"`
}

// MessagesStreamEventContentBlockDelta represents a "content_block_delta"
// event, which may carry a text_delta or an input_json_delta fragment.
type MessagesStreamEventContentBlockDelta struct {
	Index int                                        `json:"index"`
	Delta MessagesStreamEventContentBlockDeltaInner `json:"delta"`
}

type MessagesStreamEventContentBlockDeltaInner struct {
	Type        string `json:"type"` // "text_delta" or "input_json_delta"
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

// MessagesStreamEventContentBlockStop represents a "content_block_stop"
// event.
type MessagesStreamEventContentBlockStop struct {
	Index int `json:"index"`
}

// UnmarshalJSON implements json.Unmarshaler, dispatching on the "type"
// field using gjson to avoid a full decode of every event just to learn
// its type.
func (m *MessagesStreamEvent) UnmarshalJSON(data []byte) error {
	eventType := gjson.GetBytes(data, "type")
	if !eventType.Exists() {
		return fmt.Errorf("missing type field in stream event")
	}
	m.Type = MessagesStreamEventType(eventType.String())
	switch m.Type {
	case MessagesStreamEventTypeMessageStart:
		messageBytes := gjson.GetBytes(data, "message")
		decoder := json.NewDecoder(strings.NewReader(messageBytes.Raw))
		var message MessagesStreamEventMessageStart
		if err := decoder.Decode(&message); err != nil {
			return fmt.Errorf("failed to unmarshal message in stream event: %w", err)
		}
		m.MessageStart = &message
	case MessagesStreamEventTypeMessageDelta:
		var v MessagesStreamEventMessageDelta
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal message delta in stream event: %w", err)
		}
		m.MessageDelta = &v
	case MessagesStreamEventTypeContentBlockStart:
		var v MessagesStreamEventContentBlockStart
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal content block start: %w", err)
		}
		m.ContentBlockStart = &v
	case MessagesStreamEventTypeContentBlockDelta:
		var v MessagesStreamEventContentBlockDelta
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal content block delta: %w", err)
		}
		m.ContentBlockDelta = &v
	case MessagesStreamEventTypeContentBlockStop:
		var v MessagesStreamEventContentBlockStop
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal content block stop: %w", err)
		}
		m.ContentBlockStop = &v
	default:
		// message_stop and ping carry no additional fields the gateway needs.
	}
	return nil
}

// Error is the Anthropic-shaped error envelope.
type Error struct {
	Type  string `json:"type"` // always "error"
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
