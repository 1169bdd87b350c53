// Package bedrock defines the wire types for the AWS Bedrock Converse API
// (both the buffered `/converse` and the streamed `/converse-stream`
// endpoints), as exercised over a signed HTTPS POST rather than the AWS
// Go SDK's bedrockruntime client.
package bedrock

import "encoding/json"

// ConversationRole is the role of a Converse message.
type ConversationRole string

const (
	ConversationRoleUser      ConversationRole = "user"
	ConversationRoleAssistant ConversationRole = "assistant"
)

// ImageFormat is the format of an image content block's bytes.
type ImageFormat string

// ImageSource carries the raw bytes of an image content block.
type ImageSource struct {
	Bytes []byte `json:"bytes"`
}

// ImageBlock is an image content block.
type ImageBlock struct {
	Format ImageFormat `json:"format"`
	Source ImageSource `json:"source"`
}

// ToolUseBlock is an assistant-issued tool invocation content block.
type ToolUseBlock struct {
	ToolUseID string          `json:"toolUseId"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
}

// ToolResultContentBlock is one element of a ToolResultBlock's Content.
type ToolResultContentBlock struct {
	Text  string          `json:"text,omitempty"`
	JSON  json.RawMessage `json:"json,omitempty"`
	Image *ImageBlock     `json:"image,omitempty"`
}

// ToolResultStatus is the outcome of a tool invocation.
type ToolResultStatus string

const (
	ToolResultStatusSuccess ToolResultStatus = "success"
	ToolResultStatusError   ToolResultStatus = "error"
)

// ToolResultBlock is a user-supplied tool result content block.
type ToolResultBlock struct {
	ToolUseID string                   `json:"toolUseId"`
	Content   []ToolResultContentBlock `json:"content"`
	Status    ToolResultStatus         `json:"status,omitempty"`
}

// ReasoningContentBlock carries the model's extended-thinking output.
type ReasoningContentBlock struct {
	ReasoningText *struct {
		Text      string `json:"text"`
		Signature string `json:"signature,omitempty"`
	} `json:"reasoningText,omitempty"`
	RedactedContent []byte `json:"redactedContent,omitempty"`
}

// ContentBlock is one element of a Message's Content array. Exactly one
// field is populated, mirroring the Converse API's tagged-union content
// blocks.
type ContentBlock struct {
	Text             string                 `json:"text,omitempty"`
	Image            *ImageBlock            `json:"image,omitempty"`
	ToolUse          *ToolUseBlock          `json:"toolUse,omitempty"`
	ToolResult       *ToolResultBlock       `json:"toolResult,omitempty"`
	ReasoningContent *ReasoningContentBlock `json:"reasoningContent,omitempty"`
}

// Message is one turn of a Converse conversation.
type Message struct {
	Role    ConversationRole `json:"role"`
	Content []ContentBlock   `json:"content"`
}

// SystemContentBlock is one element of the top-level System array.
type SystemContentBlock struct {
	Text string `json:"text"`
}

// InferenceConfig carries sampling parameters.
type InferenceConfig struct {
	MaxTokens     *int32   `json:"maxTokens,omitempty"`
	Temperature   *float32 `json:"temperature,omitempty"`
	TopP          *float32 `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

// ToolSpec is a single tool definition.
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema struct {
		JSON json.RawMessage `json:"json"`
	} `json:"inputSchema"`
}

// Tool wraps a ToolSpec, mirroring the Converse API's tagged tool union
// (currently only the toolSpec variant is populated by this gateway).
type Tool struct {
	ToolSpec *ToolSpec `json:"toolSpec,omitempty"`
}

// AnyToolChoice lets the model decide whether and which tool to call.
type AnyToolChoice struct{}

// AutoToolChoice lets the model decide freely, matching OpenAI's "auto".
type AutoToolChoice struct{}

// SpecificToolChoice forces a named tool.
type SpecificToolChoice struct {
	Name string `json:"name"`
}

// ToolChoice is the tagged union of tool-choice strategies.
type ToolChoice struct {
	Any  *AnyToolChoice       `json:"any,omitempty"`
	Auto *AutoToolChoice      `json:"auto,omitempty"`
	Tool *SpecificToolChoice  `json:"tool,omitempty"`
}

// ToolConfiguration is the request's tool configuration block.
type ToolConfiguration struct {
	Tools      []Tool      `json:"tools"`
	ToolChoice *ToolChoice `json:"toolChoice,omitempty"`
}

// ConverseInput is the request body for POST /model/{id}/converse and
// POST /model/{id}/converse-stream.
type ConverseInput struct {
	Messages                   []Message              `json:"messages"`
	System                     []SystemContentBlock   `json:"system,omitempty"`
	InferenceConfig            *InferenceConfig       `json:"inferenceConfig,omitempty"`
	ToolConfig                 *ToolConfiguration     `json:"toolConfig,omitempty"`
	AdditionalModelRequestFields json.RawMessage      `json:"additionalModelRequestFields,omitempty"`
}

// StopReason is the reason the model stopped generating.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonToolUse      StopReason = "tool_use"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
	StopReasonContentFiltered StopReason = "content_filtered"
)

// TokenUsage is the Converse API's usage block.
type TokenUsage struct {
	InputTokens  int32 `json:"inputTokens"`
	OutputTokens int32 `json:"outputTokens"`
	TotalTokens  int32 `json:"totalTokens"`
}

// ConverseOutputMessage wraps the assistant message in a non-streaming
// response.
type ConverseOutputMessage struct {
	Message Message `json:"message"`
}

// ConverseOutput is the response body for a non-streaming converse call.
type ConverseOutput struct {
	Output     ConverseOutputMessage `json:"output"`
	StopReason StopReason            `json:"stopReason"`
	Usage      TokenUsage            `json:"usage"`
}

// ContentBlockDelta is a streamed fragment of an assistant content block.
type ContentBlockDelta struct {
	Text    string          `json:"text,omitempty"`
	ToolUse *struct {
		Input string `json:"input"` // accumulating JSON fragment
	} `json:"toolUse,omitempty"`
	ReasoningContent *struct {
		Text string `json:"text,omitempty"`
	} `json:"reasoningContent,omitempty"`
}

// ConverseStreamEvent is the tagged union of Converse streaming events,
// each decoded from one AWS Event Stream message payload.
type ConverseStreamEvent struct {
	MessageStart *struct {
		Role ConversationRole `json:"role"`
	} `json:"messageStart,omitempty"`

	ContentBlockStart *struct {
		ContentBlockIndex int `json:"contentBlockIndex"`
		Start             struct {
			ToolUse *struct {
				ToolUseID string `json:"toolUseId"`
				Name      string `json:"name"`
			} `json:"toolUse,omitempty"`
		} `json:"start"`
	} `json:"contentBlockStart,omitempty"`

	ContentBlockDelta *struct {
		ContentBlockIndex int                `json:"contentBlockIndex"`
		Delta             ContentBlockDelta  `json:"delta"`
	} `json:"contentBlockDelta,omitempty"`

	ContentBlockStop *struct {
		ContentBlockIndex int `json:"contentBlockIndex"`
	} `json:"contentBlockStop,omitempty"`

	MessageStop *struct {
		StopReason StopReason `json:"stopReason"`
	} `json:"messageStop,omitempty"`

	Metadata *struct {
		Usage TokenUsage `json:"usage"`
	} `json:"metadata,omitempty"`
}
