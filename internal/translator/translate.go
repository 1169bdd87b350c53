// Package translator implements the cross-format request/response
// transforms and the JSON-Schema-to-Gemini conversion. Every exported
// function here is pure: no I/O, no globals, no timing dependencies.
package translator

import (
	"github.com/google/uuid"

	"github.com/relaylayer/llmgw/internal/canonical"
	"github.com/relaylayer/llmgw/internal/gwerrors"
)

// Family is the closed set of wire-format families this gateway translates
// between.
type Family string

const (
	FamilyOpenAI          Family = "openai"
	FamilyAnthropic       Family = "anthropic"
	FamilyBedrock         Family = "bedrock"
	FamilyGemini          Family = "gemini"
	FamilyOpenAIResponses Family = "openai_responses"
)

// Defaults carries the configured fallbacks request translation needs when
// the source format omits a field the target format requires.
type Defaults struct {
	MaxTokens int64
}

// ToCanonical converts a raw request body in the given family's wire format
// into the canonical ChatRequest.
func ToCanonical(family Family, body []byte) (*canonical.ChatRequest, error) {
	switch family {
	case FamilyOpenAI:
		return openAIRequestToCanonical(body)
	case FamilyAnthropic:
		return anthropicRequestToCanonical(body)
	case FamilyBedrock:
		return bedrockRequestToCanonical(body)
	case FamilyGemini:
		return geminiRequestToCanonical(body)
	case FamilyOpenAIResponses:
		return openaiResponsesRequestToCanonical(body)
	default:
		return nil, gwerrors.New(gwerrors.InternalError, "unknown family %q", family)
	}
}

// FromCanonical serializes a canonical ChatRequest into the given family's
// wire format, applying configured defaults where the target format
// requires a field the canonical request lacks.
func FromCanonical(family Family, req *canonical.ChatRequest, defaults Defaults) ([]byte, error) {
	switch family {
	case FamilyOpenAI:
		return canonicalToOpenAIRequest(req)
	case FamilyAnthropic:
		return canonicalToAnthropicRequest(req, defaults)
	case FamilyBedrock:
		return canonicalToBedrockRequest(req, defaults)
	case FamilyGemini:
		return canonicalToGeminiRequest(req)
	case FamilyOpenAIResponses:
		return canonicalToOpenAIResponsesRequest(req)
	default:
		return nil, gwerrors.New(gwerrors.InternalError, "unknown family %q", family)
	}
}

// TranslateRequest converts a request body from one family's wire format to
// another via the canonical shape, the dual hub spec §4.2 describes as a
// cross-product of pure functions.
func TranslateRequest(src, dst Family, body []byte, defaults Defaults) ([]byte, error) {
	if src == dst {
		return body, nil
	}
	c, err := ToCanonical(src, body)
	if err != nil {
		return nil, err
	}
	ensureToolCallIDs(c)
	return FromCanonical(dst, c, defaults)
}

// ensureToolCallIDs synthesizes a UUIDv4 id for any tool call crossing
// families without one. Synthesis happens once, here, at first
// translation; the id is then carried on the canonical message for the
// remainder of the request's lifetime.
func ensureToolCallIDs(req *canonical.ChatRequest) {
	for i := range req.Messages {
		for j := range req.Messages[i].ToolCalls {
			if req.Messages[i].ToolCalls[j].ID == "" {
				req.Messages[i].ToolCalls[j].ID = "tc_" + uuid.NewString()
			}
		}
	}
}

// ResponseToCanonical converts a raw non-streaming response body in the
// given family's wire format into the canonical ChatResponse.
func ResponseToCanonical(family Family, body []byte) (*canonical.ChatResponse, error) {
	switch family {
	case FamilyOpenAI:
		return openAIResponseToCanonical(body)
	case FamilyAnthropic:
		return anthropicResponseToCanonical(body)
	case FamilyBedrock:
		return bedrockResponseToCanonical(body)
	case FamilyGemini:
		return geminiResponseToCanonical(body)
	case FamilyOpenAIResponses:
		return openaiResponsesResponseToCanonical(body)
	default:
		return nil, gwerrors.New(gwerrors.InternalError, "unknown family %q", family)
	}
}

// ResponseFromCanonical serializes a canonical ChatResponse into the given
// family's wire format.
func ResponseFromCanonical(family Family, resp *canonical.ChatResponse) ([]byte, error) {
	switch family {
	case FamilyOpenAI:
		return canonicalToOpenAIResponse(resp)
	case FamilyAnthropic:
		return canonicalToAnthropicResponse(resp)
	case FamilyBedrock:
		return canonicalToBedrockResponse(resp)
	case FamilyGemini:
		return canonicalToGeminiResponse(resp)
	case FamilyOpenAIResponses:
		return canonicalToOpenAIResponsesResponse(resp)
	default:
		return nil, gwerrors.New(gwerrors.InternalError, "unknown family %q", family)
	}
}

// TranslateResponse converts a non-streaming response body from one
// family's wire format to another via the canonical shape.
func TranslateResponse(src, dst Family, body []byte) ([]byte, error) {
	if src == dst {
		return body, nil
	}
	c, err := ResponseToCanonical(src, body)
	if err != nil {
		return nil, err
	}
	for i := range c.Choices {
		for j := range c.Choices[i].Message.ToolCalls {
			if c.Choices[i].Message.ToolCalls[j].ID == "" {
				c.Choices[i].Message.ToolCalls[j].ID = "tc_" + uuid.NewString()
			}
		}
	}
	return ResponseFromCanonical(dst, c)
}

// NormalizeUsage converts a family's native usage representation, already
// present on a canonical.ChatResponse after ResponseToCanonical, into the
// shared accounting block read by the rate limiter and the metrics sink.
// This exists as a named seam (rather than inlining the cast at call
// sites) because both the buffered response path and the streaming
// UsageDelta path need the identical normalization.
func NormalizeUsage(u *canonical.Usage) canonical.Usage {
	if u == nil {
		return canonical.Usage{}
	}
	return *u
}

func errTranslation(path, format string, args ...any) error {
	return gwerrors.New(gwerrors.TranslationError, format, args...).WithPath(path)
}
