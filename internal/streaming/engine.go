package streaming

import (
	"encoding/json"
	"fmt"

	anth "github.com/relaylayer/llmgw/internal/apischema/anthropic"
	brk "github.com/relaylayer/llmgw/internal/apischema/bedrock"
	gem "github.com/relaylayer/llmgw/internal/apischema/gemini"
	oai "github.com/relaylayer/llmgw/internal/apischema/openai"
	oair "github.com/relaylayer/llmgw/internal/apischema/openairesponses"
	"github.com/relaylayer/llmgw/internal/canonical"
	"github.com/relaylayer/llmgw/internal/translator"
)

// Engine is a per-request incremental push parser: it accepts upstream
// byte fragments and returns target-format byte frames ready to forward to
// the client. It never blocks and holds no state beyond one request.
type Engine struct {
	Source translator.Family
	Target translator.Family
	Model  string

	// UseInvokeModel is set when the Bedrock binding dispatches through
	// InvokeModelWithResponseStream rather than ConverseStream. The two
	// transports share the same outer AWS Event Stream framing, but
	// InvokeModel's {"bytes": ...} envelope carries the hosted model's
	// own native event JSON (Claude-on-Bedrock speaks Anthropic's
	// content_block_delta shape) instead of a Converse event, so it
	// needs Anthropic's decoder, not decodeBedrockEvent.
	UseInvokeModel bool

	sse *SSEParser
	es  *EventStreamParser

	done        bool
	roleSent    map[int]bool
	respID      string
	usageNotify func(canonical.Usage)

	// Responses-target accumulator: the Responses API's terminal event
	// carries a full response snapshot, so the engine has to accumulate
	// text/tool-calls/finish/usage across the session rather than
	// transcoding event-by-event like the other targets.
	respAccumText      string
	respAccumToolCalls []canonical.ToolCallDelta
	respFinish         canonical.FinishReason
	respUsage          *canonical.Usage
}

// NewEngine constructs a streaming Engine for one request. useInvokeModel
// only matters when source is FamilyBedrock; it selects the InvokeModel
// event shape over Converse's. usageNotify, if non-nil, is invoked once
// for each UsageDelta event observed, so the caller (the response
// pipeline) can debit the rate limiter and record
// metrics without the engine itself reaching into L2 state.
func NewEngine(source, target translator.Family, model string, useInvokeModel bool, usageNotify func(canonical.Usage)) *Engine {
	e := &Engine{Source: source, Target: target, Model: model, UseInvokeModel: useInvokeModel, roleSent: map[int]bool{}, usageNotify: usageNotify}
	if source == translator.FamilyBedrock {
		e.es = &EventStreamParser{}
	} else {
		e.sse = &SSEParser{}
	}
	return e
}

// Feed accepts one upstream byte fragment and returns zero or more
// target-format output frames, byte-ready for the client. Feeding after
// the terminal sentinel has been emitted is an error.
func (e *Engine) Feed(chunk []byte) ([][]byte, error) {
	if e.done {
		return nil, fmt.Errorf("streaming session already terminated")
	}
	var rawEvents [][]byte
	var sourceErr error
	var sourceDone bool

	if e.es != nil {
		frames, err := e.es.Feed(chunk)
		if err != nil {
			sourceErr = err
		}
		for _, f := range frames {
			rawEvents = append(rawEvents, f.Payload)
		}
	} else {
		for _, f := range e.sse.Feed(chunk) {
			if string(f.Data) == "[DONE]" {
				sourceDone = true
				continue
			}
			rawEvents = append(rawEvents, f.Data)
		}
	}

	var out [][]byte
	if sourceErr != nil {
		out = append(out, e.emitError(sourceErr.Error())...)
		out = append(out, e.emitTerminal()...)
		e.done = true
		return out, nil
	}

	for _, raw := range rawEvents {
		events, err := e.decodeSourceEvent(raw)
		if err != nil {
			out = append(out, e.emitError(err.Error())...)
			out = append(out, e.emitTerminal()...)
			e.done = true
			return out, nil
		}
		for _, ev := range events {
			if ev.Kind == canonical.EventUsageDelta && e.usageNotify != nil {
				e.usageNotify(*ev.Usage)
			}
			if ev.Kind == canonical.EventDone {
				out = append(out, e.emitTerminal()...)
				e.done = true
				return out, nil
			}
			frame, err := e.encodeTargetEvent(ev)
			if err != nil {
				out = append(out, e.emitError(err.Error())...)
				out = append(out, e.emitTerminal()...)
				e.done = true
				return out, nil
			}
			if frame != nil {
				out = append(out, frame)
			}
		}
	}
	if sourceDone {
		out = append(out, e.emitTerminal()...)
		e.done = true
	}
	return out, nil
}

func (e *Engine) respIDOrDefault() string {
	if e.respID == "" {
		e.respID = "chatcmpl-stream"
	}
	return e.respID
}

// emitError produces one synthetic error event in the target's wire
// format, per the contract that a malformed frame never leaves the client
// stream hanging.
func (e *Engine) emitError(message string) [][]byte {
	switch e.Target {
	case translator.FamilyAnthropic:
		body, _ := json.Marshal(anth.Error{Type: "error", Error: struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{Type: "api_error", Message: message}})
		return [][]byte{EncodeSSE(body)}
	default:
		body := oai.Error{Error: oai.ErrorType{Type: "stream_error", Message: message}}
		b, _ := json.Marshal(body)
		return [][]byte{EncodeSSE(b)}
	}
}

// emitTerminal produces the target format's terminal sentinel, exactly
// once per session.
func (e *Engine) emitTerminal() [][]byte {
	switch e.Target {
	case translator.FamilyAnthropic:
		stop, _ := json.Marshal(map[string]string{"type": "message_stop"})
		return [][]byte{EncodeSSE(stop)}
	case translator.FamilyOpenAIResponses:
		return [][]byte{e.buildResponsesCompletedFrame()}
	default:
		return [][]byte{EncodeSSEDone()}
	}
}

func (e *Engine) buildResponsesCompletedFrame() []byte {
	resp := &oair.Response{ID: e.respIDOrDefault(), Object: "response", Model: e.Model, Status: oair.StatusCompleted}
	if e.respFinish == canonical.FinishLength {
		resp.Status = oair.StatusIncomplete
	}
	if e.respAccumText != "" {
		resp.Output = append(resp.Output, oair.OutputItem{Type: oair.OutputItemMessage, Role: "assistant", Content: []oair.OutputContentPart{{Type: "output_text", Text: e.respAccumText}}})
	}
	for _, tc := range e.respAccumToolCalls {
		resp.Output = append(resp.Output, oair.OutputItem{Type: oair.OutputItemFunctionCall, CallID: tc.ID, Name: tc.Name, Arguments: tc.ArgsFragment})
	}
	if e.respUsage != nil {
		resp.Usage = &oair.Usage{InputTokens: int64(e.respUsage.PromptTokens), OutputTokens: int64(e.respUsage.CompletionTokens), TotalTokens: int64(e.respUsage.TotalTokens)}
	}
	ev := oair.StreamEvent{Type: oair.StreamEventCompleted, Response: resp}
	b, _ := json.Marshal(ev)
	return EncodeSSE(b)
}

func (e *Engine) decodeSourceEvent(raw []byte) ([]canonical.StreamEvent, error) {
	switch e.Source {
	case translator.FamilyOpenAI:
		return decodeOpenAIChunk(raw)
	case translator.FamilyAnthropic:
		return decodeAnthropicEvent(raw)
	case translator.FamilyGemini:
		return decodeGeminiChunk(raw)
	case translator.FamilyBedrock:
		if e.UseInvokeModel {
			return decodeAnthropicEvent(raw)
		}
		return decodeBedrockEvent(raw)
	case translator.FamilyOpenAIResponses:
		return decodeOpenAIResponsesEvent(raw)
	default:
		return nil, fmt.Errorf("unsupported source family %q", e.Source)
	}
}

func (e *Engine) encodeTargetEvent(ev canonical.StreamEvent) ([]byte, error) {
	switch e.Target {
	case translator.FamilyOpenAI:
		return encodeOpenAIEvent(e, ev)
	case translator.FamilyAnthropic:
		return encodeAnthropicEvent(e, ev)
	case translator.FamilyOpenAIResponses:
		return encodeOpenAIResponsesEvent(e, ev)
	default:
		return nil, fmt.Errorf("unsupported stream target family %q", e.Target)
	}
}

// --- OpenAI source decode ---

func decodeOpenAIChunk(raw []byte) ([]canonical.StreamEvent, error) {
	var chunk oai.ChatCompletionResponseChunk
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return nil, fmt.Errorf("malformed openai stream chunk: %w", err)
	}
	var out []canonical.StreamEvent
	for _, c := range chunk.Choices {
		if c.Delta.Role != "" {
			out = append(out, canonical.StreamEvent{Kind: canonical.EventRoleDelta, ChoiceIndex: c.Index, Role: canonical.Role(c.Delta.Role)})
		}
		if c.Delta.Content != "" {
			out = append(out, canonical.StreamEvent{Kind: canonical.EventContentDelta, ChoiceIndex: c.Index, ContentDelta: c.Delta.Content})
		}
		for _, tc := range c.Delta.ToolCalls {
			out = append(out, canonical.StreamEvent{Kind: canonical.EventToolCallDelta, ChoiceIndex: c.Index, ToolCall: &canonical.ToolCallDelta{
				BlockIndex: tc.Index, ID: tc.ID, Name: tc.Function.Name, ArgsFragment: tc.Function.Arguments,
			}})
		}
		if c.FinishReason != nil {
			out = append(out, canonical.StreamEvent{Kind: canonical.EventFinishDelta, ChoiceIndex: c.Index, Finish: canonical.FinishReason(*c.FinishReason)})
		}
	}
	if chunk.Usage != nil {
		out = append(out, canonical.StreamEvent{Kind: canonical.EventUsageDelta, Usage: &canonical.Usage{
			PromptTokens: chunk.Usage.PromptTokens, CompletionTokens: chunk.Usage.CompletionTokens, TotalTokens: chunk.Usage.TotalTokens,
		}})
	}
	return out, nil
}

// --- Anthropic source decode ---

func decodeAnthropicEvent(raw []byte) ([]canonical.StreamEvent, error) {
	var ev anth.MessagesStreamEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("malformed anthropic stream event: %w", err)
	}
	switch ev.Type {
	case anth.MessagesStreamEventTypeMessageStart:
		return []canonical.StreamEvent{{Kind: canonical.EventRoleDelta, Role: canonical.RoleAssistant}}, nil
	case anth.MessagesStreamEventTypeContentBlockStart:
		if ev.ContentBlockStart.ContentBlock.Type == anth.ContentBlockToolUse {
			return []canonical.StreamEvent{{Kind: canonical.EventToolCallDelta, ToolCall: &canonical.ToolCallDelta{
				BlockIndex: ev.ContentBlockStart.Index, ID: ev.ContentBlockStart.ContentBlock.ID, Name: ev.ContentBlockStart.ContentBlock.Name,
			}}}, nil
		}
		return nil, nil
	case anth.MessagesStreamEventTypeContentBlockDelta:
		d := ev.ContentBlockDelta.Delta
		if d.Type == "input_json_delta" {
			return []canonical.StreamEvent{{Kind: canonical.EventToolCallDelta, ToolCall: &canonical.ToolCallDelta{
				BlockIndex: ev.ContentBlockDelta.Index, ArgsFragment: d.PartialJSON,
			}}}, nil
		}
		return []canonical.StreamEvent{{Kind: canonical.EventContentDelta, ContentDelta: d.Text}}, nil
	case anth.MessagesStreamEventTypeMessageDelta:
		u := ev.MessageDelta.Usage
		out := []canonical.StreamEvent{
			{Kind: canonical.EventFinishDelta, Finish: anthropicFinishForStream(ev.MessageDelta.Delta.StopReason)},
			{Kind: canonical.EventUsageDelta, Usage: &canonical.Usage{
				CompletionTokens: uint32(u.OutputTokens), PromptTokens: uint32(u.InputTokens), TotalTokens: uint32(u.InputTokens + u.OutputTokens),
			}},
		}
		return out, nil
	case anth.MessagesStreamEventTypeMessageStop:
		return []canonical.StreamEvent{{Kind: canonical.EventDone}}, nil
	default:
		return nil, nil // ping, content_block_stop: no canonical event needed
	}
}

func anthropicFinishForStream(r anth.StopReason) canonical.FinishReason {
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

// --- Gemini source decode ---

func decodeGeminiChunk(raw []byte) ([]canonical.StreamEvent, error) {
	var chunk gem.GenerateContentResponse
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return nil, fmt.Errorf("malformed gemini stream chunk: %w", err)
	}
	var out []canonical.StreamEvent
	for _, c := range chunk.Candidates {
		for _, p := range c.Content.Parts {
			if p != nil && p.Text != "" {
				out = append(out, canonical.StreamEvent{Kind: canonical.EventContentDelta, ChoiceIndex: c.Index, ContentDelta: p.Text})
			}
		}
		if c.FinishReason != "" {
			out = append(out, canonical.StreamEvent{Kind: canonical.EventFinishDelta, ChoiceIndex: c.Index, Finish: geminiFinishForStream(c.FinishReason)})
		}
	}
	if chunk.UsageMetadata != nil {
		out = append(out, canonical.StreamEvent{Kind: canonical.EventUsageDelta, Usage: &canonical.Usage{
			PromptTokens: uint32(chunk.UsageMetadata.PromptTokenCount), CompletionTokens: uint32(chunk.UsageMetadata.CandidatesTokenCount),
			TotalTokens: uint32(chunk.UsageMetadata.TotalTokenCount),
		}})
	}
	return out, nil
}

func geminiFinishForStream(f gem.FinishReason) canonical.FinishReason {
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

// --- Bedrock source decode ---

func decodeBedrockEvent(raw []byte) ([]canonical.StreamEvent, error) {
	var ev brk.ConverseStreamEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("malformed bedrock converse-stream event: %w", err)
	}
	switch {
	case ev.MessageStart != nil:
		return []canonical.StreamEvent{{Kind: canonical.EventRoleDelta, Role: canonical.RoleAssistant}}, nil
	case ev.ContentBlockStart != nil && ev.ContentBlockStart.Start.ToolUse != nil:
		tu := ev.ContentBlockStart.Start.ToolUse
		return []canonical.StreamEvent{{Kind: canonical.EventToolCallDelta, ToolCall: &canonical.ToolCallDelta{
			BlockIndex: ev.ContentBlockStart.ContentBlockIndex, ID: tu.ToolUseID, Name: tu.Name,
		}}}, nil
	case ev.ContentBlockDelta != nil:
		d := ev.ContentBlockDelta.Delta
		if d.ToolUse != nil {
			return []canonical.StreamEvent{{Kind: canonical.EventToolCallDelta, ToolCall: &canonical.ToolCallDelta{
				BlockIndex: ev.ContentBlockDelta.ContentBlockIndex, ArgsFragment: d.ToolUse.Input,
			}}}, nil
		}
		return []canonical.StreamEvent{{Kind: canonical.EventContentDelta, ContentDelta: d.Text}}, nil
	case ev.MessageStop != nil:
		return []canonical.StreamEvent{{Kind: canonical.EventFinishDelta, Finish: bedrockFinishForStream(ev.MessageStop.StopReason)}}, nil
	case ev.Metadata != nil:
		u := ev.Metadata.Usage
		return []canonical.StreamEvent{
			{Kind: canonical.EventUsageDelta, Usage: &canonical.Usage{PromptTokens: uint32(u.InputTokens), CompletionTokens: uint32(u.OutputTokens), TotalTokens: uint32(u.TotalTokens)}},
			{Kind: canonical.EventDone},
		}, nil
	default:
		return nil, nil
	}
}

func bedrockFinishForStream(r brk.StopReason) canonical.FinishReason {
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

// --- OpenAI target encode ---

func encodeOpenAIEvent(e *Engine, ev canonical.StreamEvent) ([]byte, error) {
	chunk := oai.ChatCompletionResponseChunk{ID: e.respIDOrDefault(), Object: "chat.completion.chunk", Model: e.Model}
	choice := oai.ChatCompletionResponseChunkChoice{Index: ev.ChoiceIndex}
	switch ev.Kind {
	case canonical.EventRoleDelta:
		choice.Delta.Role = oai.ChatMessageRole(ev.Role)
	case canonical.EventContentDelta:
		choice.Delta.Content = ev.ContentDelta
	case canonical.EventToolCallDelta:
		tc := oai.ChatCompletionMessageToolCallChunkParam{Index: ev.ToolCall.BlockIndex, ID: ev.ToolCall.ID}
		if ev.ToolCall.ID != "" {
			tc.Type = "function"
		}
		tc.Function.Name = ev.ToolCall.Name
		tc.Function.Arguments = ev.ToolCall.ArgsFragment
		choice.Delta.ToolCalls = []oai.ChatCompletionMessageToolCallChunkParam{tc}
	case canonical.EventFinishDelta:
		fr := oai.ChatCompletionChoicesFinishReason(ev.Finish)
		choice.FinishReason = &fr
	case canonical.EventUsageDelta:
		chunk.Usage = &oai.Usage{PromptTokens: ev.Usage.PromptTokens, CompletionTokens: ev.Usage.CompletionTokens, TotalTokens: ev.Usage.TotalTokens}
		b, err := json.Marshal(chunk)
		if err != nil {
			return nil, err
		}
		return EncodeSSE(b), nil
	default:
		return nil, nil
	}
	chunk.Choices = []oai.ChatCompletionResponseChunkChoice{choice}
	b, err := json.Marshal(chunk)
	if err != nil {
		return nil, err
	}
	return EncodeSSE(b), nil
}

// --- Anthropic target encode ---

func encodeAnthropicEvent(e *Engine, ev canonical.StreamEvent) ([]byte, error) {
	var payload any
	switch ev.Kind {
	case canonical.EventRoleDelta:
		payload = map[string]any{"type": "message_start", "message": map[string]any{"id": e.respIDOrDefault(), "type": "message", "role": "assistant", "model": e.Model, "content": []any{}}}
	case canonical.EventContentDelta:
		payload = map[string]any{"type": "content_block_delta", "index": ev.ChoiceIndex, "delta": map[string]any{"type": "text_delta", "text": ev.ContentDelta}}
	case canonical.EventToolCallDelta:
		if ev.ToolCall.ID != "" {
			payload = map[string]any{"type": "content_block_start", "index": ev.ToolCall.BlockIndex, "content_block": map[string]any{"type": "tool_use", "id": ev.ToolCall.ID, "name": ev.ToolCall.Name, "input": map[string]any{}}}
		} else {
			payload = map[string]any{"type": "content_block_delta", "index": ev.ToolCall.BlockIndex, "delta": map[string]any{"type": "input_json_delta", "partial_json": ev.ToolCall.ArgsFragment}}
		}
	case canonical.EventFinishDelta:
		reason := string(ev.Finish)
		payload = map[string]any{"type": "message_delta", "delta": map[string]any{"stop_reason": reason}}
	case canonical.EventUsageDelta:
		payload = map[string]any{"type": "message_delta", "usage": map[string]any{"input_tokens": ev.Usage.PromptTokens, "output_tokens": ev.Usage.CompletionTokens}}
	default:
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return EncodeSSE(b), nil
}

// --- OpenAI Responses source decode ---

func decodeOpenAIResponsesEvent(raw []byte) ([]canonical.StreamEvent, error) {
	var ev oair.StreamEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("malformed responses stream event: %w", err)
	}
	switch ev.Type {
	case oair.StreamEventCreated:
		return []canonical.StreamEvent{{Kind: canonical.EventRoleDelta, Role: canonical.RoleAssistant}}, nil
	case oair.StreamEventOutputItemAdded:
		if ev.Item != nil && ev.Item.Type == oair.OutputItemFunctionCall {
			return []canonical.StreamEvent{{Kind: canonical.EventToolCallDelta, ToolCall: &canonical.ToolCallDelta{
				BlockIndex: ev.OutputIndex, ID: ev.Item.CallID, Name: ev.Item.Name,
			}}}, nil
		}
		return nil, nil
	case oair.StreamEventOutputTextDelta:
		return []canonical.StreamEvent{{Kind: canonical.EventContentDelta, ContentDelta: ev.Delta}}, nil
	case oair.StreamEventFunctionCallArgsDelta:
		return []canonical.StreamEvent{{Kind: canonical.EventToolCallDelta, ToolCall: &canonical.ToolCallDelta{
			BlockIndex: ev.OutputIndex, ArgsFragment: ev.Delta,
		}}}, nil
	case oair.StreamEventCompleted:
		var out []canonical.StreamEvent
		finish := canonical.FinishStop
		var usage *canonical.Usage
		if ev.Response != nil {
			if ev.Response.Status == oair.StatusIncomplete {
				finish = canonical.FinishLength
			}
			for _, item := range ev.Response.Output {
				if item.Type == oair.OutputItemFunctionCall {
					finish = canonical.FinishToolCalls
				}
			}
			if ev.Response.Usage != nil {
				usage = &canonical.Usage{
					PromptTokens: uint32(ev.Response.Usage.InputTokens), CompletionTokens: uint32(ev.Response.Usage.OutputTokens), TotalTokens: uint32(ev.Response.Usage.TotalTokens),
				}
			}
		}
		out = append(out, canonical.StreamEvent{Kind: canonical.EventFinishDelta, Finish: finish})
		if usage != nil {
			out = append(out, canonical.StreamEvent{Kind: canonical.EventUsageDelta, Usage: usage})
		}
		out = append(out, canonical.StreamEvent{Kind: canonical.EventDone})
		return out, nil
	default:
		return nil, nil
	}
}

// --- OpenAI Responses target encode ---

func encodeOpenAIResponsesEvent(e *Engine, ev canonical.StreamEvent) ([]byte, error) {
	switch ev.Kind {
	case canonical.EventRoleDelta:
		resp := &oair.Response{ID: e.respIDOrDefault(), Object: "response", Model: e.Model, Status: oair.StatusCompleted}
		b, err := json.Marshal(oair.StreamEvent{Type: oair.StreamEventCreated, Response: resp})
		if err != nil {
			return nil, err
		}
		return EncodeSSE(b), nil
	case canonical.EventContentDelta:
		e.respAccumText += ev.ContentDelta
		b, err := json.Marshal(oair.StreamEvent{Type: oair.StreamEventOutputTextDelta, OutputIndex: ev.ChoiceIndex, Delta: ev.ContentDelta})
		if err != nil {
			return nil, err
		}
		return EncodeSSE(b), nil
	case canonical.EventToolCallDelta:
		if ev.ToolCall.ID != "" {
			e.respAccumToolCalls = append(e.respAccumToolCalls, *ev.ToolCall)
			b, err := json.Marshal(oair.StreamEvent{Type: oair.StreamEventOutputItemAdded, OutputIndex: ev.ToolCall.BlockIndex, Item: &oair.OutputItem{
				Type: oair.OutputItemFunctionCall, CallID: ev.ToolCall.ID, Name: ev.ToolCall.Name,
			}})
			if err != nil {
				return nil, err
			}
			return EncodeSSE(b), nil
		}
		for i := range e.respAccumToolCalls {
			if e.respAccumToolCalls[i].BlockIndex == ev.ToolCall.BlockIndex {
				e.respAccumToolCalls[i].ArgsFragment += ev.ToolCall.ArgsFragment
			}
		}
		b, err := json.Marshal(oair.StreamEvent{Type: oair.StreamEventFunctionCallArgsDelta, OutputIndex: ev.ToolCall.BlockIndex, Delta: ev.ToolCall.ArgsFragment})
		if err != nil {
			return nil, err
		}
		return EncodeSSE(b), nil
	case canonical.EventFinishDelta:
		e.respFinish = ev.Finish
		return nil, nil
	case canonical.EventUsageDelta:
		e.respUsage = ev.Usage
		return nil, nil
	default:
		return nil, nil
	}
}
