// Package pipeline implements the request/response state machine that
// ties the Provider Registry, rate limiter, auth injection, translator,
// and streaming engine together. It is the one place that knows the
// whole request lifecycle; every other L2 package is a pure service it
// calls into.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/relaylayer/llmgw/internal/backendauth"
	"github.com/relaylayer/llmgw/internal/gwerrors"
	"github.com/relaylayer/llmgw/internal/host"
	"github.com/relaylayer/llmgw/internal/metrics"
	"github.com/relaylayer/llmgw/internal/ratelimit"
	"github.com/relaylayer/llmgw/internal/registry"
	"github.com/relaylayer/llmgw/internal/tokenestimate"
	"github.com/relaylayer/llmgw/internal/translator"
)

// State is one of the request pipeline's named states, per §4.6.
type State string

const (
	StateReceived    State = "RECEIVED"
	StateResolved    State = "RESOLVED"
	StateRateChecked State = "RATE_CHECKED"
	StateTranslated  State = "TRANSLATED"
	StateDispatched  State = "DISPATCHED"
	StateStreaming   State = "STREAMING"
	StateBuffered    State = "BUFFERED"
	StateComplete    State = "COMPLETE"
	StateRejected    State = "REJECTED"
	StateFailed      State = "FAILED"
)

const defaultRateLimitEstimate = 1
const defaultDispatchTimeout = 30 * time.Second

// streamingRequestHeader lets a client override the body-inferred stream
// flag explicitly, per §6.1.
const streamingRequestHeader = "x-streaming-request"

// Pipeline holds the read-only-after-init shared services every request
// is processed against.
type Pipeline struct {
	Registry  *registry.Registry
	Limiter   *ratelimit.Limiter
	Metrics   metrics.Sink
	Host      host.Host
	Defaults  translator.Defaults
	Estimator *tokenestimate.Estimator

	// AuthHandlers is built once at startup, keyed by provider binding
	// key, since each handler may hold a loaded credential provider
	// (e.g. the AWS SigV4 handler's credential chain) that should not be
	// reconstructed per request.
	AuthHandlers map[string]backendauth.Handler

	// SelectorHeader names the inbound header used as the rate limiter's
	// per-selector key (e.g. a tenant id or the caller's own API key).
	SelectorHeader string

	// ProviderHintHeader names the inbound header carrying "slug/model".
	ProviderHintHeader string
}

// Result is the client-facing outcome of handling one request.
type Result struct {
	State      State
	StatusCode int
	Body       []byte // set for a buffered result

	// Stream is set instead of Body for a streaming result; each element
	// is one ready-to-write client-format byte frame.
	Stream <-chan []byte

	Err *gwerrors.GatewayError
}

// rejected builds a terminal REJECTED/FAILED Result from a GatewayError.
func rejected(state State, err *gwerrors.GatewayError) *Result {
	return &Result{State: state, StatusCode: err.HTTPStatus(), Body: mustMarshalErrorBody(err), Err: err}
}

// Handle runs one request through the full RECEIVED→COMPLETE pipeline.
// clientFamily is determined by which inbound endpoint path the request
// arrived on; headers is the inbound header set (case-insensitive lookup
// is the caller's responsibility).
func (p *Pipeline) Handle(ctx context.Context, clientFamily translator.Family, headers map[string]string, body []byte) *Result {
	received := time.Now()

	// RECEIVED -> RESOLVED
	model := gjson.GetBytes(body, "model").String()
	stream := gjson.GetBytes(body, "stream").Bool()
	switch strings.ToLower(headers[streamingRequestHeader]) {
	case "true":
		stream = true
	case "false":
		stream = false
	}
	if model == "" {
		return rejected(StateRejected, gwerrors.New(gwerrors.BadRequest, "request body missing \"model\""))
	}
	providerHint := headers[p.ProviderHintHeader]
	binding, err := p.Registry.Resolve(model, providerHint)
	if err != nil {
		return rejected(StateRejected, err.(*gwerrors.GatewayError))
	}

	// RESOLVED -> RATE_CHECKED
	selector := headers[p.SelectorHeader]
	if ok, retryAfter := p.Limiter.CheckAll(model, selector, defaultRateLimitEstimate); !ok {
		p.Metrics.RateLimited(model, selector)
		ge := gwerrors.New(gwerrors.RateLimited, "rate limit exceeded for model %q", model)
		ge.RetryAfter = retryAfter.Seconds()
		return rejected(StateRejected, ge)
	}

	// RATE_CHECKED -> TRANSLATED
	outBody, outPath, translateErr := p.translateRequest(clientFamily, binding, model, stream, body)
	if translateErr != nil {
		return rejected(StateRejected, translateErr)
	}
	outHeaders := map[string]string{":method": "POST", ":path": outPath}
	if binding.Auth.Scheme == backendauth.SchemePassthrough {
		// Only SchemePassthrough's handler reads this; every other scheme
		// sets its own canonically-cased Authorization and must not see
		// the client's credential sitting under a second, lowercase key.
		if v := headers["authorization"]; v != "" {
			outHeaders["authorization"] = v
		}
	}
	authHeaders, authErr := p.injectAuth(ctx, binding, outHeaders, outBody)
	if authErr != nil {
		return rejected(StateRejected, gwerrors.Wrap(gwerrors.Unauthorized, authErr, "auth injection failed for provider %q", binding.Key))
	}
	for _, h := range authHeaders {
		outHeaders[h.Name] = h.Value
	}
	// The lowercase seed has done its job feeding passthroughHandler; drop
	// it so the map never holds two distinct keys (lowercase "authorization"
	// and canonical "Authorization") that net/http's header canonicalization
	// would otherwise merge nondeterministically on dispatch.
	delete(outHeaders, "authorization")
	outHeaders["content-type"] = "application/json"
	finalPath := outHeaders[":path"] // SchemeQueryParam rewrites :path in place

	// TRANSLATED -> DISPATCHED
	dispatchCtx, cancel := context.WithTimeout(ctx, defaultDispatchTimeout)
	defer cancel()
	resp, dispatchErr := p.Host.Dispatch(dispatchCtx, host.DispatchRequest{
		Method: "POST", URL: binding.BaseURL + finalPath, Headers: mapHeaders(outHeaders), Body: outBody,
	})
	if dispatchErr != nil {
		return rejected(StateFailed, gwerrors.Wrap(gwerrors.UpstreamError, dispatchErr, "dispatch to provider %q failed", binding.Key))
	}

	providerFamily := binding.Family
	if resp.StatusCode >= 400 {
		return p.completeUpstreamError(model, binding, resp, received)
	}

	// DISPATCHED -> STREAMING | BUFFERED -> COMPLETE
	if stream && resp.BodyChunks != nil {
		return p.handleStreaming(model, selector, binding, providerFamily, clientFamily, resp, received)
	}
	return p.handleBuffered(model, selector, binding, providerFamily, clientFamily, resp, received)
}

func (p *Pipeline) translateRequest(clientFamily translator.Family, binding registry.Binding, model string, stream bool, body []byte) ([]byte, string, *gwerrors.GatewayError) {
	outBody, err := translator.TranslateRequest(clientFamily, binding.Family, body, p.Defaults)
	if err != nil {
		ge, ok := err.(*gwerrors.GatewayError)
		if !ok {
			ge = gwerrors.Wrap(gwerrors.TranslationError, err, "request translation failed")
		}
		return nil, "", ge
	}
	return outBody, providerPath(binding, model, stream), nil
}

func (p *Pipeline) injectAuth(ctx context.Context, binding registry.Binding, outHeaders map[string]string, body []byte) ([]backendauth.Header, error) {
	h, ok := p.AuthHandlers[binding.Key]
	if !ok {
		return nil, fmt.Errorf("no auth handler configured for provider %q", binding.Key)
	}
	return h.Do(ctx, outHeaders[":method"], outHeaders[":path"], outHeaders, body)
}

// providerPath rewrites the client-facing path to the provider's native
// endpoint, per §4.6's TRANSLATED transition.
func providerPath(binding registry.Binding, model string, stream bool) string {
	switch binding.Family {
	case translator.FamilyAnthropic:
		return "/v1/messages"
	case translator.FamilyOpenAI, translator.FamilyOpenAIResponses:
		return "/v1/chat/completions"
	case translator.FamilyBedrock:
		verb := "converse"
		if stream {
			verb = "converse-stream"
		}
		if binding.UseInvokeModel {
			verb = "invoke"
			if stream {
				verb = "invoke-with-response-stream"
			}
		}
		return fmt.Sprintf("/model/%s/%s", urlPathEscape(model), verb)
	case translator.FamilyGemini:
		verb := "generateContent"
		if stream {
			verb = "streamGenerateContent"
		}
		return fmt.Sprintf("/v1beta/models/%s:%s", urlPathEscape(model), verb)
	default:
		return "/v1/chat/completions"
	}
}

func urlPathEscape(s string) string {
	return strings.ReplaceAll(s, " ", "%20")
}

func mapHeaders(m map[string]string) host.Headers { return mapHeadersImpl(m) }

func mustMarshalErrorBody(err *gwerrors.GatewayError) []byte {
	b, marshalErr := marshalJSON(err.ToBody())
	if marshalErr != nil {
		return []byte(`{"error":{"type":"InternalError","message":"failed to marshal error body"}}`)
	}
	return b
}
