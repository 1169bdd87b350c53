package backendauth

import (
	"context"
	"fmt"
)

// bearerHandler implements Handler for SchemeBearer: OpenAI, Bedrock's
// invoke_model variant and most OpenAI-compatible backends authenticate
// this way.
type bearerHandler struct {
	apiKey string
}

func newBearerHandler(cfg Config) Handler {
	return &bearerHandler{apiKey: cfg.APIKey}
}

// Do implements Handler.
func (h *bearerHandler) Do(_ context.Context, _, _ string, requestHeaders map[string]string, _ []byte) ([]Header, error) {
	delete(requestHeaders, "authorization") // never forward the client's own credential alongside ours
	v := fmt.Sprintf("Bearer %s", h.apiKey)
	requestHeaders["Authorization"] = v
	return []Header{{Name: "Authorization", Value: v}}, nil
}

// headerHandler implements Handler for SchemeHeader: the key is set
// verbatim on a configured header name, with no "Bearer " prefix.
// Anthropic's "x-api-key" is the default target header.
type headerHandler struct {
	name, apiKey string
}

func newHeaderHandler(cfg Config) Handler {
	name := cfg.HeaderName
	if name == "" {
		name = "x-api-key"
	}
	return &headerHandler{name: name, apiKey: cfg.APIKey}
}

// Do implements Handler.
func (h *headerHandler) Do(_ context.Context, _, _ string, requestHeaders map[string]string, _ []byte) ([]Header, error) {
	delete(requestHeaders, "authorization") // this scheme authenticates via h.name, never the client's own Authorization
	requestHeaders[h.name] = h.apiKey
	return []Header{{Name: h.name, Value: h.apiKey}}, nil
}
