// Package backendauth injects upstream-provider credentials into an
// outbound request without ever handing the credential itself to the
// client-facing side of the gateway. Each Handler implements exactly one
// authentication scheme; the scheme a request uses is decided entirely by
// the provider binding it resolved to, never by anything in the inbound
// request.
package backendauth

import "context"

// Header is a single HTTP header name/value pair a Handler wants applied
// to the outbound request.
type Header struct {
	Name  string
	Value string
}

// Scheme is the closed set of upstream authentication schemes this
// gateway supports.
type Scheme string

const (
	SchemeNone        Scheme = "none"
	SchemeBearer      Scheme = "bearer"       // Authorization: Bearer <key>
	SchemeHeader       Scheme = "api_key_header" // arbitrary header set verbatim to <key>, e.g. Anthropic's x-api-key
	SchemeQueryParam   Scheme = "url_api_key"    // ?<param>=<key>, e.g. Gemini's ?key=
	SchemeAWSSigV4     Scheme = "aws_sigv4"
	SchemePassthrough  Scheme = "passthrough"    // forward the client's original Authorization header unchanged
)

// Config is the static, per-provider-binding authentication configuration.
// Exactly the fields relevant to Scheme are read; the rest are ignored.
type Config struct {
	Scheme Scheme

	APIKey     string // SchemeBearer, SchemeHeader, SchemeQueryParam
	HeaderName string // SchemeHeader; defaults to "x-api-key" if empty
	QueryParam string // SchemeQueryParam; defaults to "key" if empty

	AWSRegion              string // SchemeAWSSigV4
	AWSCredentialFileLiteral string // SchemeAWSSigV4, optional static credentials file content
}

// Handler applies one provider's authentication scheme to an outbound
// request. Do receives the request method, path, and a mutable header
// map so it can both mutate in place and return the set of headers it
// applied — the pipeline copies the returned headers onto the outbound
// request's headers.
type Handler interface {
	Do(ctx context.Context, method, path string, requestHeaders map[string]string, body []byte) ([]Header, error)
}

// NewHandler constructs the Handler for cfg.Scheme.
func NewHandler(ctx context.Context, cfg Config) (Handler, error) {
	switch cfg.Scheme {
	case SchemeBearer:
		return newBearerHandler(cfg), nil
	case SchemeHeader:
		return newHeaderHandler(cfg), nil
	case SchemeQueryParam:
		return newQueryParamHandler(cfg), nil
	case SchemeAWSSigV4:
		return newAWSHandler(ctx, cfg)
	case SchemePassthrough:
		return passthroughHandler{}, nil
	case SchemeNone, "":
		return noneHandler{}, nil
	default:
		return nil, unknownSchemeError(cfg.Scheme)
	}
}

type unknownSchemeErr struct{ scheme Scheme }

func unknownSchemeError(s Scheme) error { return &unknownSchemeErr{scheme: s} }

func (e *unknownSchemeErr) Error() string { return "backendauth: unknown scheme " + string(e.scheme) }

// noneHandler applies no authentication at all, for providers fronted by
// a network boundary that handles auth some other way (e.g. a local
// model server behind a trusted network). Per the scheme's contract it
// actively strips any Authorization header rather than merely declining
// to set one, so a client credential is never forwarded upstream.
type noneHandler struct{}

func (noneHandler) Do(_ context.Context, _, _ string, requestHeaders map[string]string, _ []byte) ([]Header, error) {
	delete(requestHeaders, "authorization")
	delete(requestHeaders, "Authorization")
	return nil, nil
}

// passthroughHandler forwards whatever Authorization header the client
// sent, unmodified. Used for OpenAI-compatible backends that expect the
// caller to supply their own upstream key and the gateway is not meant to
// intermediate that credential.
type passthroughHandler struct{}

func (passthroughHandler) Do(_ context.Context, _, _ string, requestHeaders map[string]string, _ []byte) ([]Header, error) {
	if v, ok := requestHeaders["authorization"]; ok {
		return []Header{{Name: "Authorization", Value: v}}, nil
	}
	if v, ok := requestHeaders["Authorization"]; ok {
		return []Header{{Name: "Authorization", Value: v}}, nil
	}
	return nil, nil
}
