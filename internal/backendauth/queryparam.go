package backendauth

import (
	"context"
	"net/url"
	"strings"
)

// queryParamHandler implements Handler for SchemeQueryParam: the key is
// appended to the request path as a query parameter rather than a
// header. Gemini's public API authenticates generateContent calls this
// way via "?key=<apiKey>".
type queryParamHandler struct {
	param, apiKey string
}

func newQueryParamHandler(cfg Config) Handler {
	param := cfg.QueryParam
	if param == "" {
		param = "key"
	}
	return &queryParamHandler{param: param, apiKey: cfg.APIKey}
}

// Do implements Handler. Unlike the header schemes this credential does
// not live in a header at all: Do removes any "authorization" entry,
// appends the query parameter to requestHeaders[":path"] in place, and
// returns no headers.
func (h *queryParamHandler) Do(_ context.Context, _, path string, requestHeaders map[string]string, _ []byte) ([]Header, error) {
	delete(requestHeaders, "authorization") // the credential lives in the URL, not in an Authorization header
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	requestHeaders[":path"] = path + sep + h.param + "=" + url.QueryEscape(h.apiKey)
	return nil, nil
}
