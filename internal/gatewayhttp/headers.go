package gatewayhttp

import (
	"bytes"
	"io"
	"net/http"

	"github.com/relaylayer/llmgw/internal/host"
)

// httpHeaders adapts net/http.Header to host.Headers.
type httpHeaders struct{ h http.Header }

func newHTTPHeaders(h http.Header) host.Headers { return httpHeaders{h: h} }

func (h httpHeaders) Get(name string) string { return h.h.Get(name) }
func (h httpHeaders) Set(name, value string) { h.h.Set(name, value) }
func (h httpHeaders) Del(name string)         { h.h.Del(name) }
func (h httpHeaders) Each(f func(name, value string)) {
	for name, values := range h.h {
		for _, v := range values {
			f(name, v)
		}
	}
}

func newBodyReader(body []byte) io.Reader {
	if body == nil {
		return nil
	}
	return bytes.NewReader(body)
}
