package pipeline

import "github.com/relaylayer/llmgw/internal/host"

// plainHeaders is the simplest possible host.Headers, backed by a plain
// map. It is used to hand the outbound request headers built during
// translation/auth-injection to host.Host.Dispatch without pulling in
// net/http.Header at this layer.
type plainHeaders map[string]string

func mapHeadersImpl(m map[string]string) host.Headers { return plainHeaders(m) }

func (h plainHeaders) Get(name string) string { return h[name] }
func (h plainHeaders) Set(name, value string) { h[name] = value }
func (h plainHeaders) Del(name string)         { delete(h, name) }
func (h plainHeaders) Each(f func(name, value string)) {
	for k, v := range h {
		f(k, v)
	}
}
