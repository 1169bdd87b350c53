// Package gatewayhttp is the reference host: a net/http-based
// implementation of internal/host.Host, plus the inbound HTTP handlers
// that turn /v1/chat/completions, /v1/messages, /v1/responses, and
// /v1/models requests into internal/pipeline.Pipeline.Handle calls.
package gatewayhttp

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/relaylayer/llmgw/internal/host"
)

// NetHost dispatches outbound requests over a shared http.Client. It is
// the only concrete host.Host in this repository; everything in
// internal/pipeline is written against the interface, not this type.
type NetHost struct {
	Client *http.Client
}

// NewNetHost builds a NetHost with sane connection-reuse defaults,
// matching the teacher's preference for one long-lived client over
// per-request construction.
func NewNetHost() *NetHost {
	return &NetHost{
		Client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 64,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Now implements host.Clock.
func (n *NetHost) Now() int64 { return time.Now().UnixNano() }

// Dispatch implements host.Dispatcher. A response is treated as
// streaming (BodyChunks populated) whenever the upstream content-type is
// text/event-stream or application/vnd.amazon.eventstream; everything
// else is fully buffered into Body.
func (n *NetHost) Dispatch(ctx context.Context, req host.DispatchRequest) (*host.DispatchResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, newBodyReader(req.Body))
	if err != nil {
		return nil, err
	}
	if req.Headers != nil {
		req.Headers.Each(func(name, value string) {
			if len(name) > 0 && name[0] == ':' {
				return // pseudo-headers (:method, :path) are routing metadata, not wire headers
			}
			httpReq.Header.Set(name, value)
		})
	}

	httpResp, err := n.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	respHeaders := newHTTPHeaders(httpResp.Header)
	if isStreamingContentType(httpResp.Header.Get("content-type")) {
		chunks, errCh := pumpBody(httpResp.Body)
		return &host.DispatchResponse{StatusCode: httpResp.StatusCode, Headers: respHeaders, BodyChunks: chunks, Err: errCh}, nil
	}

	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	return &host.DispatchResponse{StatusCode: httpResp.StatusCode, Headers: respHeaders, Body: body}, nil
}

func isStreamingContentType(ct string) bool {
	return hasPrefix(ct, "text/event-stream") || hasPrefix(ct, "application/vnd.amazon.eventstream")
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// pumpBody reads httpResp.Body in a background goroutine, emitting each
// Read's bytes as one chunk; it closes the body and the returned
// channels when the stream ends or errors.
func pumpBody(body io.ReadCloser) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte, 16)
	errCh := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errCh)
		defer body.Close()
		buf := make([]byte, 32*1024)
		for {
			n, err := body.Read(buf)
			if n > 0 {
				frame := make([]byte, n)
				copy(frame, buf[:n])
				chunks <- frame
			}
			if err != nil {
				if err != io.EOF {
					errCh <- err
				}
				return
			}
		}
	}()
	return chunks, errCh
}
