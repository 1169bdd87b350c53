// Package host defines the abstract boundary between the gateway's
// request pipeline and whatever process embeds it. A host delivers
// request/response events and performs the actual outbound dispatch; the
// pipeline never touches a socket directly. The pipeline does read the
// standard library clock itself, and it starts one goroutine per
// streaming response to pump upstream chunks.
package host

import "context"

// Headers is a case-preserving, ordered view over one message's headers.
// Lookups are case-insensitive per HTTP semantics; the concrete
// implementation (e.g. net/http's Header) owns storage.
type Headers interface {
	Get(name string) string
	Set(name, value string)
	Del(name string)
	Each(func(name, value string))
}

// DispatchRequest is what the pipeline asks the host to send upstream
// once a request has been fully translated and authenticated.
type DispatchRequest struct {
	Method  string
	URL     string
	Headers Headers
	Body    []byte
}

// DispatchResponse is either a buffered upstream response or the start of
// a streaming one; BodyChunks, if non-nil, is read until it's closed or
// an error arrives on Err.
type DispatchResponse struct {
	StatusCode int
	Headers    Headers

	// Body is set for a fully-buffered response.
	Body []byte

	// BodyChunks is set instead of Body when the upstream response is
	// streamed; the pipeline reads from it until closed.
	BodyChunks <-chan []byte
	Err        <-chan error
}

// Dispatcher performs the actual outbound HTTP call on behalf of the
// pipeline. The host implements this using whatever transport it has
// available (net/http, an embedding proxy's upstream cluster, a test
// double).
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResponse, error)
}

// Clock abstracts wall-clock time as unix nanoseconds. The pipeline does
// not call it; it reads time.Now / time.Since directly.
type Clock interface {
	Now() int64 // unix nanos
}

// Host bundles the callbacks and capabilities the request pipeline needs
// from its embedder. This is the "abstract host interface" the core is
// written against instead of any specific proxy's filter SDK.
type Host interface {
	Dispatcher
	Clock
}
