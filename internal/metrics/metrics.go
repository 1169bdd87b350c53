// Package metrics defines the abstract metrics sink the request pipeline
// records through, and a concrete Prometheus-backed implementation. The
// pipeline never imports a metrics backend directly.
package metrics

import "time"

// Sink is the abstract recorder the pipeline writes through when a
// request is rate-limited, when it fails on an upstream error status or a
// response-translation error, and at COMPLETE. Nothing is recorded at
// RECEIVED, for other admission rejections, or for a failed dispatch.
// Implementations must be safe for concurrent use across many in-flight
// requests.
type Sink interface {
	// RequestCompleted records one terminal request outcome.
	RequestCompleted(provider, model, status string)

	// RateLimited records one admission-time rejection due to
	// insufficient tokens.
	RateLimited(model, selector string)

	// TimeToFirstByte records the duration between request receipt and
	// the first byte forwarded to the client.
	TimeToFirstByte(provider, model string, d time.Duration)

	// RequestDuration records the full request lifetime, RECEIVED to
	// COMPLETE.
	RequestDuration(provider, model string, d time.Duration)

	// TokensPerSecond records output throughput for one completed
	// request, computed as output_tokens / (t_complete - t_first_byte).
	// For a buffered response, which reaches the client in one piece at
	// completion, the interval starts at request receipt instead.
	TokensPerSecond(provider, model string, tps float64)
}

// NoopSink discards every observation. Useful as a default when no
// metrics backend is configured, and in tests that don't care about
// metrics.
type NoopSink struct{}

func (NoopSink) RequestCompleted(string, string, string)         {}
func (NoopSink) RateLimited(string, string)                      {}
func (NoopSink) TimeToFirstByte(string, string, time.Duration)   {}
func (NoopSink) RequestDuration(string, string, time.Duration)   {}
func (NoopSink) TokensPerSecond(string, string, float64)         {}
