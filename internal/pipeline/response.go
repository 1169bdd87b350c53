package pipeline

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/relaylayer/llmgw/internal/canonical"
	"github.com/relaylayer/llmgw/internal/gwerrors"
	"github.com/relaylayer/llmgw/internal/host"
	"github.com/relaylayer/llmgw/internal/registry"
	"github.com/relaylayer/llmgw/internal/streaming"
	"github.com/relaylayer/llmgw/internal/translator"
)

func marshalJSON(v any) ([]byte, error) { return json.Marshal(v) }

func drainChunks(chunks <-chan []byte) []byte {
	var out []byte
	for c := range chunks {
		out = append(out, c...)
	}
	return out
}

// completeUpstreamError passes an upstream 4xx/5xx body through untouched
// (it is already in the provider's error shape, not ours to translate)
// and records it as a FAILED completion for metrics purposes.
func (p *Pipeline) completeUpstreamError(model string, binding registry.Binding, resp *host.DispatchResponse, received time.Time) *Result {
	body := resp.Body
	if body == nil && resp.BodyChunks != nil {
		body = drainChunks(resp.BodyChunks)
	}
	p.Metrics.RequestCompleted(binding.Key, model, "upstream_error")
	p.Metrics.RequestDuration(binding.Key, model, time.Since(received))
	return &Result{State: StateFailed, StatusCode: resp.StatusCode, Body: body}
}

// handleBuffered implements the DISPATCHED -> BUFFERED -> COMPLETE path:
// the full response body is already in hand, so translation is one
// function call away from the client-facing bytes.
func (p *Pipeline) handleBuffered(model, selector string, binding registry.Binding, providerFamily, clientFamily translator.Family, resp *host.DispatchResponse, received time.Time) *Result {
	body := resp.Body
	if body == nil && resp.BodyChunks != nil {
		body = drainChunks(resp.BodyChunks)
	}

	out, err := translator.TranslateResponse(providerFamily, clientFamily, body)
	if err != nil {
		p.Metrics.RequestCompleted(binding.Key, model, "translation_error")
		return rejected(StateFailed, gwerrors.Wrap(gwerrors.TranslationError, err, "response translation failed"))
	}

	usage := extractUsage(providerFamily, body)
	n := float64(usage.TotalTokens)
	if n == 0 {
		n = float64(p.Estimator.Estimate(model, string(body)))
	}
	p.Limiter.DebitAll(model, selector, n)
	p.Metrics.RequestCompleted(binding.Key, model, "ok")
	p.Metrics.RequestDuration(binding.Key, model, time.Since(received))
	if usage.TotalTokens > 0 {
		if elapsed := time.Since(received).Seconds(); elapsed > 0 {
			p.Metrics.TokensPerSecond(binding.Key, model, float64(usage.CompletionTokens)/elapsed)
		}
	}

	return &Result{State: StateComplete, StatusCode: resp.StatusCode, Body: out}
}

// extractUsage best-effort decodes a provider's native usage block from a
// buffered response body, returning a zero Usage on any translation
// failure rather than failing the whole request over an accounting
// detail.
func extractUsage(family translator.Family, body []byte) canonical.Usage {
	c, err := translator.ResponseToCanonical(family, body)
	if err != nil || c.Usage == nil {
		return canonical.Usage{}
	}
	return translator.NormalizeUsage(c.Usage)
}

// handleStreaming implements the DISPATCHED -> STREAMING -> COMPLETE
// path. It spawns one pump goroutine that feeds upstream chunks through
// a streaming.Engine and forwards translated client-format frames on the
// returned channel, closing it when the upstream stream ends.
func (p *Pipeline) handleStreaming(model, selector string, binding registry.Binding, providerFamily, clientFamily translator.Family, resp *host.DispatchResponse, received time.Time) *Result {
	out := make(chan []byte, 8)

	var finalUsage canonical.Usage
	engine := streaming.NewEngine(providerFamily, clientFamily, model, binding.UseInvokeModel, func(u canonical.Usage) {
		finalUsage = translator.NormalizeUsage(&u)
	})

	go func() {
		defer close(out)
		var accumText strings.Builder
		status := "ok"
		var firstByteAt time.Time
		defer func() {
			n := float64(finalUsage.TotalTokens)
			if n == 0 {
				n = float64(p.Estimator.Estimate(model, accumText.String()))
			}
			p.Limiter.DebitAll(model, selector, n)
			p.Metrics.RequestCompleted(binding.Key, model, status)
			elapsed := time.Since(received)
			p.Metrics.RequestDuration(binding.Key, model, elapsed)
			if finalUsage.TotalTokens > 0 && !firstByteAt.IsZero() {
				if secs := time.Since(firstByteAt).Seconds(); secs > 0 {
					p.Metrics.TokensPerSecond(binding.Key, model, float64(finalUsage.CompletionTokens)/secs)
				}
			}
		}()

		firstByte := true
		errs := resp.Err
		for {
			select {
			case chunk, ok := <-resp.BodyChunks:
				if !ok {
					return
				}
				frames, err := engine.Feed(chunk)
				if err != nil {
					return
				}
				for _, f := range frames {
					if firstByte {
						firstByteAt = time.Now()
						p.Metrics.TimeToFirstByte(binding.Key, model, firstByteAt.Sub(received))
						firstByte = false
					}
					accumText.Write(f)
					out <- f
				}
			case err, ok := <-errs:
				if !ok {
					// A closed Err channel carries no error; keep draining BodyChunks.
					errs = nil
					continue
				}
				if err != nil && err != io.EOF {
					status = "stream_error"
				}
				return
			}
		}
	}()

	return &Result{State: StateStreaming, StatusCode: resp.StatusCode, Stream: out}
}
