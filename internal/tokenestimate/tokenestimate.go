// Package tokenestimate provides the gateway's token-count estimator,
// used to size a rate-limit debit when a provider's response carries no
// usage block (e.g. a mid-stream partial frame emitted after an upstream
// error). It tries a real BPE tokenizer first and falls back to a crude
// character-count heuristic if the tokenizer can't be loaded.
package tokenestimate

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator wraps a lazily-initialized cl100k_base encoder shared across
// all models; tiktoken-go's encoder is safe for concurrent Encode calls
// once built; only the one-time construction needs a lock.
type Estimator struct {
	once    sync.Once
	encoder *tiktoken.Tiktoken
}

// New returns an Estimator. Tokenizer construction is deferred to the
// first Estimate call so that a missing BPE rank file never blocks
// startup. Construction is attempted once; if it fails, every later
// estimate from this Estimator uses the chars/4 fallback.
func New() *Estimator {
	return &Estimator{}
}

// Estimate returns an approximate token count for text. model is
// accepted for interface symmetry with the per-provider tokenizer tables
// a future encoder table might need, but the current implementation uses
// one shared encoding for every model family.
func (e *Estimator) Estimate(model, text string) uint32 {
	if text == "" {
		return 0
	}
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			e.encoder = enc
		}
	})
	if e.encoder != nil {
		return uint32(len(e.encoder.Encode(text, nil, nil)))
	}
	return charsPerTokenFallback(text)
}

// charsPerTokenFallback implements the chars/4 approximation named as the
// tokenizer-unavailable fallback; rounds up so a short non-empty string
// never estimates to zero tokens.
func charsPerTokenFallback(text string) uint32 {
	n := uint32(utf8.RuneCountInString(text))
	return (n + 3) / 4
}
