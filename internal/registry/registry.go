// Package registry implements the Provider Registry: an immutable,
// read-after-init mapping from a requested model (plus an optional
// provider-hint header) to the provider binding that should serve it.
package registry

import (
	"strings"

	"github.com/relaylayer/llmgw/internal/backendauth"
	"github.com/relaylayer/llmgw/internal/gwerrors"
	"github.com/relaylayer/llmgw/internal/translator"
)

// Binding is one configured provider entry.
type Binding struct {
	// Key is the globally unique provider slug used in provider-hint
	// headers ("provider/model").
	Key string

	Family  translator.Family
	BaseURL string

	Auth backendauth.Config

	// Models is the explicit set of model names this binding serves.
	// A single entry of "*" or a trailing "*" prefix match (e.g. "acme-*")
	// is treated as a wildcard per the textual rule in isWildcardMatch.
	Models []string

	// Default marks the fallback binding used when no model/hint match is
	// found. At most one binding should set this; if several do, the
	// first in configuration order wins.
	Default bool

	// UseInvokeModel selects Bedrock's InvokeModel path instead of
	// Converse for this binding. Meaningless for non-Bedrock families.
	UseInvokeModel bool
}

// Registry is the immutable, read-only-after-build provider table.
type Registry struct {
	bindings []Binding
	byKey    map[string]int
}

// New builds a Registry from a fixed list of bindings, in configuration
// order. The returned Registry never mutates; rebuild-and-swap is the
// only supported reconfiguration path.
func New(bindings []Binding) *Registry {
	r := &Registry{bindings: bindings, byKey: make(map[string]int, len(bindings))}
	for i, b := range bindings {
		r.byKey[b.Key] = i
	}
	return r
}

// Resolve implements the §4.5 lookup algorithm: provider-hint exact
// match first, then first configuration-order binding whose model set
// contains the requested model (wildcards included), then the
// default-flagged binding, then UnknownModel.
func (r *Registry) Resolve(model, providerHint string) (Binding, error) {
	if slug, hintModel, ok := ParseProviderHint(providerHint); ok {
		if idx, found := r.byKey[slug]; found {
			b := r.bindings[idx]
			if modelMatches(b.Models, hintModel) {
				return b, nil
			}
		}
	}

	for _, b := range r.bindings {
		if modelMatches(b.Models, model) {
			return b, nil
		}
	}

	for _, b := range r.bindings {
		if b.Default {
			return b, nil
		}
	}

	return Binding{}, gwerrors.New(gwerrors.UnknownModel, "no provider binding serves model %q", model)
}

// AllBindings returns every configured binding, in configuration order,
// for callers (startup wiring, admin endpoints) that need the full table
// rather than a single resolution.
func (r *Registry) AllBindings() []Binding {
	return r.bindings
}

// Models returns the de-duplicated set of concrete (non-wildcard) model
// names across all bindings, in configuration order, for GET /v1/models.
func (r *Registry) Models() []ModelEntry {
	seen := make(map[string]bool)
	var out []ModelEntry
	for _, b := range r.bindings {
		for _, m := range b.Models {
			if isWildcard(m) || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, ModelEntry{ID: m, OwnedBy: b.Key})
		}
	}
	return out
}

// ModelEntry is one row of the /v1/models listing.
type ModelEntry struct {
	ID      string
	OwnedBy string
}

func modelMatches(set []string, model string) bool {
	for _, m := range set {
		if isWildcardMatch(m, model) {
			return true
		}
	}
	return false
}

func isWildcard(m string) bool {
	return m == "*" || strings.HasSuffix(m, "*")
}

// ParseProviderHint splits an "x-llm-provider-hint" header value of the
// form "<slug>/<model>" on its first slash. ok is false for an empty or
// slash-less value.
func ParseProviderHint(hint string) (slug, model string, ok bool) {
	if hint == "" {
		return "", "", false
	}
	slug, model, found := strings.Cut(hint, "/")
	if !found {
		return "", "", false
	}
	return slug, model, true
}

// isWildcardMatch implements the purely textual wildcard rule from §4.5:
// "*" matches anything, "prefix*" matches anything sharing that prefix.
func isWildcardMatch(pattern, model string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(model, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == model
}
