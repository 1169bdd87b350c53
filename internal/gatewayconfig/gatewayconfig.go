// Package gatewayconfig is the plain-Go, YAML-loaded configuration record
// the gateway builds its Provider Registry, rate limiter, and auth
// handlers from at startup. Unlike the envoy-coupled configuration it
// replaces, nothing here is tied to a proxy's CRDs or control plane; it
// is read once, validated, and handed to the component constructors.
package gatewayconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/relaylayer/llmgw/internal/backendauth"
	"github.com/relaylayer/llmgw/internal/registry"
	"github.com/relaylayer/llmgw/internal/translator"
)

// Config is the top-level configuration record.
type Config struct {
	// Listen is the address the gateway's HTTP server binds to.
	Listen string `yaml:"listen"`

	// DefaultMaxTokens is the max_tokens value supplied to a target
	// format that requires one when the source request omitted it.
	DefaultMaxTokens int64 `yaml:"defaultMaxTokens"`

	Providers  []ProviderConfig  `yaml:"providers"`
	RateLimits []RateLimitConfig `yaml:"rateLimits"`
}

// ProviderConfig is one Provider Registry entry.
type ProviderConfig struct {
	Key     string `yaml:"key"`
	Family  string `yaml:"family"` // "openai", "anthropic", "bedrock", "gemini"
	BaseURL string `yaml:"baseURL"`

	Auth AuthConfig `yaml:"auth"`

	Models         []string `yaml:"models"`
	Default        bool     `yaml:"default"`
	UseInvokeModel bool     `yaml:"useInvokeModel"`
}

// AuthConfig is one provider's authentication configuration.
type AuthConfig struct {
	Scheme string `yaml:"scheme"` // "bearer", "api_key_header", "url_api_key", "aws_sigv4", "passthrough", "none"

	APIKey     string `yaml:"apiKey"`
	HeaderName string `yaml:"headerName"`
	QueryParam string `yaml:"queryParam"`

	AWSRegion                string `yaml:"awsRegion"`
	AWSCredentialFileLiteral string `yaml:"awsCredentialFileLiteral"`
}

// RateLimitConfig configures one token bucket.
type RateLimitConfig struct {
	Model           string  `yaml:"model"`
	Selector        string  `yaml:"selector,omitempty"`
	Capacity        float64 `yaml:"capacity"`
	RefillPerSecond float64 `yaml:"refillPerSecond"`
}

// Load reads and parses a YAML configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gatewayconfig: cannot read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("gatewayconfig: cannot parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural invariants this package's consumers rely
// on: known families, known auth schemes, unique provider keys, and at
// most one default binding.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("gatewayconfig: at least one provider is required")
	}
	seenKeys := make(map[string]bool)
	defaults := 0
	for _, p := range c.Providers {
		if p.Key == "" {
			return fmt.Errorf("gatewayconfig: provider missing key")
		}
		if seenKeys[p.Key] {
			return fmt.Errorf("gatewayconfig: duplicate provider key %q", p.Key)
		}
		seenKeys[p.Key] = true
		if _, err := familyFromString(p.Family); err != nil {
			return fmt.Errorf("gatewayconfig: provider %q: %w", p.Key, err)
		}
		if _, err := schemeFromString(p.Auth.Scheme); err != nil {
			return fmt.Errorf("gatewayconfig: provider %q: %w", p.Key, err)
		}
		if p.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("gatewayconfig: at most one provider may be flagged default")
	}
	return nil
}

func familyFromString(s string) (translator.Family, error) {
	switch translator.Family(s) {
	case translator.FamilyOpenAI, translator.FamilyAnthropic, translator.FamilyBedrock, translator.FamilyGemini:
		return translator.Family(s), nil
	default:
		return "", fmt.Errorf("unknown provider family %q", s)
	}
}

func schemeFromString(s string) (backendauth.Scheme, error) {
	switch backendauth.Scheme(s) {
	case backendauth.SchemeBearer, backendauth.SchemeHeader, backendauth.SchemeQueryParam,
		backendauth.SchemeAWSSigV4, backendauth.SchemePassthrough, backendauth.SchemeNone, "":
		return backendauth.Scheme(s), nil
	default:
		return "", fmt.Errorf("unknown auth scheme %q", s)
	}
}

// Bindings converts the configured providers into registry.Binding
// values, in configuration order.
func (c *Config) Bindings() []registry.Binding {
	out := make([]registry.Binding, 0, len(c.Providers))
	for _, p := range c.Providers {
		family, _ := familyFromString(p.Family)
		scheme, _ := schemeFromString(p.Auth.Scheme)
		out = append(out, registry.Binding{
			Key:     p.Key,
			Family:  family,
			BaseURL: p.BaseURL,
			Auth: backendauth.Config{
				Scheme:                   scheme,
				APIKey:                   p.Auth.APIKey,
				HeaderName:               p.Auth.HeaderName,
				QueryParam:               p.Auth.QueryParam,
				AWSRegion:                p.Auth.AWSRegion,
				AWSCredentialFileLiteral: p.Auth.AWSCredentialFileLiteral,
			},
			Models:         p.Models,
			Default:        p.Default,
			UseInvokeModel: p.UseInvokeModel,
		})
	}
	return out
}
