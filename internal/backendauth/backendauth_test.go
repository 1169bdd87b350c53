package backendauth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaylayer/llmgw/internal/backendauth"
)

func TestBearerSetsAuthorizationHeader(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemeBearer, APIKey: "sk-test"})
	require.NoError(t, err)

	headers := map[string]string{}
	applied, err := h.Do(context.Background(), "POST", "/v1/chat/completions", headers, nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer sk-test", headers["Authorization"])
	require.Equal(t, []backendauth.Header{{Name: "Authorization", Value: "Bearer sk-test"}}, applied)
}

func TestHeaderSchemeDefaultsToXAPIKey(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemeHeader, APIKey: "sk-anthropic"})
	require.NoError(t, err)

	headers := map[string]string{}
	_, err = h.Do(context.Background(), "POST", "/v1/messages", headers, nil)
	require.NoError(t, err)
	require.Equal(t, "sk-anthropic", headers["x-api-key"])
}

func TestHeaderSchemeHonorsConfiguredName(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemeHeader, APIKey: "secret", HeaderName: "x-custom-key"})
	require.NoError(t, err)

	headers := map[string]string{}
	_, err = h.Do(context.Background(), "POST", "/", headers, nil)
	require.NoError(t, err)
	require.Equal(t, "secret", headers["x-custom-key"])
}

func TestQueryParamSchemeRewritesPath(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemeQueryParam, APIKey: "gem-key"})
	require.NoError(t, err)

	headers := map[string]string{":path": "/v1beta/models/gemini-2.0-flash:generateContent"}
	_, err = h.Do(context.Background(), "POST", headers[":path"], headers, nil)
	require.NoError(t, err)
	require.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent?key=gem-key", headers[":path"])
}

func TestQueryParamSchemeAppendsWithAmpersandWhenQueryAlreadyPresent(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemeQueryParam, APIKey: "gem-key"})
	require.NoError(t, err)

	path := "/v1beta/models/gemini-2.0-flash:generateContent?alt=sse"
	headers := map[string]string{":path": path}
	_, err = h.Do(context.Background(), "POST", path, headers, nil)
	require.NoError(t, err)
	require.Equal(t, path+"&key=gem-key", headers[":path"])
}

func TestPassthroughForwardsClientAuthorizationUnchanged(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemePassthrough})
	require.NoError(t, err)

	headers := map[string]string{"authorization": "Bearer client-supplied-key"}
	applied, err := h.Do(context.Background(), "POST", "/v1/chat/completions", headers, nil)
	require.NoError(t, err)
	require.Equal(t, []backendauth.Header{{Name: "Authorization", Value: "Bearer client-supplied-key"}}, applied)
}

func TestPassthroughAppliesNothingWithoutClientHeader(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemePassthrough})
	require.NoError(t, err)

	applied, err := h.Do(context.Background(), "POST", "/v1/chat/completions", map[string]string{}, nil)
	require.NoError(t, err)
	require.Nil(t, applied)
}

func TestNoneSchemeAppliesNothing(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemeNone})
	require.NoError(t, err)

	applied, err := h.Do(context.Background(), "POST", "/", map[string]string{}, nil)
	require.NoError(t, err)
	require.Nil(t, applied)
}

// TestNoneSchemeStripsAnyClientAuthorization covers §4.7's requirement
// that None actively removes Authorization rather than merely declining
// to set one; otherwise a client credential seeded into the outbound
// header map for some other purpose would be forwarded verbatim.
func TestNoneSchemeStripsAnyClientAuthorization(t *testing.T) {
	h, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: backendauth.SchemeNone})
	require.NoError(t, err)

	headers := map[string]string{"authorization": "Bearer client-supplied-key"}
	_, err = h.Do(context.Background(), "POST", "/", headers, nil)
	require.NoError(t, err)
	require.NotContains(t, headers, "authorization")
	require.NotContains(t, headers, "Authorization")
}

// TestManagedSchemesNeverForwardClientAuthorizationAlongsideTheirOwn is the
// regression test for the header-casing collision: every managed (i.e.
// non-passthrough) scheme must leave at most one Authorization-shaped key
// in the outbound header map — its own — never both its own and a
// leftover client-supplied one under a different case.
func TestManagedSchemesNeverForwardClientAuthorizationAlongsideTheirOwn(t *testing.T) {
	cases := []struct {
		name string
		cfg  backendauth.Config
	}{
		{"bearer", backendauth.Config{Scheme: backendauth.SchemeBearer, APIKey: "gateway-key"}},
		{"header", backendauth.Config{Scheme: backendauth.SchemeHeader, APIKey: "gateway-key"}},
	}
	for _, c := range cases {
		h, err := backendauth.NewHandler(context.Background(), c.cfg)
		require.NoError(t, err, c.name)

		headers := map[string]string{"authorization": "Bearer client-supplied-key"}
		_, err = h.Do(context.Background(), "POST", "/v1/chat/completions", headers, nil)
		require.NoError(t, err, c.name)
		require.NotContains(t, headers, "authorization", c.name)
	}
}

func TestUnknownSchemeIsRejected(t *testing.T) {
	_, err := backendauth.NewHandler(context.Background(), backendauth.Config{Scheme: "made-up-scheme"})
	require.Error(t, err)
}
