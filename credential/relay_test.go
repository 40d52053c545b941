package credential_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-session-relay/credential"
	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/stretchr/testify/require"
)

func headerExtractor(name string) credential.Extractor {
	return credential.ExtractorFunc(func(r *http.Request) (credential.Opaque, bool) {
		v := r.Header.Get(name)
		return credential.Opaque(v), v != ""
	})
}

func TestRelay_Attach(t *testing.T) {
	relay := credential.NewRelay(headerExtractor("X-Session"))

	t.Run("forwards the credential verbatim", func(t *testing.T) {
		sealed := "eyJhbGciOiJkaXIiLCJlbmMiOiJBMjU2R0NNIn0..a1b2c3.ciphertext-with_odd~chars.tag"
		in := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		in.Header.Set("X-Session", sealed)
		out := httptest.NewRequest(http.MethodGet, "http://backend/users/me", nil)

		require.NoError(t, relay.Attach(out, in))
		require.Equal(t, "Bearer "+sealed, out.Header.Get("Authorization"))
		require.Equal(t, []byte(sealed), []byte(out.Header.Get("Authorization"))[len("Bearer "):])
	})

	t.Run("missing credential", func(t *testing.T) {
		in := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		out := httptest.NewRequest(http.MethodGet, "http://backend/users/me", nil)

		err := relay.Attach(out, in)
		require.ErrorIs(t, err, apperrors.ErrMissingCredential)
		require.Empty(t, out.Header.Get("Authorization"))
	})

	t.Run("overwrites caller supplied authorization", func(t *testing.T) {
		in := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		in.Header.Set("X-Session", "sealed")
		out := httptest.NewRequest(http.MethodGet, "http://backend/users/me", nil)
		out.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

		require.NoError(t, relay.Attach(out, in))
		require.Equal(t, "Bearer sealed", out.Header.Get("Authorization"))
	})
}

func TestOpaque_Redacted(t *testing.T) {
	cred := credential.Opaque("secret-sealed-value")
	require.NotContains(t, fmt.Sprintf("%s %v %#v", cred, cred, cred), "secret")
	require.Equal(t, "<none>", credential.Opaque(nil).String())
}
