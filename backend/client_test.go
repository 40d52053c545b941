package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-session-relay/backend"
	"github.com/jrsteele09/go-session-relay/credential"
	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sealed = "eyJhbGciOiJkaXIiLCJlbmMiOiJBMjU2R0NNIn0..iv.ciphertext.tag"

func cookieRelay() *credential.Relay {
	return credential.NewRelay(credential.ExtractorFunc(func(r *http.Request) (credential.Opaque, bool) {
		c, err := r.Cookie("session-token")
		if err != nil {
			return nil, false
		}
		return credential.Opaque(c.Value), true
	}))
}

func inbound(withCookie bool) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if withCookie {
		r.AddCookie(&http.Cookie{Name: "session-token", Value: sealed})
	}
	return r
}

func newClient(t *testing.T, url string) *backend.Client {
	t.Helper()
	c, err := backend.NewClient(backend.Config{BaseURL: url}, cookieRelay())
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := backend.NewClient(backend.Config{}, cookieRelay())
	require.Error(t, err)

	_, err = backend.NewClient(backend.Config{BaseURL: "not a url"}, cookieRelay())
	require.Error(t, err)

	_, err = backend.NewClient(backend.Config{BaseURL: "http://backend"}, nil)
	require.Error(t, err)
}

func TestClient_GetJSON(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/users/me":
			assert.Equal(t, "Bearer "+sealed, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"xuid":"2533274800000000","gamertag":"Major Nelson"}`))
		case "/admin/users":
			http.Error(w, "forbidden", http.StatusForbidden)
		case "/broken":
			_, _ = w.Write([]byte(`{not json`))
		default:
			http.Error(w, "no session", http.StatusUnauthorized)
		}
	}))
	defer srv.Close()
	client := newClient(t, srv.URL)
	ctx := context.Background()

	t.Run("relays the credential", func(t *testing.T) {
		var me struct {
			XUID     string `json:"xuid"`
			Gamertag string `json:"gamertag"`
		}
		require.NoError(t, client.GetJSON(ctx, inbound(true), "/users/me", &me))
		require.Equal(t, "Major Nelson", me.Gamertag)
	})

	t.Run("missing credential makes no call", func(t *testing.T) {
		before := calls.Load()
		var out map[string]any
		err := client.GetJSON(ctx, inbound(false), "/users/me", &out)
		require.ErrorIs(t, err, apperrors.ErrMissingCredential)
		require.Equal(t, before, calls.Load())
	})

	t.Run("upstream status is preserved", func(t *testing.T) {
		var out map[string]any
		err := client.GetJSON(ctx, inbound(true), "/admin/users", &out)
		require.ErrorIs(t, err, apperrors.ErrUpstream)

		var upstream *apperrors.UpstreamError
		require.ErrorAs(t, err, &upstream)
		require.Equal(t, http.StatusForbidden, upstream.Status)
		require.Equal(t, "forbidden", upstream.Body)
		require.False(t, upstream.Unauthorized())
	})

	t.Run("backend rejection", func(t *testing.T) {
		var out map[string]any
		err := client.GetJSON(ctx, inbound(true), "/other", &out)
		var upstream *apperrors.UpstreamError
		require.ErrorAs(t, err, &upstream)
		require.True(t, upstream.Unauthorized())
	})

	t.Run("undecodable body", func(t *testing.T) {
		var out map[string]any
		err := client.GetJSON(ctx, inbound(true), "/broken", &out)
		require.ErrorIs(t, err, apperrors.ErrTransport)
	})
}

func TestClient_Transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out map[string]any
	err := newClient(t, url).GetJSON(context.Background(), inbound(true), "/users/me", &out)
	require.ErrorIs(t, err, apperrors.ErrTransport)
	require.NotErrorIs(t, err, apperrors.ErrUpstream)
}

func TestClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/clips/highlight.mp4", r.URL.Path)
		assert.Equal(t, "Bearer "+sealed, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Disposition", `attachment; filename="highlight.mp4"`)
		w.Header().Set("X-Internal", "not-forwarded")
		_, _ = w.Write([]byte("binary-bytes"))
	}))
	defer srv.Close()

	w := httptest.NewRecorder()
	err := newClient(t, srv.URL).Stream(context.Background(), inbound(true), "/files/clips/highlight.mp4", w)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="highlight.mp4"`, w.Header().Get("Content-Disposition"))
	require.Empty(t, w.Header().Get("X-Internal"))
	require.Equal(t, "binary-bytes", w.Body.String())
}
