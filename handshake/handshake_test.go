package handshake_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-relay/handshake"
	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/jrsteele09/go-session-relay/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testClientID = "relay-client"
	testCode     = "auth-code"
	testNonce    = "nonce-123"
)

// broker fakes the chain broker's token endpoint and key set.
type broker struct {
	t        *testing.T
	key      *rsa.PrivateKey
	server   *httptest.Server
	verifier string
	extras   map[string]any
	idClaims jwt.MapClaims
}

func newBroker(t *testing.T) *broker {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	b := &broker{
		t:   t,
		key: key,
		extras: map[string]any{
			"xbox_token":      "xbox-token",
			"xbox_expires_on": "2026-10-19T12:00:00Z",
			"xsts_token":      "xsts-token",
			"xsts_expires_on": float64(time.Date(2026, 10, 19, 4, 0, 0, 0, time.UTC).Unix()),
			"xuid":            "2533274800000000",
			"gamertag":        "Major Nelson",
			"user_hash":       "uhs-1",
			"email":           "",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", b.token)
	mux.HandleFunc("GET /jwks", func(w http.ResponseWriter, r *http.Request) {
		set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{Key: &key.PublicKey, KeyID: "k1", Algorithm: "RS256", Use: "sig"}}}
		_ = json.NewEncoder(w).Encode(set)
	})
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)

	b.idClaims = jwt.MapClaims{
		"iss":   b.server.URL,
		"aud":   testClientID,
		"sub":   "ms-subject",
		"email": "major@example.com",
		"nonce": testNonce,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	return b
}

func (b *broker) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("code") != testCode {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}
	b.verifier = r.PostForm.Get("code_verifier")

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, b.idClaims)
	tok.Header["kid"] = "k1"
	idToken, err := tok.SignedString(b.key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body := map[string]any{
		"access_token":  "ms-access",
		"refresh_token": "ms-refresh",
		"token_type":    "Bearer",
		"expires_in":    3600,
		"id_token":      idToken,
	}
	for k, v := range b.extras {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (b *broker) provider(t *testing.T, verify bool, admins ...string) *handshake.OAuthProvider {
	t.Helper()
	cfg := handshake.OAuthConfig{
		ClientID:    testClientID,
		AuthURL:     b.server.URL + "/authorize",
		TokenURL:    b.server.URL + "/token",
		RedirectURL: "http://relay.local/auth/callback",
		AdminXUIDs:  admins,
	}
	if verify {
		cfg.Issuer = b.server.URL
		cfg.JWKSURL = b.server.URL + "/jwks"
	}
	p, err := handshake.NewOAuthProvider(context.Background(), cfg)
	require.NoError(t, err)
	return p
}

func TestNewOAuthProvider_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := handshake.NewOAuthProvider(ctx, handshake.OAuthConfig{})
	require.Error(t, err)
	_, err = handshake.NewOAuthProvider(ctx, handshake.OAuthConfig{ClientID: "c"})
	require.Error(t, err)
	_, err = handshake.NewOAuthProvider(ctx, handshake.OAuthConfig{ClientID: "c", AuthURL: "a", TokenURL: "t"})
	require.Error(t, err)
}

func TestOAuthProvider_AuthCodeURL(t *testing.T) {
	b := newBroker(t)
	verifier := oauth2.GenerateVerifier()

	u, err := url.Parse(b.provider(t, false).AuthCodeURL("state-1", testNonce, verifier))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, testNonce, q.Get("nonce"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
}

func TestOAuthProvider_Exchange(t *testing.T) {
	for _, verify := range []bool{false, true} {
		name := "unverified"
		if verify {
			name = "verified"
		}
		t.Run(name, func(t *testing.T) {
			b := newBroker(t)
			h, err := b.provider(t, verify).Exchange(context.Background(), testCode, "the-verifier", testNonce)
			require.NoError(t, err)

			assert.Equal(t, "the-verifier", b.verifier)
			assert.Equal(t, "ms-access", h.Account.AccessToken)
			assert.Equal(t, "ms-refresh", h.Account.RefreshToken)
			assert.Equal(t, "ms-access", h.Account.Chain.Identity)
			assert.Equal(t, "xbox-token", h.Account.Chain.ConsoleNetwork.Token)
			assert.Equal(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), h.Account.Chain.ConsoleNetwork.ExpiresOn)
			assert.Equal(t, "xsts-token", h.Account.Chain.Security.Token)
			assert.Equal(t, time.Date(2026, 10, 19, 4, 0, 0, 0, time.UTC), h.Account.Chain.Security.ExpiresOn)
			assert.Equal(t, sessions.Profile{
				XUID:     "2533274800000000",
				Gamertag: "Major Nelson",
				UserHash: "uhs-1",
				Email:    "major@example.com",
			}, h.Profile)

			_, err = sessions.Issue(h)
			require.NoError(t, err)
		})
	}
}

func TestOAuthProvider_ExchangeFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("nonce mismatch", func(t *testing.T) {
		b := newBroker(t)
		_, err := b.provider(t, false).Exchange(ctx, testCode, "v", "other-nonce")
		require.ErrorIs(t, err, apperrors.ErrInvalidNonce)
	})

	t.Run("rejected code", func(t *testing.T) {
		b := newBroker(t)
		_, err := b.provider(t, false).Exchange(ctx, "wrong", "v", testNonce)
		require.Error(t, err)
	})

	t.Run("empty code", func(t *testing.T) {
		b := newBroker(t)
		_, err := b.provider(t, false).Exchange(ctx, "", "v", testNonce)
		require.Error(t, err)
	})

	t.Run("wrong issuer fails verification", func(t *testing.T) {
		b := newBroker(t)
		b.idClaims["iss"] = "https://elsewhere.example.com"
		_, err := b.provider(t, true).Exchange(ctx, testCode, "v", testNonce)
		require.Error(t, err)
	})

	t.Run("malformed expiry", func(t *testing.T) {
		b := newBroker(t)
		b.extras["xbox_expires_on"] = "tomorrow"
		_, err := b.provider(t, false).Exchange(ctx, testCode, "v", testNonce)
		require.ErrorIs(t, err, apperrors.ErrIncompleteHandshake)
	})
}

func TestOAuthProvider_AdminPromotion(t *testing.T) {
	b := newBroker(t)
	b.extras["xuid"] = float64(2533274800000000)

	h, err := b.provider(t, false, "2533274800000000").Exchange(context.Background(), testCode, "v", testNonce)
	require.NoError(t, err)
	require.Equal(t, "2533274800000000", h.Profile.XUID)
	require.Equal(t, string(sessions.RoleAdmin), h.Profile.Role)
}

func TestOAuthProvider_AbsentExpiries(t *testing.T) {
	b := newBroker(t)
	delete(b.extras, "xbox_expires_on")
	delete(b.extras, "xsts_expires_on")

	h, err := b.provider(t, false).Exchange(context.Background(), testCode, "v", testNonce)
	require.NoError(t, err)
	require.True(t, h.Account.Chain.ConsoleNetwork.ExpiresOn.IsZero())
	require.True(t, h.Account.Chain.Security.ExpiresOn.IsZero())
}

func TestDevProvider(t *testing.T) {
	_, err := handshake.NewDevProvider(handshake.DevConfig{})
	require.Error(t, err)

	defer func() { handshake.NowTimeFunc = time.Now }()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	handshake.NowTimeFunc = func() time.Time { return now }

	p, err := handshake.NewDevProvider(handshake.DevConfig{XUID: "42", Gamertag: "dev", Role: "admin"})
	require.NoError(t, err)

	u, err := url.Parse(p.AuthCodeURL("state-1", "n", "v"))
	require.NoError(t, err)
	require.Equal(t, "/auth/callback", u.Path)
	require.Equal(t, "state-1", u.Query().Get("state"))

	h, err := p.Exchange(context.Background(), "dev", "v", "n")
	require.NoError(t, err)
	require.Equal(t, now.Add(24*time.Hour), h.Account.Chain.ConsoleNetwork.ExpiresOn)
	require.Equal(t, now.Add(16*time.Hour), h.Account.Chain.Security.ExpiresOn)

	rec, err := sessions.Issue(h)
	require.NoError(t, err)
	s, err := sessions.Decode(rec)
	require.NoError(t, err)
	require.Equal(t, sessions.RoleAdmin, s.User.Role)
	require.True(t, sessions.IsFresh(s, now))
}

func TestRandomString(t *testing.T) {
	a, err := handshake.RandomString(32)
	require.NoError(t, err)
	b, err := handshake.RandomString(32)
	require.NoError(t, err)
	require.Len(t, a, 43)
	require.NotEqual(t, a, b)
}
