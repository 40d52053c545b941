package handshake

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/jrsteele09/go-session-relay/sessions"
	"golang.org/x/oauth2"
)

// Token response fields the chain broker adds next to the standard OAuth ones.
const (
	extraIDToken       = "id_token"
	extraXboxToken     = "xbox_token"
	extraXboxExpiresOn = "xbox_expires_on"
	extraXSTSToken     = "xsts_token"
	extraXSTSExpiresOn = "xsts_expires_on"
	extraXUID          = "xuid"
	extraGamertag      = "gamertag"
	extraUserHash      = "user_hash"
	extraEmail         = "email"
	extraRole          = "role"
)

const defaultHTTPTimeout = 30 * time.Second

// OAuthConfig holds configuration for the OAuth provider.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
	// Issuer and JWKSURL enable identity token signature verification.
	Issuer     string
	JWKSURL    string
	AdminXUIDs []string
	HTTPClient *http.Client // Optional
}

// OAuthProvider implements Provider with an authorization code + PKCE flow
// against the chain broker.
type OAuthProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
	verifier   *oidc.IDTokenVerifier
	admins     []string
}

var _ Provider = (*OAuthProvider)(nil)

// NewOAuthProvider creates an OAuthProvider.
func NewOAuthProvider(ctx context.Context, cfg OAuthConfig) (*OAuthProvider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, errors.New("auth and token URLs are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", oidc.ScopeOfflineAccess}
	}

	p := &OAuthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		httpClient: httpClient,
		admins:     cfg.AdminXUIDs,
	}

	if cfg.Issuer != "" && cfg.JWKSURL != "" {
		keySet := oidc.NewRemoteKeySet(oidc.ClientContext(ctx, httpClient), cfg.JWKSURL)
		p.verifier = oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{ClientID: cfg.ClientID})
	}

	return p, nil
}

// AuthCodeURL builds the authorize URL with nonce and S256 PKCE challenge.
func (p *OAuthProvider) AuthCodeURL(state, nonce, verifier string) string {
	return p.config.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange trades code for tokens and maps the broker response.
func (p *OAuthProvider) Exchange(ctx context.Context, code, verifier, nonce string) (sessions.Handshake, error) {
	if code == "" {
		return sessions.Handshake{}, errors.New("authorization code is required")
	}

	ctx = oidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return sessions.Handshake{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.identityClaims(ctx, token)
	if err != nil {
		return sessions.Handshake{}, err
	}
	if claims.Nonce != nonce {
		return sessions.Handshake{}, apperrors.ErrInvalidNonce
	}

	return p.mapToken(token, claims)
}

// identityClaims is the part of the identity token the handshake reads.
type identityClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
	Email string `json:"email"`
}

func (p *OAuthProvider) identityClaims(ctx context.Context, token *oauth2.Token) (identityClaims, error) {
	var claims identityClaims

	raw, ok := token.Extra(extraIDToken).(string)
	if !ok || raw == "" {
		return claims, fmt.Errorf("%w: no id_token in response", apperrors.ErrIncompleteHandshake)
	}

	if p.verifier != nil {
		idToken, err := p.verifier.Verify(ctx, raw)
		if err != nil {
			return claims, fmt.Errorf("verify id_token: %w", err)
		}
		if err := idToken.Claims(&claims); err != nil {
			return claims, fmt.Errorf("parse id_token claims: %w", err)
		}
		return claims, nil
	}

	// The token came straight from the broker over TLS; without a key set the
	// claims are read as-is.
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return claims, fmt.Errorf("parse id_token: %w", err)
	}
	return claims, nil
}

func (p *OAuthProvider) mapToken(token *oauth2.Token, claims identityClaims) (sessions.Handshake, error) {
	xboxExpires, err := expiryExtra(token, extraXboxExpiresOn)
	if err != nil {
		return sessions.Handshake{}, err
	}
	xstsExpires, err := expiryExtra(token, extraXSTSExpiresOn)
	if err != nil {
		return sessions.Handshake{}, err
	}

	profile := sessions.Profile{
		XUID:     stringExtra(token, extraXUID),
		Gamertag: stringExtra(token, extraGamertag),
		UserHash: stringExtra(token, extraUserHash),
		Email:    stringExtra(token, extraEmail),
		Role:     stringExtra(token, extraRole),
	}
	if profile.Email == "" {
		profile.Email = claims.Email
	}
	if profile.XUID != "" && slices.Contains(p.admins, profile.XUID) {
		profile.Role = string(sessions.RoleAdmin)
	}

	return sessions.Handshake{
		Account: sessions.Account{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Chain: sessions.TokenChain{
				Identity: token.AccessToken,
				ConsoleNetwork: sessions.ExpiringToken{
					Token:     stringExtra(token, extraXboxToken),
					ExpiresOn: xboxExpires,
				},
				Security: sessions.ExpiringToken{
					Token:     stringExtra(token, extraXSTSToken),
					ExpiresOn: xstsExpires,
				},
			},
		},
		Profile: profile,
	}, nil
}

func stringExtra(token *oauth2.Token, key string) string {
	switch v := token.Extra(key).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// Numeric identifiers such as the xuid arrive unquoted from some brokers.
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// expiryExtra reads an RFC 3339 timestamp or unix seconds. Absent is zero.
func expiryExtra(token *oauth2.Token, key string) (time.Time, error) {
	switch v := token.Extra(key).(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC(), nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", apperrors.ErrIncompleteHandshake, key, err)
		}
		return t.UTC(), nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s has type %T", apperrors.ErrIncompleteHandshake, key, v)
	}
}
