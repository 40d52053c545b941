package config

import (
	"errors"
	"fmt"
	"time"
)

// AuthMode selects the sign-in provider.
type AuthMode string

const (
	AuthModeOAuth AuthMode = "oauth"
	AuthModeMock  AuthMode = "mock"
)

type OAuthConfig interface {
	GetAuthMode() AuthMode
	GetClientID() string
	GetClientSecret() string
	GetAuthURL() string
	GetTokenURL() string
	GetRedirectURL() string
	GetScopes() []string
	GetIssuer() string
	GetJWKSURL() string
	GetStateTTL() time.Duration
	GetAdminXUIDs() []string
	GetMockProfile() MockProfile
}

// MockProfile is the player signed in when AUTH_MODE=mock.
type MockProfile struct {
	XUID     string `env:"MOCK_XUID"     envDefault:"2533274800000000"`
	Gamertag string `env:"MOCK_GAMERTAG" envDefault:"DevPlayer"`
	Email    string `env:"MOCK_EMAIL"    envDefault:"dev@example.com"`
	Role     string `env:"MOCK_ROLE"     envDefault:"user"`
}

type OAuth struct {
	Mode         AuthMode      `env:"AUTH_MODE"           envDefault:"oauth"`
	ClientID     string        `env:"OAUTH_CLIENT_ID"`
	ClientSecret string        `env:"OAUTH_CLIENT_SECRET"`
	AuthURL      string        `env:"OAUTH_AUTH_URL"`
	TokenURL     string        `env:"OAUTH_TOKEN_URL"`
	RedirectURL  string        `env:"OAUTH_REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scopes       []string      `env:"OAUTH_SCOPES"        envDefault:"openid email offline_access" envSeparator:" "`
	Issuer       string        `env:"OAUTH_ISSUER"`
	JWKSURL      string        `env:"OAUTH_JWKS_URL"`
	StateTTL     time.Duration `env:"OAUTH_STATE_TTL"     envDefault:"10m"`
	AdminXUIDs   []string      `env:"ADMIN_XUIDS"         envSeparator:","`
	Mock         MockProfile
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetAuthMode() AuthMode { return o.Mode }
func (o OAuth) GetClientID() string { return o.ClientID }
func (o OAuth) GetClientSecret() string { return o.ClientSecret }
func (o OAuth) GetAuthURL() string { return o.AuthURL }
func (o OAuth) GetTokenURL() string { return o.TokenURL }
func (o OAuth) GetRedirectURL() string { return o.RedirectURL }
func (o OAuth) GetScopes() []string { return o.Scopes }
func (o OAuth) GetIssuer() string { return o.Issuer }
func (o OAuth) GetJWKSURL() string { return o.JWKSURL }
func (o OAuth) GetStateTTL() time.Duration { return o.StateTTL }
func (o OAuth) GetAdminXUIDs() []string { return o.AdminXUIDs }
func (o OAuth) GetMockProfile() MockProfile { return o.Mock }

func (o OAuth) validate() error {
	switch o.Mode {
	case AuthModeMock:
		return nil
	case AuthModeOAuth:
		if o.ClientID == "" || o.AuthURL == "" || o.TokenURL == "" {
			return errors.New("OAUTH_CLIENT_ID, OAUTH_AUTH_URL and OAUTH_TOKEN_URL are required when AUTH_MODE=oauth")
		}
		return nil
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", o.Mode)
	}
}
