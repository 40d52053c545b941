package handshake

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/jrsteele09/go-session-relay/sessions"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DevConfig controls the dev provider. XUID and Gamertag are required.
type DevConfig struct {
	CallbackPath string // default /auth/callback
	XUID         string
	Gamertag     string
	Email        string
	Role         string
	// Lifetimes of the console-network and security tokens; defaults 24h and 16h.
	XboxLifetime time.Duration
	XSTSLifetime time.Duration
}

// DevProvider short-circuits sign-in for local development by sending the
// browser straight back to the callback. Exchange ignores the code and
// returns a fixed profile with a freshly dated chain.
type DevProvider struct {
	cfg DevConfig
}

var _ Provider = (*DevProvider)(nil)

// NewDevProvider constructs a dev provider from cfg.
func NewDevProvider(cfg DevConfig) (*DevProvider, error) {
	if cfg.XUID == "" {
		return nil, errors.New("dev auth: XUID is required")
	}
	if cfg.Gamertag == "" {
		return nil, errors.New("dev auth: Gamertag is required")
	}
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = "/auth/callback"
	}
	if cfg.XboxLifetime <= 0 {
		cfg.XboxLifetime = 24 * time.Hour
	}
	if cfg.XSTSLifetime <= 0 {
		cfg.XSTSLifetime = 16 * time.Hour
	}
	return &DevProvider{cfg: cfg}, nil
}

// AuthCodeURL returns the local callback carrying state.
func (p *DevProvider) AuthCodeURL(state, _, _ string) string {
	q := url.Values{}
	q.Set("code", "dev")
	q.Set("state", state)
	return p.cfg.CallbackPath + "?" + q.Encode()
}

// Exchange returns the configured profile. Validation of state and nonce is
// left to the handler.
func (p *DevProvider) Exchange(_ context.Context, _, _, _ string) (sessions.Handshake, error) {
	now := NowTimeFunc().UTC().Truncate(time.Second)
	return sessions.Handshake{
		Account: sessions.Account{
			AccessToken: "dev-access-" + p.cfg.XUID,
			Chain: sessions.TokenChain{
				Identity: "dev-microsoft-" + p.cfg.XUID,
				ConsoleNetwork: sessions.ExpiringToken{
					Token:     "dev-xbox-" + p.cfg.XUID,
					ExpiresOn: now.Add(p.cfg.XboxLifetime),
				},
				Security: sessions.ExpiringToken{
					Token:     "dev-xsts-" + p.cfg.XUID,
					ExpiresOn: now.Add(p.cfg.XSTSLifetime),
				},
			},
		},
		Profile: sessions.Profile{
			XUID:     p.cfg.XUID,
			Gamertag: p.cfg.Gamertag,
			UserHash: "dev-uhs-" + p.cfg.XUID,
			Email:    p.cfg.Email,
			Role:     p.cfg.Role,
		},
	}, nil
}
