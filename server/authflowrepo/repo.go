// Package authflowrepo keeps the per-login state that must survive the round
// trip through the identity provider: the PKCE verifier, the nonce and where
// to send the browser afterwards.
package authflowrepo

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a login may sit at the identity provider.
const DefaultTTL = 10 * time.Minute

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type AuthFlowState struct {
	CodeVerifier string    `json:"codeVerifier"`
	Nonce        string    `json:"nonce"`
	ReturnURL    string    `json:"returnUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Repo stores auth flow states keyed by the OAuth state parameter. States are
// single use: Take removes what it returns, and a missing or expired state
// reports errors.ErrNotFound.
type Repo interface {
	Upsert(ctx context.Context, state string, authState *AuthFlowState) error
	Take(ctx context.Context, state string) (*AuthFlowState, error)
}
