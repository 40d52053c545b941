// Package handshake runs the external sign-in and maps its result into a
// sessions.Handshake: the identity token, the console-network and security
// tokens with their expiries, and the player profile.
package handshake

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-session-relay/sessions"
)

// Provider is the sign-in port used by the login and callback handlers.
type Provider interface {
	// AuthCodeURL returns where to send the browser to sign in.
	AuthCodeURL(state, nonce, verifier string) string
	// Exchange trades an authorization code for the completed handshake.
	Exchange(ctx context.Context, code, verifier, nonce string) (sessions.Handshake, error)
}

// RandomString returns n random bytes encoded as unpadded base64url.
func RandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
