package sessions

import "time"

// ExpiringToken is a sub-token of the chain with its expiry instant.
type ExpiringToken struct {
	Token     string
	ExpiresOn time.Time
}

// TokenChain is the three-stage credential produced by the external handshake:
// identity (Microsoft) → console network (Xbox Live) → security (XSTS).
type TokenChain struct {
	Identity       string
	ConsoleNetwork ExpiringToken
	Security       ExpiringToken
}

// Account is the provider account half of a completed handshake.
type Account struct {
	AccessToken  string
	RefreshToken string
	Chain        TokenChain
}

// Profile is the player profile half of a completed handshake.
type Profile struct {
	XUID     string
	Gamertag string
	UserHash string
	Email    string
	Role     string // Optional; empty defaults to user
}

// Handshake is what a provider yields once the login flow completes.
type Handshake struct {
	Account Account
	Profile Profile
}
