package sessions

// PublicUser is the user part of PublicSession.
type PublicUser struct {
	XUID         string `json:"xuid"`
	Gamertag     string `json:"gamertag"`
	XboxUserHash string `json:"xboxUserHash"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
}

// PublicTokens exposes the three bearer tokens without their expiries.
type PublicTokens struct {
	Microsoft string `json:"microsoft"`
	Xbox      string `json:"xbox"`
	XSTS      string `json:"xsts"`
}

// PublicSession is the read-only view handed to UI and authorization
// consumers. It never carries the refresh token.
type PublicSession struct {
	User        PublicUser   `json:"user"`
	AccessToken string       `json:"accessToken"`
	Tokens      PublicTokens `json:"tokens"`
}

// Public projects s for consumers. Recompute it per request; do not cache.
func Public(s Session) PublicSession {
	return PublicSession{
		User: PublicUser{
			XUID:         s.User.XUID,
			Gamertag:     s.User.Gamertag,
			XboxUserHash: s.User.XboxUserHash,
			Email:        s.User.Email,
			Role:         s.User.Role,
		},
		AccessToken: s.AccessToken,
		Tokens: PublicTokens{
			Microsoft: s.Tokens.Microsoft,
			Xbox:      s.Tokens.Xbox,
			XSTS:      s.Tokens.XSTS,
		},
	}
}
