package sessions

import "time"

// Role is the closed set of application roles a session can carry.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a role literal to a Role. An empty literal is the default
// RoleUser; anything else that is not a known role is rejected.
func ParseRole(v string) (Role, bool) {
	switch Role(v) {
	case "", RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// IsAdmin reports whether the role grants admin-only views.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User is the identity part of a session.
type User struct {
	XUID         string // Stable Xbox user id
	Gamertag     string // Display handle
	XboxUserHash string // Provider-issued user hash (uhs)
	Email        string
	Role         Role
}

// Tokens holds the three bearer tokens of the chain. Only the console-network
// (Xbox) and security (XSTS) tokens carry expiries; a zero time means the
// expiry is not tracked.
type Tokens struct {
	Microsoft     string
	Xbox          string
	XSTS          string
	XboxExpiresOn time.Time
	XSTSExpiresOn time.Time
}

// Session is the decoded, schema-validated record for one authenticated user.
// It is never mutated in place: Issue and Renew always produce a new Record.
type Session struct {
	User         User
	Tokens       Tokens
	AccessToken  string
	RefreshToken string // Optional, only used during renewal
}
