package sessions

import "time"

// IsFresh reports whether every time-bound sub-token of s is still valid at
// now. Each expiry is checked independently and only when it is set; a
// session with no tracked expiries is fresh.
func IsFresh(s Session, now time.Time) bool {
	if expired(s.Tokens.XboxExpiresOn, now) {
		return false
	}
	if expired(s.Tokens.XSTSExpiresOn, now) {
		return false
	}
	return true
}

func expired(expiresOn, now time.Time) bool {
	return !expiresOn.IsZero() && !now.Before(expiresOn)
}
