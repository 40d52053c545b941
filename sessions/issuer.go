package sessions

import (
	"bytes"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Record is the plaintext session record held by the host's session store.
// A nil or empty Record is the logged-out state.
type Record []byte

// IsEmpty reports whether r is the logged-out record.
func (r Record) IsEmpty() bool {
	trimmed := bytes.TrimSpace(r)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}"))
}

// Issue builds a new session record from a completed handshake. The host
// overwrites any prior record with the result.
func Issue(h Handshake) (Record, error) {
	if err := checkHandshake(h); err != nil {
		return nil, err
	}

	role, ok := ParseRole(h.Profile.Role)
	if !ok {
		return nil, &SchemaError{Field: "user.role", Reason: fmt.Sprintf("unknown role %q", h.Profile.Role)}
	}

	chain := h.Account.Chain
	s := Session{
		User: User{
			XUID:         h.Profile.XUID,
			Gamertag:     h.Profile.Gamertag,
			XboxUserHash: h.Profile.UserHash,
			Email:        h.Profile.Email,
			Role:         role,
		},
		Tokens: Tokens{
			Microsoft:     chain.Identity,
			Xbox:          chain.ConsoleNetwork.Token,
			XSTS:          chain.Security.Token,
			XboxExpiresOn: chain.ConsoleNetwork.ExpiresOn,
			XSTSExpiresOn: chain.Security.ExpiresOn,
		},
		AccessToken:  h.Account.AccessToken,
		RefreshToken: h.Account.RefreshToken,
	}

	encoded, err := Encode(s)
	if err != nil {
		return nil, fmt.Errorf("encode issued session: %w", err)
	}
	// The issued record must satisfy the same schema every later request checks.
	if _, err := Decode(encoded); err != nil {
		return nil, fmt.Errorf("validate issued session: %w", err)
	}
	return Record(encoded), nil
}

func checkHandshake(h Handshake) error {
	switch {
	case h.Profile.XUID == "":
		return apperrors.Wrapf(apperrors.ErrIncompleteHandshake, "missing xuid")
	case h.Account.AccessToken == "":
		return apperrors.Wrapf(apperrors.ErrIncompleteHandshake, "missing access token")
	case h.Account.Chain.Identity == "":
		return apperrors.Wrapf(apperrors.ErrIncompleteHandshake, "missing identity token")
	case h.Account.Chain.ConsoleNetwork.Token == "":
		return apperrors.Wrapf(apperrors.ErrIncompleteHandshake, "missing xbox token")
	case h.Account.Chain.Security.Token == "":
		return apperrors.Wrapf(apperrors.ErrIncompleteHandshake, "missing xsts token")
	}
	return nil
}

// Renewal is the outcome of checking an existing record.
type Renewal struct {
	// Record is the input record, byte for byte, when it is still fresh and
	// empty otherwise.
	Record Record
	// Session is the decoded session; only meaningful when Record is not empty.
	Session Session
	// Reason explains an invalidation (a *SchemaError or ErrExpired). It is
	// nil when the record was fresh or already empty.
	Reason error
}

// Authenticated reports whether the renewal kept a session alive.
func (r Renewal) Authenticated() bool {
	return !r.Record.IsEmpty()
}

// Evaluate runs the renewal check for rec at now. A fresh record passes
// through untouched; a stale or malformed one becomes the empty record, and an
// empty record stays empty.
func Evaluate(rec Record, now time.Time) Renewal {
	if rec.IsEmpty() {
		return Renewal{}
	}
	s, err := Decode(rec)
	if err != nil {
		return Renewal{Reason: err}
	}
	if !IsFresh(s, now) {
		return Renewal{Reason: apperrors.ErrExpired}
	}
	return Renewal{Record: rec, Session: s}
}

// Renew is Evaluate reduced to the resulting record.
func Renew(rec Record, now time.Time) Record {
	return Evaluate(rec, now).Record
}
