// Package credential carries the sealed session cookie value from the inbound
// request to outbound backend calls. The value is opaque here: only the
// backend holds the key that opens it, and nothing in this package (or any
// caller of it) can turn an Opaque into a session.
package credential

import (
	"net/http"

	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
)

// Opaque is the sealed wire form of a session. It has no decode operation.
type Opaque []byte

// Empty reports whether no credential is held.
func (o Opaque) Empty() bool { return len(o) == 0 }

// String redacts the value so it never ends up in logs.
func (o Opaque) String() string {
	if o.Empty() {
		return "<none>"
	}
	return "<redacted>"
}

// GoString keeps %#v from printing the value either.
func (o Opaque) GoString() string { return o.String() }

// Extractor pulls the raw sealed credential out of an inbound request. It
// returns false when the request carries none.
type Extractor interface {
	Extract(r *http.Request) (Opaque, bool)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(r *http.Request) (Opaque, bool)

func (f ExtractorFunc) Extract(r *http.Request) (Opaque, bool) { return f(r) }

// Relay reattaches the inbound credential to outbound requests.
type Relay struct {
	extractor Extractor
}

// NewRelay creates a Relay reading credentials with extractor.
func NewRelay(extractor Extractor) *Relay {
	return &Relay{extractor: extractor}
}

// Attach copies the credential held by in onto out as a bearer token. It
// returns ErrMissingCredential, leaving out untouched, when in has none.
func (r *Relay) Attach(out, in *http.Request) error {
	cred, ok := r.extractor.Extract(in)
	if !ok || cred.Empty() {
		return apperrors.ErrMissingCredential
	}
	out.Header.Set("Authorization", "Bearer "+string(cred))
	return nil
}
