package hostsession

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-session-relay/credential"
	"github.com/jrsteele09/go-session-relay/sessions"
)

// Store is the request-scoped session store: read, then optionally overwrite
// or clear, within one request.
type Store struct {
	sealer *Sealer
	jar    *CookieJar
}

// NewStore combines a sealer and the cookie jar holding its output.
func NewStore(sealer *Sealer, jar *CookieJar) *Store {
	return &Store{sealer: sealer, jar: jar}
}

// Load opens the record carried by r. It returns a nil record and no error
// when r carries no session cookie.
func (s *Store) Load(r *http.Request) (sessions.Record, error) {
	sealed, ok := s.jar.read(r)
	if !ok {
		return nil, nil
	}
	rec, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return rec, nil
}

// Save seals rec and writes it over any existing session cookie. An empty
// record clears the session instead.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, rec sessions.Record) error {
	if rec.IsEmpty() {
		s.jar.Clear(w, r)
		return nil
	}
	sealed, err := s.sealer.Seal(rec)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.jar.Write(w, r, sealed)
	return nil
}

// Clear removes the session cookie.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) {
	s.jar.Clear(w, r)
}

// Extractor exposes the still-sealed cookie value for relaying.
func (s *Store) Extractor() credential.Extractor {
	return s.jar
}
