package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-session-relay/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the decoded, renewed session
const ContextKeySession ContextKey = "session"

// SessionFromContext returns the session SessionMiddleware kept alive for
// this request.
func SessionFromContext(ctx context.Context) (sessions.Session, bool) {
	s, ok := ctx.Value(ContextKeySession).(sessions.Session)
	return s, ok
}

// SessionMiddleware renews the session cookie on every request it guards. A
// fresh record passes through untouched and its decoded session is put in the
// context. A stale, malformed or undecryptable record is cleared, and the
// request continues unauthenticated.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.store.Load(r)
		if err != nil {
			log.Ctx(r.Context()).Info().Err(err).Msg("Session: discarding unreadable cookie")
			s.store.Clear(w, r)
			next(w, r)
			return
		}

		renewal := sessions.Evaluate(rec, sessions.NowTimeFunc())
		if !renewal.Authenticated() {
			if !rec.IsEmpty() {
				log.Ctx(r.Context()).Info().Err(renewal.Reason).Msg("Session: invalidated")
				s.store.Clear(w, r)
			}
			next(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, renewal.Session)
		next(w, r.WithContext(ctx))
	}
}

// RequirePageSession redirects to login, remembering where the browser was
// going, when the request has no session.
func (s *Server) RequirePageSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			loginURL := RouteAuthLogin + "?" + url.Values{callbackURLParam: {r.URL.RequestURI()}}.Encode()
			redirectSuccess(w, r, loginURL)
			return
		}
		next(w, r)
	}
}

// RequireAPISession answers 401 when the request has no session.
func (s *Server) RequireAPISession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "no valid session")
			return
		}
		next(w, r)
	}
}

// RequireAdmin answers 403 unless the session carries the admin role.
// Should be chained after RequirePageSession or RequireAPISession.
func (s *Server) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok || !session.User.Role.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		next(w, r)
	}
}
