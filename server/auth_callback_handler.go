package server

import (
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/jrsteele09/go-session-relay/sessions"
	"github.com/rs/zerolog/log"
)

// OAuthCallbackHandler completes sign-in: it trades the code for the
// handshake, issues a new session record and writes it over any session the
// browser already held.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		// Check for authorization errors
		if errorParam != "" {
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errorParam, errorDesc), http.StatusBadRequest)
			return
		}

		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		// States are single use; Take removes it
		authState, err := s.authState.Take(r.Context(), state)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrNotFound) {
				log.Ctx(r.Context()).Error().Err(err).Msg("Callback: failed to read auth state")
			}
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		h, err := s.provider.Exchange(r.Context(), code, authState.CodeVerifier, authState.Nonce)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Callback: token exchange failed")
			if apperrors.Is(err, apperrors.ErrInvalidNonce) {
				http.Error(w, "Invalid nonce", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Token exchange failed", http.StatusBadGateway)
			return
		}

		rec, err := sessions.Issue(h)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Callback: failed to issue session")
			http.Error(w, "Failed to create session", http.StatusBadGateway)
			return
		}

		if err := s.store.Save(w, r, rec); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Callback: failed to seal session")
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		log.Ctx(r.Context()).Info().Str("xuid", h.Profile.XUID).Msg("Signed in")
		redirectSuccess(w, r, safeCallbackURL(authState.ReturnURL, RouteDashboard))
	}
}
