package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-relay/handshake"
	"github.com/jrsteele09/go-session-relay/server/authflowrepo"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const stateLength = 32

// LoginHandler starts sign-in (GET /auth/login): it records state, nonce and
// PKCE verifier for the callback and sends the browser to the provider.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := handshake.RandomString(stateLength)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Login: failed to generate state")
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}
		nonce, err := handshake.RandomString(stateLength)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Login: failed to generate nonce")
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}
		verifier := oauth2.GenerateVerifier()

		authState := &authflowrepo.AuthFlowState{
			CodeVerifier: verifier,
			Nonce:        nonce,
			ReturnURL:    safeCallbackURL(r.URL.Query().Get(callbackURLParam), RouteDashboard),
			CreatedAt:    authflowrepo.NowTimeFunc(),
		}
		if err := s.authState.Upsert(r.Context(), state, authState); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Login: failed to store auth state")
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, s.provider.AuthCodeURL(state, nonce, verifier), http.StatusSeeOther)
	}
}

// LogoutHandler clears the session cookie and returns to callbackUrl or /.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.store.Clear(w, r)
		redirectSuccess(w, r, safeCallbackURL(r.URL.Query().Get(callbackURLParam), "/"))
	}
}
