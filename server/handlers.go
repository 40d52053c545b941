package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-relay/backend"
	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/jrsteele09/go-session-relay/sessions"
	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

// IndexHandler sends the browser to the dashboard, which redirects to login
// when there is no session.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionHandler returns the public view of the current session, or {} when
// there is none.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusOK, struct{}{})
			return
		}
		writeJSON(w, http.StatusOK, sessions.Public(session))
	}
}

// DashboardData is the view model for the dashboard and admin pages
type DashboardData struct {
	AppName string
	Session sessions.PublicSession
}

func (s *Server) DashboardHandler() http.HandlerFunc {
	return s.pageHandler("dashboard", s.dashboardTmpl)
}

func (s *Server) AdminPageHandler() http.HandlerFunc {
	return s.pageHandler("admin", s.adminTmpl)
}

func (s *Server) pageHandler(name string, tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := SessionFromContext(r.Context())
		data := DashboardData{
			AppName: s.config.GetAppName(),
			Session: sessions.Public(session),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("Failed to render page")
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
	}
}

// FileHandler streams a backend file (GET /api/files/{path...}).
func (s *Server) FileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.PathValue("path")
		if !validFilePath(path) {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid file path")
			return
		}

		err := s.backend.Stream(r.Context(), r, BackendFiles+path, w)
		if err == nil {
			return
		}
		if apperrors.Is(err, backend.ErrStreamInterrupted) {
			log.Ctx(r.Context()).Warn().Err(err).Msg("File stream interrupted")
			return
		}
		writeBackendError(w, r, err)
	}
}

func validFilePath(path string) bool {
	if path == "" {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// MeHandler returns the backend's view of the signed-in user.
func (s *Server) MeHandler() http.HandlerFunc {
	return s.relayJSONHandler(BackendMe)
}

// AdminUsersHandler returns the backend's user list to admins.
func (s *Server) AdminUsersHandler() http.HandlerFunc {
	return s.relayJSONHandler(BackendAdminUsers)
}

func (s *Server) relayJSONHandler(backendPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if err := s.backend.GetJSON(r.Context(), r, backendPath, &body); err != nil {
			writeBackendError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}
