package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json"

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorResponse{Error: code, Description: description})
}

// writeBackendError maps a failed backend call onto the browser response. A
// backend status is forwarded as is, so a backend 401 stays a 401 even when
// the local session looked fresh.
func writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *apperrors.UpstreamError
	switch {
	case apperrors.As(err, &upstream):
		log.Ctx(r.Context()).Warn().Int("status", upstream.Status).Msg("Backend rejected request")
		code := "upstream_error"
		if upstream.Unauthorized() {
			code = "unauthorized"
		}
		writeError(w, upstream.Status, code, http.StatusText(upstream.Status))
	case apperrors.Is(err, apperrors.ErrMissingCredential):
		writeError(w, http.StatusUnauthorized, "unauthorized", "no session credential")
	case r.Context().Err() != nil:
		// Client went away; nobody is listening for the answer.
		log.Ctx(r.Context()).Debug().Err(err).Msg("Backend call cancelled")
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Backend call failed")
		writeError(w, http.StatusInternalServerError, "server_error", "backend unavailable")
	}
}

// safeCallbackURL keeps post-login redirects on this site: only absolute
// paths are accepted, never scheme-relative or absolute URLs.
func safeCallbackURL(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
