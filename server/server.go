package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-relay/backend"
	"github.com/jrsteele09/go-session-relay/handshake"
	"github.com/jrsteele09/go-session-relay/hostsession"
	"github.com/jrsteele09/go-session-relay/internal/config"
	"github.com/jrsteele09/go-session-relay/server/authflowrepo"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the server is wired with.
type Deps struct {
	Store     *hostsession.Store
	Backend   *backend.Client
	Provider  handshake.Provider
	AuthState authflowrepo.Repo
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	store     *hostsession.Store
	backend   *backend.Client
	provider  handshake.Provider
	authState authflowrepo.Repo

	dashboardTmpl *template.Template
	adminTmpl     *template.Template
}

func New(config config.Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Backend == nil || deps.Provider == nil || deps.AuthState == nil {
		return nil, errors.New("[Server New] store, backend, provider and auth state repo are required")
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		store:     deps.Store,
		backend:   deps.Backend,
		provider:  deps.Provider,
		authState: deps.AuthState,
	}

	var err error
	if s.dashboardTmpl, err = ParsePage("dashboard.html"); err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse dashboard template: %w", err)
	}
	if s.adminTmpl, err = ParsePage("admin.html"); err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse admin template: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
