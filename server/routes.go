package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare()...)) // For form_post response mode
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.SessionMiddleware)...))

	// Pages (session renewed, redirect to login without one)
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.SessionMiddleware, s.RequirePageSession)...))
	s.RegisterRouteHandler("GET "+RouteAdmin, ChainMiddleware(s.AdminPageHandler(), s.HTMLMiddleWare(s.SessionMiddleware, s.RequirePageSession, s.RequireAdmin)...))

	// API routes relaying the sealed session to the backend
	s.RegisterRouteHandler("GET "+RouteAPIFiles, ChainMiddleware(s.FileHandler(), s.APIMiddleware(s.SessionMiddleware, s.RequireAPISession)...))
	s.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.SessionMiddleware, s.RequireAPISession)...))
	s.RegisterRouteHandler("GET "+RouteAPIAdminUsers, ChainMiddleware(s.AdminUsersHandler(), s.APIMiddleware(s.SessionMiddleware, s.RequireAPISession, s.RequireAdmin)...))
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}
