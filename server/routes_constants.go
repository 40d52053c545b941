package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthCallback = "/auth/callback"
	RouteAuthSession  = "/api/auth/session"

	// Pages
	RouteDashboard = "/dashboard"
	RouteAdmin     = "/admin"

	// API Routes relayed to the backend
	RouteAPIFiles      = "/api/files/{path...}"
	RouteAPIMe         = "/api/me"
	RouteAPIAdminUsers = "/api/admin/users"

	RouteHealth = "/healthz"
)

// Backend paths the relayed API routes map to.
const (
	BackendFiles      = "/files/"
	BackendMe         = "/users/me"
	BackendAdminUsers = "/admin/users"
)

const callbackURLParam = "callbackUrl"
