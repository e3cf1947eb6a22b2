// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"

	"sucrelinda/internal/app"
	"sucrelinda/internal/domain"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	accounts *app.AccountService
	oidc     *OIDCConfig
	log      *slog.Logger
}

// New creates a Server wired to the given application services. oidcCfg may
// be nil when SSO is not configured.
func New(auth *app.AuthService, accounts *app.AccountService, oidcCfg *OIDCConfig, log *slog.Logger) *Server {
	return &Server{auth: auth, accounts: accounts, oidc: oidcCfg, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("POST /auth/register", s.handleRegister)
	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/refresh", s.handleRefresh)
	api.HandleFunc("POST /auth/logout", s.handleLogout)
	api.Handle("GET /auth/session", s.requireAuth(http.HandlerFunc(s.handleSession)))
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	api.Handle("GET /me", s.requireAuth(http.HandlerFunc(s.handleMe)))
	api.Handle("PATCH /me", s.requireAuth(http.HandlerFunc(s.handleUpdateMe)))

	api.Handle("GET /admin/accounts", s.requireRole(domain.RoleAdmin, http.HandlerFunc(s.handleAdminListAccounts)))
	api.Handle("PATCH /admin/accounts/{id}", s.requireRole(domain.RoleAdmin, http.HandlerFunc(s.handleAdminUpdateAccount)))
	api.Handle("DELETE /admin/accounts/{id}", s.requireRole(domain.RoleAdmin, http.HandlerFunc(s.handleAdminDeleteAccount)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.withLogging(root)
}
