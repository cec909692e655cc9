// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/flatdoc/flatdoc/internal/config"
	"github.com/flatdoc/flatdoc/internal/docstore"
	"github.com/flatdoc/flatdoc/internal/server/handlers"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// NewRouter creates and configures the HTTP router. Item reads are
// public; mutations require a session, and user management plus store
// maintenance require the admin role.
func NewRouter(store *docstore.Store, cfg *config.Config) http.Handler {
	mux := &http.ServeMux{}

	hh := handlers.NewHealthHandler(Version)
	ih := handlers.NewItemHandler(store)
	uh := handlers.NewUserHandler(store)
	authh := handlers.NewAuthHandler(store, cfg.JWTSecret, cfg.SessionTTL)
	adminh := handlers.NewAdminHandler(store)

	auth := AuthMiddleware(store, []byte(cfg.JWTSecret))
	admin := func(h http.Handler) http.Handler { return auth(RequireAdmin(h)) }

	// Health check
	mux.Handle("GET /api/health", Wrap(hh.Health))

	// Auth endpoints
	mux.Handle("POST /api/v1/auth/login", Wrap(authh.Login))
	mux.Handle("POST /api/v1/auth/logout", auth(Wrap(authh.Logout)))
	mux.Handle("GET /api/v1/auth/me", auth(Wrap(authh.Me)))

	// Item endpoints
	mux.Handle("GET /api/v1/items", Wrap(ih.ListItems))
	mux.Handle("GET /api/v1/items/{id}", Wrap(ih.GetItem))
	mux.Handle("POST /api/v1/items", auth(Wrap(ih.CreateItem)))
	mux.Handle("PUT /api/v1/items/{id}", auth(Wrap(ih.UpdateItem)))
	mux.Handle("DELETE /api/v1/items/{id}", auth(Wrap(ih.DeleteItem)))

	// User management endpoints
	mux.Handle("POST /api/v1/users", admin(Wrap(uh.CreateUser)))
	mux.Handle("GET /api/v1/users", admin(Wrap(uh.FindUser)))
	mux.Handle("GET /api/v1/users/{id}", admin(Wrap(uh.GetUser)))
	mux.Handle("PUT /api/v1/users/{id}", admin(Wrap(uh.UpdateUser)))
	mux.Handle("DELETE /api/v1/users/{id}", admin(Wrap(uh.DeleteUser)))

	// Store maintenance endpoints
	mux.Handle("POST /api/v1/admin/migrate", admin(Wrap(adminh.Migrate)))
	mux.Handle("POST /api/v1/admin/backup", admin(Wrap(adminh.Backup)))
	mux.Handle("POST /api/v1/admin/restore", admin(Wrap(adminh.Restore)))
	mux.Handle("POST /api/v1/admin/reset", admin(Wrap(adminh.Reset)))
	mux.Handle("POST /api/v1/admin/sessions/cleanup", admin(Wrap(adminh.CleanupSessions)))

	limiter := NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	return Logging(limiter.Middleware(mux))
}
