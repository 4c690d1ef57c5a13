// Package api implements the HTTP surface: the chat endpoints (JSON and
// SSE streaming), the cookie-authenticated admin panel API and health.
package api

import (
	"errors"
	"net/http"

	"github.com/campusqa/campusqa/internal/app"
	"github.com/campusqa/campusqa/internal/log"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger        log.Logger
	App           *app.App // required
	AdminPassword string   // required for the admin endpoints
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("api: app is required")
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("api: admin password is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{app: cfg.App, logger: logger}
	ah := &adminHandler{
		app:      cfg.App,
		sessions: newSessionStore(adminSessionTTL),
		password: cfg.AdminPassword,
		logger:   logger,
	}

	mux := http.NewServeMux()

	// Chat
	mux.HandleFunc("POST /api/chat", ch.send)
	mux.HandleFunc("POST /api/chat/stream", ch.stream)

	// Admin authentication
	mux.HandleFunc("POST /api/admin/login", ah.login)
	mux.HandleFunc("POST /api/admin/logout", ah.logout)

	// Admin operations (session-cookie protected)
	mux.HandleFunc("GET /api/admin/models", ah.requireAdmin(ah.models))
	mux.HandleFunc("POST /api/admin/load_model", ah.requireAdmin(ah.loadModel))
	mux.HandleFunc("GET /api/admin/model_status", ah.requireAdmin(ah.modelStatus))
	mux.HandleFunc("POST /api/admin/sync", ah.requireAdmin(ah.sync))
	mux.HandleFunc("GET /api/admin/sync_status", ah.requireAdmin(ah.syncStatus))

	// Middleware stack (outermost first): Recovery → Logging → Routes
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.Handle("GET /health", health(cfg.App, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
