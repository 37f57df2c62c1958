package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/auth"
	"github.com/capsule-closet/capsule-be/internal/config"
	"github.com/capsule-closet/capsule-be/internal/credits"
	"github.com/capsule-closet/capsule-be/internal/http/handlers"
	"github.com/capsule-closet/capsule-be/internal/metrics"
	"github.com/capsule-closet/capsule-be/internal/middleware"
	"github.com/capsule-closet/capsule-be/internal/storage"
	"github.com/capsule-closet/capsule-be/internal/wardrobe"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Users    storage.UserStore
	Sessions *credits.Sessions
	Manager  *credits.Manager
	Sync     *credits.Synchronizer
	Wardrobe *wardrobe.Service
	// Renderer is optional; /tryon is not served without it.
	Renderer handlers.Renderer
	Health   map[string]handlers.Pinger
}

// writeTimeout leaves room for a try-on that spends every model attempt.
const writeTimeout = 3 * time.Minute

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Handler builds the routed, middleware-wrapped handler.
func Handler(cfg config.Config, deps Deps) http.Handler {
	mux := http.NewServeMux()
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	protect := handlers.Protect(middleware.Auth(tokenManager))

	handlers.NewHealthHandler(time.Now(), deps.Health).Register(mux)
	handlers.NewAuthHandler(deps.Users, tokenManager, deps.Sessions, deps.Logger).Register(mux)
	handlers.NewClosetHandler(deps.Wardrobe, deps.Sessions, deps.Logger).Register(mux, protect)
	handlers.NewCreditsHandler(deps.Sessions, deps.Sync, deps.Logger).Register(mux, protect)
	if deps.Renderer != nil {
		handlers.NewTryOnHandler(deps.Manager, deps.Sessions, deps.Sync, deps.Wardrobe, deps.Renderer, deps.Logger).Register(mux, protect)
	}
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(deps.Logger, mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
