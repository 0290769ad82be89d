package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/config"
	"github.com/linkyoself/linkyoself/internal/app/service"
	"github.com/linkyoself/linkyoself/internal/http/handler"
	"github.com/linkyoself/linkyoself/internal/http/middleware"
	"go.uber.org/zap"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	bodyLimit    = 1 << 20
)

// Dependencies bundles what the HTTP server needs to serve requests.
type Dependencies struct {
	Logger *zap.Logger
	Config *config.Config

	Auth  service.AuthService
	Links service.LinkService
	Users service.UserService

	// Database backs the readiness check; nil skips it.
	Database handler.Pinger
	// RateCounter enables rate limiting of public endpoints when non-nil.
	RateCounter middleware.Counter
	// Observer receives per-request metrics when non-nil.
	Observer middleware.RequestObserver
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates the HTTP server with the middleware chain and every route.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = &config.Config{}
	}

	app := fiber.New(fiber.Config{
		AppName:               deps.Config.App.Name,
		ErrorHandler:          middleware.ErrorHandler(deps.Logger),
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           idleTimeout,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: !deps.Config.App.IsDevelopment(),
	})

	s := &Server{app: app, deps: deps}
	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	if s.deps.Observer != nil {
		s.app.Use(middleware.Metrics(s.deps.Observer))
	}
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.CORS(s.deps.Config.HTTP.AllowedOrigins))
}

func (s *Server) registerRoutes() {
	cfg := s.deps.Config
	requireAuth := middleware.Authenticate(s.deps.Auth)

	var limit fiber.Handler
	if s.deps.RateCounter != nil && cfg.RateLimit.Enabled {
		limit = middleware.RateLimit(s.deps.RateCounter, middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
			KeyPrefix:   cfg.App.Name + ":ratelimit",
		}, s.deps.Logger)
	}

	handler.NewHealthHandler(s.deps.Logger, cfg.App.Name, s.deps.Database).Register(s.app)
	handler.NewAuthHandler(s.deps.Logger, s.deps.Auth).Register(s.app, requireAuth, limit)
	handler.NewUserHandler(s.deps.Users).Register(s.app, requireAuth)
	handler.NewProfileHandler(s.deps.Users).Register(s.app, requireAuth)
	handler.NewLinkHandler(s.deps.Logger, s.deps.Links).Register(s.app, requireAuth, limit)
	handler.NewPublicHandler(s.deps.Logger, s.deps.Links, cfg.HTTP.PublicBaseURL).Register(s.app, limit)
}
