package server

import (
	"context"
	"net/http"
	"time"

	"wattwise-server/confs"
	"wattwise-server/db"
	httpHandler "wattwise-server/handlers/http"
	"wattwise-server/identity"
	"wattwise-server/middleware"
	"wattwise-server/ratelimit"
	"wattwise-server/repositories"
	"wattwise-server/usecases"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	app     *gin.Engine
	cfg     confs.Config
	db      db.Database
	auth    identity.Capability
	limiter ratelimit.Limiter
	log     *zap.Logger
}

// NewServer wires the routes. A nil limiter falls back to an in-memory one.
func NewServer(cfg confs.Config, database db.Database, auth identity.Capability, limiter ratelimit.Limiter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	}

	s := &Server{
		app:     gin.New(),
		cfg:     cfg,
		db:      database,
		auth:    auth,
		limiter: limiter,
		log:     log,
	}
	s.routes()

	if !auth.Available() {
		log.Warn("identity verification unavailable, protected routes answer 503", zap.Error(auth.Reason()))
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.app }

func (s *Server) routes() {
	s.app.Use(middleware.Errors(s.log, s.cfg.IsProduction()), middleware.Recovery())
	if s.cfg.Env != confs.EnvTest {
		s.app.Use(middleware.RequestLogger(s.log))
	}
	s.app.Use(
		middleware.SecureHeaders(s.cfg.IsProduction()),
		cors.New(corsConfig(s.cfg.AllowedOrigins)),
		// global so unmatched /api paths are counted too
		middleware.RateLimit(s.limiter, "/api", s.log),
		middleware.BodyLimit(s.cfg.BodyLimitBytes),
	)

	s.app.GET("/health", httpHandler.Health(s.cfg.Env))
	s.app.NoRoute(middleware.NotFound())

	// Initialize repositories and use cases
	profileRepo := repositories.NewProfilePgRepository(s.db)
	profileUseCase := usecases.NewProfileUseCase(profileRepo, s.log)

	gate := middleware.NewGate(s.auth, profileUseCase, s.log)

	// Initialize handlers
	authHandler := httpHandler.NewAuthHandler()
	profileHandler := httpHandler.NewProfileHandler(profileUseCase)

	// Setup API routes
	v1 := s.app.Group("/api/v1", gate.RequireAuth())
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/sync", authHandler.Sync)
		}

		users := v1.Group("/users")
		{
			users.GET("/me", profileHandler.GetMe)
			users.PUT("/me", profileHandler.UpdateMe)
			users.PUT("/me/appliances", profileHandler.UpdateAppliances)
		}
	}
}

// corsConfig admits requests without an Origin header (mobile clients, curl)
// and, when an allow-list is configured, only the listed origins.
func corsConfig(allowed []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = true
	config.AllowOriginFunc = func(origin string) bool {
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
	return config
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              "0.0.0.0:" + s.cfg.Port,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", s.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown")
	}
	return nil
}
