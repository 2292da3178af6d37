package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/middleware/jwt"
	"github.com/pomclinic/intake/middleware/ratelimit"
	"github.com/pomclinic/intake/server"
	"github.com/pomclinic/intake/services/logging"
	"github.com/pomclinic/intake/services/token"
	"github.com/pomclinic/intake/session"
)

// RegisterRoutes wires the HTTP surface. The session cookie rides on every
// route; the credential endpoints sit behind the rate limiter and the users
// resource (bar registration) behind the JWT guard.
func RegisterRoutes(
	srv *server.Server,
	cfg *config.Config,
	logger *logging.Service,
	sessionManager *session.Manager,
	sessionService session.SessionService,
	tokenService *token.Service,
	rateLimitStore ratelimit.Store,
	authHandler *AuthHandler,
	userHandler *UserHandler,
) {
	srv.Use(logging.RequestLogger(logger, "/health"))
	srv.Use(session.Middleware(sessionManager))
	srv.Use(session.ServiceMiddleware(sessionService))

	e := srv.Echo()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, MessageResponse{Message: "ok"})
	})

	limited := credentialLimiter(cfg, rateLimitStore)

	e.POST("/login", authHandler.Login, limited...)
	e.POST("/logout/:userId", authHandler.Logout)
	e.POST("/refresh", authHandler.Refresh)
	e.GET("/authenticate", authHandler.Authenticate, session.RequireAuth())

	e.POST("/password/forgot", authHandler.ForgotPassword, limited...)
	e.GET("/password/reset", authHandler.ValidateReset)
	e.POST("/password/reset", authHandler.ResetPassword, limited...)

	e.GET("/session/:sessionId", authHandler.GetSession)

	users := srv.Group("/users")
	users.POST("", userHandler.Register)

	requireJWT := jwt.RequireJWT(tokenService)
	users.GET("", userHandler.List, requireJWT)
	users.GET("/:id", userHandler.Get, requireJWT)
	users.PUT("/:id", userHandler.Update, requireJWT)
	users.DELETE("/:id", userHandler.Delete, requireJWT)
}

// credentialLimiter throttles password-guessing surfaces per client IP and
// route.
func credentialLimiter(cfg *config.Config, store ratelimit.Store) []echo.MiddlewareFunc {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	return []echo.MiddlewareFunc{ratelimit.Middleware(&ratelimit.Config{
		Store:  store,
		Rate:   cfg.RateLimit.Rate,
		Period: cfg.RateLimit.Period,
	})}
}
