package router

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/handler"
	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/infrastructure/ratelimit"
)

// SetupAuthRouter initializes auth routes
func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	authHandler := handler.GetAuthHandler()

	// Public routes
	public := e.Group("/v1/auth", middleware.RateLimit(limiter, ratelimit.ActionAuth))
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/password-reset", authHandler.SendPasswordReset)

	// Protected routes
	protected := protectedGroup(e, "/v1/auth", authMiddleware, limiter)
	protected.POST("/logout", authHandler.Logout)
}
