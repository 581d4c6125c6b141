package router

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/infrastructure/ratelimit"
)

// protectedGroup requires a verified ID token and then spends from the caller's default bucket.
func protectedGroup(e *echo.Echo, prefix string, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) *echo.Group {
	return e.Group(prefix, authMiddleware.Authenticate, middleware.RateLimit(limiter, ratelimit.ActionDefault))
}
