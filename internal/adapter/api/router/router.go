package router

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/handler"
	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter, wsHandler *handler.WebSocketHandler) {
	SetupAuthRouter(e, authMiddleware, limiter)
	SetupUserRouter(e, authMiddleware, limiter)
	SetupListingRouter(e, authMiddleware, limiter)
	SetupDraftRouter(e, authMiddleware, limiter)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e)
}
