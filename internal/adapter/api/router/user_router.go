package router

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/handler"
	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/infrastructure/ratelimit"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	userHandler := handler.GetUserHandler()

	users := protectedGroup(e, "/v1/users", authMiddleware, limiter)
	users.GET("/me", userHandler.GetMe)
	users.PATCH("/me", userHandler.UpdateMe)
	users.DELETE("/me", userHandler.DeleteMe, middleware.RateLimit(limiter, ratelimit.ActionAuth))
	users.POST("/me/picture", userHandler.UploadPicture, middleware.RateLimit(limiter, ratelimit.ActionUploadImage))
}
