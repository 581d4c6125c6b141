package router

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/handler"
	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/infrastructure/ratelimit"
)

func SetupDraftRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	draftHandler := handler.GetDraftHandler()

	drafts := protectedGroup(e, "/v1/drafts", authMiddleware, limiter)
	drafts.GET("/me", draftHandler.Get)
	drafts.DELETE("/me", draftHandler.Reset)
	drafts.POST("/me/images", draftHandler.UploadImages, middleware.RateLimit(limiter, ratelimit.ActionUploadImage))
	drafts.DELETE("/me/images", draftHandler.RemoveImage)
	drafts.PUT("/me/place", draftHandler.SelectPlace, middleware.RateLimit(limiter, ratelimit.ActionPlaceLookup))

	places := protectedGroup(e, "/v1/places", authMiddleware, limiter)
	places.GET("/autocomplete", draftHandler.Autocomplete, middleware.RateLimit(limiter, ratelimit.ActionPlaceLookup))
}
