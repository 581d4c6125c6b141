package router

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/handler"
	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/infrastructure/ratelimit"
)

func SetupListingRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	listingHandler := handler.GetListingHandler()

	e.GET("/v1/listings", listingHandler.ListCatalog, authMiddleware.Optional, middleware.RateLimit(limiter, ratelimit.ActionDefault))

	mine := protectedGroup(e, "/v1/my-listings", authMiddleware, limiter)
	mine.GET("", listingHandler.ListMine)
	mine.POST("", listingHandler.Create, middleware.RateLimit(limiter, ratelimit.ActionCreateListing))
	mine.GET("/:id", listingHandler.Get)
	mine.PUT("/:id", listingHandler.Update)
	mine.DELETE("/:id", listingHandler.Delete)
}
