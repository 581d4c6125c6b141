package middleware

import (
	"github.com/labstack/echo/v4"

	"muzmates/internal/infrastructure/ratelimit"
	"muzmates/pkg/errors"
	"muzmates/pkg/logger"
	"muzmates/pkg/response"
)

// RateLimit spends one token of action per request. Signed-in callers are keyed by uid,
// anonymous ones by client IP.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject := UserID(c)
			if subject == "" {
				subject = "ip:" + c.RealIP()
			}

			allowed, retryAfter := limiter.Allow(subject, action)
			if !allowed {
				logger.Warn("Rate limit hit for %s on %s (retry in %v)", subject, action, retryAfter)
				return response.Error(c, errors.TooManyRequests("Too many requests, please try again later", retryAfter))
			}

			return next(c)
		}
	}
}
