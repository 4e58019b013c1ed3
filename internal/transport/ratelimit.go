package transport

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/ratelimit"
)

type areaRequest struct {
	AreaID string `json:"areaId"`
}

// RateLimitMiddleware throttles call operations per area. The area comes
// from the request body for POSTs and the query string for GETs; requests
// with no area fall through to the handler, which rejects them anyway.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		areaID := c.Query("areaId")
		if areaID == "" {
			var req areaRequest
			// The body stays buffered, handlers re-parse it.
			if err := c.BodyParser(&req); err == nil {
				areaID = req.AreaID
			}
		}
		if areaID == "" {
			return c.Next()
		}

		allowed, err := limiter.Allow(c.Context(), areaID)
		if err != nil {
			// Redis trouble must not take the call endpoints down.
			logger.Warn("rate limiter unavailable, allowing request",
				zap.String("areaId", areaID),
				zap.Error(err),
			)
			return c.Next()
		}
		if !allowed {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded for area")
		}

		return c.Next()
	}
}
