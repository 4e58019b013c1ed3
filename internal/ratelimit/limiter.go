package ratelimit

import "context"

// RateLimiter throttles call-operation requests per area.
type RateLimiter interface {
	Allow(ctx context.Context, areaID string) (bool, error)
	Wait(ctx context.Context, areaID string) error
}
