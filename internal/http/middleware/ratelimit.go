package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	limiterCacheSize = 10000
	limiterTTL       = 10 * time.Minute
)

// RateLimit allows rps requests per second per client IP with the given burst.
// A client's limiter is dropped ten minutes after it was created.
func RateLimit(rps float64, burst int) fiber.Handler {
	limiters := expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterTTL)

	return func(c *fiber.Ctx) error {
		ip := c.IP()
		l, ok := limiters.Get(ip)
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters.Add(ip, l)
		}
		if !l.Allow() {
			c.Set(fiber.HeaderRetryAfter, "1")
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
