package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/pkg/config"
)

// NewRateLimiter limits each client IP to cfg.MaxRequests per cfg.Window.
// Health and metrics probes are never limited.
func NewRateLimiter(cfg config.RateLimitingConfig, log *zap.Logger) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.MaxRequests,
		Expiration: cfg.Window,
		Next: func(c *fiber.Ctx) bool {
			return !cfg.Enabled || isProbe(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Warn("Rate limit exceeded", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		},
	})
}

func isProbe(path string) bool {
	switch path {
	case "/health", "/healthz", "/live", "/livez", "/ready", "/readyz", "/metrics":
		return true
	}
	return false
}
