package handlers

import (
	"context"
	"time"

	"placement-portal/internal/clients/mongo"
	"placement-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
)

const HealthzTimeout = 5 * time.Second

// Pinger reports whether the backing store is reachable
type Pinger func(ctx context.Context) error

// Healthz reports the server healthy when the database answers a ping.
// @Summary Health check
// @Description Pings the database
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func Healthz(c *fiber.Ctx) error {
	return HealthzWith(mongo.Ping)(c)
}

// HealthzWith builds a health handler around ping.
func HealthzWith(ping Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			logger.L().Warn("health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "down",
				"error":  "database unavailable",
			})
		}

		return c.JSON(fiber.Map{"status": "ok"})
	}
}
