package middleware

import (
	"strconv"
	"time"

	"backoffice/internal/util"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latencies per method/route/status.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		path := c.Route().Path
		duration := time.Since(start).Seconds()
		statusLabel := strconv.Itoa(status)

		util.HTTPRequestDuration.WithLabelValues(c.Method(), path, statusLabel).Observe(duration)
		util.HTTPRequestsTotal.WithLabelValues(c.Method(), path, statusLabel).Inc()

		return err
	}
}
