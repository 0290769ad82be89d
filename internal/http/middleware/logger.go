package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logger creates a logging middleware using zap.
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The app ErrorHandler has not run yet, so derive the status it will write.
			status = StatusOf(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
			zap.String("request_id", GetRequestID(c)),
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request error", append(fields, zap.Error(err))...)
		case err != nil:
			logger.Info("request rejected", append(fields, zap.String("reason", err.Error()))...)
		default:
			logger.Info("request", fields...)
		}

		return err
	}
}
