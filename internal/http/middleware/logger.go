package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorLocalKey holds the workflow failure behind an error response so the
// access log can record the cause without it reaching the client.
const ErrorLocalKey = "handler_error"

// Logger writes one structured access log entry per request. Server errors are
// logged at error level, client errors at warn, everything else at info.
func Logger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		fields := []zap.Field{
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
			zap.String("ip", c.IP()),
		}
		if cause, ok := c.Locals(ErrorLocalKey).(error); ok {
			fields = append(fields, zap.Error(cause))
		} else if err != nil {
			fields = append(fields, zap.Error(err))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= fiber.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= fiber.StatusBadRequest:
			level = zapcore.WarnLevel
		}
		log.Log(level, "http request", fields...)

		return err
	}
}
