package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/observability"
)

// Observability records request metrics for the versioned API and writes one log line per request.
// Websocket upgrades are counted but their latency is not observed, since it spans the connection lifetime.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), "/api/") {
			return c.Next()
		}

		upgrade := c.Get(fiber.HeaderUpgrade) != ""
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < fiber.StatusBadRequest {
				status = fiber.StatusInternalServerError
			}
		}
		code := strconv.Itoa(status)

		observability.HTTPRequests().WithLabelValues(method, route, code).Inc()
		if !upgrade {
			observability.HTTPLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		}
		if status >= fiber.StatusBadRequest {
			observability.HTTPErrors().WithLabelValues(method, route, code).Inc()
		}

		entry := logger.With().
			Str("correlation_id", GetCorrelationID(c)).
			Str("route", route).
			Str("method", method).
			Int("status", status).
			Dur("latency", elapsed).
			Str("latency_bucket", latencyBucket(elapsed))
		if userID, ok := c.Locals("user_id").(uint); ok && userID > 0 {
			entry = entry.Uint("user_id", userID)
		}
		if orgID, ok := c.Locals("organization_id").(uint); ok && orgID > 0 {
			entry = entry.Uint("organization_id", orgID)
		}
		requestLogger := entry.Logger()

		switch {
		case status >= fiber.StatusInternalServerError:
			requestLogger.Error().Err(err).Msg("request failed")
		case status >= fiber.StatusBadRequest:
			requestLogger.Warn().Msg("request rejected")
		default:
			requestLogger.Debug().Msg("request served")
		}

		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
		return r.Path
	}
	return "unmatched"
}

var latencyBounds = []struct {
	limit time.Duration
	label string
}{
	{50 * time.Millisecond, "<=50ms"},
	{200 * time.Millisecond, "<=200ms"},
	{time.Second, "<=1s"},
}

func latencyBucket(elapsed time.Duration) string {
	for _, b := range latencyBounds {
		if elapsed <= b.limit {
			return b.label
		}
	}
	return ">1s"
}
