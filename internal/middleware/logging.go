package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/techpulse/marketplace/internal/logger"
)

// RequestLogger writes one structured line per request. 5xx responses log at
// error level, 4xx at warn.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			status := res.Status

			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = logger.Error(req.Context())
			case status >= 400:
				ev = logger.Warn(req.Context())
			default:
				ev = logger.Info(req.Context())
			}
			if err != nil {
				ev = ev.Err(err)
			}
			ev.Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status", status).
				Int64("bytes", res.Size).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("user_id", userID(c)).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
