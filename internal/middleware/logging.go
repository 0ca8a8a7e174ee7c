package middleware

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Matipousi/UcuDB1/internal/logging"
)

// RequestContext assigns a request id (reusing X-Request-ID when the
// client sent one), echoes it in the response and attaches a logger
// carrying it to the request context.
func RequestContext(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			logger := base.With("request_id", id)
			c.SetRequest(req.WithContext(logging.ContextWithLogger(req.Context(), logger)))
			return next(c)
		}
	}
}

// AccessLog writes one structured line per request.
func AccessLog(base *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger := logging.FromContext(c.Request().Context())
			if logger == nil {
				logger = base
			}
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"remote_ip", v.RemoteIP,
			}
			if id := ParticipantID(c); id != "" {
				attrs = append(attrs, "participant_id", id)
			}
			if v.Error != nil {
				logger.Error("request", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}
