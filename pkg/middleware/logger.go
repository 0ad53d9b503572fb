package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
)

// quietPrefixes are polled by orchestrators and scrapers and only log at debug
var quietPrefixes = []string{"/api/v1/health", "/metrics"}

func isQuiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Logger writes one access line per request, tagged with tenant and operator
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			ctx := req.Context()
			status := c.Response().Status

			entry := logger.WithContext(ctx).WithFields(map[string]any{
				"request_id":  appctx.GetRequestID(ctx),
				"tenant_id":   appctx.GetTenantID(ctx),
				"operator":    appctx.GetOperator(ctx),
				"method":      req.Method,
				"route":       c.Path(),
				"status":      status,
				"duration_ms": time.Since(started).Milliseconds(),
				"bytes":       c.Response().Size,
			})

			switch {
			case status >= http.StatusInternalServerError:
				entry.Warn("Request failed")
			case isQuiet(req.URL.Path):
				entry.Debug("Request")
			default:
				entry.Info("Request")
			}
			return nil
		}
	}
}
