package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// resolve maps an error returned by a handler to a status, message and meta
func resolve(err error) (int, string, map[string]any) {
	var httpErr *httperror.HTTPError
	if errors.As(err, &httpErr) {
		meta := httpErr.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		return httpErr.Code, httpErr.Message, meta
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		message := http.StatusText(echoErr.Code)
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		}
		return echoErr.Code, message, map[string]any{}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "request timed out", map[string]any{}
	}

	return http.StatusInternalServerError, "Internal Server Error", map[string]any{}
}

// Error renders handler errors as ErrorResponse JSON
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		code, message, meta := resolve(err)

		log := logger.WithContext(ctx).WithError(err)
		if code >= http.StatusInternalServerError {
			log.Error("Request returned a server error")
		} else {
			log.Debugf("Request returned status %d", code)
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: appctx.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
