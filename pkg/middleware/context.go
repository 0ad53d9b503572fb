package middleware

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
)

const (
	// HeaderTenantID carries the broker account every request acts on
	HeaderTenantID = "X-Tenant-ID"
	// HeaderOperator names who is driving a merge
	HeaderOperator = "X-Operator"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = appctx.SetRequestID(ctx, requestID)
			ctx = appctx.SetRoute(ctx, req.URL.Path)
			ctx = appctx.SetTenantID(ctx, req.Header.Get(HeaderTenantID))
			ctx = appctx.SetOperator(ctx, req.Header.Get(HeaderOperator))

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// RequireTenant rejects requests without a broker account
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if appctx.GetTenantID(c.Request().Context()) == "" {
				return httperror.NewHTTPError(http.StatusBadRequest, HeaderTenantID+" header is required")
			}
			return next(c)
		}
	}
}
