package batch

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/services/dedup"
	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Register registers batch review routes
func Register(g *echo.Group) {
	g.POST("", startBatch)
	g.GET("", getBatch)
	g.DELETE("", exitBatch)
	g.POST("/skip", skipGroup)
	g.POST("/fields/:field/toggle", toggleField)
	g.POST("/swap", swapPair)
	g.POST("/secondary/:id", selectSecondary)
	g.POST("/confirm", confirmMerge)
	g.POST("/retry", retryMerge)
}

func getService(ctx context.Context) (context.Context, *dedup.Service, error) {
	ctx, service, err := ectoinject.GetContext[*dedup.Service](ctx)
	if err != nil {
		return ctx, nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return ctx, service, nil
}

func respond(c echo.Context, view *dedup.BatchView, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// startBatch detects duplicates and opens a batch review over every group
func startBatch(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	view, err := service.StartBatch(ctx, appctx.GetTenantID(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// getBatch returns the current batch review
func getBatch(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	view, err := service.GetBatch(ctx, appctx.GetTenantID(ctx))
	return respond(c, view, err)
}

// skipGroup leaves the current group unmerged
func skipGroup(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	view, err := service.SkipGroup(ctx, appctx.GetTenantID(ctx))
	return respond(c, view, err)
}

// toggleField flips the inheritance of one field
func toggleField(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	view, err := service.ToggleField(ctx, appctx.GetTenantID(ctx), models.FieldKey(c.Param("field")))
	return respond(c, view, err)
}

// swapPair exchanges primary and secondary
func swapPair(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	view, err := service.SwapPair(ctx, appctx.GetTenantID(ctx))
	return respond(c, view, err)
}

// selectSecondary focuses another member of the group as the secondary
func selectSecondary(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	view, err := service.SelectSecondary(ctx, appctx.GetTenantID(ctx), c.Param("id"))
	return respond(c, view, err)
}

// confirmMerge merges the focused pair. A failed merge comes back as the errored phase.
func confirmMerge(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	view, err := service.ConfirmMerge(ctx, appctx.GetTenantID(ctx))
	return respond(c, view, err)
}

// retryMerge re-submits the failed merge
func retryMerge(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	view, err := service.RetryMerge(ctx, appctx.GetTenantID(ctx))
	return respond(c, view, err)
}

// exitBatch discards the batch review and returns its totals
func exitBatch(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}
	summary, err := service.ExitBatch(ctx, appctx.GetTenantID(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
