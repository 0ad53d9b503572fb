package duplicates

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/services/dedup"
	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const defaultMergeLimit = 50

// Register registers duplicate routes
func Register(g *echo.Group) {
	g.GET("", listDuplicates)
	g.GET("/export", exportDuplicates)
	g.POST("/preview", previewMerge)
	g.POST("/merge", mergePair)
	g.GET("/merges", listMerges)
	g.GET("/lineage/:id", getLineage)
}

func getService(ctx context.Context) (context.Context, *dedup.Service, error) {
	ctx, service, err := ectoinject.GetContext[*dedup.Service](ctx)
	if err != nil {
		return ctx, nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return ctx, service, nil
}

// PairRequest names the clients of a manual merge
type PairRequest struct {
	PrimaryID   string `json:"primary_id" validate:"required"`
	SecondaryID string `json:"secondary_id" validate:"required,nefield=PrimaryID"`
}

// MergeRequest is a manual merge. Inherit nil keeps the default field selection.
type MergeRequest struct {
	PairRequest
	Inherit []models.FieldKey `json:"inherit"`
}

// listDuplicates runs detection and returns the ranked groups
func listDuplicates(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}

	groups, err := service.Detect(ctx, appctx.GetTenantID(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

// exportDuplicates returns the detected groups as a CSV download
func exportDuplicates(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	name, err := service.Export(ctx, appctx.GetTenantID(ctx), &buf)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, report.ContentType, buf.Bytes())
}

// previewMerge computes the smart merge fields of a chosen pair
func previewMerge(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[PairRequest](c)
	if err != nil {
		return err
	}

	preview, err := service.Preview(ctx, appctx.GetTenantID(ctx), req.PrimaryID, req.SecondaryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, preview)
}

// mergePair merges the secondary into the primary
func mergePair(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[MergeRequest](c)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"primary_id":   req.PrimaryID,
			"secondary_id": req.SecondaryID,
			"operator":     appctx.GetOperator(ctx),
		}).Info("Manual merge requested")
	}

	outcome, err := service.MergePair(ctx, appctx.GetTenantID(ctx), req.PrimaryID, req.SecondaryID, req.Inherit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, outcome)
}

// listMerges returns the merge audit log, newest first
func listMerges(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}

	limit := defaultMergeLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	merges, err := service.Merges(ctx, appctx.GetTenantID(ctx), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, merges)
}

// getLineage lists every client merged into the given one
func getLineage(c echo.Context) error {
	ctx, service, err := getService(c.Request().Context())
	if err != nil {
		return err
	}

	ids, err := service.Lineage(ctx, appctx.GetTenantID(ctx), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"client_id": c.Param("id"),
		"absorbed":  ids,
	})
}
