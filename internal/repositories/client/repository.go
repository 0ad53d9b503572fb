package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const table = "clients"

var clientStruct = database.NewStruct(new(models.Client))

// Repository loads client records of a broker account
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new client repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func buildListQuery(tenantID string, limit int) (string, []any) {
	sb := clientStruct.SelectFrom(table).ForTenant(tenantID)
	sb.OrderBy("created_at", "id").Asc()
	if limit > 0 {
		sb.Limit(limit)
	}
	return sb.Build()
}

func buildGetManyQuery(tenantID string, ids []string) (string, []any) {
	sb := clientStruct.SelectFrom(table).ForTenant(tenantID).WhereIn("id", ids)
	sb.OrderBy("created_at", "id").Asc()
	return sb.Build()
}

// ListByTenant returns the detection snapshot, oldest clients first. A limit of 0 means no limit.
func (r *Repository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.ListByTenant")
	defer span.End()

	query, args := buildListQuery(tenantID, limit)

	clients := []models.Client{}
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list clients")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list clients")
	}
	return clients, nil
}

// GetMany returns the clients with the given ids; unknown ids are left out
func (r *Repository) GetMany(ctx context.Context, tenantID string, ids []string) ([]models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.GetMany")
	defer span.End()

	if len(ids) == 0 {
		return []models.Client{}, nil
	}

	query, args := buildGetManyQuery(tenantID, ids)

	clients := []models.Client{}
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get clients")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get clients")
	}
	return clients, nil
}

// Get returns one client
func (r *Repository) Get(ctx context.Context, tenantID, id string) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.Get")
	defer span.End()

	sb := clientStruct.SelectFrom(table)
	sb.ForTenant(tenantID).Where(sb.Equal("id", id))
	query, args := sb.Build()

	var c models.Client
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client %s not found", id))
		}
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get client")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get client")
	}
	return &c, nil
}
