package relationship

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Kinds counted for the merge review, by table
const (
	TablePolicies     = "policies"
	TableAppointments = "appointments"
	TableClaims       = "claims"
)

type countRow struct {
	ClientID string `db:"client_id"`
	Count    int    `db:"n"`
}

// Repository counts business objects linked to clients
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func buildCountQuery(table, tenantID string, clientIDs []string) (string, []any) {
	sb := database.NewSelectBuilder()
	sb.Select("client_id", "COUNT(*) AS n").From(table)
	sb.ForTenant(tenantID).WhereIn("client_id", clientIDs)
	sb.GroupBy("client_id")
	return sb.Build()
}

// FetchRelationships returns one entry per requested id, in request order. Ids without
// linked objects get zero counts.
func (r *Repository) FetchRelationships(ctx context.Context, tenantID string, clientIDs []string) ([]models.ClientRelationships, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.FetchRelationships")
	defer span.End()

	if len(clientIDs) == 0 {
		return []models.ClientRelationships{}, nil
	}

	counts := map[string]map[string]int{}
	for _, table := range []string{TablePolicies, TableAppointments, TableClaims} {
		query, args := buildCountQuery(table, tenantID, clientIDs)

		rows := []countRow{}
		if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
			tracing.RecordError(span, err)
			r.logger.WithContext(ctx).WithError(err).Errorf("Failed to count %s", table)
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load client relationships")
		}
		counts[table] = map[string]int{}
		for _, row := range rows {
			counts[table][row.ClientID] = row.Count
		}
	}

	return assemble(clientIDs, counts), nil
}

func assemble(clientIDs []string, counts map[string]map[string]int) []models.ClientRelationships {
	out := make([]models.ClientRelationships, len(clientIDs))
	for i, id := range clientIDs {
		out[i] = models.ClientRelationships{
			ClientID:     id,
			Policies:     counts[TablePolicies][id],
			Appointments: counts[TableAppointments][id],
			Claims:       counts[TableClaims][id],
		}
	}
	return out
}
