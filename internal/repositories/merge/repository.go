package merge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/lib/pq"

	fctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/merging"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	clientsTable = "clients"
	auditTable   = "client_merges"
)

// LinkedTables hold business objects that follow a client through a merge
var LinkedTables = []string{"policies", "appointments", "claims", "transactions", "deals"}

type mergeRecord struct {
	ID              string                         `db:"id"`
	TenantID        string                         `db:"tenant_id"`
	PrimaryID       string                         `db:"primary_id"`
	SecondaryIDs    pq.StringArray                 `db:"secondary_ids"`
	InheritedFields pq.StringArray                 `db:"inherited_fields"`
	Transferred     database.JSONB[map[string]int] `db:"transferred"`
	Operator        string                         `db:"operator"`
	MergedAt        time.Time                      `db:"merged_at"`
}

func (r mergeRecord) toModel() models.MergeOutcome {
	return models.MergeOutcome{
		ID:           r.ID,
		TenantID:     r.TenantID,
		PrimaryID:    r.PrimaryID,
		SecondaryIDs: []string(r.SecondaryIDs),
		Transferred:  r.Transferred.Data,
		InheritedFields: ectolinq.Map([]string(r.InheritedFields), func(f string) models.FieldKey {
			return models.FieldKey(f)
		}),
		Operator: r.Operator,
		MergedAt: r.MergedAt,
	}
}

// Repository executes merges against the client base and keeps the audit log
type Repository struct {
	db     database.DB
	logger ectologger.Logger
	now    func() time.Time
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func validateRequest(req models.MergeRequest) error {
	if req.TenantID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "tenant is required")
	}
	if req.PrimaryID == "" || len(req.SecondaryIDs) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "a primary and at least one secondary client are required")
	}
	if ectolinq.Contains(req.SecondaryIDs, req.PrimaryID) {
		return httperror.NewHTTPError(http.StatusBadRequest, "a client cannot be merged into itself")
	}
	for _, f := range req.Fields {
		if f.WillInherit && !merging.IsMergeableField(f.Field) {
			return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("field %s cannot be inherited", f.Field))
		}
	}
	return nil
}

// ExecuteMerge moves every linked record of the secondaries to the primary, applies the
// inherited fields, deletes the secondaries and writes the audit row in one transaction.
func (r *Repository) ExecuteMerge(ctx context.Context, req models.MergeRequest) (result *models.MergeOutcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "merge.Repository.ExecuteMerge")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":     req.TenantID,
		"primary_id":    req.PrimaryID,
		"secondary_ids": req.SecondaryIDs,
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start merge")
	}
	defer func() {
		if err != nil {
			tracing.RecordError(span, err)
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.WithError(rbErr).Error("Failed to roll back merge")
			}
		}
	}()

	if err = r.ensureClientsExist(ctx, tx, req); err != nil {
		return nil, err
	}

	transferred := make(map[string]int, len(LinkedTables))
	for _, table := range LinkedTables {
		query, args := buildTransferQuery(table, req.TenantID, req.PrimaryID, req.SecondaryIDs)
		res, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			log.WithError(execErr).Errorf("Failed to transfer %s", table)
			err = httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("could not transfer %s to the primary client", table))
			return nil, err
		}
		affected, _ := res.RowsAffected()
		transferred[table] = int(affected)
	}

	inherited := merging.NewFieldMerger().InheritedFields(req.Fields)
	now := r.now().UTC()
	if len(inherited) > 0 {
		query, args, buildErr := buildPrimaryUpdate(req.TenantID, req.PrimaryID, inherited, now)
		if buildErr != nil {
			err = httperror.NewHTTPError(http.StatusBadRequest, buildErr.Error())
			return nil, err
		}
		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.WithError(execErr).Error("Failed to update primary client")
			err = httperror.NewHTTPError(http.StatusConflict, "could not update the primary client")
			return nil, err
		}
	}

	query, args := buildDeleteQuery(req.TenantID, req.SecondaryIDs)
	if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
		log.WithError(execErr).Error("Failed to delete secondary clients")
		err = httperror.NewHTTPError(http.StatusConflict, "could not remove the duplicate clients")
		return nil, err
	}

	outcome := &models.MergeOutcome{
		ID:           uuid.NewString(),
		TenantID:     req.TenantID,
		PrimaryID:    req.PrimaryID,
		SecondaryIDs: append([]string(nil), req.SecondaryIDs...),
		Transferred:  transferred,
		InheritedFields: ectolinq.Map(inherited, func(f models.SmartMergeField) models.FieldKey {
			return f.Field
		}),
		Operator: fctx.GetOperator(ctx),
		MergedAt: now,
	}

	query, args = buildAuditInsert(outcome)
	if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
		log.WithError(execErr).Error("Failed to write merge audit")
		err = httperror.NewHTTPError(http.StatusInternalServerError, "could not record the merge")
		return nil, err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		err = httperror.NewHTTPError(http.StatusInternalServerError, "could not commit the merge")
		return nil, err
	}

	log.WithFields(map[string]any{"transferred": transferred}).Info("Merged clients")
	return outcome, nil
}

func (r *Repository) ensureClientsExist(ctx context.Context, q database.Querier, req models.MergeRequest) error {
	ids := append([]string{req.PrimaryID}, req.SecondaryIDs...)

	sb := database.NewSelectBuilder()
	sb.Select("id").From(clientsTable)
	sb.ForTenant(req.TenantID).WhereIn("id", ids)
	sb.ForUpdate()
	query, args := sb.Build()

	found := []string{}
	if err := q.SelectContext(ctx, &found, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to lock merge clients")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to load the clients to merge")
	}

	if missing := missingIDs(ids, found); len(missing) > 0 {
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("client %s no longer exists", missing[0]))
	}
	return nil
}

func missingIDs(wanted, found []string) []string {
	return ectolinq.Filter(wanted, func(id string) bool {
		return !ectolinq.Contains(found, id)
	})
}

func buildTransferQuery(table, tenantID, primaryID string, secondaryIDs []string) (string, []any) {
	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(ub.Assign("client_id", primaryID))
	ub.ForTenant(tenantID).WhereIn("client_id", secondaryIDs)
	return ub.Build()
}

// buildPrimaryUpdate writes the inherited values; columns share the field key names
func buildPrimaryUpdate(tenantID, primaryID string, fields []models.SmartMergeField, now time.Time) (string, []any, error) {
	ub := database.NewUpdateBuilder()
	ub.Update(clientsTable)

	assignments := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if !merging.IsMergeableField(f.Field) {
			return "", nil, fmt.Errorf("field %s cannot be inherited", f.Field)
		}
		var value any = f.SecondaryValue
		if f.Field == models.FieldBirthDate {
			date, err := time.Parse(models.BirthDateLayout, f.SecondaryValue)
			if err != nil {
				return "", nil, fmt.Errorf("invalid birth date %q", f.SecondaryValue)
			}
			value = date
		}
		assignments = append(assignments, ub.Assign(string(f.Field), value))
	}
	assignments = append(assignments, ub.Assign("updated_at", now))

	ub.Set(assignments...)
	ub.ForTenant(tenantID).Where(ub.Equal("id", primaryID))
	query, args := ub.Build()
	return query, args, nil
}

func buildDeleteQuery(tenantID string, ids []string) (string, []any) {
	db := database.NewDeleteBuilder()
	db.DeleteFrom(clientsTable)
	db.ForTenant(tenantID).WhereIn("id", ids)
	return db.Build()
}

func buildAuditInsert(outcome *models.MergeOutcome) (string, []any) {
	inherited := ectolinq.Map(outcome.InheritedFields, func(f models.FieldKey) string {
		return string(f)
	})

	ib := database.NewInsertBuilder()
	ib.InsertInto(auditTable)
	ib.Cols("id", "tenant_id", "primary_id", "secondary_ids", "inherited_fields", "transferred", "operator", "merged_at")
	ib.Values(
		outcome.ID,
		outcome.TenantID,
		outcome.PrimaryID,
		pq.Array(outcome.SecondaryIDs),
		pq.Array(inherited),
		database.NewJSONB(outcome.Transferred),
		outcome.Operator,
		outcome.MergedAt,
	)
	return ib.Build()
}

// ListMerges returns the audit log of a broker, newest first
func (r *Repository) ListMerges(ctx context.Context, tenantID string, limit int) ([]models.MergeOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "merge.Repository.ListMerges")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "tenant_id", "primary_id", "secondary_ids", "inherited_fields", "transferred", "operator", "merged_at")
	sb.From(auditTable)
	sb.ForTenant(tenantID)
	sb.OrderBy("merged_at").Desc()
	if limit > 0 {
		sb.Limit(limit)
	}
	query, args := sb.Build()

	records := []mergeRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list merges")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list merges")
	}

	return ectolinq.Map(records, func(rec mergeRecord) models.MergeOutcome {
		return rec.toModel()
	}), nil
}
