// Package dedup serves duplicate detection, manual merges and batch reviews for broker accounts
package dedup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/merging"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Config tunes detection
type Config struct {
	Strategy             matching.Strategy
	PhoneCountryCode     string
	PhoneNationalLengths []int
	MaxClients           int
}

// Dependencies are the collaborators of the service. Emitter, Lineage and Audit are
// optional.
type Dependencies struct {
	Clients       ClientRepository
	Relationships batch.RelationshipSource
	Executor      batch.MergeExecutor
	Audit         AuditRepository
	Emitter       EventEmitter
	Lineage       LineageRecorder
	Sessions      SessionStore
	Locker        Locker
}

// Service is the entry point of the HTTP routes
type Service struct {
	clients       ClientRepository
	relationships batch.RelationshipSource
	manual        batch.MergeExecutor
	batched       batch.MergeExecutor
	audit         AuditRepository
	emitter       EventEmitter
	lineage       LineageRecorder
	sessions      SessionStore
	locker        Locker
	detector      *matching.Detector
	merger        *merging.FieldMerger
	maxClients    int
	logger        ectologger.Logger
	now           func() time.Time
}

func NewService(deps Dependencies, cfg Config, logger ectologger.Logger) *Service {
	countryCode := cfg.PhoneCountryCode
	lengths := cfg.PhoneNationalLengths
	scorer := matching.NewSimilarityScorer().WithPhoneNormalizer(func(s string) string {
		return normalizers.NormalizePhoneWith(s, countryCode, lengths...)
	})

	sessions := deps.Sessions
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	locker := deps.Locker
	if locker == nil {
		locker = NewMemoryLocker()
	}

	return &Service{
		clients:       deps.Clients,
		relationships: countingRelationships{next: deps.Relationships},
		manual:        newProjectingExecutor(deps.Executor, ModeManual, deps.Emitter, deps.Lineage, logger),
		batched:       newProjectingExecutor(deps.Executor, ModeBatch, deps.Emitter, deps.Lineage, logger),
		audit:         deps.Audit,
		emitter:       deps.Emitter,
		lineage:       deps.Lineage,
		sessions:      sessions,
		locker:        locker,
		detector:      matching.NewDetector(scorer, cfg.Strategy),
		merger:        merging.NewFieldMerger(),
		maxClients:    cfg.MaxClients,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for client age and batch timestamps
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Detect loads the client base and returns the ranked duplicate groups
func (s *Service) Detect(ctx context.Context, tenantID string) ([]models.DuplicateGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service.Detect")
	defer span.End()

	clients, err := s.clients.ListByTenant(ctx, tenantID, s.maxClients)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if s.maxClients > 0 && len(clients) >= s.maxClients {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"tenant_id": tenantID,
			"limit":     s.maxClients,
		}).Warn("client base truncated for detection")
	}

	start := time.Now()
	groups := s.detector.Detect(clients)
	if groups == nil {
		groups = []models.DuplicateGroup{}
	}
	metrics.RecordDetection(string(s.detector.Strategy()), time.Since(start).Seconds(), groups)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"clients":   len(clients),
		"groups":    len(groups),
		"strategy":  s.detector.Strategy(),
	}).Info("duplicate detection finished")

	return groups, nil
}

// Export writes the detected groups as CSV and returns the suggested file name
func (s *Service) Export(ctx context.Context, tenantID string, w io.Writer) (string, error) {
	groups, err := s.Detect(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if err := report.WriteCSV(w, groups); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to write duplicate report")
		return "", httperror.NewHTTPError(http.StatusInternalServerError, "failed to write report")
	}
	return report.Filename(s.now()), nil
}

// PairPreview is the manual merge view of an operator-chosen pair
type PairPreview struct {
	Primary          models.Client                         `json:"primary"`
	Secondary        models.Client                         `json:"secondary"`
	Fields           []models.SmartMergeField              `json:"fields"`
	Relationships    map[string]models.ClientRelationships `json:"relationships"`
	SuggestedPrimary string                                `json:"suggested_primary_id"`
	Notice           string                                `json:"notice,omitempty"`
}

func (s *Service) loadPair(ctx context.Context, tenantID, primaryID, secondaryID string) (models.Client, models.Client, error) {
	if primaryID == secondaryID {
		return models.Client{}, models.Client{}, httperror.NewHTTPError(http.StatusBadRequest, "primary and secondary must be different clients")
	}

	clients, err := s.clients.GetMany(ctx, tenantID, []string{primaryID, secondaryID})
	if err != nil {
		return models.Client{}, models.Client{}, err
	}

	primary, ok := findClient(clients, primaryID)
	if !ok {
		return models.Client{}, models.Client{}, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client %s not found", primaryID))
	}
	secondary, ok := findClient(clients, secondaryID)
	if !ok {
		return models.Client{}, models.Client{}, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client %s not found", secondaryID))
	}
	return primary, secondary, nil
}

func findClient(clients []models.Client, id string) (models.Client, bool) {
	for _, c := range clients {
		if c.ID == id {
			return c, true
		}
	}
	return models.Client{}, false
}

// Preview computes the smart merge fields for the pair exactly as chosen, along with the
// relationship counts and the primary the heuristic would have picked
func (s *Service) Preview(ctx context.Context, tenantID, primaryID, secondaryID string) (*PairPreview, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service.Preview")
	defer span.End()

	primary, secondary, err := s.loadPair(ctx, tenantID, primaryID, secondaryID)
	if err != nil {
		return nil, err
	}

	preview := &PairPreview{
		Primary:       primary,
		Secondary:     secondary,
		Fields:        s.merger.ComputeFields(primary, secondary),
		Relationships: map[string]models.ClientRelationships{},
	}

	rels, err := s.relationships.FetchRelationships(ctx, tenantID, []string{primaryID, secondaryID})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to load relationship counts for preview")
		preview.Notice = batch.RelationshipsUnavailableNotice
		rels = nil
	}
	for _, id := range []string{primaryID, secondaryID} {
		preview.Relationships[id] = models.ClientRelationships{ClientID: id}
	}
	for _, r := range rels {
		preview.Relationships[r.ClientID] = r
	}

	suggested, _ := merging.SelectPrimary([]models.Client{primary, secondary}, preview.Relationships, s.now())
	preview.SuggestedPrimary = suggested.ID

	return preview, nil
}

// MergePair merges secondary into primary outside a batch. Inherit lists the fields to
// take from the secondary; nil keeps the default selection. It shares the batch lock and
// is refused while a batch review is active.
func (s *Service) MergePair(ctx context.Context, tenantID, primaryID, secondaryID string, inherit []models.FieldKey) (*models.MergeOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service.MergePair")
	defer span.End()

	primary, secondary, err := s.loadPair(ctx, tenantID, primaryID, secondaryID)
	if err != nil {
		return nil, err
	}

	fields := s.merger.ComputeFields(primary, secondary)
	if inherit != nil {
		fields, err = selectInherited(fields, inherit)
		if err != nil {
			return nil, err
		}
	}

	var outcome *models.MergeOutcome
	_, err = s.locked(ctx, tenantID, func(ctx context.Context) (*BatchView, error) {
		session, err := s.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if session != nil && session.Active() {
			return nil, httperror.NewHTTPError(http.StatusConflict, "a batch review is in progress; finish or exit it before merging manually")
		}

		outcome, err = s.manual.ExecuteMerge(ctx, models.MergeRequest{
			TenantID:     tenantID,
			PrimaryID:    primaryID,
			SecondaryIDs: []string{secondaryID},
			Fields:       fields,
		})
		return nil, err
	})
	if err != nil {
		tracing.RecordError(span, err)
		if httperror.IsHTTPError(err) {
			return nil, err
		}
		return nil, httperror.WrapError(http.StatusConflict, err)
	}
	return outcome, nil
}

func selectInherited(fields []models.SmartMergeField, inherit []models.FieldKey) ([]models.SmartMergeField, error) {
	offered := ectolinq.Map(fields, func(f models.SmartMergeField) models.FieldKey { return f.Field })
	for _, key := range inherit {
		if !ectolinq.Contains(offered, key) {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("field %s has no value to inherit", key))
		}
	}
	out := make([]models.SmartMergeField, len(fields))
	for i, f := range fields {
		f.WillInherit = ectolinq.Contains(inherit, f.Field)
		out[i] = f
	}
	return out, nil
}

// Merges lists the merge audit log
func (s *Service) Merges(ctx context.Context, tenantID string, limit int) ([]models.MergeOutcome, error) {
	if s.audit == nil {
		return []models.MergeOutcome{}, nil
	}
	return s.audit.ListMerges(ctx, tenantID, limit)
}

// Lineage returns every client absorbed into clientID
func (s *Service) Lineage(ctx context.Context, tenantID, clientID string) ([]string, error) {
	if s.lineage == nil {
		return nil, httperror.NewHTTPError(http.StatusNotImplemented, "merge lineage is not enabled")
	}
	ids, err := s.lineage.Absorbed(ctx, tenantID, clientID)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "failed to load merge lineage")
	}
	return ids, nil
}
