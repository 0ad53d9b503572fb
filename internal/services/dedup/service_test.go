package dedup_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/Ramsey-B/fern/internal/services/dedup"
	"github.com/Ramsey-B/fern/internal/services/dedup/mocks"
	"github.com/Ramsey-B/fern/pkg/batch"
	batchmocks "github.com/Ramsey-B/fern/pkg/batch/mocks"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
)

const tenantID = "broker-1"

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	clients       *mocks.MockClientRepository
	relationships *batchmocks.MockRelationshipSource
	executor      *batchmocks.MockMergeExecutor
	emitter       *mocks.MockEventEmitter
	lineage       *mocks.MockLineageRecorder
	service       *dedup.Service
	ctx           context.Context
	now           time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.clients = mocks.NewMockClientRepository(s.ctrl)
	s.relationships = batchmocks.NewMockRelationshipSource(s.ctrl)
	s.executor = batchmocks.NewMockMergeExecutor(s.ctrl)
	s.emitter = mocks.NewMockEventEmitter(s.ctrl)
	s.lineage = mocks.NewMockLineageRecorder(s.ctrl)
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = context.Background()

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	s.service = dedup.NewService(dedup.Dependencies{
		Clients:       s.clients,
		Relationships: s.relationships,
		Executor:      s.executor,
		Emitter:       s.emitter,
		Lineage:       s.lineage,
	}, dedup.Config{
		Strategy:             matching.StrategyGreedy,
		PhoneCountryCode:     "55",
		PhoneNationalLengths: []int{10, 11},
		MaxClients:           1000,
	}, logger).WithClock(func() time.Time { return s.now })
}

func (s *ServiceSuite) duplicatePair() []models.Client {
	return []models.Client{
		{
			ID: "a", TenantID: tenantID, Name: "Maria Silva", Email: "maria@example.com",
			Phone: "+55 11 98765-4321", TaxID: "123.456.789-00",
			CreatedAt: s.now.AddDate(-3, 0, 0),
		},
		{
			ID: "b", TenantID: tenantID, Name: "Maria Silva", Email: "MARIA@example.com",
			Phone: "11987654321", City: "Campinas",
			CreatedAt: s.now.AddDate(0, -1, 0),
		},
		{ID: "c", TenantID: tenantID, Name: "João Pereira", Email: "joao@example.com", CreatedAt: s.now},
	}
}

func (s *ServiceSuite) statusOf(err error) int {
	s.Require().Error(err)
	s.Require().True(httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	return httperror.GetStatusCode(err)
}

func (s *ServiceSuite) TestDetect() {
	s.clients.EXPECT().ListByTenant(gomock.Any(), tenantID, 1000).Return(s.duplicatePair(), nil)

	groups, err := s.service.Detect(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Equal([]string{"a", "b"}, models.ClientIDs(groups[0].Clients))
	s.Equal(models.ConfidenceHigh, groups[0].Confidence)
}

func (s *ServiceSuite) TestDetect_NoDuplicatesIsEmpty() {
	s.clients.EXPECT().ListByTenant(gomock.Any(), tenantID, 1000).Return([]models.Client{}, nil)

	groups, err := s.service.Detect(s.ctx, tenantID)

	s.Require().NoError(err)
	s.NotNil(groups)
	s.Empty(groups)
}

func (s *ServiceSuite) TestDetect_RepositoryError() {
	repoErr := httperror.NewHTTPError(http.StatusInternalServerError, "failed to list clients")
	s.clients.EXPECT().ListByTenant(gomock.Any(), tenantID, 1000).Return(nil, repoErr)

	_, err := s.service.Detect(s.ctx, tenantID)

	s.Equal(http.StatusInternalServerError, s.statusOf(err))
}

func (s *ServiceSuite) TestExport() {
	s.clients.EXPECT().ListByTenant(gomock.Any(), tenantID, 1000).Return(s.duplicatePair(), nil)

	var buf bytes.Buffer
	name, err := s.service.Export(s.ctx, tenantID, &buf)

	s.Require().NoError(err)
	s.Equal("possible-duplicates-20260310-120000.csv", name)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	s.Require().Len(lines, 3)
	s.Equal("Name,Email,Phone,Tax ID,Status", lines[0])
	s.Contains(lines[1], "Possible duplicate")
}

func (s *ServiceSuite) TestPreview() {
	pair := s.duplicatePair()
	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"b", "a"}).Return(pair[:2], nil)
	s.relationships.EXPECT().FetchRelationships(gomock.Any(), tenantID, []string{"b", "a"}).
		Return([]models.ClientRelationships{{ClientID: "a", Policies: 2}, {ClientID: "b"}}, nil)

	preview, err := s.service.Preview(s.ctx, tenantID, "b", "a")

	s.Require().NoError(err)
	s.Equal("b", preview.Primary.ID)
	s.Equal("a", preview.Secondary.ID)
	s.Equal("a", preview.SuggestedPrimary)
	s.Equal(2, preview.Relationships["a"].Policies)
	s.Empty(preview.Notice)

	taxID := findField(preview.Fields, models.FieldTaxID)
	s.Require().NotNil(taxID)
	s.True(taxID.WillInherit)
}

func (s *ServiceSuite) TestPreview_RelationshipsUnavailable() {
	pair := s.duplicatePair()
	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "b"}).Return(pair[:2], nil)
	s.relationships.EXPECT().FetchRelationships(gomock.Any(), tenantID, gomock.Any()).Return(nil, errors.New("timeout"))

	preview, err := s.service.Preview(s.ctx, tenantID, "a", "b")

	s.Require().NoError(err)
	s.Equal(batch.RelationshipsUnavailableNotice, preview.Notice)
	s.Equal(models.ClientRelationships{ClientID: "b"}, preview.Relationships["b"])
}

func (s *ServiceSuite) TestPreview_MissingClient() {
	pair := s.duplicatePair()
	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "zz"}).Return(pair[:1], nil)

	_, err := s.service.Preview(s.ctx, tenantID, "a", "zz")

	s.Equal(http.StatusNotFound, s.statusOf(err))
}

func (s *ServiceSuite) TestPreview_SameClient() {
	_, err := s.service.Preview(s.ctx, tenantID, "a", "a")

	s.Equal(http.StatusBadRequest, s.statusOf(err))
}

func (s *ServiceSuite) TestMergePair_DefaultFields() {
	pair := s.duplicatePair()
	outcome := &models.MergeOutcome{ID: "m1", TenantID: tenantID, PrimaryID: "a", SecondaryIDs: []string{"b"}}

	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "b"}).Return(pair[:2], nil)
	s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.MergeRequest) (*models.MergeOutcome, error) {
			s.Equal("a", req.PrimaryID)
			s.Equal([]string{"b"}, req.SecondaryIDs)
			city := findField(req.Fields, models.FieldCity)
			s.Require().NotNil(city)
			s.True(city.WillInherit)
			email := findField(req.Fields, models.FieldEmail)
			s.Require().NotNil(email)
			s.False(email.WillInherit)
			return outcome, nil
		})
	s.emitter.EXPECT().EmitClientMerged(gomock.Any(), outcome).Return(nil)
	s.lineage.EXPECT().RecordMerge(gomock.Any(), outcome).Return(nil)

	result, err := s.service.MergePair(s.ctx, tenantID, "a", "b", nil)

	s.Require().NoError(err)
	s.Equal(outcome, result)
}

func (s *ServiceSuite) TestMergePair_ExplicitInheritance() {
	pair := s.duplicatePair()
	outcome := &models.MergeOutcome{ID: "m1"}

	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "b"}).Return(pair[:2], nil)
	s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.MergeRequest) (*models.MergeOutcome, error) {
			s.False(findField(req.Fields, models.FieldCity).WillInherit)
			s.True(findField(req.Fields, models.FieldEmail).WillInherit)
			return outcome, nil
		})
	s.emitter.EXPECT().EmitClientMerged(gomock.Any(), outcome).Return(nil)
	s.lineage.EXPECT().RecordMerge(gomock.Any(), outcome).Return(nil)

	_, err := s.service.MergePair(s.ctx, tenantID, "a", "b", []models.FieldKey{models.FieldEmail})

	s.Require().NoError(err)
}

func (s *ServiceSuite) TestMergePair_UnknownInheritedField() {
	pair := s.duplicatePair()
	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "b"}).Return(pair[:2], nil)

	_, err := s.service.MergePair(s.ctx, tenantID, "a", "b", []models.FieldKey{models.FieldNotes})

	s.Equal(http.StatusBadRequest, s.statusOf(err))
}

func (s *ServiceSuite) TestMergePair_FailureIsConflict() {
	pair := s.duplicatePair()
	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "b"}).Return(pair[:2], nil)
	s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Return(nil, errors.New("claims are locked by another process"))

	_, err := s.service.MergePair(s.ctx, tenantID, "a", "b", nil)

	s.Equal(http.StatusConflict, s.statusOf(err))
}

func (s *ServiceSuite) TestMergePair_ProjectionFailureKeepsMerge() {
	pair := s.duplicatePair()
	outcome := &models.MergeOutcome{ID: "m1"}
	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "b"}).Return(pair[:2], nil)
	s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Return(outcome, nil)
	s.emitter.EXPECT().EmitClientMerged(gomock.Any(), outcome).Return(errors.New("broker down"))
	s.lineage.EXPECT().RecordMerge(gomock.Any(), outcome).Return(errors.New("graph down"))

	result, err := s.service.MergePair(s.ctx, tenantID, "a", "b", nil)

	s.Require().NoError(err)
	s.Equal("m1", result.ID)
}

func (s *ServiceSuite) TestLineage() {
	s.lineage.EXPECT().Absorbed(gomock.Any(), tenantID, "a").Return([]string{"b", "c"}, nil)

	ids, err := s.service.Lineage(s.ctx, tenantID, "a")

	s.Require().NoError(err)
	s.Equal([]string{"b", "c"}, ids)
}

func (s *ServiceSuite) TestMerges_WithoutAuditIsEmpty() {
	merges, err := s.service.Merges(s.ctx, tenantID, 10)

	s.Require().NoError(err)
	s.Empty(merges)
}

func findField(fields []models.SmartMergeField, key models.FieldKey) *models.SmartMergeField {
	for i := range fields {
		if fields[i].Field == key {
			return &fields[i]
		}
	}
	return nil
}
