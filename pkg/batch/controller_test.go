package batch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/batch/mocks"
	"github.com/Ramsey-B/fern/pkg/models"
)

const tenantID = "broker-1"

type ControllerSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	relationships *mocks.MockRelationshipSource
	executor      *mocks.MockMergeExecutor
	controller    *batch.Controller
	ctx           context.Context
	now           time.Time
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.relationships = mocks.NewMockRelationshipSource(s.ctrl)
	s.executor = mocks.NewMockMergeExecutor(s.ctrl)
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	s.controller = batch.NewController(tenantID, s.relationships, s.executor, logger).
		WithClock(func() time.Time { return s.now })
	s.ctx = context.Background()
}

func (s *ControllerSuite) threeMemberGroup() models.DuplicateGroup {
	return models.DuplicateGroup{
		ID:         "a",
		Confidence: models.ConfidenceHigh,
		Score:      100,
		Clients: []models.Client{
			{ID: "a", Name: "Maria Silva", Phone: "11987654321", TaxID: "12345678900"},
			{ID: "b", Name: "Maria Silva", Phone: "11987654321", Email: "maria@example.com"},
			{ID: "c", Name: "Maria da Silva", Phone: "11987654321"},
		},
	}
}

func (s *ControllerSuite) TestThreeMemberGroupMergesPairwise() {
	s.relationships.EXPECT().
		FetchRelationships(gomock.Any(), tenantID, []string{"a", "b", "c"}).
		Return([]models.ClientRelationships{{ClientID: "a", Policies: 2}}, nil)

	state, err := s.controller.Start(s.ctx, batch.State{}, []models.DuplicateGroup{s.threeMemberGroup()})
	s.Require().NoError(err)
	s.Require().NotNil(state.Focus)
	s.Equal("a", state.Focus.Primary.ID)
	s.Equal("b", state.Focus.Secondary.ID)
	s.Equal(s.now, state.StartedAt)

	gomock.InOrder(
		s.executor.EXPECT().
			ExecuteMerge(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.MergeRequest) (*models.MergeOutcome, error) {
				s.Equal(tenantID, req.TenantID)
				s.Equal("a", req.PrimaryID)
				s.Equal([]string{"b"}, req.SecondaryIDs)
				s.Require().Len(req.Fields, 1)
				s.Equal(models.FieldEmail, req.Fields[0].Field)
				return &models.MergeOutcome{PrimaryID: "a", SecondaryIDs: []string{"b"}}, nil
			}),
		s.relationships.EXPECT().
			FetchRelationships(gomock.Any(), tenantID, []string{"a", "c"}).
			Return([]models.ClientRelationships{{ClientID: "a", Policies: 3}}, nil),
	)

	state, err = s.controller.Confirm(s.ctx, state)
	s.Require().NoError(err)
	s.Equal(batch.PhaseReviewing, state.Phase)
	s.Equal(0, state.Index)
	s.Equal(1, state.Processed)
	s.Equal("a", state.Focus.Primary.ID)
	s.Equal("c", state.Focus.Secondary.ID)
	s.Equal("maria@example.com", state.Focus.Primary.Email)

	s.executor.EXPECT().
		ExecuteMerge(gomock.Any(), gomock.Any()).
		Return(&models.MergeOutcome{PrimaryID: "a", SecondaryIDs: []string{"c"}}, nil)

	state, err = s.controller.Confirm(s.ctx, state)
	s.Require().NoError(err)
	s.Equal(batch.PhaseFinished, state.Phase)
	s.Equal(2, state.Summary().Merged)
	s.Equal(0, state.Summary().SkippedGroups)
}

func (s *ControllerSuite) TestFailureHaltsUntilRetry() {
	s.relationships.EXPECT().
		FetchRelationships(gomock.Any(), tenantID, gomock.Any()).
		Return(nil, nil)

	state, err := s.controller.Start(s.ctx, batch.State{}, []models.DuplicateGroup{s.threeMemberGroup()})
	s.Require().NoError(err)
	pair := *state.Focus

	s.executor.EXPECT().
		ExecuteMerge(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("policy transfer conflict"))

	state, err = s.controller.Confirm(s.ctx, state)
	s.Require().NoError(err)
	s.Equal(batch.PhaseErrored, state.Phase)
	s.Equal("policy transfer conflict", state.LastError)
	s.Equal(0, state.Index)
	s.Equal(pair.Primary.ID, state.Focus.Primary.ID)
	s.Equal(pair.Secondary.ID, state.Focus.Secondary.ID)

	_, err = s.controller.Skip(s.ctx, state)
	s.ErrorIs(err, batch.ErrInvalidTransition)

	gomock.InOrder(
		s.executor.EXPECT().
			ExecuteMerge(gomock.Any(), gomock.Any()).
			Return(&models.MergeOutcome{PrimaryID: pair.Primary.ID}, nil),
		s.relationships.EXPECT().
			FetchRelationships(gomock.Any(), tenantID, gomock.Len(2)).
			Return(nil, nil),
	)

	state, err = s.controller.Retry(s.ctx, state)
	s.Require().NoError(err)
	s.Equal(batch.PhaseReviewing, state.Phase)
	s.Empty(state.LastError)
	s.Equal(1, state.Processed)
}

func (s *ControllerSuite) TestFailureKeepsExecutorMessage() {
	s.relationships.EXPECT().
		FetchRelationships(gomock.Any(), tenantID, gomock.Any()).
		Return(nil, nil)

	state, err := s.controller.Start(s.ctx, batch.State{}, []models.DuplicateGroup{s.threeMemberGroup()})
	s.Require().NoError(err)

	s.executor.EXPECT().
		ExecuteMerge(gomock.Any(), gomock.Any()).
		Return(nil, httperror.NewHTTPError(http.StatusConflict, "policy transfer conflict"))

	state, err = s.controller.Confirm(s.ctx, state)
	s.Require().NoError(err)
	s.Equal(batch.PhaseErrored, state.Phase)
	s.Equal("policy transfer conflict", state.LastError)
}

func TestFailureMessage(t *testing.T) {
	wrapped := fmt.Errorf("merge: %w", httperror.NewHTTPError(http.StatusConflict, "client b no longer exists"))

	assert.Equal(t, "client b no longer exists", batch.FailureMessage(wrapped))
	assert.Equal(t, "deadlock detected", batch.FailureMessage(errors.New("deadlock detected")))
}

func (s *ControllerSuite) TestRelationshipFailureContinuesWithZeroCounts() {
	s.relationships.EXPECT().
		FetchRelationships(gomock.Any(), tenantID, gomock.Any()).
		Return(nil, errors.New("connection reset"))

	state, err := s.controller.Start(s.ctx, batch.State{}, []models.DuplicateGroup{s.threeMemberGroup()})
	s.Require().NoError(err)
	s.Equal(batch.PhaseReviewing, state.Phase)
	s.Require().NotNil(state.Focus)
	s.True(state.Focus.RelationshipsUnavailable)
	s.Equal(batch.RelationshipsUnavailableNotice, state.Notice)
	s.Equal(0, state.Focus.Relationships["a"].Total())
}

func (s *ControllerSuite) TestSkipAndExit() {
	groups := []models.DuplicateGroup{
		{ID: "g1", Clients: []models.Client{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Ana"}}},
		{ID: "g2", Clients: []models.Client{{ID: "c", Name: "Bia"}, {ID: "d", Name: "Bia"}}},
	}
	gomock.InOrder(
		s.relationships.EXPECT().FetchRelationships(gomock.Any(), tenantID, []string{"a", "b"}).Return(nil, nil),
		s.relationships.EXPECT().FetchRelationships(gomock.Any(), tenantID, []string{"c", "d"}).Return(nil, nil),
	)

	state, err := s.controller.Start(s.ctx, batch.State{}, groups)
	s.Require().NoError(err)

	state, err = s.controller.Skip(s.ctx, state)
	s.Require().NoError(err)
	s.Equal(1, state.Index)
	s.Equal("g2", state.Focus.GroupID)

	state, err = s.controller.Skip(s.ctx, state)
	s.Require().NoError(err)
	s.Equal(batch.PhaseFinished, state.Phase)
	s.Equal(2, state.Summary().SkippedGroups)

	s.Equal(batch.PhaseIdle, s.controller.Exit(s.ctx, state).Phase)
}

func (s *ControllerSuite) TestToggleSwapSelect() {
	s.relationships.EXPECT().
		FetchRelationships(gomock.Any(), tenantID, gomock.Any()).
		Return(nil, nil)

	state, err := s.controller.Start(s.ctx, batch.State{}, []models.DuplicateGroup{s.threeMemberGroup()})
	s.Require().NoError(err)

	state, err = s.controller.ToggleField(s.ctx, state, models.FieldEmail)
	s.Require().NoError(err)
	req, err := state.MergeRequest(tenantID)
	s.Require().NoError(err)
	s.Empty(req.Fields)

	state, err = s.controller.Swap(s.ctx, state)
	s.Require().NoError(err)
	s.Equal("b", state.Focus.Primary.ID)

	state, err = s.controller.SelectSecondary(s.ctx, state, "c")
	s.Require().NoError(err)
	s.Equal("c", state.Focus.Secondary.ID)

	_, err = s.controller.ToggleField(s.ctx, state, models.FieldTaxID)
	s.ErrorIs(err, batch.ErrUnknownField)
}
