package dedup_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"go.uber.org/mock/gomock"

	"github.com/Ramsey-B/fern/internal/services/dedup"
	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
)

func (s *ServiceSuite) startBatch() *dedup.BatchView {
	s.clients.EXPECT().ListByTenant(gomock.Any(), tenantID, 1000).Return(s.duplicatePair(), nil)
	s.relationships.EXPECT().FetchRelationships(gomock.Any(), tenantID, []string{"a", "b"}).
		Return([]models.ClientRelationships{{ClientID: "a", Policies: 1}, {ClientID: "b"}}, nil)

	view, err := s.service.StartBatch(s.ctx, tenantID)
	s.Require().NoError(err)
	return view
}

func (s *ServiceSuite) TestStartBatch_FocusesFirstPair() {
	view := s.startBatch()

	s.Equal(batch.PhaseReviewing, view.Phase)
	s.Require().NotNil(view.Focus)
	s.Equal("a", view.Focus.Primary.ID)
	s.Equal("b", view.Focus.Secondary.ID)
	s.Equal(1, view.Summary.TotalGroups)

	stored, err := s.service.GetBatch(s.ctx, tenantID)
	s.Require().NoError(err)
	s.Equal(view.Focus.Secondary.ID, stored.Focus.Secondary.ID)
}

func (s *ServiceSuite) TestStartBatch_WhileActiveIsConflict() {
	s.startBatch()

	_, err := s.service.StartBatch(s.ctx, tenantID)

	s.Equal(http.StatusConflict, s.statusOf(err))
}

func (s *ServiceSuite) TestStartBatch_NoGroupsFinishesImmediately() {
	s.clients.EXPECT().ListByTenant(gomock.Any(), tenantID, 1000).Return([]models.Client{}, nil)
	s.emitter.EXPECT().EmitBatchCompleted(gomock.Any(), tenantID, 0, 0).Return(nil)

	view, err := s.service.StartBatch(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Equal(batch.PhaseFinished, view.Phase)
}

func (s *ServiceSuite) TestGetBatch_NoSession() {
	_, err := s.service.GetBatch(s.ctx, tenantID)

	s.Equal(http.StatusNotFound, s.statusOf(err))
}

func (s *ServiceSuite) TestStep_NoSession() {
	_, err := s.service.SkipGroup(s.ctx, tenantID)

	s.Equal(http.StatusNotFound, s.statusOf(err))
}

func (s *ServiceSuite) TestConfirmMerge_FinishesBatch() {
	s.startBatch()
	outcome := &models.MergeOutcome{ID: "m1", TenantID: tenantID, PrimaryID: "a", SecondaryIDs: []string{"b"}}

	gomock.InOrder(
		s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Return(outcome, nil),
		s.emitter.EXPECT().EmitClientMerged(gomock.Any(), outcome).Return(nil),
		s.emitter.EXPECT().EmitBatchCompleted(gomock.Any(), tenantID, 1, 0).Return(nil),
	)
	s.lineage.EXPECT().RecordMerge(gomock.Any(), outcome).Return(nil)

	view, err := s.service.ConfirmMerge(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Equal(batch.PhaseFinished, view.Phase)
	s.Equal(1, view.Summary.Merged)
}

func (s *ServiceSuite) TestConfirmMerge_FailureIsState() {
	s.startBatch()
	s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Return(nil, errors.New("could not transfer claims to the primary client"))

	view, err := s.service.ConfirmMerge(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Equal(batch.PhaseErrored, view.Phase)
	s.Equal("could not transfer claims to the primary client", view.LastError)
	s.Require().NotNil(view.Focus)
	s.Equal("b", view.Focus.Secondary.ID)

	_, err = s.service.SkipGroup(s.ctx, tenantID)
	s.Equal(http.StatusConflict, s.statusOf(err))
}

func (s *ServiceSuite) TestRetryMerge_AfterFailure() {
	s.startBatch()
	outcome := &models.MergeOutcome{ID: "m1"}
	gomock.InOrder(
		s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Return(nil, errors.New("deadlock detected")),
		s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Return(outcome, nil),
	)
	s.emitter.EXPECT().EmitClientMerged(gomock.Any(), outcome).Return(nil)
	s.lineage.EXPECT().RecordMerge(gomock.Any(), outcome).Return(nil)
	s.emitter.EXPECT().EmitBatchCompleted(gomock.Any(), tenantID, 1, 0).Return(nil)

	_, err := s.service.ConfirmMerge(s.ctx, tenantID)
	s.Require().NoError(err)

	view, err := s.service.RetryMerge(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Equal(batch.PhaseFinished, view.Phase)
	s.Empty(view.LastError)
}

func (s *ServiceSuite) TestToggleAndSwap() {
	s.startBatch()

	view, err := s.service.ToggleField(s.ctx, tenantID, models.FieldCity)
	s.Require().NoError(err)
	s.False(findField(view.Focus.Fields, models.FieldCity).WillInherit)

	view, err = s.service.SwapPair(s.ctx, tenantID)
	s.Require().NoError(err)
	s.Equal("b", view.Focus.Primary.ID)
	s.True(findField(view.Focus.Fields, models.FieldTaxID).WillInherit)

	_, err = s.service.ToggleField(s.ctx, tenantID, models.FieldNotes)
	s.Equal(http.StatusBadRequest, s.statusOf(err))
}

func (s *ServiceSuite) TestSelectSecondary_NotMember() {
	s.startBatch()

	_, err := s.service.SelectSecondary(s.ctx, tenantID, "c")

	s.Equal(http.StatusBadRequest, s.statusOf(err))
}

func (s *ServiceSuite) TestSkipGroup_Finishes() {
	s.startBatch()
	s.emitter.EXPECT().EmitBatchCompleted(gomock.Any(), tenantID, 0, 1).Return(nil)

	view, err := s.service.SkipGroup(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Equal(batch.PhaseFinished, view.Phase)
	s.Equal(1, view.Summary.SkippedGroups)
}

func (s *ServiceSuite) TestExitBatch() {
	s.startBatch()

	summary, err := s.service.ExitBatch(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Equal(batch.PhaseReviewing, summary.Phase)
	s.Equal(0, summary.Merged)

	_, err = s.service.GetBatch(s.ctx, tenantID)
	s.Equal(http.StatusNotFound, s.statusOf(err))
}

func (s *ServiceSuite) TestBatch_LockHeldIsConflict() {
	locker := dedup.NewMemoryLocker()
	release, err := locker.Lock(s.ctx, "batch:"+tenantID)
	s.Require().NoError(err)
	defer release(s.ctx)

	svc := dedup.NewService(dedup.Dependencies{Clients: s.clients, Relationships: s.relationships, Executor: s.executor, Locker: locker},
		dedup.Config{}, nopLogger())

	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Millisecond)
	defer cancel()
	_, err = svc.StartBatch(ctx, tenantID)

	s.Equal(http.StatusConflict, s.statusOf(err))
}

// flakySessionStore fails the next n saves
type flakySessionStore struct {
	*dedup.MemorySessionStore
	failures int
}

func (f *flakySessionStore) Save(ctx context.Context, tenantID string, state batch.State) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("redis: connection pool timeout")
	}
	return f.MemorySessionStore.Save(ctx, tenantID, state)
}

func (s *ServiceSuite) useSessions(store dedup.SessionStore) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	s.service = dedup.NewService(dedup.Dependencies{
		Clients:       s.clients,
		Relationships: s.relationships,
		Executor:      s.executor,
		Emitter:       s.emitter,
		Lineage:       s.lineage,
		Sessions:      store,
	}, dedup.Config{
		Strategy:             matching.StrategyGreedy,
		PhoneCountryCode:     "55",
		PhoneNationalLengths: []int{10, 11},
		MaxClients:           1000,
	}, logger).WithClock(func() time.Time { return s.now })
}

func (s *ServiceSuite) expectCommittedMerge() {
	outcome := &models.MergeOutcome{ID: "m1", TenantID: tenantID, PrimaryID: "a", SecondaryIDs: []string{"b"}}
	s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Return(outcome, nil).Times(1)
	s.emitter.EXPECT().EmitClientMerged(gomock.Any(), outcome).Return(nil)
	s.lineage.EXPECT().RecordMerge(gomock.Any(), outcome).Return(nil)
	s.emitter.EXPECT().EmitBatchCompleted(gomock.Any(), tenantID, 1, 0).Return(nil)
}

func (s *ServiceSuite) TestConfirmMerge_SaveRetriedAfterCommit() {
	store := &flakySessionStore{MemorySessionStore: dedup.NewMemorySessionStore()}
	s.useSessions(store)
	s.startBatch()
	s.expectCommittedMerge()

	store.failures = 1
	view, err := s.service.ConfirmMerge(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Equal(batch.PhaseFinished, view.Phase)
	s.Empty(view.Notice)

	stored, err := s.service.GetBatch(s.ctx, tenantID)
	s.Require().NoError(err)
	s.Equal(batch.PhaseFinished, stored.Phase)
	s.Equal(1, stored.Summary.Merged)
}

func (s *ServiceSuite) TestConfirmMerge_UnsavedProgressIsNotAnError() {
	store := &flakySessionStore{MemorySessionStore: dedup.NewMemorySessionStore()}
	s.useSessions(store)
	s.startBatch()
	s.expectCommittedMerge()

	store.failures = 10
	view, err := s.service.ConfirmMerge(s.ctx, tenantID)

	s.Require().NoError(err)
	s.Equal(1, view.Summary.Merged)
	s.Equal(dedup.ProgressNotSavedNotice, view.Notice)

	summary, err := s.service.ExitBatch(s.ctx, tenantID)
	s.Require().NoError(err)
	s.NotNil(summary)
}

func (s *ServiceSuite) TestSkipGroup_SaveFailureIsServerError() {
	store := &flakySessionStore{MemorySessionStore: dedup.NewMemorySessionStore()}
	s.useSessions(store)
	s.startBatch()

	store.failures = 10
	_, err := s.service.SkipGroup(s.ctx, tenantID)

	s.Equal(http.StatusInternalServerError, s.statusOf(err))
}

func (s *ServiceSuite) TestMergePair_RefusedWhileBatchActive() {
	s.startBatch()
	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "b"}).Return(s.duplicatePair()[:2], nil)
	s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.MergePair(s.ctx, tenantID, "a", "b", nil)

	s.Equal(http.StatusConflict, s.statusOf(err))

	view, err := s.service.GetBatch(s.ctx, tenantID)
	s.Require().NoError(err)
	s.Equal(batch.PhaseReviewing, view.Phase)
}

func (s *ServiceSuite) TestMergePair_AllowedAfterBatchExit() {
	s.startBatch()
	_, err := s.service.ExitBatch(s.ctx, tenantID)
	s.Require().NoError(err)

	outcome := &models.MergeOutcome{ID: "m2"}
	s.clients.EXPECT().GetMany(gomock.Any(), tenantID, []string{"a", "b"}).Return(s.duplicatePair()[:2], nil)
	s.executor.EXPECT().ExecuteMerge(gomock.Any(), gomock.Any()).Return(outcome, nil)
	s.emitter.EXPECT().EmitClientMerged(gomock.Any(), outcome).Return(nil)
	s.lineage.EXPECT().RecordMerge(gomock.Any(), outcome).Return(nil)

	result, err := s.service.MergePair(s.ctx, tenantID, "a", "b", nil)

	s.Require().NoError(err)
	s.Equal("m2", result.ID)
}
