package dedup

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// BatchView is the batch state returned to the operator
type BatchView struct {
	batch.State
	Summary batch.Summary `json:"summary"`
}

func newBatchView(state batch.State) *BatchView {
	return &BatchView{State: state, Summary: state.Summary()}
}

type batchStep func(ctx context.Context, controller *batch.Controller, state batch.State) (batch.State, error)

func (s *Service) controller(tenantID string) *batch.Controller {
	return batch.NewController(tenantID, s.relationships, s.batched, s.logger).WithClock(s.now)
}

func lockKey(tenantID string) string {
	return "batch:" + tenantID
}

func transitionError(err error) error {
	switch {
	case errors.Is(err, batch.ErrUnknownField), errors.Is(err, batch.ErrNotGroupMember):
		return httperror.WrapError(http.StatusBadRequest, err)
	case errors.Is(err, batch.ErrInvalidTransition):
		return httperror.WrapError(http.StatusConflict, err)
	default:
		return err
	}
}

// locked runs fn while holding the broker's batch lock
func (s *Service) locked(ctx context.Context, tenantID string, fn func(ctx context.Context) (*BatchView, error)) (*BatchView, error) {
	release, err := s.locker.Lock(ctx, lockKey(tenantID))
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Warn("batch lock not acquired")
		return nil, httperror.NewHTTPError(http.StatusConflict, "another batch operation is in progress, try again")
	}
	defer release(context.WithoutCancel(ctx))

	return fn(ctx)
}

func (s *Service) load(ctx context.Context, tenantID string) (*batch.State, error) {
	state, err := s.sessions.Load(ctx, tenantID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to load batch session")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load batch review")
	}
	return state, nil
}

const saveAttempts = 3

// ProgressNotSavedNotice is shown when a merge committed but the review could not be stored
const ProgressNotSavedNotice = "the merge was committed but review progress could not be saved; exit and start a new batch review to continue"

func (s *Service) save(ctx context.Context, tenantID string, state batch.State) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = s.sessions.Save(ctx, tenantID, state); err == nil {
			return nil
		}
		s.logger.WithContext(ctx).WithError(err).WithField("attempt", attempt).Warn("Failed to save batch session")
		if attempt == saveAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(attempt) * 20 * time.Millisecond):
		}
	}
	return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save batch review")
}

// step applies one controller operation to the stored session
func (s *Service) step(ctx context.Context, tenantID, name string, fn batchStep) (*BatchView, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service."+name)
	defer span.End()

	return s.locked(ctx, tenantID, func(ctx context.Context) (*BatchView, error) {
		state, err := s.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if state == nil || state.Phase == batch.PhaseIdle {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "no batch review in progress")
		}

		next, err := fn(ctx, s.controller(tenantID), *state)
		if err != nil {
			return nil, transitionError(err)
		}
		if err := s.save(ctx, tenantID, next); err != nil {
			if next.Processed == state.Processed {
				return nil, err
			}
			// the merge is already committed, so the operator still gets the new state
			next.Notice = ProgressNotSavedNotice
		}
		if state.Phase != batch.PhaseFinished && next.Phase == batch.PhaseFinished {
			s.completed(ctx, tenantID, next)
		}
		return newBatchView(next), nil
	})
}

func (s *Service) completed(ctx context.Context, tenantID string, state batch.State) {
	metrics.BatchSessionsTotal.WithLabelValues("finished").Inc()
	if s.emitter == nil {
		return
	}
	summary := state.Summary()
	if err := s.emitter.EmitBatchCompleted(ctx, tenantID, summary.Merged, summary.SkippedGroups); err != nil {
		metrics.ProjectionFailures.WithLabelValues("event").Inc()
		s.logger.WithContext(ctx).WithError(err).Warn("batch.completed event was not published")
	}
}

// StartBatch runs detection and opens a batch review over every group found. A finished
// batch is replaced; an active one is a conflict.
func (s *Service) StartBatch(ctx context.Context, tenantID string) (*BatchView, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service.StartBatch")
	defer span.End()

	return s.locked(ctx, tenantID, func(ctx context.Context) (*BatchView, error) {
		existing, err := s.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		current := batch.State{Phase: batch.PhaseIdle}
		if existing != nil {
			current = *existing
		}
		if current.Active() {
			return nil, httperror.NewHTTPError(http.StatusConflict, "a batch review is already in progress")
		}

		groups, err := s.Detect(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		next, err := s.controller(tenantID).Start(ctx, current, groups)
		if err != nil {
			return nil, transitionError(err)
		}
		if err := s.save(ctx, tenantID, next); err != nil {
			return nil, err
		}
		metrics.BatchSessionsTotal.WithLabelValues("started").Inc()
		if next.Phase == batch.PhaseFinished {
			s.completed(ctx, tenantID, next)
		}
		return newBatchView(next), nil
	})
}

// GetBatch returns the stored batch review
func (s *Service) GetBatch(ctx context.Context, tenantID string) (*BatchView, error) {
	state, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Phase == batch.PhaseIdle {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "no batch review in progress")
	}
	return newBatchView(*state), nil
}

func (s *Service) SkipGroup(ctx context.Context, tenantID string) (*BatchView, error) {
	return s.step(ctx, tenantID, "SkipGroup", func(ctx context.Context, c *batch.Controller, st batch.State) (batch.State, error) {
		return c.Skip(ctx, st)
	})
}

func (s *Service) ToggleField(ctx context.Context, tenantID string, field models.FieldKey) (*BatchView, error) {
	return s.step(ctx, tenantID, "ToggleField", func(ctx context.Context, c *batch.Controller, st batch.State) (batch.State, error) {
		return c.ToggleField(ctx, st, field)
	})
}

func (s *Service) SwapPair(ctx context.Context, tenantID string) (*BatchView, error) {
	return s.step(ctx, tenantID, "SwapPair", func(ctx context.Context, c *batch.Controller, st batch.State) (batch.State, error) {
		return c.Swap(ctx, st)
	})
}

func (s *Service) SelectSecondary(ctx context.Context, tenantID, clientID string) (*BatchView, error) {
	return s.step(ctx, tenantID, "SelectSecondary", func(ctx context.Context, c *batch.Controller, st batch.State) (batch.State, error) {
		return c.SelectSecondary(ctx, st, clientID)
	})
}

// ConfirmMerge merges the focused pair. A failed merge is reported through the Errored
// phase, not as an error.
func (s *Service) ConfirmMerge(ctx context.Context, tenantID string) (*BatchView, error) {
	return s.step(ctx, tenantID, "ConfirmMerge", func(ctx context.Context, c *batch.Controller, st batch.State) (batch.State, error) {
		return c.Confirm(ctx, st)
	})
}

func (s *Service) RetryMerge(ctx context.Context, tenantID string) (*BatchView, error) {
	return s.step(ctx, tenantID, "RetryMerge", func(ctx context.Context, c *batch.Controller, st batch.State) (batch.State, error) {
		return c.Retry(ctx, st)
	})
}

// ExitBatch discards the batch review and returns its final totals. Committed merges stay.
func (s *Service) ExitBatch(ctx context.Context, tenantID string) (*batch.Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service.ExitBatch")
	defer span.End()

	var summary batch.Summary
	_, err := s.locked(ctx, tenantID, func(ctx context.Context) (*BatchView, error) {
		state, err := s.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if state == nil {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "no batch review in progress")
		}

		summary = state.Summary()
		if state.Active() {
			metrics.BatchSessionsTotal.WithLabelValues("exited").Inc()
		}
		s.controller(tenantID).Exit(ctx, *state)

		if err := s.sessions.Delete(ctx, tenantID); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to delete batch session")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to close batch review")
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
