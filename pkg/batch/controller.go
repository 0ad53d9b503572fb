package batch

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

//go:generate mockgen -source=controller.go -destination=mocks/mocks.go -package=mocks

// RelationshipSource counts the business records linked to clients
type RelationshipSource interface {
	FetchRelationships(ctx context.Context, tenantID string, clientIDs []string) ([]models.ClientRelationships, error)
}

// MergeExecutor commits a merge atomically. The error text is shown to the operator.
type MergeExecutor interface {
	ExecuteMerge(ctx context.Context, req models.MergeRequest) (*models.MergeOutcome, error)
}

// Controller drives the batch state machine for one broker account. Calls must not
// overlap; the caller serializes them.
type Controller struct {
	tenantID      string
	relationships RelationshipSource
	executor      MergeExecutor
	logger        ectologger.Logger
	now           func() time.Time
}

func NewController(tenantID string, relationships RelationshipSource, executor MergeExecutor, logger ectologger.Logger) *Controller {
	return &Controller{
		tenantID:      tenantID,
		relationships: relationships,
		executor:      executor,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for start times and client age
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// Start snapshots the groups and focuses the first pair
func (c *Controller) Start(ctx context.Context, state State, groups []models.DuplicateGroup) (State, error) {
	next, err := Reduce(state, Start{Groups: groups, At: c.now()})
	if err != nil {
		return state, err
	}
	c.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": c.tenantID,
		"groups":    len(groups),
	}).Info("batch review started")
	return c.settle(ctx, next), nil
}

// Skip leaves the current group and focuses the next one
func (c *Controller) Skip(ctx context.Context, state State) (State, error) {
	return c.apply(ctx, state, Skip{})
}

// ToggleField flips the inheritance of one field of the focused pair
func (c *Controller) ToggleField(ctx context.Context, state State, field models.FieldKey) (State, error) {
	return c.apply(ctx, state, ToggleField{Field: field})
}

// Swap exchanges primary and secondary of the focused pair
func (c *Controller) Swap(ctx context.Context, state State) (State, error) {
	return c.apply(ctx, state, Swap{})
}

// SelectSecondary focuses another member of the current group as the secondary
func (c *Controller) SelectSecondary(ctx context.Context, state State, clientID string) (State, error) {
	return c.apply(ctx, state, SelectSecondary{ClientID: clientID})
}

// Confirm merges the focused pair
func (c *Controller) Confirm(ctx context.Context, state State) (State, error) {
	next, err := Reduce(state, Confirm{})
	if err != nil {
		return state, err
	}
	return c.merge(ctx, next), nil
}

// Retry re-submits the pair that failed to merge
func (c *Controller) Retry(ctx context.Context, state State) (State, error) {
	next, err := Reduce(state, Retry{})
	if err != nil {
		return state, err
	}
	return c.merge(ctx, next), nil
}

// Exit discards the batch. Merges already committed stay committed.
func (c *Controller) Exit(ctx context.Context, state State) State {
	summary := state.Summary()
	next, _ := Reduce(state, Exit{})
	c.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": c.tenantID,
		"merged":    summary.Merged,
		"skipped":   summary.SkippedGroups,
	}).Info("batch review exited")
	return next
}

func (c *Controller) apply(ctx context.Context, state State, event Event) (State, error) {
	next, err := Reduce(state, event)
	if err != nil {
		return state, err
	}
	return c.settle(ctx, next), nil
}

func (c *Controller) merge(ctx context.Context, state State) State {
	ctx, span := tracing.StartSpan(ctx, "batch.Controller.merge")
	defer span.End()

	req, err := state.MergeRequest(c.tenantID)
	if err != nil {
		next, _ := Reduce(state, MergeFailed{Message: FailureMessage(err)})
		return next
	}

	logger := c.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":    c.tenantID,
		"primary_id":   req.PrimaryID,
		"secondary_id": req.SecondaryIDs[0],
	})

	outcome, err := c.executor.ExecuteMerge(ctx, req)
	if err != nil {
		tracing.RecordError(span, err)
		logger.WithError(err).Warn("batch merge failed")
		next, _ := Reduce(state, MergeFailed{Message: FailureMessage(err)})
		return next
	}

	logger.Info("batch merge committed")
	next, _ := Reduce(state, MergeSucceeded{Outcome: outcome})
	return c.settle(ctx, next)
}

// FailureMessage is the text shown to the operator for a failed merge: the executor's
// own message when it returns an HTTP error, the error text otherwise
func FailureMessage(err error) string {
	var httpErr *httperror.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}

// settle loads relationship counts until the state has a pair in focus or the walk ended
func (c *Controller) settle(ctx context.Context, state State) State {
	if state.Phase == PhaseFinished {
		c.logFinished(ctx, state)
		return state
	}
	if !state.NeedsRelationships() {
		return state
	}

	ctx, span := tracing.StartSpan(ctx, "batch.Controller.settle")
	defer span.End()

	group, _ := state.CurrentGroup()
	loaded := RelationshipsLoaded{Now: c.now()}

	relationships, err := c.relationships.FetchRelationships(ctx, c.tenantID, models.ClientIDs(group.Clients))
	if err != nil {
		tracing.RecordError(span, err)
		c.logger.WithContext(ctx).WithError(err).WithField("group_id", group.ID).
			Warn("failed to load relationship counts; continuing with zero counts")
		loaded.Failed = true
	} else {
		loaded.Relationships = relationships
	}

	next, err := Reduce(state, loaded)
	if err != nil {
		return state
	}
	return next
}

func (c *Controller) logFinished(ctx context.Context, state State) {
	summary := state.Summary()
	c.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": c.tenantID,
		"merged":    summary.Merged,
		"skipped":   summary.SkippedGroups,
	}).Info("batch review finished")
}
