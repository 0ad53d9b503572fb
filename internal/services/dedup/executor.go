package dedup

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	ModeBatch  = "batch"
	ModeManual = "manual"
)

// projectingExecutor runs the merge and then publishes it to the event bus and the lineage
// graph. Projection failures are logged; the merge stays committed.
type projectingExecutor struct {
	next    batch.MergeExecutor
	mode    string
	emitter EventEmitter
	lineage LineageRecorder
	logger  ectologger.Logger
}

func newProjectingExecutor(next batch.MergeExecutor, mode string, emitter EventEmitter, lineage LineageRecorder, logger ectologger.Logger) *projectingExecutor {
	return &projectingExecutor{
		next:    next,
		mode:    mode,
		emitter: emitter,
		lineage: lineage,
		logger:  logger,
	}
}

func (e *projectingExecutor) ExecuteMerge(ctx context.Context, req models.MergeRequest) (*models.MergeOutcome, error) {
	start := time.Now()
	outcome, err := e.next.ExecuteMerge(ctx, req)
	if err != nil {
		metrics.RecordMerge(e.mode, "failed", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordMerge(e.mode, "committed", time.Since(start).Seconds())
	metrics.RecordTransferred(outcome.Transferred)

	e.project(ctx, outcome)
	return outcome, nil
}

func (e *projectingExecutor) project(ctx context.Context, outcome *models.MergeOutcome) {
	logger := e.logger.WithContext(ctx).WithField("merge_id", outcome.ID)

	if e.emitter != nil {
		if err := e.emitter.EmitClientMerged(ctx, outcome); err != nil {
			metrics.ProjectionFailures.WithLabelValues("event").Inc()
			logger.WithError(err).Warn("merge committed but client.merged event was not published")
		}
	}
	if e.lineage != nil {
		if err := e.lineage.RecordMerge(ctx, outcome); err != nil {
			metrics.ProjectionFailures.WithLabelValues("lineage").Inc()
			logger.WithError(err).Warn("merge committed but lineage was not recorded")
		}
	}
}

// countingRelationships counts lookups that the controller will replace with zeros
type countingRelationships struct {
	next batch.RelationshipSource
}

func (c countingRelationships) FetchRelationships(ctx context.Context, tenantID string, clientIDs []string) ([]models.ClientRelationships, error) {
	rels, err := c.next.FetchRelationships(ctx, tenantID, clientIDs)
	if err != nil {
		metrics.RelationshipFetchFailures.Inc()
	}
	return rels, err
}
