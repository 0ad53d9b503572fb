// Package events publishes client lifecycle changes caused by merges
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	EventClientMerged   = "client.merged"
	EventBatchCompleted = "batch.completed"
)

// Publisher sends client events to the bus
type Publisher interface {
	PublishClientEvent(ctx context.Context, event *kafka.ClientEvent) error
}

// Emitter builds and publishes merge events
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

type mergedData struct {
	SchemaVersion   string            `json:"schema_version"`
	MergeID         string            `json:"merge_id"`
	InheritedFields []models.FieldKey `json:"inherited_fields"`
	Transferred     map[string]int    `json:"transferred"`
}

// EmitClientMerged announces that secondaries were absorbed into the primary
func (e *Emitter) EmitClientMerged(ctx context.Context, outcome *models.MergeOutcome) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitClientMerged")
	defer span.End()

	data, err := json.Marshal(mergedData{
		SchemaVersion:   kafka.SchemaVersion,
		MergeID:         outcome.ID,
		InheritedFields: outcome.InheritedFields,
		Transferred:     outcome.Transferred,
	})
	if err != nil {
		return fmt.Errorf("failed to encode merge event: %w", err)
	}

	event := &kafka.ClientEvent{
		EventType:     EventClientMerged,
		TenantID:      outcome.TenantID,
		ClientID:      outcome.PrimaryID,
		Data:          data,
		SourceClients: outcome.SecondaryIDs,
		Timestamp:     outcome.MergedAt,
	}

	if err := e.publisher.PublishClientEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit client.merged event")
		return err
	}
	return nil
}

// EmitBatchCompleted announces the totals of a finished batch review
func (e *Emitter) EmitBatchCompleted(ctx context.Context, tenantID string, merged, skipped int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitBatchCompleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": kafka.SchemaVersion,
		"merged":         merged,
		"skipped":        skipped,
	})

	event := &kafka.ClientEvent{
		EventType: EventBatchCompleted,
		TenantID:  tenantID,
		ClientID:  tenantID,
		Data:      data,
	}

	if err := e.publisher.PublishClientEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit batch.completed event")
		return err
	}
	return nil
}
