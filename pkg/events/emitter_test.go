package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
)

type capturePublisher struct {
	events []*kafka.ClientEvent
}

func (p *capturePublisher) PublishClientEvent(_ context.Context, event *kafka.ClientEvent) error {
	p.events = append(p.events, event)
	return nil
}

func TestEmitClientMerged(t *testing.T) {
	publisher := &capturePublisher{}
	emitter := NewEmitter(publisher, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	mergedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	err := emitter.EmitClientMerged(context.Background(), &models.MergeOutcome{
		ID:              "m-1",
		TenantID:        "broker-1",
		PrimaryID:       "a",
		SecondaryIDs:    []string{"b"},
		Transferred:     map[string]int{"policies": 2},
		InheritedFields: []models.FieldKey{models.FieldEmail},
		MergedAt:        mergedAt,
	})
	require.NoError(t, err)
	require.Len(t, publisher.events, 1)

	event := publisher.events[0]
	assert.Equal(t, EventClientMerged, event.EventType)
	assert.Equal(t, "a", event.ClientID)
	assert.Equal(t, []string{"b"}, event.SourceClients)
	assert.Equal(t, mergedAt, event.Timestamp)

	var data mergedData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "m-1", data.MergeID)
	assert.Equal(t, 2, data.Transferred["policies"])
	assert.Equal(t, []models.FieldKey{models.FieldEmail}, data.InheritedFields)
}

func TestEmitBatchCompleted(t *testing.T) {
	publisher := &capturePublisher{}
	emitter := NewEmitter(publisher, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	require.NoError(t, emitter.EmitBatchCompleted(context.Background(), "broker-1", 3, 1))
	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventBatchCompleted, publisher.events[0].EventType)
	assert.JSONEq(t, `{"schema_version":"1.0","merged":3,"skipped":1}`, string(publisher.events[0].Data))
}
