package graph

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// RelMergedInto links an absorbed client to the client that survived the merge
const RelMergedInto = "MERGED_INTO"

const recordMergeCypher = `
	MERGE (p:Client {id: $primary_id, tenant_id: $tenant_id})
	SET p.merged = false
	WITH p
	UNWIND $secondary_ids AS secondary_id
	MERGE (s:Client {id: secondary_id, tenant_id: $tenant_id})
	SET s.merged = true
	MERGE (s)-[r:MERGED_INTO {merge_id: $merge_id}]->(p)
	SET r.merged_at = $merged_at, r.inherited_fields = $inherited_fields
`

const absorbedCypher = `
	MATCH (s:Client {tenant_id: $tenant_id})-[:MERGED_INTO*1..]->(p:Client {id: $client_id, tenant_id: $tenant_id})
	RETURN DISTINCT s.id AS id
	ORDER BY id
`

// LineageService records which clients were merged into which
type LineageService struct {
	client *Client
	logger ectologger.Logger
}

func NewLineageService(client *Client, logger ectologger.Logger) *LineageService {
	return &LineageService{
		client: client,
		logger: logger,
	}
}

func recordMergeParams(outcome *models.MergeOutcome) map[string]any {
	inherited := make([]string, len(outcome.InheritedFields))
	for i, f := range outcome.InheritedFields {
		inherited[i] = string(f)
	}
	secondaries := make([]any, len(outcome.SecondaryIDs))
	for i, id := range outcome.SecondaryIDs {
		secondaries[i] = id
	}
	return map[string]any{
		"tenant_id":        outcome.TenantID,
		"primary_id":       outcome.PrimaryID,
		"secondary_ids":    secondaries,
		"merge_id":         outcome.ID,
		"merged_at":        outcome.MergedAt.UTC().Format(time.RFC3339),
		"inherited_fields": inherited,
	}
}

// RecordMerge adds MERGED_INTO edges from every secondary to the primary
func (s *LineageService) RecordMerge(ctx context.Context, outcome *models.MergeOutcome) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LineageService.RecordMerge")
	defer span.End()

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, recordMergeCypher, recordMergeParams(outcome))
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"primary_id": outcome.PrimaryID,
			"merge_id":   outcome.ID,
		}).Error("Failed to record merge lineage")
		return err
	}
	return nil
}

// Absorbed returns every client merged into clientID, directly or through earlier merges
func (s *LineageService) Absorbed(ctx context.Context, tenantID, clientID string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.LineageService.Absorbed")
	defer span.End()

	res, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, absorbedCypher, map[string]any{
			"tenant_id": tenantID,
			"client_id": clientID,
		})
		if err != nil {
			return nil, err
		}
		ids := []string{}
		for result.Next(ctx) {
			if id, ok := result.Record().Get("id"); ok {
				if str, ok := id.(string); ok {
					ids = append(ids, str)
				}
			}
		}
		return ids, result.Err()
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return res.([]string), nil
}
