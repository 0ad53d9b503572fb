package dedup

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

// ClientRepository loads the client base of a broker account
type ClientRepository interface {
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.Client, error)
	GetMany(ctx context.Context, tenantID string, ids []string) ([]models.Client, error)
}

// AuditRepository reads the merge audit log
type AuditRepository interface {
	ListMerges(ctx context.Context, tenantID string, limit int) ([]models.MergeOutcome, error)
}

// EventEmitter publishes merge events
type EventEmitter interface {
	EmitClientMerged(ctx context.Context, outcome *models.MergeOutcome) error
	EmitBatchCompleted(ctx context.Context, tenantID string, merged, skipped int) error
}

// LineageRecorder projects merges into the lineage graph
type LineageRecorder interface {
	RecordMerge(ctx context.Context, outcome *models.MergeOutcome) error
	Absorbed(ctx context.Context, tenantID, clientID string) ([]string, error)
}

// SessionStore keeps the batch review state between requests
type SessionStore interface {
	Load(ctx context.Context, tenantID string) (*batch.State, error)
	Save(ctx context.Context, tenantID string, state batch.State) error
	Delete(ctx context.Context, tenantID string) error
}

// Locker serializes batch operations of one broker account
type Locker interface {
	Lock(ctx context.Context, key string) (func(context.Context), error)
}
