package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SessionStore keeps one batch review state per broker account as JSON with a TTL
type SessionStore struct {
	client    *Client
	keyPrefix string
	ttl       time.Duration
}

func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:    client,
		keyPrefix: "fern:batch:",
		ttl:       ttl,
	}
}

// Load returns the stored state, or nil when the account has no batch in progress
func (s *SessionStore) Load(ctx context.Context, tenantID string) (*batch.State, error) {
	ctx, span := tracing.StartSpan(ctx, "redis.SessionStore.Load")
	defer span.End()

	raw, err := s.client.rdb.Get(ctx, s.keyPrefix+tenantID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to load batch session: %w", err)
	}

	var state batch.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode batch session: %w", err)
	}
	return &state, nil
}

// Save stores the state and refreshes its TTL
func (s *SessionStore) Save(ctx context.Context, tenantID string, state batch.State) error {
	ctx, span := tracing.StartSpan(ctx, "redis.SessionStore.Save")
	defer span.End()

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode batch session: %w", err)
	}
	if err := s.client.rdb.Set(ctx, s.keyPrefix+tenantID, raw, s.ttl).Err(); err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("failed to save batch session: %w", err)
	}
	return nil
}

// Delete removes the state
func (s *SessionStore) Delete(ctx context.Context, tenantID string) error {
	if err := s.client.rdb.Del(ctx, s.keyPrefix+tenantID).Err(); err != nil {
		return fmt.Errorf("failed to delete batch session: %w", err)
	}
	return nil
}
