package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/services/dedup"
	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/models"
)

func nopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := dedup.NewMemorySessionStore()

	missing, err := store.Load(ctx, "broker-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	state := batch.State{
		Phase:  batch.PhaseReviewing,
		Groups: []models.DuplicateGroup{{ID: "g1", Clients: []models.Client{{ID: "a"}, {ID: "b"}}}},
	}
	require.NoError(t, store.Save(ctx, "broker-1", state))

	loaded, err := store.Load(ctx, "broker-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, batch.PhaseReviewing, loaded.Phase)

	loaded.Groups[0].Clients = nil
	again, err := store.Load(ctx, "broker-1")
	require.NoError(t, err)
	assert.Len(t, again.Groups[0].Clients, 2)

	require.NoError(t, store.Delete(ctx, "broker-1"))
	gone, err := store.Load(ctx, "broker-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	locker := dedup.NewMemoryLocker()

	release, err := locker.Lock(ctx, "k")
	require.NoError(t, err)

	other, err := locker.Lock(ctx, "other")
	require.NoError(t, err)
	other(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release(ctx)
	release(ctx)

	again, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	again(ctx)
}
