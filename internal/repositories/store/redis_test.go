package store

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interleaveHook lets another client write between WATCH and EXEC once.
type interleaveHook struct {
	mu    sync.Mutex
	write func(ctx context.Context)
}

func (h *interleaveHook) arm(write func(ctx context.Context)) {
	h.mu.Lock()
	h.write = write
	h.mu.Unlock()
}

func (h *interleaveHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *interleaveHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h *interleaveHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.mu.Lock()
		write := h.write
		h.write = nil
		h.mu.Unlock()
		if write != nil {
			write(ctx)
		}
		return next(ctx, cmds)
	}
}

type redisFixture struct {
	store *RedisStore
	other *RedisStore
	hook  *interleaveHook
}

func newRedisFixture(t *testing.T) *redisFixture {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hook := &interleaveHook{}
	client.AddHook(hook)
	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		other.Close()
	})

	return &redisFixture{
		store: NewRedisStore(client, "test:"),
		other: NewRedisStore(other, "test:"),
		hook:  hook,
	}
}

func TestRedisStore_GetSetListRemove(t *testing.T) {
	ctx := context.Background()
	f := newRedisFixture(t)
	s := f.store

	_, err := s.Get(ctx, "wallets/w-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "wallets/w-1/transactions/t-1", Document{"amount": "-400"}))
	require.NoError(t, s.Set(ctx, "wallets/w-1/transactions/t-2", Document{"amount": "-100"}))
	require.NoError(t, s.HealthCheck(ctx))

	doc, err := s.Get(ctx, "wallets/w-1/transactions/t-1")
	require.NoError(t, err)
	assert.Equal(t, "-400", doc["amount"])

	children, err := s.List(ctx, "wallets/w-1/transactions")
	require.NoError(t, err)
	assert.Len(t, children, 2)

	require.NoError(t, s.Remove(ctx, "wallets/w-1/transactions/t-1"))
	children, err = s.List(ctx, "wallets/w-1/transactions")
	require.NoError(t, err)
	assert.Len(t, children, 1)
	assert.Contains(t, children, "t-2")

	_, err = s.Get(ctx, "wallets/w-1/transactions/t-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CompareAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newRedisFixture(t).store
	path := "users/u-1/scheduledBills/s-1"
	require.NoError(t, s.Set(ctx, path, Document{"status": "scheduled"}))

	tests := []struct {
		name    string
		expect  Document
		fields  Document
		wantErr error
	}{
		{"claim when unclaimed", Document{"status": "scheduled", "settlementId": nil}, Document{"settlementId": "txn-1"}, nil},
		{"second claim loses", Document{"status": "scheduled", "settlementId": nil}, Document{"settlementId": "txn-2"}, ErrConditionFailed},
		{"complete with claim", Document{"status": "scheduled", "settlementId": "txn-1"}, Document{"status": "paid"}, nil},
		{"no transition out of paid", Document{"status": "scheduled"}, Document{"status": "cancelled"}, ErrConditionFailed},
	}
	for _, tt := range tests {
		err := s.CompareAndUpdate(ctx, path, tt.expect, tt.fields)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "paid", doc["status"])
	assert.Equal(t, "txn-1", doc["settlementId"])

	err = s.CompareAndUpdate(ctx, "users/u-1/scheduledBills/missing", nil, Document{"status": "paid"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CompareAndUpdateRetriesAfterConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	f := newRedisFixture(t)
	path := "wallets/w-1"
	require.NoError(t, f.store.Set(ctx, path, Document{"balance": "1000", "status": "active"}))

	// the first EXEC fails; the retry re-reads the other writer's document
	f.hook.arm(func(ctx context.Context) {
		require.NoError(t, f.other.Set(ctx, path, Document{"balance": "1000", "status": "active", "note": "other"}))
	})
	require.NoError(t, f.store.CompareAndUpdate(ctx, path, Document{"balance": "1000"}, Document{"balance": "600"}))

	doc, err := f.store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "600", doc["balance"])
	assert.Equal(t, "other", doc["note"])
}

func TestRedisStore_CompareAndUpdateRechecksAfterConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	f := newRedisFixture(t)
	path := "wallets/w-1"
	require.NoError(t, f.store.Set(ctx, path, Document{"balance": "1000"}))

	f.hook.arm(func(ctx context.Context) {
		require.NoError(t, f.other.Set(ctx, path, Document{"balance": "700"}))
	})
	err := f.store.CompareAndUpdate(ctx, path, Document{"balance": "1000"}, Document{"balance": "600"})
	assert.ErrorIs(t, err, ErrConditionFailed)

	doc, err := f.store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "700", doc["balance"])
}

func TestRedisStore_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	s := newRedisFixture(t).store
	path := "users/u-1/scheduledBills/s-1"
	require.NoError(t, s.Set(ctx, path, Document{"status": "scheduled"}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CompareAndUpdate(ctx, path, Document{"settlementId": nil}, Document{"settlementId": "claim"})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
