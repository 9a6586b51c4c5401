package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), "wallet:w-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, m.locks)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	unlockA, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
	unlockB()
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "a")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Empty(t, m.locks)
}

func newRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	l := NewRedisLocker(client, "test:lock:", ttl)
	l.retry = 5 * time.Millisecond
	return l, mr
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)

	unlock, err := l.Lock(context.Background(), WalletKey("w-1"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:wallet:w-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, WalletKey("w-1"))
	assert.ErrorIs(t, err, ErrNotAcquired)

	other, err := l.Lock(context.Background(), WalletKey("w-2"))
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	assert.False(t, mr.Exists("test:lock:wallet:w-1"))

	again, err := l.Lock(context.Background(), WalletKey("w-1"))
	require.NoError(t, err)
	again()
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t, time.Second)

	unlock, err := l.Lock(context.Background(), WalletKey("w-1"))
	require.NoError(t, err)

	// the lease expired and another holder took the lock
	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists("test:lock:wallet:w-1"))
	require.NoError(t, mr.Set("test:lock:wallet:w-1", "someone-else"))

	unlock()

	got, err := mr.Get("test:lock:wallet:w-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_TTLFreesCrashedHolder(t *testing.T) {
	l, mr := newRedisLocker(t, time.Second)

	_, err := l.Lock(context.Background(), WalletKey("w-1"))
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := l.Lock(ctx, WalletKey("w-1"))
	require.NoError(t, err)
	unlock()
}
