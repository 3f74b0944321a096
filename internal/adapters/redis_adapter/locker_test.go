package redis_a_test

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

	redis_a "github.com/ammerola/lending-be/internal/adapters/redis_adapter"
	"github.com/ammerola/lending-be/test/helpers"
)

func newLocker(t *testing.T, ttl time.Duration) (*redis_a.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewLocker(client, ttl, 2*time.Millisecond, helpers.TestLogger()), mr
}

func TestLocker_LockAndRelease(t *testing.T) {
	locker, mr := newLocker(t, time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "item:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:item:1"))

	unlock()
	assert.False(t, mr.Exists("lock:item:1"))

	unlock()
}

func TestLocker_BlocksUntilReleased(t *testing.T) {
	locker, _ := newLocker(t, time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "item:1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(ctx, "item:1")
		if err == nil {
			close(acquired)
			second()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held lock")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second holder never acquired the lock")
	}
}

func TestLocker_ContextDeadline(t *testing.T) {
	locker, _ := newLocker(t, time.Second)

	unlock, err := locker.Lock(context.Background(), "item:1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "item:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocker_ReleaseDoesNotStealForeignLock(t *testing.T) {
	locker, mr := newLocker(t, time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "item:1")
	require.NoError(t, err)

	// Simulate expiry and takeover by another holder.
	mr.Del("lock:item:1")
	require.NoError(t, mr.Set("lock:item:1", "someone-else"))

	unlock()

	got, err := mr.Get("lock:item:1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestLocker_MutualExclusion(t *testing.T) {
	locker, _ := newLocker(t, 5*time.Second)
	ctx := context.Background()

	var counter atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "counter")
			if !assert.NoError(t, err) {
				return
			}
			v := counter.Load()
			time.Sleep(time.Millisecond)
			counter.Store(v + 1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), counter.Load())
}
