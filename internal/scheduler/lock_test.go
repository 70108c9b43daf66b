package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLockerWithClient(rdb), mr
}

func TestRedisLockerExcludesSecondHolder(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, sweepLockName, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("xlzr:lock:"+sweepLockName))

	_, ok, err = l.Acquire(ctx, sweepLockName, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists("xlzr:lock:"+sweepLockName))

	_, ok, err = l.Acquire(ctx, sweepLockName, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerLeaseExpires(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	ctx := context.Background()

	_, ok, err := l.Acquire(ctx, sweepLockName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("xlzr:lock:"+sweepLockName))

	mr.FastForward(2 * time.Minute)

	_, ok, err = l.Acquire(ctx, sweepLockName, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerStaleReleaseKeepsNewerLease(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	ctx := context.Background()
	key := "xlzr:lock:" + sweepLockName

	staleRelease, ok, err := l.Acquire(ctx, sweepLockName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok, err = l.Acquire(ctx, sweepLockName, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	newer, err := mr.Get(key)
	require.NoError(t, err)

	staleRelease()

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, newer, got)

	_, ok, err = l.Acquire(ctx, sweepLockName, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLockerKeepsSweepsExclusiveAcrossSchedulers(t *testing.T) {
	l, _ := newTestRedisLocker(t)

	sw := newBlockingSweeper()
	first := New(&countingFlusher{}, sw, Options{FlushInterval: time.Hour, SweepInterval: time.Hour, Locker: l})
	second := New(&countingFlusher{}, &instantSweeper{}, Options{FlushInterval: time.Hour, SweepInterval: time.Hour, Locker: l})

	require.NoError(t, first.TriggerSweep(time.Minute, nil))
	<-sw.started

	_, err := second.RunSweep(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)

	close(sw.release)
	assert.Eventually(t, func() bool { return !first.Sweeping() }, 2*time.Second, 5*time.Millisecond)

	_, err = second.RunSweep(context.Background())
	assert.NoError(t, err)

	first.Stop()
	second.Stop()
}
