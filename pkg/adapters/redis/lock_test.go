package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/neoform/pkg/adapters/redis"
	"github.com/aretw0/neoform/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T) (*redis.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis.NewLocker(client, "neoform:", redis.WithPollInterval(10*time.Millisecond)), mr
}

func TestRedisLocker_Contract(t *testing.T) {
	l, _ := newLocker(t)
	tests.LockerContractTest(t, l)
}

func TestRedisLocker_KeyLayout(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "plan-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("neoform:lock:plan-1"))
	assert.Equal(t, time.Minute, mr.TTL("neoform:lock:plan-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("neoform:lock:plan-1"))
}

func TestRedisLocker_ExpiredLockIsNotStolen(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	first, err := l.Lock(ctx, "plan", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	second, err := l.Lock(ctx, "plan", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, first(ctx), redis.ErrLockLost)
	assert.True(t, mr.Exists("neoform:lock:plan"), "the stale holder must not release the new lock")
	assert.NoError(t, second(ctx))
}
