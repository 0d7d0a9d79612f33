package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/account-service/internal/domain/repository"
)

func newLock(t *testing.T, ttl time.Duration) (*SignupLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSignupLock(rdb, ttl, nil), mr
}

func TestSignupLock_Exclusive(t *testing.T) {
	l, mr := newLock(t, time.Minute)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "signup:ada@example.com")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:signup:ada@example.com"))

	_, err = l.Lock(ctx, "signup:ada@example.com")
	assert.ErrorIs(t, err, repository.ErrLocked)

	other, err := l.Lock(ctx, "signup:grace@example.com")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists("lock:signup:ada@example.com"))

	again, err := l.Lock(ctx, "signup:ada@example.com")
	require.NoError(t, err)
	again()
}

func TestSignupLock_Expires(t *testing.T) {
	l, mr := newLock(t, time.Second)
	ctx := context.Background()

	_, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	unlock()
}

func TestSignupLock_StaleUnlockKeepsNewOwner(t *testing.T) {
	l, mr := newLock(t, time.Second)
	ctx := context.Background()

	stale, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = l.Lock(ctx, "k")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("lock:k"))
}

func TestSignupLock_BackendDown(t *testing.T) {
	l, mr := newLock(t, time.Minute)
	mr.Close()

	_, err := l.Lock(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrLocked)
}
