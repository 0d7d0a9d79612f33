// Package redis holds Redis-backed coordination primitives.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/account-service/internal/domain/repository"
	"github.com/oksasatya/account-service/pkg/helpers"
)

const keyPrefix = "lock:"

// Lua script: delete only when the caller still owns the lock
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// SignupLock is a best-effort mutex per key built on SET NX PX.
// The TTL bounds how long a crashed holder blocks the key.
type SignupLock struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewSignupLock(rdb *goredis.Client, ttl time.Duration, logger *logrus.Logger) *SignupLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SignupLock{rdb: rdb, ttl: ttl, logger: logger}
}

func (l *SignupLock) Lock(ctx context.Context, key string) (func(), error) {
	if l.rdb == nil {
		return nil, errors.New("redis client not configured")
	}
	owner := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, keyPrefix+key, owner, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrLocked
	}
	return func() {
		// release even when the request context is already cancelled
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{keyPrefix + key}, owner).Err(); err != nil {
			helpers.LogError(l.logger, "release signup lock", err, logrus.Fields{"key": key})
		}
	}, nil
}

var _ repository.SignupLocker = (*SignupLock)(nil)
