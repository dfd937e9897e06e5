// Package redis implements sync leases on Redis so that several processes
// sharing one authority never upload the same plan concurrently.
package redis

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"babyplate/internal/replica"
)

// DefaultTTL bounds how long a crashed holder keeps a lease.
const DefaultTTL = 30 * time.Second

// release deletes the lease only if it still carries the holder's token.
var release = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker grants leases with SET NX PX.
type Locker struct {
	c      *goredis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

var _ replica.Locker = (*Locker)(nil)

// NewClient creates a Redis client for addr.
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping tests the Redis connection.
func Ping(ctx context.Context, c *goredis.Client) error {
	return c.Ping(ctx).Err()
}

// NewLocker creates a Locker whose keys start with prefix.
func NewLocker(c *goredis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{c: c, prefix: prefix, ttl: ttl, logger: logger}
}

// TryAcquire implements replica.Locker.
func (l *Locker) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	k := l.prefix + key
	token := uuid.NewString()
	ok, err := l.c.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release.Run(ctx, l.c, []string{k}, token).Err(); err != nil {
			l.logger.Warn("release sync lease", zap.String("key", k), zap.Error(err))
		}
	}, true, nil
}
