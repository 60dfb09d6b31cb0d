package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thiagobertoloto1-max/marmita-api/internal/usecase"
)

// RedisChargeLock narrows the window in which two concurrent pix-create
// retries for the same order could both reach the gateway. The durable
// guard is the charge upsert keyed by order id; this lock is best-effort
// on top of it.
type RedisChargeLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisChargeLock(rdb *redis.Client, ttl time.Duration) *RedisChargeLock {
	return &RedisChargeLock{rdb: rdb, ttl: ttl}
}

func (s *RedisChargeLock) TryLock(ctx context.Context, orderID string) (bool, error) {
	return s.rdb.SetNX(ctx, "pix:create:"+orderID, "1", s.ttl).Result()
}

func (s *RedisChargeLock) Unlock(ctx context.Context, orderID string) error {
	return s.rdb.Del(ctx, "pix:create:"+orderID).Err()
}

var _ usecase.ChargeLock = (*RedisChargeLock)(nil)
