package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thiagobertoloto1-max/marmita-api/internal/cart"
)

// RedisCartStore persists whole serialized carts under a session key. A
// single SET per mutation keeps the write atomic from the caller's
// perspective: readers either see the previous cart or the new one, never
// a half-written state.
type RedisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCartStore(rdb *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{rdb: rdb, ttl: ttl}
}

func cartKey(key string) string { return "cart:" + key }

func (s *RedisCartStore) Load(ctx context.Context, key string) (cart.Cart, bool, error) {
	raw, err := s.rdb.Get(ctx, cartKey(key)).Bytes()
	if err == redis.Nil {
		return cart.Cart{}, false, nil
	}
	if err != nil {
		return cart.Cart{}, false, err
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return cart.Cart{}, false, err
	}
	return c, true, nil
}

func (s *RedisCartStore) Save(ctx context.Context, key string, c cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(key), raw, s.ttl).Err()
}

func (s *RedisCartStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, cartKey(key)).Err()
}

var _ cart.Store = (*RedisCartStore)(nil)
