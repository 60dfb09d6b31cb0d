package cart

import (
	"context"
	"encoding/json"
	"sync"
)

// Store is the persistence boundary for carts. Implementations must write
// the whole serialized cart in one operation so a crash between compute
// and persist never leaves a half-written cart.
type Store interface {
	Load(ctx context.Context, key string) (Cart, bool, error)
	Save(ctx context.Context, key string, c Cart) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps serialized carts in a map. It is the test double for
// the Redis store and round-trips through JSON so persistence bugs (lost
// fields, stale totals) surface in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string][]byte{}}
}

func (s *MemoryStore) Load(_ context.Context, key string) (Cart, bool, error) {
	s.mu.RLock()
	raw, ok := s.carts[key]
	s.mu.RUnlock()
	if !ok {
		return Cart{}, false, nil
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cart{}, false, err
	}
	return c, true, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, c Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.carts[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.carts, key)
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
