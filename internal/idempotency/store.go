package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Claimer records submission keys. Claim returns false when the key was
// already claimed within the TTL. Release frees a key whose submission
// failed so the client may retry with it.
type Claimer interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Key(scope, key string) string {
	return "idem:" + scope + ":" + key
}

func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, s.Key("order", key), "1", s.ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.Key("order", key)).Err()
}

type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

func (m *MemoryStore) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, expires := range m.seen {
		if now.After(expires) {
			delete(m.seen, k)
		}
	}
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}
