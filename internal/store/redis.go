package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// RedisStore persists keys in Redis under a common prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	expiry map[string]time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithExpiry sets a TTL for keys whose unscoped name is one of keys.
// Other keys never expire.
func WithExpiry(ttl time.Duration, keys ...string) RedisOption {
	return func(s *RedisStore) {
		for _, k := range keys {
			s.expiry[k] = ttl
		}
	}
}

// NewRedisStore creates a store on client; every key is written as prefix+key.
func NewRedisStore(client *redis.Client, prefix string, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: prefix,
		expiry: make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) fullKey(key string) string {
	return s.prefix + key
}

func (s *RedisStore) ttlFor(key string) time.Duration {
	base := key
	if i := strings.LastIndex(key, nsSeparator); i >= 0 {
		base = key[i+1:]
	}
	return s.expiry[base]
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}
	data, err := s.client.Get(ctx, s.fullKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrConnection, key, err)
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.client.Set(ctx, s.fullKey(key), value, s.ttlFor(key)).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrConnection, key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.client.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrConnection, key, err)
	}
	return nil
}

// Namespaces scans the prefix and returns the distinct device namespaces.
func (s *RedisStore) Namespaces(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrConnection, err)
		}
		for _, k := range keys {
			if ns, ok := splitNamespace(strings.TrimPrefix(k, s.prefix)); ok {
				seen[ns] = struct{}{}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return uniqueSorted(seen), nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
