package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the Redis key prefix for all session values.
const KeyPrefix = "session:"

// RedisStore keeps each session as a JSON string at session:<id> with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type redisStoreOption func(*RedisStore)

// WithRedisTTL overrides DefaultTTL.
func WithRedisTTL(ttl time.Duration) redisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a session store on top of an existing client.
func NewRedisStore(client *redis.Client, opts ...redisStoreOption) *RedisStore {
	s := &RedisStore{client: client, ttl: DefaultTTL}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// DialRedis connects to Redis and verifies the connection.
func DialRedis(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: redis connection failed: %w", err)
	}
	return client, nil
}

// Load fetches and decodes the session stored under id.
func (s *RedisStore) Load(ctx context.Context, id string) (data map[string]any, err error) {
	defer observe("redis", "load", time.Now(), &err)

	raw, err := s.client.Get(ctx, KeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	return decode(raw)
}

// Save encodes data and stores it with a fresh TTL.
func (s *RedisStore) Save(ctx context.Context, id string, data map[string]any) (err error) {
	defer observe("redis", "save", time.Now(), &err)

	raw, err := encode(data)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, KeyPrefix+id, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Delete removes the session stored under id.
func (s *RedisStore) Delete(ctx context.Context, id string) (err error) {
	defer observe("redis", "delete", time.Now(), &err)

	if err := s.client.Del(ctx, KeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// RefreshTTL extends the session's expiry without rewriting its data.
func (s *RedisStore) RefreshTTL(ctx context.Context, id string) error {
	ok, err := s.client.Expire(ctx, KeyPrefix+id, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("session: refresh ttl: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func encode(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
