package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"packlist/internal/model"
)

// RedisRegistry shares tokens across machines; Redis expires them by TTL.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

func NewRedisRegistry(redisURL string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisRegistryWithClient(client), nil
}

func NewRedisRegistryWithClient(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client, prefix: "packlist:share:"}
}

func (r *RedisRegistry) key(token string) string {
	return r.prefix + token
}

func (r *RedisRegistry) Put(ctx context.Context, sh model.Share) error {
	raw, err := json.Marshal(sh)
	if err != nil {
		return fmt.Errorf("marshal share: %w", err)
	}
	var ttl time.Duration
	if !sh.ExpiresAt.IsZero() {
		ttl = time.Until(sh.ExpiresAt)
		if ttl <= 0 {
			return r.Delete(ctx, sh.Token)
		}
	}
	if err := r.client.Set(ctx, r.key(sh.Token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save share: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Get(ctx context.Context, token string) (model.Share, error) {
	raw, err := r.client.Get(ctx, r.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Share{}, ErrNotFound
	}
	if err != nil {
		return model.Share{}, fmt.Errorf("lookup share: %w", err)
	}
	var sh model.Share
	if err := json.Unmarshal([]byte(raw), &sh); err != nil {
		return model.Share{}, fmt.Errorf("unmarshal share: %w", err)
	}
	if sh.Expired(time.Now()) {
		return model.Share{}, ErrNotFound
	}
	return sh, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
