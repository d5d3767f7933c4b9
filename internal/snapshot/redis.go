package snapshot

import (
	"context"
	"time"

	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SnapshotKey(name string) string
	Ping(ctx context.Context) error
}

// RedisStore keeps snapshots under namespaced keys without expiry.
type RedisStore struct {
	client redisKV
}

func NewRedisStore(client redisKV) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.client.SnapshotKey(key))
	if redisclient.IsNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (r *RedisStore) Save(ctx context.Context, key string, payload []byte) error {
	return r.client.Set(ctx, r.client.SnapshotKey(key), string(payload), 0)
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
