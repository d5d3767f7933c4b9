package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

var ErrNotFound = errors.New("snapshot not found")

// Store persists whole-store JSON snapshots by key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// New selects the backend named in cfg.
func New(cfg config.SnapshotConfig, redis *redisclient.Client, database *db.Client) (Store, error) {
	switch cfg.Backend {
	case "", config.SnapshotBackendMemory:
		return NewMemoryStore(), nil
	case config.SnapshotBackendRedis:
		if redis == nil {
			return nil, fmt.Errorf("snapshot backend redis requires a redis client")
		}
		return NewRedisStore(redis), nil
	case config.SnapshotBackendDatabase:
		if database == nil {
			return nil, fmt.Errorf("snapshot backend database requires a database client")
		}
		return NewDatabaseStore(database.DB()), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}

// MemoryStore keeps snapshots for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), payload...)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// JSON binds a Store and a key to one typed snapshot. It is the persistence
// port handed to the cart, auth and wishlist stores.
type JSON[T any] struct {
	store Store
	key   string
}

func NewJSON[T any](store Store, key string) *JSON[T] {
	return &JSON[T]{store: store, key: key}
}

func (j *JSON[T]) Key() string { return j.key }

// Load returns the stored snapshot; ok is false when nothing was saved yet.
func (j *JSON[T]) Load(ctx context.Context) (T, bool, error) {
	var zero T
	raw, err := j.store.Load(ctx, j.key)
	if errors.Is(err, ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("load %s: %w", j.key, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", j.key, err)
	}
	return out, true, nil
}

func (j *JSON[T]) Save(ctx context.Context, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", j.key, err)
	}
	if err := j.store.Save(ctx, j.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", j.key, err)
	}
	return nil
}
