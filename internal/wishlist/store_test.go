package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-backend/internal/snapshot"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPersister struct {
	saves   int
	saveErr error
	last    State
}

func (s *stubPersister) Load(context.Context) (State, bool, error) { return State{}, false, nil }

func (s *stubPersister) Save(_ context.Context, state State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.last = state
	return nil
}

type stubRecorder struct{ failures []string }

func (s *stubRecorder) IncPersistFailure(store string) { s.failures = append(s.failures, store) }

func newTestStore(t *testing.T, persister Persister) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), StoreParams{Persister: persister})
	require.NoError(t, err)
	return store
}

func TestStoreAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	persister := &stubPersister{}
	store := newTestStore(t, persister)

	require.NoError(t, store.AddItem(ctx, 7, 3))
	require.NoError(t, store.AddItem(ctx, 7, 3))
	require.NoError(t, store.AddItem(ctx, 7, 1))

	assert.Equal(t, []int{1, 3}, store.GetItems(7))
	assert.True(t, store.HasItem(7, 3))
	assert.False(t, store.HasItem(8, 3))
	assert.Equal(t, 3, persister.saves)
}

func TestStoreRemoveKeepsEmptyBucket(t *testing.T) {
	ctx := context.Background()
	persister := &stubPersister{}
	store := newTestStore(t, persister)

	require.NoError(t, store.AddItem(ctx, 7, 3))
	require.NoError(t, store.RemoveItem(ctx, 7, 3))
	require.NoError(t, store.RemoveItem(ctx, 7, 3))
	require.NoError(t, store.RemoveItem(ctx, 9, 3))

	assert.Empty(t, store.GetItems(7))
	bucket, ok := persister.last.Items[7]
	assert.True(t, ok)
	assert.Empty(t, bucket)
	_, ok = persister.last.Items[9]
	assert.False(t, ok)
}

func TestStoreUnknownUserIsEmpty(t *testing.T) {
	store := newTestStore(t, &stubPersister{})
	assert.NotNil(t, store.GetItems(42))
	assert.Empty(t, store.GetItems(42))
}

func TestStoreSaveFailureDoesNotPublish(t *testing.T) {
	rec := &stubRecorder{}
	store, err := NewStore(context.Background(), StoreParams{
		Persister: &stubPersister{saveErr: errors.New("down")},
		Metrics:   rec,
	})
	require.NoError(t, err)

	err = store.AddItem(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.False(t, store.HasItem(1, 2))
	assert.Equal(t, []string{"wishlist"}, rec.failures)
}

func TestStoreRehydrates(t *testing.T) {
	ctx := context.Background()
	port := snapshot.NewJSON[State](snapshot.NewMemoryStore(), "wishlist-storage")

	first := newTestStore(t, port)
	require.NoError(t, first.AddItem(ctx, 5, 10))
	require.NoError(t, first.AddItem(ctx, 5, 11))

	second := newTestStore(t, port)
	assert.Equal(t, []int{10, 11}, second.GetItems(5))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &stubPersister{})

	anon := Resolve(store, 0, false)
	require.NoError(t, anon.Add(ctx, 4))
	require.NoError(t, anon.Remove(ctx, 4))
	assert.False(t, anon.Has(4))
	assert.Empty(t, anon.Items())
	assert.Empty(t, store.GetItems(0))

	user := Resolve(store, 3, true)
	require.NoError(t, user.Add(ctx, 4))
	assert.True(t, user.Has(4))
	assert.Equal(t, []int{4}, user.Items())
	require.NoError(t, user.Remove(ctx, 4))
	assert.False(t, user.Has(4))

	assert.Equal(t, Anonymous(), Resolve(nil, 3, true))
}
