package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/snapshot"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccounts struct{}

func (stubAccounts) Login(context.Context, string, string) (*catalog.AuthResponse, error) {
	return &catalog.AuthResponse{AccessToken: "remote"}, nil
}

func (stubAccounts) CreateUser(_ context.Context, email, _, name string) (*catalog.User, error) {
	return &catalog.User{ID: 9, Email: email, Name: name}, nil
}

func (stubAccounts) GetProfile(context.Context, string) (*catalog.User, error) {
	return &catalog.User{ID: 9, Email: "c@d.e", Name: "Cy"}, nil
}

func (stubAccounts) UpdateProfile(context.Context, string, catalog.ProfileUpdate) (*catalog.User, error) {
	return &catalog.User{ID: 9}, nil
}

type countingStore struct {
	snapshot.Store
	mu    sync.Mutex
	loads map[string]int
}

func (c *countingStore) Load(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	c.loads[key]++
	c.mu.Unlock()
	return c.Store.Load(ctx, key)
}

func newTestRegistry(t *testing.T, store snapshot.Store, size int) *Registry {
	t.Helper()
	wl, err := wishlist.NewStore(context.Background(), wishlist.StoreParams{
		Persister: snapshot.NewJSON[wishlist.State](store, WishlistKey),
	})
	require.NoError(t, err)
	reg, err := NewRegistry(RegistryParams{
		Snapshots: store,
		Wishlists: wl,
		Accounts:  stubAccounts{},
		Admin:     config.AdminConfig{Enabled: true, Email: "admin@gmail.com", Password: "admin1234"},
		CacheSize: size,
		Clock:     func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return reg
}

func TestRegistryCachesSessions(t *testing.T) {
	reg := newTestRegistry(t, snapshot.NewMemoryStore(), 4)
	a, err := reg.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	b, err := reg.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryBuildsOnceUnderConcurrency(t *testing.T) {
	store := &countingStore{Store: snapshot.NewMemoryStore(), loads: map[string]int{}}
	reg := newTestRegistry(t, store, 4)

	var wg sync.WaitGroup
	sessions := make([]*Session, 16)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := reg.Acquire(context.Background(), "s1")
			if err == nil {
				sessions[i] = sess
			}
		}(i)
	}
	wg.Wait()
	for _, sess := range sessions {
		require.NotNil(t, sess)
		assert.Same(t, sessions[0], sess)
	}
	assert.Equal(t, 1, store.loads[CartKey("s1")])
}

func TestRegistryEvictionRehydrates(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, snapshot.NewMemoryStore(), 1)

	s1, err := reg.Acquire(ctx, "s1")
	require.NoError(t, err)
	_, err = s1.Cart.AddItem(ctx, catalog.Product{ID: 5, Price: decimal.NewFromInt(3)}, nil)
	require.NoError(t, err)
	reg.Release(s1)

	s2, err := reg.Acquire(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	reg.Release(s2)

	again, err := reg.Acquire(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, s1, again)
	require.Len(t, again.Cart.Snapshot().Items, 1)
	assert.Equal(t, 5, again.Cart.Snapshot().Items[0].ID)
}

func TestRegistryKeepsHeldSessionAcrossEviction(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	reg := newTestRegistry(t, store, 1)

	first, err := reg.Acquire(ctx, "a")
	require.NoError(t, err)
	_, err = reg.Acquire(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	second, err := reg.Acquire(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = first.Cart.AddItem(ctx, catalog.Product{ID: 1, Price: decimal.NewFromInt(3)}, nil)
	require.NoError(t, err)
	_, err = second.Cart.AddItem(ctx, catalog.Product{ID: 2, Price: decimal.NewFromInt(4)}, nil)
	require.NoError(t, err)

	persisted, ok, err := snapshot.NewJSON[cart.State](store, CartKey("a")).Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, persisted.Items, 2)
}

func TestRegistryDropsRetiredSessionOnLastRelease(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, snapshot.NewMemoryStore(), 1)

	a, err := reg.Acquire(ctx, "a")
	require.NoError(t, err)
	_, err = reg.Acquire(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	reg.Release(a)
	assert.Equal(t, 1, reg.Len())

	rebuilt, err := reg.Acquire(ctx, "a")
	require.NoError(t, err)
	assert.NotSame(t, a, rebuilt)
}

func TestSessionWishlistFollowsLogin(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, snapshot.NewMemoryStore(), 4)
	sess, err := reg.Acquire(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, sess.Wishlist().Add(ctx, 3))
	assert.Empty(t, sess.Wishlist().Items())

	_, err = sess.Auth.Login(ctx, auth.Credentials{Email: "c@d.e", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, sess.Wishlist().Add(ctx, 3))
	assert.Equal(t, []int{3}, sess.Wishlist().Items())

	other, err := reg.Acquire(ctx, "s2")
	require.NoError(t, err)
	_, err = other.Auth.Login(ctx, auth.Credentials{Email: "c@d.e", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, other.Wishlist().Has(3))

	_, err = sess.Auth.Logout(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Wishlist().Has(3))
}

func TestSessionAdminLogin(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, snapshot.NewMemoryStore(), 4)
	sess, err := reg.Acquire(ctx, "s1")
	require.NoError(t, err)

	state, err := sess.Auth.Login(ctx, auth.Credentials{Email: "admin@gmail.com", Password: "admin1234"})
	require.NoError(t, err)
	assert.True(t, state.IsAdmin)
}

func TestNewRegistryValidates(t *testing.T) {
	_, err := NewRegistry(RegistryParams{})
	require.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cart-storage:abc", CartKey("abc"))
	assert.Equal(t, "auth-storage:abc", AuthKey("abc"))
}
