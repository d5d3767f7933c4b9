// Package session hosts the per-session cart and auth stores.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/snapshot"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"
)

const (
	cartKeyPrefix = "cart-storage:"
	authKeyPrefix = "auth-storage:"
	// WishlistKey is the single snapshot holding every user's wishlist.
	WishlistKey = "wishlist-storage"
)

// CartKey and AuthKey name a session's snapshots.
func CartKey(sessionID string) string { return cartKeyPrefix + sessionID }
func AuthKey(sessionID string) string { return authKeyPrefix + sessionID }

// Session is one client's cart and login.
type Session struct {
	ID        string
	Cart      *cart.Engine
	Auth      *auth.Store
	wishlists *wishlist.Store
}

// Wishlist returns the wishlist of whoever is logged in, or the anonymous
// list when nobody is.
func (s *Session) Wishlist() wishlist.List {
	userID, ok := s.Auth.Snapshot().UserID()
	return wishlist.Resolve(s.wishlists, userID, ok)
}

// RegistryParams wires a Registry.
type RegistryParams struct {
	Snapshots snapshot.Store
	Wishlists *wishlist.Store
	Accounts  auth.Accounts
	Admin     config.AdminConfig
	CacheSize int
	Clock     func() time.Time
	Metrics   *metrics.CartMetrics
}

// Registry builds sessions on first use and keeps the most recently used
// ones in memory. Callers pair every Acquire with a Release. A session that
// falls out of the cache while still held is retired rather than dropped,
// and the next Acquire hands it out again, so an id never has two live
// cart engines. Released and evicted sessions are rebuilt from snapshots.
type Registry struct {
	params RegistryParams
	group  singleflight.Group

	// mu guards recent, retired and every entry's refs. recent is only
	// mutated under mu, so retire runs with mu held.
	mu      sync.Mutex
	recent  *simplelru.LRU[string, *entry]
	retired map[string]*entry
}

type entry struct {
	sess *Session
	refs int
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if params.Wishlists == nil {
		return nil, fmt.Errorf("wishlist store required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts client required")
	}
	if params.CacheSize <= 0 {
		return nil, fmt.Errorf("session cache size must be positive")
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	r := &Registry{params: params, retired: make(map[string]*entry)}
	recent, err := simplelru.NewLRU[string, *entry](params.CacheSize, r.retire)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	r.recent = recent
	return r, nil
}

// Acquire returns the session for id, rehydrating it when it is not in
// memory, and holds it until Release.
func (r *Registry) Acquire(ctx context.Context, id string) (*Session, error) {
	for {
		if sess, ok := r.hold(id, nil); ok {
			return sess, nil
		}
		v, err, _ := r.group.Do(id, func() (any, error) {
			r.mu.Lock()
			e, ok := r.find(id)
			r.mu.Unlock()
			if ok {
				return e.sess, nil
			}
			sess, err := r.build(ctx, id)
			if err != nil {
				return nil, err
			}
			r.mu.Lock()
			r.recent.Add(id, &entry{sess: sess})
			r.mu.Unlock()
			return sess, nil
		})
		if err != nil {
			return nil, err
		}
		// The built session may have been evicted unheld before this caller
		// got to it; then whatever is registered now wins.
		if sess, ok := r.hold(id, v.(*Session)); ok {
			return sess, nil
		}
	}
}

// Release gives back a session obtained from Acquire.
func (r *Registry) Release(sess *Session) {
	if sess == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.retired[sess.ID]; ok && e.sess == sess {
		e.refs--
		if e.refs <= 0 {
			delete(r.retired, sess.ID)
		}
		return
	}
	if e, ok := r.recent.Peek(sess.ID); ok && e.sess == sess && e.refs > 0 {
		e.refs--
	}
}

// Len reports how many sessions are held in memory, retired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recent.Len() + len(r.retired)
}

// hold takes a reference on the registered session for id. When want is
// set, it only succeeds if that exact session is the registered one.
func (r *Registry) hold(id string, want *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.find(id)
	if !ok || (want != nil && e.sess != want) {
		return nil, false
	}
	e.refs++
	return e.sess, true
}

// find looks id up, bringing a retired session back into the cache. mu
// must be held.
func (r *Registry) find(id string) (*entry, bool) {
	if e, ok := r.recent.Get(id); ok {
		return e, true
	}
	e, ok := r.retired[id]
	if !ok {
		return nil, false
	}
	delete(r.retired, id)
	r.recent.Add(id, e)
	return e, true
}

// retire is the eviction callback of recent.
func (r *Registry) retire(id string, e *entry) {
	if e.refs > 0 {
		r.retired[id] = e
	}
}

func (r *Registry) build(ctx context.Context, id string) (*Session, error) {
	engine, err := cart.NewEngine(ctx, cart.EngineParams{
		Persister: snapshot.NewJSON[cart.State](r.params.Snapshots, CartKey(id)),
		Clock:     r.params.Clock,
		Metrics:   r.params.Metrics,
	})
	if err != nil {
		return nil, err
	}

	strategies := make([]auth.Strategy, 0, 2)
	if r.params.Admin.Enabled {
		strategies = append(strategies, auth.NewAdminStrategy(r.params.Admin))
	}
	strategies = append(strategies, auth.NewRemoteStrategy(r.params.Accounts))
	authStore, err := auth.NewStore(ctx, auth.StoreParams{
		Persister:  snapshot.NewJSON[auth.State](r.params.Snapshots, AuthKey(id)),
		Strategies: strategies,
		Accounts:   r.params.Accounts,
		Metrics:    r.params.Metrics,
	})
	if err != nil {
		return nil, err
	}

	return &Session{ID: id, Cart: engine, Auth: authStore, wishlists: r.params.Wishlists}, nil
}
