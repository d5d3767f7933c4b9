package wishlist

import (
	"context"
	"fmt"
	"sort"
	"sync"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// State maps user id to the product ids that user saved. Buckets are kept
// once created, even when emptied.
type State struct {
	Items map[int][]int `json:"items"`
}

// Persister is the durable side of the store.
type Persister interface {
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, state State) error
}

type failureRecorder interface {
	IncPersistFailure(store string)
}

// StoreParams wires a Store.
type StoreParams struct {
	Persister Persister
	Metrics   failureRecorder
}

// Store is the process-wide wishlist shared by every session.
type Store struct {
	mu      sync.RWMutex
	state   State
	persist Persister
	metrics failureRecorder
}

// NewStore rehydrates the persisted wishlist, or starts empty.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Persister == nil {
		return nil, fmt.Errorf("wishlist persister required")
	}
	state, ok, err := params.Persister.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	if !ok || state.Items == nil {
		state = State{Items: map[int][]int{}}
	}
	return &Store{state: state, persist: params.Persister, metrics: params.Metrics}, nil
}

// AddItem adds productID to the user's bucket; repeated adds are no-ops.
func (s *Store) AddItem(ctx context.Context, userID, productID int) error {
	return s.mutate(ctx, func(items map[int][]int) {
		bucket := items[userID]
		if contains(bucket, productID) {
			return
		}
		items[userID] = append(bucket, productID)
	})
}

// RemoveItem drops productID when present.
func (s *Store) RemoveItem(ctx context.Context, userID, productID int) error {
	return s.mutate(ctx, func(items map[int][]int) {
		bucket, ok := items[userID]
		if !ok {
			return
		}
		kept := make([]int, 0, len(bucket))
		for _, id := range bucket {
			if id != productID {
				kept = append(kept, id)
			}
		}
		items[userID] = kept
	})
}

func (s *Store) HasItem(userID, productID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.state.Items[userID], productID)
}

// GetItems returns the user's product ids in ascending order; an unknown
// user has none.
func (s *Store) GetItems(userID int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]int{}, s.state.Items[userID]...)
	sort.Ints(out)
	return out
}

// mutate applies fn to a copy, persists it and publishes on success.
func (s *Store) mutate(ctx context.Context, fn func(map[int][]int)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := State{Items: make(map[int][]int, len(s.state.Items))}
	for user, ids := range s.state.Items {
		next.Items[user] = append([]int{}, ids...)
	}
	fn(next.Items)
	if err := s.persist.Save(ctx, next); err != nil {
		if s.metrics != nil {
			s.metrics.IncPersistFailure("wishlist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist wishlist")
	}
	s.state = next
	return nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
