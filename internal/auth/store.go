package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var ErrNotAuthenticated = pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated")

// Persister is the durable side of the store.
type Persister interface {
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, state State) error
}

type failureRecorder interface {
	IncPersistFailure(store string)
}

// StoreParams wires a Store. Strategies are tried in order; Accounts serves
// registration and profile updates.
type StoreParams struct {
	Persister  Persister
	Strategies []Strategy
	Accounts   Accounts
	Metrics    failureRecorder
}

// Store holds one session's login. Remote calls run without the lock held;
// concurrent logins resolve last-write-wins.
type Store struct {
	mu         sync.Mutex
	state      State
	persist    Persister
	strategies []Strategy
	api        Accounts
	metrics    failureRecorder
}

// NewStore rehydrates the persisted login, or starts logged out.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Persister == nil {
		return nil, fmt.Errorf("auth persister required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts client required")
	}
	if len(params.Strategies) == 0 {
		return nil, fmt.Errorf("at least one auth strategy required")
	}
	state, _, err := params.Persister.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auth")
	}
	return &Store{
		state:      state,
		persist:    params.Persister,
		strategies: params.Strategies,
		api:        params.Accounts,
		metrics:    params.Metrics,
	}, nil
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Login authenticates with the first matching strategy. Remote failures are
// returned unchanged.
func (s *Store) Login(ctx context.Context, creds Credentials) (State, error) {
	for _, strategy := range s.strategies {
		if !strategy.Matches(creds) {
			continue
		}
		next, err := strategy.Authenticate(ctx, creds)
		if err != nil {
			return s.Snapshot(), err
		}
		return s.publish(ctx, next)
	}
	return s.Snapshot(), pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

// Register creates a remote account, then logs in as it.
func (s *Store) Register(ctx context.Context, creds Credentials, name string) (State, error) {
	if _, err := s.api.CreateUser(ctx, creds.Email, creds.Password, name); err != nil {
		return s.Snapshot(), err
	}
	next, err := NewRemoteStrategy(s.api).Authenticate(ctx, creds)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.publish(ctx, next)
}

// Logout clears the session's login. The in-memory state is cleared even
// when the write fails.
func (s *Store) Logout(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	if err := s.persist.Save(ctx, s.state); err != nil {
		s.recordFailure()
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist auth")
	}
	return State{}, nil
}

// UpdateProfile sends patch with the current token and merges the reply
// into the user.
func (s *Store) UpdateProfile(ctx context.Context, patch catalog.ProfileUpdate) (State, error) {
	current := s.Snapshot()
	if !current.Authenticated() {
		return current, ErrNotAuthenticated
	}
	updated, err := s.api.UpdateProfile(ctx, *current.Token, patch)
	if err != nil {
		return current, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Authenticated() {
		return s.state.clone(), ErrNotAuthenticated
	}
	next := s.state.clone()
	if updated != nil {
		merged := next.User.Merge(*updated)
		next.User = &merged
	}
	return s.commit(ctx, next)
}

func (s *Store) publish(ctx context.Context, next State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, next)
}

// commit persists next and publishes it; callers hold s.mu.
func (s *Store) commit(ctx context.Context, next State) (State, error) {
	if err := s.persist.Save(ctx, next); err != nil {
		s.recordFailure()
		return s.state.clone(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist auth")
	}
	s.state = next
	return next.clone(), nil
}

func (s *Store) recordFailure() {
	if s.metrics != nil {
		s.metrics.IncPersistFailure("auth")
	}
}

// IsNotAuthenticated reports whether err means no one is logged in.
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}
