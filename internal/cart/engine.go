package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"go.uber.org/multierr"
)

// Persister is the durable side of the engine. Save receives every
// published snapshot exactly once.
type Persister interface {
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, state State) error
}

// WishlistSink receives product ids moved out of the cart.
type WishlistSink interface {
	Add(ctx context.Context, productID int) error
}

type mutationRecorder interface {
	IncMutation(op string)
	IncPersistFailure(store string)
}

type noopRecorder struct{}

func (noopRecorder) IncMutation(string)       {}
func (noopRecorder) IncPersistFailure(string) {}

// EngineParams wires an Engine.
type EngineParams struct {
	Persister Persister
	Clock     func() time.Time
	Metrics   mutationRecorder
}

// Engine owns one cart snapshot. Each operation computes the next state,
// persists it and only then publishes it to readers.
type Engine struct {
	mu      sync.Mutex
	state   State
	persist Persister
	now     func() time.Time
	metrics mutationRecorder
}

// NewEngine rehydrates the persisted snapshot, or starts empty.
func NewEngine(ctx context.Context, params EngineParams) (*Engine, error) {
	if params.Persister == nil {
		return nil, fmt.Errorf("cart persister required")
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	if params.Metrics == nil {
		params.Metrics = noopRecorder{}
	}
	state, ok, err := params.Persister.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !ok {
		state = NewState()
	}
	return &Engine{
		state:   state.normalize(),
		persist: params.Persister,
		now:     params.Clock,
		metrics: params.Metrics,
	}, nil
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) apply(ctx context.Context, op string, fn func(State) State) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commit(ctx, op, fn(e.state))
}

// commit persists next and publishes it. e.mu must be held.
func (e *Engine) commit(ctx context.Context, op string, next State) (State, error) {
	if err := e.persist.Save(ctx, next); err != nil {
		e.metrics.IncPersistFailure("cart")
		return e.state.Clone(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	e.state = next
	e.metrics.IncMutation(op)
	return next.Clone(), nil
}

func (e *Engine) AddItem(ctx context.Context, product catalog.Product, variant *catalog.ProductVariant) (State, error) {
	now := e.now()
	return e.apply(ctx, "add_item", func(s State) State { return s.AddItem(product, variant, now) })
}

func (e *Engine) RemoveItem(ctx context.Context, productID int) (State, error) {
	return e.apply(ctx, "remove_item", func(s State) State { return s.RemoveItem(productID) })
}

func (e *Engine) RemoveSelectedItems(ctx context.Context) (State, error) {
	return e.apply(ctx, "remove_selected", State.RemoveSelectedItems)
}

func (e *Engine) UpdateQuantity(ctx context.Context, productID, quantity int) (State, error) {
	return e.apply(ctx, "update_quantity", func(s State) State { return s.UpdateQuantity(productID, quantity) })
}

func (e *Engine) SaveForLater(ctx context.Context, productID int) (State, error) {
	return e.apply(ctx, "save_for_later", func(s State) State { return s.SaveForLater(productID) })
}

func (e *Engine) MoveToCart(ctx context.Context, productID int) (State, error) {
	now := e.now()
	return e.apply(ctx, "move_to_cart", func(s State) State { return s.MoveToCart(productID, now) })
}

func (e *Engine) ToggleGiftWrap(ctx context.Context, productID int) (State, error) {
	return e.apply(ctx, "toggle_gift_wrap", func(s State) State { return s.ToggleGiftWrap(productID) })
}

func (e *Engine) ToggleItemSelection(ctx context.Context, productID int) (State, error) {
	return e.apply(ctx, "toggle_selection", func(s State) State { return s.ToggleItemSelection(productID) })
}

func (e *Engine) SelectAllItems(ctx context.Context) (State, error) {
	return e.apply(ctx, "select_all", State.SelectAllItems)
}

func (e *Engine) DeselectAllItems(ctx context.Context) (State, error) {
	return e.apply(ctx, "deselect_all", State.DeselectAllItems)
}

func (e *Engine) ApplyDiscount(ctx context.Context, code string) (State, error) {
	return e.apply(ctx, "apply_discount", func(s State) State { return s.ApplyDiscount(code) })
}

func (e *Engine) RemoveDiscount(ctx context.Context) (State, error) {
	return e.apply(ctx, "remove_discount", State.RemoveDiscount)
}

func (e *Engine) Clear(ctx context.Context) (State, error) {
	return e.apply(ctx, "clear", State.Clear)
}

// ClearIfUnchanged clears the cart only while its lines and discount still
// match expected. It reports whether the cart was cleared; a cart that
// moved on is returned untouched.
func (e *Engine) ClearIfUnchanged(ctx context.Context, expected State) (State, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.samePurchase(expected) {
		return e.state.Clone(), false, nil
	}
	next, err := e.commit(ctx, "clear", e.state.Clear())
	if err != nil {
		return next, false, err
	}
	return next, true, nil
}

// MoveSelectedToWishlist removes the selected lines, staging them in the
// cart's own wishlist, then forwards each product id to sink when one is
// given. Sink failures are collected; the cart change is already committed.
func (e *Engine) MoveSelectedToWishlist(ctx context.Context, sink WishlistSink) (State, error) {
	var moved []int
	state, err := e.apply(ctx, "move_selected_to_wishlist", func(s State) State {
		next, ids := s.MoveSelectedToWishlist()
		moved = ids
		return next
	})
	if err != nil || sink == nil {
		return state, err
	}
	var errs error
	for _, id := range moved {
		if addErr := sink.Add(ctx, id); addErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("wishlist add %d: %w", id, addErr))
		}
	}
	if errs != nil {
		return state, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "forward moved items to wishlist")
	}
	return state, nil
}
