package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Form is the shipping and card data collected at checkout. Card data is
// only checked for presence; no payment is taken.
type Form struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	CardNumber string `json:"card_number" validate:"required"`
	CardExpiry string `json:"card_expiry" validate:"required"`
	CardCVC    string `json:"card_cvc" validate:"required"`
}

// Confirmation describes a placed order.
type Confirmation struct {
	OrderID   uuid.UUID       `json:"order_id"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// Cart is the part of a cart engine checkout needs.
type Cart interface {
	Snapshot() cart.State
	ClearIfUnchanged(ctx context.Context, expected cart.State) (cart.State, bool, error)
}

type outcomeRecorder interface {
	IncOutcome(outcome string)
	AddOrderValue(total float64)
}

// ServiceParams wires a Service.
type ServiceParams struct {
	Delay    time.Duration
	Clock    func() time.Time
	Metrics  outcomeRecorder
	Validate *validator.Validate
}

// Service simulates order placement against a session's cart.
type Service struct {
	delay    time.Duration
	now      func() time.Time
	metrics  outcomeRecorder
	validate *validator.Validate
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Delay < 0 {
		return nil, fmt.Errorf("checkout delay must not be negative")
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	if params.Validate == nil {
		params.Validate = validator.New()
	}
	return &Service{
		delay:    params.Delay,
		now:      params.Clock,
		metrics:  params.Metrics,
		validate: params.Validate,
	}, nil
}

// Place checks the cart and form, waits out the processing delay, then
// clears the cart. A cancelled ctx aborts before the cart is touched, and a
// cart that changed during the delay is left as is and reported as a
// conflict so the client can review the new total.
func (s *Service) Place(ctx context.Context, engine Cart, form Form) (*Confirmation, error) {
	state := engine.Snapshot()
	if len(state.Items) == 0 {
		s.record(metrics.CheckoutRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := s.validate.Struct(form); err != nil {
		s.record(metrics.CheckoutRejected)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout form")
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			s.record(metrics.CheckoutAborted)
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	_, cleared, err := engine.ClearIfUnchanged(ctx, state)
	if err != nil {
		s.record(metrics.CheckoutAborted)
		return nil, err
	}
	if !cleared {
		s.record(metrics.CheckoutConflict)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed during checkout")
	}

	conf := &Confirmation{
		OrderID:   uuid.New(),
		Total:     state.Total,
		ItemCount: state.ItemCount(),
		PlacedAt:  s.now().UTC(),
	}
	s.record(metrics.CheckoutPlaced)
	if s.metrics != nil {
		s.metrics.AddOrderValue(state.Total.InexactFloat64())
	}
	return conf, nil
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.IncOutcome(outcome)
	}
}
