package order

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/snapit/storefront/internal/domain/product"
)

// maxTransitionAttempts bounds the CAS retry loop. A lost race re-evaluates
// against the fresh status, so more than a couple of attempts means something
// is pathologically wrong.
const maxTransitionAttempts = 3

// Actor identifies who is requesting an order mutation.
type Actor struct {
	UserID string
	Admin  bool
}

// Service composes the builder, the stock ledger, and the order store into
// the checkout and status-transition operations.
type Service struct {
	builder *Builder
	ledger  product.StockLedger
	orders  Repository
	lg      *zap.Logger
}

// NewService creates an order Service with the required domain dependencies.
func NewService(catalog product.Repository, ledger product.StockLedger, orders Repository, lg *zap.Logger) *Service {
	return &Service{
		builder: NewBuilder(catalog),
		ledger:  ledger,
		orders:  orders,
		lg:      lg,
	}
}

// Checkout turns a client cart into a durable order, all-or-nothing:
// build and price the draft (no side effects on failure), reserve stock line
// by line rolling back earlier reservations if one fails, then persist. Once
// the order is stored the checkout is complete.
func (s *Service) Checkout(ctx context.Context, req BuildRequest) (*Order, error) {
	draft, err := s.builder.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	reserved := make([]LineItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		if err := s.ledger.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			s.rollbackReservations(ctx, reserved)
			if errors.Is(err, product.ErrInsufficientStock) {
				return nil, &InsufficientStockError{ProductID: item.ProductID}
			}
			return nil, errors.Wrapf(err, "reserve stock for %s", item.ProductID)
		}
		reserved = append(reserved, item)
	}

	if err := s.orders.Create(ctx, draft); err != nil {
		s.rollbackReservations(ctx, reserved)
		return nil, errors.Wrap(err, "create order")
	}

	s.lg.Info("order created",
		zap.String("order_id", draft.ID),
		zap.String("user_id", draft.UserID),
		zap.Int("items", len(draft.Items)),
		zap.String("total", draft.Total.String()),
	)
	return draft, nil
}

// rollbackReservations returns previously reserved quantities to stock after
// a partial checkout failure. Restore failures are logged, not propagated:
// the checkout error the caller sees must be the original one.
func (s *Service) rollbackReservations(ctx context.Context, reserved []LineItem) {
	for _, item := range reserved {
		if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			s.lg.Error("failed to roll back stock reservation",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

// TransitionResult is the outcome of a status transition.
type TransitionResult struct {
	Order *Order
	// RefundRequired is set when a paid order was cancelled. Payment reversal
	// is external; the payment status stays "paid" until an administrator
	// records the refund.
	RefundRequired bool
}

// Transition applies a status change on behalf of an actor.
//
// Administrators drive forward transitions and may cancel at pending or
// confirmed; the owning customer may only cancel their own pending order.
// The change is applied with a compare-and-set on the stored status, so a
// concurrent attempt that loses the race is re-evaluated against the fresh
// status rather than a stale read. When the transition lands on cancelled the
// reserved stock is restored exactly once: the CAS from a non-cancelled
// status guarantees at-most-once restoration.
func (s *Service) Transition(ctx context.Context, orderID string, to Status, actor Actor) (*TransitionResult, error) {
	if !ValidStatus(to) {
		return nil, &InvalidTransitionError{To: to}
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		if err := authorizeTransition(o, to, actor); err != nil {
			return nil, err
		}
		if !CanTransition(o.Status, to) {
			return nil, &InvalidTransitionError{From: o.Status, To: to}
		}

		applied, err := s.orders.UpdateStatus(ctx, orderID, o.Status, to)
		if err != nil {
			return nil, errors.Wrap(err, "update status")
		}
		if !applied {
			// Lost a concurrent race; evaluate against the updated status.
			continue
		}

		refundRequired := false
		if to == StatusCancelled {
			s.restockCancelled(ctx, o)
			if o.PaymentStatus == PaymentPaid {
				refundRequired = true
				s.lg.Warn("cancelled order was paid; manual refund required",
					zap.String("order_id", o.ID),
					zap.String("total", o.Total.String()),
				)
			}
		}

		updated, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return &TransitionResult{Order: updated, RefundRequired: refundRequired}, nil
	}

	return nil, errors.Errorf("transition of order %s contended %d times", orderID, maxTransitionAttempts)
}

// authorizeTransition enforces who may drive which transition.
func authorizeTransition(o *Order, to Status, actor Actor) error {
	if actor.Admin {
		return nil
	}
	// Customers may only cancel their own order, and only while pending.
	if to != StatusCancelled || o.UserID != actor.UserID || o.Status != StatusPending {
		return ErrForbidden
	}
	return nil
}

// restockCancelled restores every line item's quantity. Called only after a
// successful CAS into cancelled.
func (s *Service) restockCancelled(ctx context.Context, o *Order) {
	for _, item := range o.Items {
		if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			s.lg.Error("failed to restore stock for cancelled order",
				zap.String("order_id", o.ID),
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

// RecordPayment records an externally observed payment status change,
// enforcing coherence (refunded requires paid, paid from pending or failed).
// Applied with a compare-and-set like fulfilment transitions.
func (s *Service) RecordPayment(ctx context.Context, orderID string, to PaymentStatus) (*Order, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		if !CanTransitionPayment(o.PaymentStatus, to) {
			return nil, &InvalidPaymentTransitionError{From: o.PaymentStatus, To: to}
		}

		applied, err := s.orders.UpdatePaymentStatus(ctx, orderID, o.PaymentStatus, to)
		if err != nil {
			return nil, errors.Wrap(err, "update payment status")
		}
		if !applied {
			continue
		}

		return s.orders.GetByID(ctx, orderID)
	}

	return nil, errors.Errorf("payment update of order %s contended %d times", orderID, maxTransitionAttempts)
}

// ListForUser returns every order owned by userID, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// List returns a page of all orders for administration.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	return s.orders.List(ctx, f)
}

// GetForActor returns a single order, restricted to its owner unless the
// actor is an administrator.
func (s *Service) GetForActor(ctx context.Context, orderID string, actor Actor) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && o.UserID != actor.UserID {
		// Do not reveal that the order exists.
		return nil, ErrNotFound
	}
	return o, nil
}
