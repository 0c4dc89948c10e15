// Package order implements the checkout-to-order pipeline: cart validation
// and pricing, atomic stock reservation, order persistence, and the order
// status lifecycle.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfilment stage of an order.
type Status string

// Order fulfilment statuses.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus is the billing state of an order, orthogonal to Status.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD  = "cod"
	PaymentMethodCard = "card"
	PaymentMethodUPI  = "upi"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodCard, PaymentMethodUPI:
		return true
	}
	return false
}

// transitions is the complete edge set of the status machine. Cancellation is
// reachable from pending and confirmed only; delivered and cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the status machine permits moving from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// paymentTransitions validates payment status coherence: refunded requires a
// prior paid, paid is recorded from pending or failed, failed from pending.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentFailed:   {PaymentPaid},
	PaymentPaid:     {PaymentRefunded},
	PaymentRefunded: {},
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionPayment reports whether a payment status change is coherent.
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LineItem is a product snapshot frozen into an order at creation time.
// Later catalog edits never alter it.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ShippingAddress is the delivery address snapshot stored with an order.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// Order is the durable record produced by checkout. Items and Total are
// immutable after creation; only Status and PaymentStatus change, and only
// through Service transitions.
type Order struct {
	ID              string
	UserID          string
	Items           []LineItem
	Total           decimal.Decimal
	Status          Status
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	ShippingAddress ShippingAddress
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ListFilter pages admin order listings with an optional status filter.
type ListFilter struct {
	Status   Status
	Page     int
	PageSize int
}

// Repository defines persistence operations for orders.
//
// UpdateStatus and UpdatePaymentStatus are compare-and-set: the update applies
// only if the stored value still equals the expected prior value, and the
// return value reports whether a row was changed. This is the linearization
// point for concurrent transition attempts.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListByUser returns every order owned by userID, newest first.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id string, from, to PaymentStatus) (bool, error)
}

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = fmt.Errorf("order not found")

// ErrEmptyCart is returned when a checkout is submitted with no items.
var ErrEmptyCart = fmt.Errorf("cart is empty")

// ErrForbidden is returned when the caller may not act on the order.
var ErrForbidden = fmt.Errorf("not allowed to modify this order")

// InvalidQuantityError indicates a cart line with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductUnavailableError indicates a cart line referencing a product that is
// missing or inactive.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is unavailable", e.ProductID)
}

// InsufficientStockError indicates stock could not be reserved for a product.
// Any reservations made earlier in the same checkout have been rolled back.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

// InvalidTransitionError indicates a status change outside the machine's edge
// set. The order is left unchanged.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// InvalidPaymentTransitionError indicates an incoherent payment status change.
type InvalidPaymentTransitionError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e *InvalidPaymentTransitionError) Error() string {
	return fmt.Sprintf("invalid payment status transition %s -> %s", e.From, e.To)
}
