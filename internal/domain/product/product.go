package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Units enumerates the measurement units a product can be sold in.
var Units = []string{"kg", "g", "lb", "piece", "pack", "bottle", "can"}

// ValidUnit reports whether u is one of the supported measurement units.
func ValidUnit(u string) bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// Product represents a catalog item available for purchase.
//
// Stock is authoritative only in storage: the value carried here is a read
// snapshot and must never be written back. All stock mutations go through the
// StockLedger.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	Image       string
	Stock       int
	Unit        string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilter narrows and pages catalog listings.
type ListFilter struct {
	CategoryID string
	Search     string
	// IncludeInactive lists soft-deleted products too (admin views).
	IncludeInactive bool
	Page            int
	PageSize        int
}

// Repository defines catalog operations. Reads are used by the checkout
// pipeline; writes only by the admin CRUD surface.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Product, int64, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	// Deactivate soft-deletes a product; existing order snapshots keep its data.
	Deactivate(ctx context.Context, id string) error
}

// ErrInsufficientStock is returned by StockLedger.Reserve when a product does
// not have enough stock to cover the requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockLedger owns the authoritative stock count per product.
//
// Reserve must be atomic with respect to concurrent callers on the same
// product: if two requests race for the last unit, at most one succeeds.
// Restore is an unconditional increment and is not idempotent; callers must
// guarantee it runs at most once per cancelled order.
type StockLedger interface {
	Reserve(ctx context.Context, productID string, quantity int) error
	Restore(ctx context.Context, productID string, quantity int) error
}
