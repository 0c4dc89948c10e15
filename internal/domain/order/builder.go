package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/snapit/storefront/internal/domain/product"
)

// ErrInvalidPaymentMethod is returned for an unrecognized payment method.
var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// CartLine is a single (product, quantity) pair submitted by a client.
type CartLine struct {
	ProductID string
	Quantity  int
}

// BuildRequest holds the input for pricing a cart into an order draft.
type BuildRequest struct {
	UserID          string
	Lines           []CartLine
	PaymentMethod   string
	ShippingAddress ShippingAddress
}

// Builder validates a submitted cart against current catalog state, snapshots
// pricing, and constructs an order draft. It never touches stock: reservation
// is the orchestrator's job, so pricing failures have no side effects.
type Builder struct {
	catalog product.Repository
}

// NewBuilder creates a Builder reading from the given catalog.
func NewBuilder(catalog product.Repository) *Builder {
	return &Builder{catalog: catalog}
}

// Build produces a priced order draft with status pending and payment status
// pending, or fails without side effects. Prices, names, images, and units
// are copied from the current catalog state so later edits cannot alter the
// order.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !ValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	items := make([]LineItem, 0, len(req.Lines))
	total := decimal.Zero
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID}
		}

		p, err := b.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &ProductUnavailableError{ProductID: line.ProductID}
			}
			return nil, errors.Wrapf(err, "get product %s", line.ProductID)
		}
		if !p.Active {
			return nil, &ProductUnavailableError{ProductID: line.ProductID}
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Unit:      p.Unit,
			Price:     p.Price,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	return &Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Items:           items,
		Total:           total,
		Status:          StatusPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   PaymentPending,
		ShippingAddress: req.ShippingAddress,
	}, nil
}
