package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapit/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockCatalog struct {
	byID   map[string]*product.Product
	getErr error
}

func (m *mockCatalog) List(_ context.Context, _ product.ListFilter) ([]product.Product, int64, error) {
	return nil, 0, nil
}

func (m *mockCatalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockCatalog) Create(_ context.Context, _ *product.Product) error { return nil }
func (m *mockCatalog) Update(_ context.Context, _ *product.Product) error { return nil }
func (m *mockCatalog) Deactivate(_ context.Context, _ string) error       { return nil }

// --- Helpers ---

func newTestProduct(id, name string, price decimal.Decimal) product.Product {
	return product.Product{
		ID:     id,
		Name:   name,
		Price:  price,
		Image:  "image.jpg",
		Unit:   "kg",
		Stock:  100,
		Active: true,
	}
}

func newCatalog(products ...product.Product) *mockCatalog {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockCatalog{byID: byID}
}

// --- Tests ---

func TestBuild_EmptyCart(t *testing.T) {
	b := NewBuilder(newCatalog())

	_, err := b.Build(context.Background(), BuildRequest{PaymentMethod: PaymentMethodCOD})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestBuild_InvalidPaymentMethod(t *testing.T) {
	p1 := newTestProduct("p1", "Bananas", decimal.NewFromInt(2))
	b := NewBuilder(newCatalog(p1))

	_, err := b.Build(context.Background(), BuildRequest{
		Lines:         []CartLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: "cheque",
	})
	require.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestBuild_InvalidQuantity(t *testing.T) {
	p1 := newTestProduct("p1", "Bananas", decimal.NewFromInt(2))
	b := NewBuilder(newCatalog(p1))

	for _, qty := range []int{0, -3} {
		_, err := b.Build(context.Background(), BuildRequest{
			Lines:         []CartLine{{ProductID: "p1", Quantity: qty}},
			PaymentMethod: PaymentMethodCOD,
		})

		var iqErr *InvalidQuantityError
		require.ErrorAs(t, err, &iqErr)
		assert.Equal(t, "p1", iqErr.ProductID)
	}
}

func TestBuild_ProductMissing(t *testing.T) {
	b := NewBuilder(newCatalog())

	_, err := b.Build(context.Background(), BuildRequest{
		Lines:         []CartLine{{ProductID: "ghost", Quantity: 1}},
		PaymentMethod: PaymentMethodCOD,
	})

	var puErr *ProductUnavailableError
	require.ErrorAs(t, err, &puErr)
	assert.Equal(t, "ghost", puErr.ProductID)
}

func TestBuild_ProductInactive(t *testing.T) {
	p1 := newTestProduct("p1", "Bananas", decimal.NewFromInt(2))
	p1.Active = false
	b := NewBuilder(newCatalog(p1))

	_, err := b.Build(context.Background(), BuildRequest{
		Lines:         []CartLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: PaymentMethodCOD,
	})

	var puErr *ProductUnavailableError
	require.ErrorAs(t, err, &puErr)
	assert.Equal(t, "p1", puErr.ProductID)
}

func TestBuild_SnapshotsAndTotals(t *testing.T) {
	p1 := newTestProduct("p1", "Bananas", decimal.RequireFromString("1.99"))
	p2 := newTestProduct("p2", "Milk", decimal.RequireFromString("1.29"))
	p2.Unit = "bottle"
	b := NewBuilder(newCatalog(p1, p2))

	o, err := b.Build(context.Background(), BuildRequest{
		UserID: "u1",
		Lines: []CartLine{
			{ProductID: "p1", Quantity: 3},
			{ProductID: "p2", Quantity: 2},
		},
		PaymentMethod: PaymentMethodCard,
		ShippingAddress: ShippingAddress{
			Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, PaymentMethodCard, o.PaymentMethod)
	assert.Equal(t, "Springfield", o.ShippingAddress.City)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "Bananas", o.Items[0].Name)
	assert.Equal(t, "bottle", o.Items[1].Unit)
	assert.True(t, o.Items[0].Subtotal.Equal(decimal.RequireFromString("5.97")))
	assert.True(t, o.Items[1].Subtotal.Equal(decimal.RequireFromString("2.58")))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("8.55")))
}

func TestBuild_PriceFrozenAgainstLaterEdits(t *testing.T) {
	p1 := newTestProduct("p1", "Bananas", decimal.RequireFromString("1.99"))
	catalog := newCatalog(p1)
	b := NewBuilder(catalog)

	o, err := b.Build(context.Background(), BuildRequest{
		UserID:        "u1",
		Lines:         []CartLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: PaymentMethodCOD,
	})
	require.NoError(t, err)

	// A catalog price change after the build must not leak into the order.
	catalog.byID["p1"].Price = decimal.RequireFromString("9.99")

	assert.True(t, o.Items[0].Price.Equal(decimal.RequireFromString("1.99")))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("1.99")))
}
