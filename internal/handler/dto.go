package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/snapit/storefront/internal/domain/category"
	"github.com/snapit/storefront/internal/domain/feedback"
	"github.com/snapit/storefront/internal/domain/order"
	"github.com/snapit/storefront/internal/domain/product"
	"github.com/snapit/storefront/internal/domain/user"
)

// JSON response shapes. Monetary values are serialized as floats to match the
// original client contract; precision lives in the decimal domain types.

type userJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	IsBlocked bool      `json:"isBlocked"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserJSON(u *user.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		IsBlocked: u.Blocked,
		CreatedAt: u.CreatedAt,
	}
}

type categoryJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toCategoryJSON(c *category.Category) categoryJSON {
	return categoryJSON{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Image:       c.Image,
		CreatedAt:   c.CreatedAt,
	}
}

type productJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CategoryID  string    `json:"category"`
	Image       string    `json:"image"`
	Stock       int       `json:"stock"`
	Unit        string    `json:"unit"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProductJSON(p *product.Product) productJSON {
	return productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		CategoryID:  p.CategoryID,
		Image:       p.Image,
		Stock:       p.Stock,
		Unit:        p.Unit,
		IsActive:    p.Active,
		CreatedAt:   p.CreatedAt,
	}
}

type lineItemJSON struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Unit      string  `json:"unit"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type addressJSON struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

type orderJSON struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Items           []lineItemJSON `json:"items"`
	TotalAmount     float64        `json:"totalAmount"`
	Status          string         `json:"status"`
	PaymentMethod   string         `json:"paymentMethod"`
	PaymentStatus   string         `json:"paymentStatus"`
	ShippingAddress addressJSON    `json:"shippingAddress"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func toOrderJSON(o *order.Order) orderJSON {
	items := make([]lineItemJSON, len(o.Items))
	for i, item := range o.Items {
		items[i] = lineItemJSON{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Unit:      item.Unit,
			Price:     item.Price.InexactFloat64(),
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal.InexactFloat64(),
		}
	}
	return orderJSON{
		ID:            o.ID,
		UserID:        o.UserID,
		Items:         items,
		TotalAmount:   o.Total.InexactFloat64(),
		Status:        string(o.Status),
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: string(o.PaymentStatus),
		ShippingAddress: addressJSON{
			Street:  o.ShippingAddress.Street,
			City:    o.ShippingAddress.City,
			State:   o.ShippingAddress.State,
			ZipCode: o.ShippingAddress.ZipCode,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type feedbackJSON struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	UserEmail string    `json:"userEmail,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func toFeedbackJSON(f *feedback.Feedback) feedbackJSON {
	return feedbackJSON{
		ID:        f.ID,
		UserID:    f.UserID,
		UserName:  f.UserName,
		UserEmail: f.UserEmail,
		Subject:   f.Subject,
		Message:   f.Message,
		Rating:    f.Rating,
		Status:    f.Status,
		CreatedAt: f.CreatedAt,
	}
}

// pageParams reads 1-indexed "page" and capped "limit" query parameters.
func (h *Handler) pageParams(r *http.Request) (page, pageSize int) {
	page = 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	pageSize = h.cfg.DefaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > h.cfg.MaxPageSize {
		pageSize = h.cfg.MaxPageSize
	}
	return page, pageSize
}

// totalPages computes the page count for a listing envelope.
func totalPages(total int64, pageSize int) int64 {
	if pageSize <= 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}
