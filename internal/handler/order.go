package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/snapit/storefront/internal/domain/order"
)

type cartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items           []cartLineRequest `json:"items"`
	PaymentMethod   string            `json:"paymentMethod"`
	ShippingAddress addressJSON       `json:"shippingAddress"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u := identityFrom(r.Context())

	lines := make([]order.CartLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = order.CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	o, err := h.orders.Checkout(r.Context(), order.BuildRequest{
		UserID:        u.ID,
		Lines:         lines,
		PaymentMethod: req.PaymentMethod,
		ShippingAddress: order.ShippingAddress{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
		},
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderJSON(o))
}

// writeCheckoutError maps checkout failures onto the status codes the client
// distinguishes: bad input 400, unknown product 404, stock contention 409.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		quantityErr    *order.InvalidQuantityError
		unavailableErr *order.ProductUnavailableError
		stockErr       *order.InsufficientStockError
	)
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeMessage(w, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, order.ErrInvalidPaymentMethod):
		writeMessage(w, http.StatusBadRequest, "Invalid payment method")
	case errors.As(err, &quantityErr):
		writeMessage(w, http.StatusBadRequest, quantityErr.Error())
	case errors.As(err, &unavailableErr):
		writeMessage(w, http.StatusNotFound, unavailableErr.Error())
	case errors.As(err, &stockErr):
		writeMessage(w, http.StatusConflict, stockErr.Error())
	default:
		writeServerError(w, r, err)
	}
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	u := identityFrom(r.Context())

	list, err := h.orders.ListForUser(r.Context(), u.ID)
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	out := make([]orderJSON, len(list))
	for i := range list {
		out[i] = toOrderJSON(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	u := identityFrom(r.Context())

	o, err := h.orders.GetForActor(r.Context(), chi.URLParam(r, "id"), order.Actor{
		UserID: u.ID,
		Admin:  u.IsAdmin(),
	})
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Order not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

type orderListResponse struct {
	Orders      []orderJSON `json:"orders"`
	TotalPages  int64       `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	Total       int64       `json:"total"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.pageParams(r)

	status := order.Status(r.URL.Query().Get("status"))
	if status != "" && !order.ValidStatus(status) {
		writeMessage(w, http.StatusBadRequest, "Unknown order status")
		return
	}

	list, total, err := h.orders.List(r.Context(), order.ListFilter{
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	out := make([]orderJSON, len(list))
	for i := range list {
		out[i] = toOrderJSON(&list[i])
	}
	writeJSON(w, http.StatusOK, orderListResponse{
		Orders:      out,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		Total:       total,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type transitionResponse struct {
	Order          orderJSON `json:"order"`
	RefundRequired bool      `json:"refundRequired,omitempty"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	to := order.Status(req.Status)
	if !order.ValidStatus(to) {
		writeMessage(w, http.StatusBadRequest, "Unknown order status")
		return
	}

	u := identityFrom(r.Context())
	res, err := h.orders.Transition(r.Context(), chi.URLParam(r, "id"), to, order.Actor{
		UserID: u.ID,
		Admin:  u.IsAdmin(),
	})
	if err != nil {
		var transitionErr *order.InvalidTransitionError
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, order.ErrForbidden):
			writeMessage(w, http.StatusForbidden, "Not allowed to modify this order")
		case errors.As(err, &transitionErr):
			writeMessage(w, http.StatusBadRequest, transitionErr.Error())
		default:
			writeServerError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, transitionResponse{
		Order:          toOrderJSON(res.Order),
		RefundRequired: res.RefundRequired,
	})
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

func (h *Handler) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updatePaymentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	to := order.PaymentStatus(req.PaymentStatus)
	if !order.ValidPaymentStatus(to) {
		writeMessage(w, http.StatusBadRequest, "Unknown payment status")
		return
	}

	o, err := h.orders.RecordPayment(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		var paymentErr *order.InvalidPaymentTransitionError
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Order not found")
		case errors.As(err, &paymentErr):
			writeMessage(w, http.StatusBadRequest, paymentErr.Error())
		default:
			writeServerError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toOrderJSON(o))
}
