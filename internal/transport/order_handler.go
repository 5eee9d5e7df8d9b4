package transport

import (
	"net/http"

	"petshop/internal/middleware"
	"petshop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutRequest turns a session's cart into an order
type CheckoutRequest struct {
	SessionID       string `json:"session_id" validate:"max=100"`
	BuyerName       string `json:"buyer_name" validate:"required,max=200"`
	ShippingAddress string `json:"shipping_address" validate:"required,max=1000"`
}

// OrderHandler handles HTTP requests for checkout and order history
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// RegisterRoutes registers the order routes; writeLimit guards checkout
func (h *OrderHandler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/api/orders/session/{session_id}", h.ListBySession)
	r.Get("/api/orders/{id}", h.Get)
	r.With(orPassthrough(writeLimit)).Post("/api/orders", h.Checkout)
}

// Checkout places the order. A stock shortfall answers 409 naming the product.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.Checkout(r.Context(), sessionFrom(r, req.SessionID), req.ShippingAddress, req.BuyerName)
	if err != nil {
		respondServiceError(w, h.logger, err, "checkout")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListBySession(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}
