package transport

import (
	"net/http"

	"petshop/internal/domain"
	"petshop/internal/middleware"
	"petshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddToCartRequest adds quantity (default 1) of a product to a session's
// cart. The session may also come from the session header.
type AddToCartRequest struct {
	SessionID string `json:"session_id" validate:"max=100"`
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

// CartLineResponse is a cart line with its current subtotal
type CartLineResponse struct {
	*domain.CartLine
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartResponse is a session's cart in insertion order
type CartResponse struct {
	SessionID string             `json:"session_id"`
	Items     []CartLineResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
}

// CartHandler handles HTTP requests for shopping carts
type CartHandler struct {
	cart   service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cart service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

// RegisterRoutes registers the cart routes; writeLimit guards mutations
func (h *CartHandler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/api/cart/{session_id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(orPassthrough(writeLimit))
		r.Post("/api/cart", h.Add)
		r.Put("/api/cart/items/{item_id}", h.SetQuantity)
		r.Delete("/api/cart/items/{item_id}", h.Remove)
		r.Delete("/api/cart/{session_id}", h.Clear)
	})
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	lines, err := h.cart.Lines(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, h.logger, err, "load cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(sessionID, lines))
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Cart validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	line, err := h.cart.Add(r.Context(), sessionFrom(r, req.SessionID), uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err, "add to cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CartLineResponse{CartLine: line, Subtotal: line.Subtotal()})
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "item_id")
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	line, err := h.cart.SetQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err, "update cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, line)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "item_id")
	if !ok {
		return
	}

	if err := h.cart.Remove(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "remove cart item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context(), chi.URLParam(r, "session_id")); err != nil {
		respondServiceError(w, h.logger, err, "clear cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func newCartResponse(sessionID string, lines []*domain.CartLine) CartResponse {
	resp := CartResponse{SessionID: sessionID, Items: make([]CartLineResponse, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		subtotal := line.Subtotal()
		resp.Items = append(resp.Items, CartLineResponse{CartLine: line, Subtotal: subtotal})
		resp.Total = resp.Total.Add(subtotal)
	}
	return resp
}
