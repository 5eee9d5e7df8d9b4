package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"petshop/internal/domain"
	"petshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MaxBuyerNameLength = 200
	MaxAddressLength   = 1000
)

// OrderService places orders from carts and reads them back
type OrderService interface {
	Checkout(ctx context.Context, sessionID, shippingAddress, buyerName string) (*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type orderService struct {
	store  repository.CheckoutStore
	orders repository.OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(store repository.CheckoutStore, orders repository.OrderRepository, logger *zap.Logger) OrderService {
	return &orderService{store: store, orders: orders, logger: logger}
}

// Checkout converts the session's cart into a pending order. Either the order,
// its items, every stock decrement and the cart clear are all committed, or
// none of them are.
func (s *orderService) Checkout(ctx context.Context, sessionID, shippingAddress, buyerName string) (*domain.Order, error) {
	sessionID, err := validateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	shippingAddress = strings.TrimSpace(shippingAddress)
	if err := validateText("shipping_address", shippingAddress, MaxAddressLength); err != nil {
		return nil, err
	}
	buyerName = strings.TrimSpace(buyerName)
	if err := validateText("buyer_name", buyerName, MaxBuyerNameLength); err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.store.RunInTx(ctx, func(tx repository.CheckoutTx) error {
		lines, err := tx.CartLines(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		ids := make([]uuid.UUID, len(lines))
		for i, line := range lines {
			ids[i] = line.ProductID
		}
		products, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range lines {
			total = total.Add(products[line.ProductID].Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order = &domain.Order{
			ID:              uuid.New(),
			SessionID:       sessionID,
			BuyerName:       buyerName,
			ShippingAddress: shippingAddress,
			TotalAmount:     total,
			Status:          domain.OrderStatusPending,
			CreatedAt:       time.Now(),
			Items:           make([]*domain.OrderItem, 0, len(lines)),
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		for i, line := range lines {
			product := products[line.ProductID]
			shortfall := &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
			if product.Stock < line.Quantity {
				return shortfall
			}
			if err := tx.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockConflict) {
					return shortfall
				}
				return err
			}
			product.Stock -= line.Quantity

			item := &domain.OrderItem{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       product.Price,
				LineNo:      i,
			}
			if err := tx.AddOrderItem(ctx, item); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}

		return tx.ClearCart(ctx, sessionID)
	})
	if err != nil {
		s.logCheckoutFailure(sessionID, err)
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", sessionID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)

	return order, nil
}

func (s *orderService) logCheckoutFailure(sessionID string, err error) {
	var shortfall *InsufficientStockError
	switch {
	case errors.As(err, &shortfall):
		s.logger.Warn("Checkout rejected: insufficient stock",
			zap.String("session_id", sessionID),
			zap.String("product_id", shortfall.ProductID.String()),
			zap.Int("requested", shortfall.Requested),
			zap.Int("available", shortfall.Available),
		)
	case errors.Is(err, ErrEmptyCart):
		s.logger.Debug("Checkout rejected: empty cart", zap.String("session_id", sessionID))
	default:
		s.logger.Error("Checkout failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// ListBySession returns the session's orders newest first
func (s *orderService) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	sessionID, err := validateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.orders.ListBySession(ctx, sessionID)
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func validateText(field, value string, maxLength int) error {
	if value == "" {
		return invalidInput(field, "is required")
	}
	if utf8.RuneCountInString(value) > maxLength {
		return invalidInput(field, fmt.Sprintf("must be at most %d characters", maxLength))
	}
	return nil
}
