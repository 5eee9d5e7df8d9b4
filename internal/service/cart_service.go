package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"petshop/internal/domain"
	"petshop/internal/repository"

	"github.com/google/uuid"
)

const MaxSessionIDLength = 100

// CartService defines the interface for per-session cart logic
type CartService interface {
	Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*domain.CartLine, error)
	Remove(ctx context.Context, lineID uuid.UUID) error
	Lines(ctx context.Context, sessionID string) ([]*domain.CartLine, error)
	Clear(ctx context.Context, sessionID string) error
}

type cartService struct {
	cart     repository.CartRepository
	products repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cart repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{cart: cart, products: products}
}

// Add puts quantity units of the product in the session's cart. A zero
// quantity means one. Adding a product already in the cart increases its line.
func (s *cartService) Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartLine, error) {
	sessionID, err := validateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		quantity = 1
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	line, err := s.cart.Add(ctx, sessionID, productID, quantity)
	if err != nil {
		return nil, err
	}
	line.Product = product

	return line, nil
}

func (s *cartService) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*domain.CartLine, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	line, err := s.cart.SetQuantity(ctx, lineID, quantity)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, line.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart product: %w", err)
	}
	line.Product = product

	return line, nil
}

func (s *cartService) Remove(ctx context.Context, lineID uuid.UUID) error {
	return s.cart.Remove(ctx, lineID)
}

func (s *cartService) Lines(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	sessionID, err := validateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.cart.ListBySession(ctx, sessionID)
}

func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	sessionID, err := validateSessionID(sessionID)
	if err != nil {
		return err
	}
	return s.cart.ClearSession(ctx, sessionID)
}

func validateSessionID(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", invalidInput("session_id", "is required")
	}
	if utf8.RuneCountInString(sessionID) > MaxSessionIDLength {
		return "", invalidInput("session_id", fmt.Sprintf("must be at most %d characters", MaxSessionIDLength))
	}
	return sessionID, nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return invalidInput("quantity", "must be at least 1")
	}
	return nil
}
