package service

import (
	"context"
	"errors"
	"fmt"
	"math"
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
	DefaultPerPage = 12
	MaxPerPage     = 100

	MaxProductNameLength = 200
)

// ProductInput is the data accepted when a product is created
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	Stock       int
	OwnerUID    string
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (product *domain.Product, restocked bool, err error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	Categories(ctx context.Context) ([]string, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	logger *zap.Logger,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// Create adds a product to the catalog. When a product with the same name
// already exists its stock is increased by the input stock instead, and
// restocked is true.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, bool, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateName(input.Name); err != nil {
		return nil, false, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, false, err
	}
	if err := validateStock(input.Stock); err != nil {
		return nil, false, err
	}

	existing, err := s.products.FindByName(ctx, input.Name)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		return nil, false, fmt.Errorf("failed to check existing product: %w", err)
	}
	if existing != nil {
		restocked, err := s.AdjustStock(ctx, existing.ID, input.Stock)
		if err != nil {
			return nil, false, err
		}
		s.logger.Info("Product restocked",
			zap.String("product_id", restocked.ID.String()),
			zap.Int("added", input.Stock),
			zap.Int("stock", restocked.Stock),
		)
		return restocked, true, nil
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Category:    strings.TrimSpace(input.Category),
		Stock:       input.Stock,
		OwnerUID:    input.OwnerUID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, false, fmt.Errorf("failed to create product: %w", err)
	}

	return product, false, nil
}

// Update applies a partial update; only the fields set in the patch change
func (s *productService) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.Stock != nil {
		if err := validateStock(*patch.Stock); err != nil {
			return nil, err
		}
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		patch.Category = &category
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(product)
	product.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if patch.Stock != nil {
		if err := s.products.SetStock(ctx, id, *patch.Stock); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to update stock: %w", err)
		}
	}

	return s.products.FindByID(ctx, id)
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// List returns one page of the catalog. Out-of-range paging values fall back
// to the defaults and the page size is capped.
func (s *productService) List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	filter = NormalizeFilter(filter)

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &domain.ProductPage{
		Products:    products,
		Total:       total,
		Pages:       int(math.Ceil(float64(total) / float64(filter.PerPage))),
		CurrentPage: filter.Page,
	}, nil
}

func (s *productService) Categories(ctx context.Context) ([]string, error) {
	return s.categories.List(ctx)
}

// AdjustStock changes stock by delta atomically and never below zero
func (s *productService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	product, err := s.products.AdjustStock(ctx, id, delta)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, repository.ErrStockConflict) {
		return nil, err
	}

	current, findErr := s.products.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return nil, &InsufficientStockError{
		ProductID:   current.ID,
		ProductName: current.Name,
		Requested:   -delta,
		Available:   current.Stock,
	}
}

// NormalizeFilter fills in default paging values
func NormalizeFilter(filter domain.ProductFilter) domain.ProductFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
	if filter.PerPage > MaxPerPage {
		filter.PerPage = MaxPerPage
	}
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)
	return filter
}

func validateName(name string) error {
	if name == "" {
		return invalidInput("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxProductNameLength {
		return invalidInput("name", fmt.Sprintf("must be at most %d characters", MaxProductNameLength))
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return invalidInput("price", "must be greater than zero")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return invalidInput("stock", "must not be negative")
	}
	return nil
}
