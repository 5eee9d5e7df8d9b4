package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"petshop/internal/domain"

	"github.com/google/uuid"
)

const productColumns = `id, name, description, price, image_url, category, stock, owner_uid, created_at, updated_at`

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error)
	All(ctx context.Context) ([]*domain.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.ImageURL,
		&product.Category,
		&product.Stock,
		&product.OwnerUID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, image_url, category, stock, owner_uid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Category,
		product.Stock,
		product.OwnerUID,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites the descriptive columns of an existing product. Stock is
// left alone so a stale read never undoes a concurrent checkout.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, image_url = $5,
		    category = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Category,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product. Cart lines, ratings and comments cascade; order
// history does not, so a product that was ever ordered cannot be deleted.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByName retrieves the oldest product with exactly this name
func (r *productRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE name = $1 ORDER BY created_at, id LIMIT 1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}

	return product, nil
}

// List retrieves one page of products with optional category and name filters.
// The filter is expected to carry a normalized page and page size.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	conditions := []string{}
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (filter.Page - 1) * filter.PerPage
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, filter.PerPage, offset)

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// All retrieves every product ordered by name
func (r *productRepository) All(ctx context.Context) ([]*domain.Product, error) {
	products, err := r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list all products: %w", err)
	}
	return products, nil
}

// AdjustStock adds delta to the stock in a single guarded statement. A delta
// that would leave stock negative changes nothing and yields ErrStockConflict.
func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = $3
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, delta, time.Now()))
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, ErrStockConflict
}

// SetStock overwrites the stock count
func (r *productRepository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1`, id, stock, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
