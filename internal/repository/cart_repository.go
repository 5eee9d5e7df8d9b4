package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"petshop/internal/domain"

	"github.com/google/uuid"
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.CartLine, error)
	Remove(ctx context.Context, id uuid.UUID) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.CartLine, error)
	ClearSession(ctx context.Context, sessionID string) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

const cartLineColumns = `id, session_id, product_id, quantity, created_at`

func scanCartLine(row rowScanner) (*domain.CartLine, error) {
	line := &domain.CartLine{}
	if err := row.Scan(&line.ID, &line.SessionID, &line.ProductID, &line.Quantity, &line.CreatedAt); err != nil {
		return nil, err
	}
	return line, nil
}

// Add merges quantity into the session's line for the product, creating the
// line if needed. The merge is one statement so concurrent adds never
// produce duplicate lines.
func (r *cartRepository) Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartLine, error) {
	query := `
		INSERT INTO cart_items (id, session_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING ` + cartLineColumns

	line, err := scanCartLine(r.db.QueryRowContext(ctx, query, uuid.New(), sessionID, productID, quantity, time.Now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	return line, nil
}

// SetQuantity replaces the quantity of a cart line
func (r *cartRepository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.CartLine, error) {
	query := `UPDATE cart_items SET quantity = $2 WHERE id = $1 RETURNING ` + cartLineColumns

	line, err := scanCartLine(r.db.QueryRowContext(ctx, query, id, quantity))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return line, nil
}

// Remove deletes a single cart line
func (r *cartRepository) Remove(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// ListBySession retrieves the session's lines with their products in cart order
func (r *cartRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	return listCartLines(ctx, r.db, sessionID)
}

// ClearSession deletes every line of the session
func (r *cartRepository) ClearSession(ctx context.Context, sessionID string) error {
	return clearCart(ctx, r.db, sessionID)
}

func listCartLines(ctx context.Context, q dbtx, sessionID string) ([]*domain.CartLine, error) {
	query := `
		SELECT c.id, c.session_id, c.product_id, c.quantity, c.created_at,
		       p.id, p.name, p.description, p.price, p.image_url, p.category,
		       p.stock, p.owner_uid, p.created_at, p.updated_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.session_id = $1
		ORDER BY c.created_at, c.id
	`

	rows, err := q.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	lines := []*domain.CartLine{}
	for rows.Next() {
		line := &domain.CartLine{Product: &domain.Product{}}
		p := line.Product
		err := rows.Scan(
			&line.ID, &line.SessionID, &line.ProductID, &line.Quantity, &line.CreatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category,
			&p.Stock, &p.OwnerUID, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return lines, nil
}

func clearCart(ctx context.Context, q dbtx, sessionID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
