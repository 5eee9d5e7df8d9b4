package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"petshop/internal/domain"

	"github.com/google/uuid"
)

// CheckoutTx is the set of statements a checkout runs inside one transaction
type CheckoutTx interface {
	CartLines(ctx context.Context, sessionID string) ([]*domain.CartLine, error)
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	AddOrderItem(ctx context.Context, item *domain.OrderItem) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	ClearCart(ctx context.Context, sessionID string) error
}

// CheckoutStore runs a unit of work atomically. If fn returns an error every
// statement it issued is rolled back.
type CheckoutStore interface {
	RunInTx(ctx context.Context, fn func(tx CheckoutTx) error) error
}

type checkoutStore struct {
	db *sql.DB
}

// NewCheckoutStore creates a new instance of CheckoutStore
func NewCheckoutStore(db *sql.DB) CheckoutStore {
	return &checkoutStore{db: db}
}

func (s *checkoutStore) RunInTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkout transaction: %w", err)
	}

	if err := fn(&checkoutTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout transaction: %w", err)
	}
	return nil
}

type checkoutTx struct {
	tx *sql.Tx
}

func (t *checkoutTx) CartLines(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	return listCartLines(ctx, t.tx, sessionID)
}

// LockProducts takes a row lock on every product, one at a time in ascending
// id order. Two checkouts that share products therefore acquire their locks
// in the same order and cannot deadlock.
func (t *checkoutTx) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	ordered := make([]uuid.UUID, len(ids))
	copy(ordered, ids)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	locked := make(map[uuid.UUID]*domain.Product, len(ordered))
	for _, id := range ordered {
		if _, seen := locked[id]; seen {
			continue
		}

		product, err := scanProduct(t.tx.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
			}
			return nil, fmt.Errorf("failed to lock product: %w", err)
		}
		locked[id] = product
	}

	return locked, nil
}

func (t *checkoutTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	return insertOrder(ctx, t.tx, order)
}

func (t *checkoutTx) AddOrderItem(ctx context.Context, item *domain.OrderItem) error {
	return insertOrderItem(ctx, t.tx, item)
}

// DecrementStock is guarded so it never drives stock negative even if the
// caller's view of the row is stale.
func (t *checkoutTx) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $1, updated_at = $3
		WHERE id = $2 AND stock >= $1
	`

	result, err := t.tx.ExecContext(ctx, query, quantity, productID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrStockConflict
	}

	return nil
}

func (t *checkoutTx) ClearCart(ctx context.Context, sessionID string) error {
	return clearCart(ctx, t.tx, sessionID)
}
