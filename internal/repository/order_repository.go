package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"petshop/internal/domain"

	"github.com/google/uuid"
)

// OrderRepository reads placed orders. Orders are only written by checkout.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, session_id, buyer_name, shipping_address, total_amount, status, created_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.SessionID,
		&order.BuyerName,
		&order.ShippingAddress,
		&order.TotalAmount,
		&order.Status,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Items = []*domain.OrderItem{}
	return order, nil
}

// FindByID retrieves an order together with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.attachItems(ctx, `WHERE order_id = $1`, id, map[uuid.UUID]*domain.Order{order.ID: order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListBySession retrieves the session's orders newest first, each with its items
func (r *orderRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	byID := map[uuid.UUID]*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		byID[order.ID] = order
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	where := `WHERE order_id IN (SELECT id FROM orders WHERE session_id = $1)`
	if err := r.attachItems(ctx, where, sessionID, byID); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) attachItems(ctx context.Context, where string, arg any, orders map[uuid.UUID]*domain.Order) error {
	query := `
		SELECT id, order_id, product_id, product_name, quantity, price, line_no
		FROM order_items
		` + where + `
		ORDER BY order_id, line_no, id
	`

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &domain.OrderItem{}
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.LineNo)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := orders[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func insertOrder(ctx context.Context, q dbtx, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, session_id, buyer_name, shipping_address, total_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.ExecContext(
		ctx,
		query,
		order.ID,
		order.SessionID,
		order.BuyerName,
		order.ShippingAddress,
		order.TotalAmount,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func insertOrderItem(ctx context.Context, q dbtx, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price, line_no)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.ExecContext(ctx, query, item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.LineNo)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}

	return nil
}
