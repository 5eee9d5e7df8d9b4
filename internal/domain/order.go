package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is created by checkout and never modified afterwards
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	SessionID       string          `json:"session_id" db:"session_id"`
	BuyerName       string          `json:"buyer_name" db:"buyer_name"`
	ShippingAddress string          `json:"shipping_address" db:"shipping_address"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status          OrderStatus     `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	Items           []*OrderItem    `json:"items,omitempty"`
}

// OrderItem holds the unit price captured at checkout time
type OrderItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID   uuid.UUID       `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	LineNo      int             `json:"line_no" db:"line_no"`
}

// LineTotal is quantity times the frozen unit price
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the line totals of the order's items
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}
