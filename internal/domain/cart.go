package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one (session, product) entry of a shopping cart
type CartLine struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Product   *Product  `json:"product,omitempty"`
}

// Subtotal is quantity times the current catalog price, zero when the product is not loaded
func (l *CartLine) Subtotal() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
