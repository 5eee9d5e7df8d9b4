package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	Category    string          `json:"category" db:"category"`
	Stock       int             `json:"stock" db:"stock"`
	OwnerUID    string          `json:"owner_uid,omitempty" db:"owner_uid"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// HasCategory reports whether the optional category label is set
func (p *Product) HasCategory() bool {
	return p.Category != ""
}

// ProductPatch carries the fields of a partial product update. Nil fields are left unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	Category    *string
	Stock       *int
}

// Apply copies the set fields of the patch onto the product
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
}

// ProductFilter narrows catalog listings
type ProductFilter struct {
	Category string
	Search   string
	Page     int
	PerPage  int
}

// ProductPage is one page of a catalog listing
type ProductPage struct {
	Products    []*Product `json:"products"`
	Total       int        `json:"total"`
	Pages       int        `json:"pages"`
	CurrentPage int        `json:"current_page"`
}
