// Package product provides the Product catalog: the sellable and
// storable items the stock ledger tracks balances for.
package product

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Product is one catalog item, identified for humans by SKU.
type Product struct {
	ID id.ID `db:"id" json:"id"`

	// SKU is the unique stock keeping unit code
	SKU string `db:"sku" json:"sku"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Barcode is the optional EAN/UPC code
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Category is a free-form grouping label
	Category *string `db:"category" json:"category,omitempty"`

	// Cost is the purchase cost per unit
	Cost types.Money `db:"cost" json:"cost"`

	// SalesPrice is the selling price per unit
	SalesPrice types.Money `db:"sales_price" json:"salesPrice"`

	// IsActive indicates the product can appear on new movements
	IsActive bool `db:"is_active" json:"isActive"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a Product with required fields.
func New(sku, name string) *Product {
	return &Product{
		ID:       id.New(),
		SKU:      sku,
		Name:     name,
		IsActive: true,
	}
}

// Validate checks invariants before persistence.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.Cost.Sign() < 0 {
		return apperror.NewValidation("cost cannot be negative").
			WithDetail("field", "cost").
			WithDetail("value", p.Cost.String())
	}
	if p.SalesPrice.Sign() < 0 {
		return apperror.NewValidation("sales price cannot be negative").
			WithDetail("field", "salesPrice").
			WithDetail("value", p.SalesPrice.String())
	}
	return nil
}
