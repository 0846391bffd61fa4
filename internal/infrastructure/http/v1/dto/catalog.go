package dto

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalog/location"
	"stockledger/internal/domain/catalog/product"
)

// --- Products ---

// ProductRequest is the payload for creating or updating a product.
type ProductRequest struct {
	SKU        string  `json:"sku" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Barcode    *string `json:"barcode"`
	Category   *string `json:"category"`
	Cost       string  `json:"cost"`
	SalesPrice string  `json:"salesPrice"`
	IsActive   *bool   `json:"isActive"`
}

// ToProduct converts the payload into a domain product.
func (r ProductRequest) ToProduct() (*product.Product, error) {
	p := product.New(r.SKU, r.Name)
	p.Barcode = r.Barcode
	p.Category = r.Category

	if r.Cost != "" {
		cost, err := types.NewQuantityFromString(r.Cost)
		if err != nil {
			return nil, apperror.NewValidation("cost must be a decimal number").
				WithDetail("value", r.Cost)
		}
		p.Cost = cost
	}
	if r.SalesPrice != "" {
		price, err := types.NewQuantityFromString(r.SalesPrice)
		if err != nil {
			return nil, apperror.NewValidation("sales price must be a decimal number").
				WithDetail("value", r.SalesPrice)
		}
		p.SalesPrice = price
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}

	return p, nil
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID         string      `json:"id"`
	SKU        string      `json:"sku"`
	Name       string      `json:"name"`
	Barcode    *string     `json:"barcode,omitempty"`
	Category   *string     `json:"category,omitempty"`
	Cost       types.Money `json:"cost"`
	SalesPrice types.Money `json:"salesPrice"`
	IsActive   bool        `json:"isActive"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// FromProduct converts a domain product to a response DTO.
func FromProduct(p product.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID.String(),
		SKU:        p.SKU,
		Name:       p.Name,
		Barcode:    p.Barcode,
		Category:   p.Category,
		Cost:       p.Cost,
		SalesPrice: p.SalesPrice,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// FromProducts converts a slice of products.
func FromProducts(products []product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}

// --- Locations ---

// LocationRequest is the payload for creating or updating a location.
type LocationRequest struct {
	Code     string  `json:"code" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"isActive"`
}

// ToLocation converts the payload into a domain location.
func (r LocationRequest) ToLocation() *location.Location {
	l := location.New(r.Code, r.Name)
	l.Address = r.Address
	if r.IsActive != nil {
		l.IsActive = *r.IsActive
	}
	return l
}

// LocationResponse represents a location in API responses.
type LocationResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromLocation converts a domain location to a response DTO.
func FromLocation(l location.Location) LocationResponse {
	return LocationResponse{
		ID:        l.ID.String(),
		Code:      l.Code,
		Name:      l.Name,
		Address:   l.Address,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// FromLocations converts a slice of locations.
func FromLocations(locations []location.Location) []LocationResponse {
	out := make([]LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, FromLocation(l))
	}
	return out
}
