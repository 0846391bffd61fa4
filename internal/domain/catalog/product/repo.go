package product

import (
	"context"

	"stockledger/internal/core/id"
)

// Filter narrows List results.
type Filter struct {
	Search   string // matches sku, name or barcode
	Category *string
	IsActive *bool
	Limit    int
	Offset   int
}

// ReferenceCounts reports how many ledger rows point at a product.
// A product with any nonzero count cannot be deleted.
type ReferenceCounts struct {
	Moves      int64 `json:"moves"`
	BatchLines int64 `json:"batchLines"`
	Levels     int64 `json:"levels"`
}

// Total returns the combined reference count.
func (c ReferenceCounts) Total() int64 {
	return c.Moves + c.BatchLines + c.Levels
}

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID id.ID) error
	List(ctx context.Context, filter Filter) ([]Product, error)
	Count(ctx context.Context, filter Filter) (int64, error)

	// ReferenceCounts counts ledger rows referencing the product.
	ReferenceCounts(ctx context.Context, productID id.ID) (ReferenceCounts, error)

	// UpsertBySKU inserts the product or updates the existing row with
	// the same SKU. Reports whether a new row was created.
	UpsertBySKU(ctx context.Context, p *Product) (created bool, err error)
}
