package location

import (
	"context"

	"stockledger/internal/core/id"
)

// Filter narrows List results.
type Filter struct {
	Search   string // matches code or name
	IsActive *bool
	Limit    int
	Offset   int
}

// ReferenceCounts reports how many ledger rows point at a location.
// A location with any nonzero count cannot be deleted.
type ReferenceCounts struct {
	Moves   int64 `json:"moves"`
	Batches int64 `json:"batches"`
	Levels  int64 `json:"levels"`
}

// Total returns the combined reference count.
func (c ReferenceCounts) Total() int64 {
	return c.Moves + c.Batches + c.Levels
}

// Repository defines the interface for Location persistence.
type Repository interface {
	Create(ctx context.Context, l *Location) error
	GetByID(ctx context.Context, locationID id.ID) (*Location, error)
	GetByCode(ctx context.Context, code string) (*Location, error)
	Update(ctx context.Context, l *Location) error
	Delete(ctx context.Context, locationID id.ID) error
	List(ctx context.Context, filter Filter) ([]Location, error)
	Count(ctx context.Context, filter Filter) (int64, error)

	// ReferenceCounts counts ledger rows referencing the location,
	// either as a movement endpoint or as a balance row.
	ReferenceCounts(ctx context.Context, locationID id.ID) (ReferenceCounts, error)
}
