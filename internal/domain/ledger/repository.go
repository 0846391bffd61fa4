package ledger

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Repository defines durable storage for balances and movement history.
//
// Locking contract: LevelForUpdate grants exclusive ownership of one balance
// key until the surrounding transaction completes; no other acquirer observes
// or mutates the key in between. Callers that need several keys must acquire
// them in SortLevelKeys order. Mutation is expressed as a signed delta
// relative to the stored value, never as a write of a cached read.
type Repository interface {
	// Balance operations

	// LevelForUpdate returns the balance row for key with an exclusive lock,
	// creating it at zero if the pair has never been touched.
	LevelForUpdate(ctx context.Context, key LevelKey) (Level, error)

	// ApplyDelta adds delta (possibly negative) to the locked balance row.
	ApplyDelta(ctx context.Context, key LevelKey, delta types.Quantity) error

	// GetLevels returns balance rows without locking (read path).
	GetLevels(ctx context.Context, filter LevelFilter) ([]Level, error)

	// OnHandTotals sums on-hand per product across all locations.
	OnHandTotals(ctx context.Context) (map[id.ID]types.Quantity, error)

	// Movement history

	// CreateMove appends one immutable movement record.
	CreateMove(ctx context.Context, m *Move) error

	// GetMove retrieves a movement by id (NOT_FOUND if absent).
	GetMove(ctx context.Context, moveID id.ID) (*Move, error)

	// DeleteMove removes a movement record. Only the reversal engine calls
	// this, after compensating balances.
	DeleteMove(ctx context.Context, moveID id.ID) error

	// ListMoves returns movement history, newest first.
	ListMoves(ctx context.Context, filter MoveFilter) ([]Move, error)

	// Batch history

	// CreateBatch persists a batch header with its consolidated lines.
	CreateBatch(ctx context.Context, b *Batch) error

	// GetBatch retrieves a batch with its lines (NOT_FOUND if absent).
	GetBatch(ctx context.Context, batchID id.ID) (*Batch, error)

	// DeleteBatch removes a batch header; its lines cascade.
	DeleteBatch(ctx context.Context, batchID id.ID) error

	// ListBatches returns batch headers with lines, newest first.
	ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error)

	// Read-side aggregation

	// OutboundTotalsSince sums OUTBOUND quantities per product from both
	// single movements and batch lines with timestamp >= cutoff.
	OutboundTotalsSince(ctx context.Context, cutoff time.Time) (map[id.ID]types.Quantity, error)

	// ProductRefs resolves display identity for the given products.
	ProductRefs(ctx context.Context, ids []id.ID) (map[id.ID]ProductRef, error)
}

// LevelFilter narrows balance queries.
type LevelFilter struct {
	ProductID  *id.ID
	LocationID *id.ID
	Limit      int
	Offset     int
}

// MoveFilter narrows movement history queries.
type MoveFilter struct {
	Kind       *MoveKind
	ProductID  *id.ID
	LocationID *id.ID // matches source or destination
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// BatchFilter narrows batch history queries.
type BatchFilter struct {
	Kind       *MoveKind
	LocationID *id.ID // matches source or destination
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
