// Package ledger implements the inventory ledger engine: quantity balances
// per (product, location) pair and the immutable movement history that
// produced them.
package ledger

import (
	"sort"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// MoveKind classifies a stock movement.
type MoveKind string

const (
	KindInbound  MoveKind = "INBOUND"
	KindOutbound MoveKind = "OUTBOUND"
	KindTransfer MoveKind = "TRANSFER"
)

// Valid reports whether k is a known movement kind.
func (k MoveKind) Valid() bool {
	switch k {
	case KindInbound, KindOutbound, KindTransfer:
		return true
	}
	return false
}

// Level is the current on-hand balance of one product at one location.
// Exactly one row exists per pair that has ever been touched; rows are
// created lazily at zero and never deleted by the ledger.
type Level struct {
	ID         id.ID          `db:"id"`
	ProductID  id.ID          `db:"product_id"`
	LocationID id.ID          `db:"location_id"`
	OnHand     types.Quantity `db:"on_hand"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// Move is an immutable record of a single applied movement.
// It is created only by the applier and destroyed only by the reversal
// engine; there is no update path.
type Move struct {
	ID             id.ID          `db:"id"`
	Kind           MoveKind       `db:"kind"`
	ProductID      id.ID          `db:"product_id"`
	Qty            types.Quantity `db:"qty"`
	FromLocationID *id.ID         `db:"from_location_id"`
	ToLocationID   *id.ID         `db:"to_location_id"`
	OccurredAt     time.Time      `db:"occurred_at"`
	CreatedAt      time.Time      `db:"created_at"`
}

// Batch is a multi-product movement sharing one kind and location pair.
// A batch with its lines is one atomic movement: created and reversed as
// a unit, with at most one line per product after consolidation.
type Batch struct {
	ID             id.ID          `db:"id"`
	Kind           MoveKind       `db:"kind"`
	FromLocationID *id.ID         `db:"from_location_id"`
	ToLocationID   *id.ID         `db:"to_location_id"`
	OccurredAt     time.Time      `db:"occurred_at"`
	CreatedAt      time.Time      `db:"created_at"`
	Lines          []BatchLine    `db:"-"`
}

// BatchLine is one consolidated (product, quantity) entry of a batch.
type BatchLine struct {
	ID        id.ID          `db:"id"`
	BatchID   id.ID          `db:"batch_id"`
	ProductID id.ID          `db:"product_id"`
	Qty       types.Quantity `db:"qty"`
}

// LevelKey identifies one balance row.
type LevelKey struct {
	ProductID  id.ID
	LocationID id.ID
}

// SortLevelKeys orders keys ascending by (product, location).
// Every multi-key acquisition goes through this order so that concurrent
// operations touching overlapping key sets never wait in opposite orders.
func SortLevelKeys(keys []LevelKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return id.Less(keys[i].ProductID, keys[j].ProductID)
		}
		return id.Less(keys[i].LocationID, keys[j].LocationID)
	})
}

// ProductRef is the display identity of a product, resolved for read-side
// output (reorder suggestions).
type ProductRef struct {
	SKU  string `db:"sku"`
	Name string `db:"name"`
}
