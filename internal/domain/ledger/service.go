package ledger

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/pkg/logger"
)

// Service applies, consolidates and reverses stock movements against the
// ledger store. Every mutating call is one atomic unit: all touched balances
// are updated and exactly one record is written or removed, or nothing is.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{
		repo: repo,
		txm:  txm,
	}
}

// MoveRequest describes one requested single-product movement.
type MoveRequest struct {
	Kind           MoveKind
	ProductID      id.ID
	Qty            types.Quantity
	FromLocationID *id.ID
	ToLocationID   *id.ID
	OccurredAt     *time.Time // nil means now
}

// LineInput is one (product, quantity) entry of a batch request.
type LineInput struct {
	ProductID id.ID
	Qty       types.Quantity
}

// BatchRequest describes a multi-product movement sharing one kind and
// location pair. Lines may repeat a product; they are consolidated before
// any storage is touched.
type BatchRequest struct {
	Kind           MoveKind
	FromLocationID *id.ID
	ToLocationID   *id.ID
	OccurredAt     *time.Time
	Lines          []LineInput
}

// ApplyMove validates, applies and records one movement.
// INBOUND adds to the destination; OUTBOUND subtracts from the source after
// a feasibility check; TRANSFER does both, acquiring the two balances in
// deterministic key order.
func (s *Service) ApplyMove(ctx context.Context, req MoveRequest) (*Move, error) {
	if err := validateShape(req.Kind, req.Qty, req.FromLocationID, req.ToLocationID); err != nil {
		return nil, err
	}

	m := &Move{
		ID:             id.New(),
		Kind:           req.Kind,
		ProductID:      req.ProductID,
		Qty:            req.Qty,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		OccurredAt:     occurredOrNow(req.OccurredAt),
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		deltas := moveDeltas(req.Kind, req.ProductID, req.Qty, req.FromLocationID, req.ToLocationID, false)
		if err := s.lockAndApply(ctx, deltas, shortAsInsufficientStock); err != nil {
			return err
		}
		if err := s.repo.CreateMove(ctx, m); err != nil {
			return fmt.Errorf("create move: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock move applied",
		"id", m.ID,
		"kind", m.Kind,
		"product_id", m.ProductID,
		"qty", m.Qty,
	)

	return m, nil
}

// ReverseMove undoes a previously recorded movement: it re-validates the
// stored endpoints, applies the sign-flipped deltas under the same locking
// discipline, then deletes the record. A reversal that would drive any
// balance negative fails with zero side effects and keeps the record.
func (s *Service) ReverseMove(ctx context.Context, moveID id.ID) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetMove(ctx, moveID)
		if err != nil {
			return err
		}
		if err := validateEndpoints(m.Kind, m.FromLocationID, m.ToLocationID); err != nil {
			return err
		}

		deltas := moveDeltas(m.Kind, m.ProductID, m.Qty, m.FromLocationID, m.ToLocationID, true)
		if err := s.lockAndApply(ctx, deltas, shortAsReversalNegative); err != nil {
			return err
		}
		if err := s.repo.DeleteMove(ctx, moveID); err != nil {
			return fmt.Errorf("delete move: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock move reversed", "id", moveID)
	return nil
}

// ApplyBatch validates, consolidates and applies a multi-line movement.
// Feasibility is checked for every consolidated product before any balance
// is mutated: one infeasible product fails the whole batch.
func (s *Service) ApplyBatch(ctx context.Context, req BatchRequest) (*Batch, error) {
	if err := validateEndpoints(req.Kind, req.FromLocationID, req.ToLocationID); err != nil {
		return nil, err
	}
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	totals := consolidate(req.Lines)

	b := &Batch{
		ID:             id.New(),
		Kind:           req.Kind,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		OccurredAt:     occurredOrNow(req.OccurredAt),
	}
	b.Lines = make([]BatchLine, len(totals))
	for i, ln := range totals {
		b.Lines[i] = BatchLine{
			ID:        id.New(),
			BatchID:   b.ID,
			ProductID: ln.ProductID,
			Qty:       ln.Qty,
		}
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		deltas := batchDeltas(req.Kind, totals, req.FromLocationID, req.ToLocationID, false)
		if err := s.lockAndApply(ctx, deltas, shortAsInsufficientStock); err != nil {
			return err
		}
		if err := s.repo.CreateBatch(ctx, b); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock batch applied",
		"id", b.ID,
		"kind", b.Kind,
		"lines", len(b.Lines),
	)

	return b, nil
}

// ReverseBatch undoes a recorded batch. Lines are re-consolidated per
// product before computing inverse deltas; a batch holds at most one line
// per product by construction, so this is a safety net against historical
// data, not a normal path. A batch without lines deletes as a pure no-op
// on balances.
func (s *Service) ReverseBatch(ctx context.Context, batchID id.ID) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if len(b.Lines) == 0 {
			return s.repo.DeleteBatch(ctx, batchID)
		}

		inputs := make([]LineInput, len(b.Lines))
		for i, ln := range b.Lines {
			inputs[i] = LineInput{ProductID: ln.ProductID, Qty: ln.Qty}
		}
		totals := consolidate(inputs)

		deltas := batchDeltas(b.Kind, totals, b.FromLocationID, b.ToLocationID, true)
		if err := s.lockAndApply(ctx, deltas, shortAsReversalNegative); err != nil {
			return err
		}
		if err := s.repo.DeleteBatch(ctx, batchID); err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock batch reversed", "id", batchID)
	return nil
}

// --- Read-side pass-throughs ---

// GetMove retrieves one movement record.
func (s *Service) GetMove(ctx context.Context, moveID id.ID) (*Move, error) {
	return s.repo.GetMove(ctx, moveID)
}

// ListMoves returns movement history, newest first.
func (s *Service) ListMoves(ctx context.Context, filter MoveFilter) ([]Move, error) {
	return s.repo.ListMoves(ctx, filter)
}

// GetBatch retrieves one batch with its lines.
func (s *Service) GetBatch(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.repo.GetBatch(ctx, batchID)
}

// ListBatches returns batch history, newest first.
func (s *Service) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error) {
	return s.repo.ListBatches(ctx, filter)
}

// GetLevels returns balance rows without locking.
func (s *Service) GetLevels(ctx context.Context, filter LevelFilter) ([]Level, error) {
	return s.repo.GetLevels(ctx, filter)
}

// --- Internals ---

// delta is one signed balance adjustment planned for a key.
type delta struct {
	key LevelKey
	qty types.Quantity
}

// shortFn builds the error for a balance that cannot absorb its negative
// delta. requested and available are both non-negative.
type shortFn func(key LevelKey, requested, available types.Quantity) error

func shortAsInsufficientStock(key LevelKey, requested, available types.Quantity) error {
	return apperror.NewInsufficientStock(key.ProductID.String(), requested.String(), available.String())
}

func shortAsReversalNegative(key LevelKey, requested, available types.Quantity) error {
	return apperror.NewReversalNegative(
		key.ProductID.String(),
		key.LocationID.String(),
		requested.Sub(available).String(),
	)
}

// lockAndApply acquires every touched balance in deterministic key order,
// verifies that no negative delta underruns its balance, then applies all
// deltas. Checks complete before the first mutation, so a feasibility
// failure leaves every balance untouched.
func (s *Service) lockAndApply(ctx context.Context, deltas []delta, short shortFn) error {
	merged := make(map[LevelKey]types.Quantity, len(deltas))
	keys := make([]LevelKey, 0, len(deltas))
	for _, d := range deltas {
		if _, seen := merged[d.key]; !seen {
			keys = append(keys, d.key)
		}
		merged[d.key] = merged[d.key].Add(d.qty)
	}
	SortLevelKeys(keys)

	available := make(map[LevelKey]types.Quantity, len(keys))
	for _, k := range keys {
		lvl, err := s.repo.LevelForUpdate(ctx, k)
		if err != nil {
			return fmt.Errorf("acquire balance %s@%s: %w", k.ProductID, k.LocationID, err)
		}
		available[k] = lvl.OnHand
	}

	for _, k := range keys {
		d := merged[k]
		if d.Sign() < 0 && available[k].Add(d).Sign() < 0 {
			return short(k, d.Neg(), available[k])
		}
	}

	for _, k := range keys {
		if merged[k].IsZero() {
			continue
		}
		if err := s.repo.ApplyDelta(ctx, k, merged[k]); err != nil {
			return fmt.Errorf("apply delta %s@%s: %w", k.ProductID, k.LocationID, err)
		}
	}
	return nil
}

// moveDeltas plans the balance adjustments for one movement.
// invert flips all signs for reversal.
func moveDeltas(kind MoveKind, productID id.ID, qty types.Quantity, from, to *id.ID, invert bool) []delta {
	if invert {
		qty = qty.Neg()
	}
	switch kind {
	case KindInbound:
		return []delta{{key: LevelKey{ProductID: productID, LocationID: *to}, qty: qty}}
	case KindOutbound:
		return []delta{{key: LevelKey{ProductID: productID, LocationID: *from}, qty: qty.Neg()}}
	default: // TRANSFER, endpoints validated upstream
		return []delta{
			{key: LevelKey{ProductID: productID, LocationID: *from}, qty: qty.Neg()},
			{key: LevelKey{ProductID: productID, LocationID: *to}, qty: qty},
		}
	}
}

// batchDeltas plans adjustments for a consolidated line set.
func batchDeltas(kind MoveKind, totals []LineInput, from, to *id.ID, invert bool) []delta {
	deltas := make([]delta, 0, len(totals)*2)
	for _, ln := range totals {
		deltas = append(deltas, moveDeltas(kind, ln.ProductID, ln.Qty, from, to, invert)...)
	}
	return deltas
}

// consolidate sums quantities per product and returns one line per distinct
// product, in first-appearance order. A batch listing a product twice is
// equivalent to one line with the summed quantity; consolidating first
// avoids taking the same lock twice and re-checking with stale values.
func consolidate(lines []LineInput) []LineInput {
	totals := make(map[id.ID]types.Quantity, len(lines))
	order := make([]id.ID, 0, len(lines))
	for _, ln := range lines {
		if _, seen := totals[ln.ProductID]; !seen {
			order = append(order, ln.ProductID)
		}
		totals[ln.ProductID] = totals[ln.ProductID].Add(ln.Qty)
	}

	out := make([]LineInput, 0, len(order))
	for _, pid := range order {
		out = append(out, LineInput{ProductID: pid, Qty: totals[pid]})
	}
	return out
}

func occurredOrNow(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now().UTC()
}
