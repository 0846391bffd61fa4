// Package ledger_repo provides the PostgreSQL implementation of the
// stock ledger repository: balance rows, movement records and the
// aggregate queries the reorder advisor reads.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	levelsTable     = "inventory_levels"
	movesTable      = "stock_moves"
	batchesTable    = "stock_move_batches"
	batchLinesTable = "stock_move_lines"
	productsTable   = "products"
)

// Compile-time check.
var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm      *postgres.TxManager
	inserter *postgres.BatchInserter
	builder  squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:      txm,
		inserter: postgres.NewBatchInserter(txm),
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// --- Balance rows ---

// LevelForUpdate returns the balance row for the key with a pessimistic
// row lock, creating it at zero first when absent. Callers must already
// be inside a transaction and must request keys in ascending key order.
func (r *LedgerRepo) LevelForUpdate(ctx context.Context, key ledger.LevelKey) (ledger.Level, error) {
	var level ledger.Level
	querier := r.txm.GetQuerier(ctx)

	// Ensure the row exists so the FOR UPDATE below always locks.
	insertSQL := fmt.Sprintf(`
		INSERT INTO %s (id, product_id, location_id, on_hand, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (product_id, location_id) DO NOTHING
	`, levelsTable)
	if _, err := querier.Exec(ctx, insertSQL, id.New(), key.ProductID, key.LocationID); err != nil {
		return level, fmt.Errorf("ensure level row: %w", err)
	}

	selectSQL := fmt.Sprintf(`
		SELECT id, product_id, location_id, on_hand, updated_at
		FROM %s
		WHERE product_id = $1 AND location_id = $2
		FOR UPDATE
	`, levelsTable)
	if err := pgxscan.Get(ctx, querier, &level, selectSQL, key.ProductID, key.LocationID); err != nil {
		return level, fmt.Errorf("lock level row: %w", err)
	}

	return level, nil
}

// ApplyDelta adjusts a locked balance row by a signed quantity.
func (r *LedgerRepo) ApplyDelta(ctx context.Context, key ledger.LevelKey, delta types.Quantity) error {
	q := r.builder.Update(levelsTable).
		Set("on_hand", squirrel.Expr("on_hand + ?", delta)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"product_id": key.ProductID, "location_id": key.LocationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("apply delta: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory level", fmt.Sprintf("%s@%s", key.ProductID, key.LocationID))
	}

	return nil
}

// GetLevels returns balance rows matching the filter.
func (r *LedgerRepo) GetLevels(ctx context.Context, filter ledger.LevelFilter) ([]ledger.Level, error) {
	q := r.builder.Select("id", "product_id", "location_id", "on_hand", "updated_at").
		From(levelsTable).
		OrderBy("product_id", "location_id")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []ledger.Level
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select levels: %w", err)
	}

	return levels, nil
}

// OnHandTotals sums balances per product across all locations.
func (r *LedgerRepo) OnHandTotals(ctx context.Context) (map[id.ID]types.Quantity, error) {
	sql := fmt.Sprintf(`
		SELECT product_id, SUM(on_hand) AS total
		FROM %s
		GROUP BY product_id
	`, levelsTable)

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("sum on-hand: %w", err)
	}
	defer rows.Close()

	totals := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var productID id.ID
		var total types.Quantity
		if err := rows.Scan(&productID, &total); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals[productID] = total
	}

	return totals, rows.Err()
}

// --- Moves ---

// CreateMove inserts a single movement record.
func (r *LedgerRepo) CreateMove(ctx context.Context, m *ledger.Move) error {
	q := r.builder.Insert(movesTable).
		Columns("id", "kind", "product_id", "qty", "from_location_id", "to_location_id", "occurred_at", "created_at").
		Values(m.ID, m.Kind, m.ProductID, m.Qty, m.FromLocationID, m.ToLocationID, m.OccurredAt, squirrel.Expr("now()")).
		Suffix("RETURNING created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("insert move: %w", err)
	}

	return nil
}

// GetMove returns a movement record by id.
func (r *LedgerRepo) GetMove(ctx context.Context, moveID id.ID) (*ledger.Move, error) {
	q := r.builder.Select("id", "kind", "product_id", "qty", "from_location_id", "to_location_id", "occurred_at", "created_at").
		From(movesTable).
		Where(squirrel.Eq{"id": moveID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.Move
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock move", moveID.String())
		}
		return nil, fmt.Errorf("get move: %w", err)
	}

	return &m, nil
}

// DeleteMove removes a movement record.
func (r *LedgerRepo) DeleteMove(ctx context.Context, moveID id.ID) error {
	q := r.builder.Delete(movesTable).Where(squirrel.Eq{"id": moveID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete move: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock move", moveID.String())
	}

	return nil
}

// ListMoves returns movement records matching the filter, newest first.
func (r *LedgerRepo) ListMoves(ctx context.Context, filter ledger.MoveFilter) ([]ledger.Move, error) {
	q := r.builder.Select("id", "kind", "product_id", "qty", "from_location_id", "to_location_id", "occurred_at", "created_at").
		From(movesTable).
		OrderBy("occurred_at DESC", "created_at DESC")

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_location_id": *filter.LocationID},
			squirrel.Eq{"to_location_id": *filter.LocationID},
		})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"occurred_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var moves []ledger.Move
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &moves, sql, args...); err != nil {
		return nil, fmt.Errorf("select moves: %w", err)
	}

	return moves, nil
}

// --- Batches ---

// CreateBatch inserts a consolidated batch header and its lines. Lines
// go through the COPY protocol when there are enough of them to matter.
func (r *LedgerRepo) CreateBatch(ctx context.Context, b *ledger.Batch) error {
	q := r.builder.Insert(batchesTable).
		Columns("id", "kind", "from_location_id", "to_location_id", "occurred_at", "created_at").
		Values(b.ID, b.Kind, b.FromLocationID, b.ToLocationID, b.OccurredAt, squirrel.Expr("now()")).
		Suffix("RETURNING created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&b.CreatedAt); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	if len(b.Lines) == 0 {
		return nil
	}

	columns := []string{"id", "batch_id", "product_id", "qty"}
	rows := make([][]any, 0, len(b.Lines))
	for _, ln := range b.Lines {
		rows = append(rows, []any{ln.ID, ln.BatchID, ln.ProductID, ln.Qty})
	}
	if _, err := r.inserter.CopyFromSlice(ctx, batchLinesTable, columns, rows); err != nil {
		return fmt.Errorf("copy batch lines: %w", err)
	}

	return nil
}

// GetBatch returns a batch with its lines.
func (r *LedgerRepo) GetBatch(ctx context.Context, batchID id.ID) (*ledger.Batch, error) {
	q := r.builder.Select("id", "kind", "from_location_id", "to_location_id", "occurred_at", "created_at").
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b ledger.Batch
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock batch", batchID.String())
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	lines, err := r.batchLines(ctx, batchID)
	if err != nil {
		return nil, err
	}
	b.Lines = lines

	return &b, nil
}

func (r *LedgerRepo) batchLines(ctx context.Context, batchID id.ID) ([]ledger.BatchLine, error) {
	q := r.builder.Select("id", "batch_id", "product_id", "qty").
		From(batchLinesTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []ledger.BatchLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select batch lines: %w", err)
	}

	return lines, nil
}

// DeleteBatch removes a batch header; lines cascade.
func (r *LedgerRepo) DeleteBatch(ctx context.Context, batchID id.ID) error {
	q := r.builder.Delete(batchesTable).Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock batch", batchID.String())
	}

	return nil
}

// ListBatches returns batch headers matching the filter, newest first.
// Lines are not loaded; use GetBatch for the full document.
func (r *LedgerRepo) ListBatches(ctx context.Context, filter ledger.BatchFilter) ([]ledger.Batch, error) {
	q := r.builder.Select("id", "kind", "from_location_id", "to_location_id", "occurred_at", "created_at").
		From(batchesTable).
		OrderBy("occurred_at DESC", "created_at DESC")

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_location_id": *filter.LocationID},
			squirrel.Eq{"to_location_id": *filter.LocationID},
		})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"occurred_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []ledger.Batch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}

	return batches, nil
}

// --- Advisor aggregates ---

// OutboundTotalsSince sums outbound quantities per product from single
// moves and batch lines that occurred on or after the cutoff.
func (r *LedgerRepo) OutboundTotalsSince(ctx context.Context, cutoff time.Time) (map[id.ID]types.Quantity, error) {
	sql := fmt.Sprintf(`
		SELECT product_id, SUM(qty) AS total
		FROM (
			SELECT product_id, qty
			FROM %s
			WHERE kind = 'OUTBOUND' AND occurred_at >= $1
			UNION ALL
			SELECT l.product_id, l.qty
			FROM %s l
			JOIN %s b ON b.id = l.batch_id
			WHERE b.kind = 'OUTBOUND' AND b.occurred_at >= $1
		) demand
		GROUP BY product_id
	`, movesTable, batchLinesTable, batchesTable)

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, cutoff)
	if err != nil {
		return nil, fmt.Errorf("sum outbound demand: %w", err)
	}
	defer rows.Close()

	totals := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var productID id.ID
		var total types.Quantity
		if err := rows.Scan(&productID, &total); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals[productID] = total
	}

	return totals, rows.Err()
}

// ProductRefs resolves SKU and name for the given product ids.
func (r *LedgerRepo) ProductRefs(ctx context.Context, ids []id.ID) (map[id.ID]ledger.ProductRef, error) {
	if len(ids) == 0 {
		return map[id.ID]ledger.ProductRef{}, nil
	}

	q := r.builder.Select("id", "sku", "name").
		From(productsTable).
		Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	refs := make(map[id.ID]ledger.ProductRef, len(ids))
	for rows.Next() {
		var productID id.ID
		var ref ledger.ProductRef
		if err := rows.Scan(&productID, &ref.SKU, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		refs[productID] = ref
	}

	return refs, rows.Err()
}
