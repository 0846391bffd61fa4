// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalog/product"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	productsTable      = "products"
	stockMovesTable    = "stock_moves"
	batchLinesTable    = "stock_move_lines"
	inventoryTable     = "inventory_levels"
	pgUniqueViolation  = "23505"
	pgForeignKeyBroken = "23503"
)

var productColumns = []string{
	"id", "sku", "name", "barcode", "category",
	"cost", "sales_price", "is_active", "created_at", "updated_at",
}

// Compile-time check.
var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new product row.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(p.ID, p.SKU, p.Name, p.Barcode, p.Category,
			p.Cost, p.SalesPrice, p.IsActive, p.CreatedAt, p.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("product", "sku", p.SKU).WithCause(err)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID returns a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"id": productID}, productID.String())
}

// GetBySKU returns a product by SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"sku": sku}, sku)
}

func (r *ProductRepo) getOne(ctx context.Context, where squirrel.Eq, ident string) (*product.Product, error) {
	q := r.builder.Select(productColumns...).From(productsTable).Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", ident)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// Update rewrites an existing product row.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productsTable).
		Set("sku", p.SKU).
		Set("name", p.Name).
		Set("barcode", p.Barcode).
		Set("category", p.Category).
		Set("cost", p.Cost).
		Set("sales_price", p.SalesPrice).
		Set("is_active", p.IsActive).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("product", "sku", p.SKU).WithCause(err)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID.String())
	}

	return nil
}

// Delete performs physical removal from the database.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	q := r.builder.Delete(productsTable).Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyBroken {
			return apperror.NewConflict("product is referenced by ledger records").
				WithDetail("id", productID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

// List returns products matching the filter, ordered by SKU.
func (r *ProductRepo) List(ctx context.Context, filter product.Filter) ([]product.Product, error) {
	q := r.builder.Select(productColumns...).From(productsTable).OrderBy("sku")
	q = r.applyFilter(q, filter)

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

	var products []product.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	return products, nil
}

// Count returns the number of products matching the filter.
func (r *ProductRepo) Count(ctx context.Context, filter product.Filter) (int64, error) {
	q := r.builder.Select("COUNT(*)").From(productsTable)
	q = r.applyFilter(q, filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}

	return count, nil
}

func (r *ProductRepo) applyFilter(q squirrel.SelectBuilder, filter product.Filter) squirrel.SelectBuilder {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"barcode": pattern},
		})
	}
	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	return q
}

// ReferenceCounts counts ledger rows referencing the product. Balance
// rows only count while nonzero: an all-zero level is history, not a
// reason to refuse deletion.
func (r *ProductRepo) ReferenceCounts(ctx context.Context, productID id.ID) (product.ReferenceCounts, error) {
	var counts product.ReferenceCounts

	sql := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %s WHERE product_id = $1) AS moves,
			(SELECT COUNT(*) FROM %s WHERE product_id = $1) AS batch_lines,
			(SELECT COUNT(*) FROM %s WHERE product_id = $1 AND on_hand <> 0) AS levels
	`, stockMovesTable, batchLinesTable, inventoryTable)

	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, productID).
		Scan(&counts.Moves, &counts.BatchLines, &counts.Levels)
	if err != nil {
		return counts, fmt.Errorf("count product references: %w", err)
	}

	return counts, nil
}

// UpsertBySKU inserts the product or updates the row with the same SKU.
func (r *ProductRepo) UpsertBySKU(ctx context.Context, p *product.Product) (bool, error) {
	sql := fmt.Sprintf(`
		INSERT INTO %s (id, sku, name, barcode, category, cost, sales_price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			barcode = EXCLUDED.barcode,
			category = EXCLUDED.category,
			cost = EXCLUDED.cost,
			sales_price = EXCLUDED.sales_price,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted, id
	`, productsTable)

	var inserted bool
	var keptID id.ID
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql,
		p.ID, p.SKU, p.Name, p.Barcode, p.Category,
		p.Cost, p.SalesPrice, p.IsActive, p.CreatedAt, p.UpdatedAt,
	).Scan(&inserted, &keptID)
	if err != nil {
		return false, fmt.Errorf("upsert product: %w", err)
	}

	// On update the row keeps its original id.
	p.ID = keptID

	return inserted, nil
}
