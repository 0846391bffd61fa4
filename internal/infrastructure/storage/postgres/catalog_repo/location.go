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
	"stockledger/internal/domain/catalog/location"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	locationsTable  = "locations"
	stockBatchTable = "stock_move_batches"
)

var locationColumns = []string{
	"id", "code", "name", "address", "is_active", "created_at", "updated_at",
}

// Compile-time check.
var _ location.Repository = (*LocationRepo)(nil)

// LocationRepo implements location.Repository.
type LocationRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txm *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new location row.
func (r *LocationRepo) Create(ctx context.Context, l *location.Location) error {
	q := r.builder.Insert(locationsTable).
		Columns(locationColumns...).
		Values(l.ID, l.Code, l.Name, l.Address, l.IsActive, l.CreatedAt, l.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("location", "code", l.Code).WithCause(err)
		}
		return fmt.Errorf("insert location: %w", err)
	}

	return nil
}

// GetByID returns a location by id.
func (r *LocationRepo) GetByID(ctx context.Context, locationID id.ID) (*location.Location, error) {
	return r.getOne(ctx, squirrel.Eq{"id": locationID}, locationID.String())
}

// GetByCode returns a location by code.
func (r *LocationRepo) GetByCode(ctx context.Context, code string) (*location.Location, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *LocationRepo) getOne(ctx context.Context, where squirrel.Eq, ident string) (*location.Location, error) {
	q := r.builder.Select(locationColumns...).From(locationsTable).Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var l location.Location
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("location", ident)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}

	return &l, nil
}

// Update rewrites an existing location row.
func (r *LocationRepo) Update(ctx context.Context, l *location.Location) error {
	q := r.builder.Update(locationsTable).
		Set("code", l.Code).
		Set("name", l.Name).
		Set("address", l.Address).
		Set("is_active", l.IsActive).
		Set("updated_at", l.UpdatedAt).
		Where(squirrel.Eq{"id": l.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("location", "code", l.Code).WithCause(err)
		}
		return fmt.Errorf("update location: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("location", l.ID.String())
	}

	return nil
}

// Delete performs physical removal from the database.
func (r *LocationRepo) Delete(ctx context.Context, locationID id.ID) error {
	q := r.builder.Delete(locationsTable).Where(squirrel.Eq{"id": locationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyBroken {
			return apperror.NewConflict("location is referenced by ledger records").
				WithDetail("id", locationID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete location: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("location", locationID.String())
	}

	return nil
}

// List returns locations matching the filter, ordered by code.
func (r *LocationRepo) List(ctx context.Context, filter location.Filter) ([]location.Location, error) {
	q := r.builder.Select(locationColumns...).From(locationsTable).OrderBy("code")
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

	var locations []location.Location
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &locations, sql, args...); err != nil {
		return nil, fmt.Errorf("select locations: %w", err)
	}

	return locations, nil
}

// Count returns the number of locations matching the filter.
func (r *LocationRepo) Count(ctx context.Context, filter location.Filter) (int64, error) {
	q := r.builder.Select("COUNT(*)").From(locationsTable)
	q = r.applyFilter(q, filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}

	return count, nil
}

func (r *LocationRepo) applyFilter(q squirrel.SelectBuilder, filter location.Filter) squirrel.SelectBuilder {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	return q
}

// ReferenceCounts counts ledger rows referencing the location as a
// movement endpoint or a nonzero balance row.
func (r *LocationRepo) ReferenceCounts(ctx context.Context, locationID id.ID) (location.ReferenceCounts, error) {
	var counts location.ReferenceCounts

	sql := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %s WHERE from_location_id = $1 OR to_location_id = $1) AS moves,
			(SELECT COUNT(*) FROM %s WHERE from_location_id = $1 OR to_location_id = $1) AS batches,
			(SELECT COUNT(*) FROM %s WHERE location_id = $1 AND on_hand <> 0) AS levels
	`, stockMovesTable, stockBatchTable, inventoryTable)

	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, locationID).
		Scan(&counts.Moves, &counts.Batches, &counts.Levels)
	if err != nil {
		return counts, fmt.Errorf("count location references: %w", err)
	}

	return counts, nil
}
