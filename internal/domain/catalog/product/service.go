package product

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// Service provides business logic for the Product catalog.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new Product service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "sku", p.SKU)
	return nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU returns a product by its SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// Update validates and persists changes to an existing product.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, p)
	})
}

// Delete removes a product, refusing when ledger history references it.
// The conflict response carries the per-table reference counts so the
// caller can see what holds the product in place.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		refs, err := s.repo.ReferenceCounts(ctx, productID)
		if err != nil {
			return fmt.Errorf("count references: %w", err)
		}
		if refs.Total() > 0 {
			return apperror.NewConflict("product is referenced by ledger records").
				WithDetail("sku", p.SKU).
				WithDetail("moves", refs.Moves).
				WithDetail("batchLines", refs.BatchLines).
				WithDetail("levels", refs.Levels)
		}

		return s.repo.Delete(ctx, productID)
	})
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Product, int64, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Upsert creates the product or updates the row sharing its SKU.
// Used by bulk imports where re-running the same file must be safe.
func (s *Service) Upsert(ctx context.Context, p *Product) (created bool, err error) {
	if err := p.Validate(ctx); err != nil {
		return false, err
	}
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		created, err = s.repo.UpsertBySKU(ctx, p)
		return err
	})
	return created, err
}
