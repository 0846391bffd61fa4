package location

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// Service provides business logic for the Location catalog.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new Location service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create validates and persists a new location.
func (s *Service) Create(ctx context.Context, l *Location) error {
	if err := l.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(l.ID) {
		l.ID = id.New()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, l)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "location created", "location_id", l.ID, "code", l.Code)
	return nil
}

// Get returns a location by id.
func (s *Service) Get(ctx context.Context, locationID id.ID) (*Location, error) {
	return s.repo.GetByID(ctx, locationID)
}

// GetByCode returns a location by its code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Location, error) {
	return s.repo.GetByCode(ctx, code)
}

// Update validates and persists changes to an existing location.
func (s *Service) Update(ctx context.Context, l *Location) error {
	if err := l.Validate(ctx); err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, l)
	})
}

// Delete removes a location, refusing when ledger history references it.
func (s *Service) Delete(ctx context.Context, locationID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		l, err := s.repo.GetByID(ctx, locationID)
		if err != nil {
			return err
		}

		refs, err := s.repo.ReferenceCounts(ctx, locationID)
		if err != nil {
			return fmt.Errorf("count references: %w", err)
		}
		if refs.Total() > 0 {
			return apperror.NewConflict("location is referenced by ledger records").
				WithDetail("code", l.Code).
				WithDetail("moves", refs.Moves).
				WithDetail("batches", refs.Batches).
				WithDetail("levels", refs.Levels)
		}

		return s.repo.Delete(ctx, locationID)
	})
}

// List returns locations matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Location, int64, error) {
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
