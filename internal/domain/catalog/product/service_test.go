package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

type fakeRepo struct {
	byID  map[id.ID]Product
	bySKU map[string]id.ID
	refs  map[id.ID]ReferenceCounts
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:  make(map[id.ID]Product),
		bySKU: make(map[string]id.ID),
		refs:  make(map[id.ID]ReferenceCounts),
	}
}

func (r *fakeRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeRepo) Create(ctx context.Context, p *Product) error {
	if _, ok := r.bySKU[p.SKU]; ok {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}
	r.byID[p.ID] = *p
	r.bySKU[p.SKU] = p.ID
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	p, ok := r.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

func (r *fakeRepo) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	pid, ok := r.bySKU[sku]
	if !ok {
		return nil, apperror.NewNotFound("product", sku)
	}
	return r.GetByID(ctx, pid)
}

func (r *fakeRepo) Update(ctx context.Context, p *Product) error {
	if _, ok := r.byID[p.ID]; !ok {
		return apperror.NewNotFound("product", p.ID.String())
	}
	r.byID[p.ID] = *p
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, productID id.ID) error {
	p, ok := r.byID[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	delete(r.byID, productID)
	delete(r.bySKU, p.SKU)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter Filter) ([]Product, error) {
	out := make([]Product, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) Count(ctx context.Context, filter Filter) (int64, error) {
	return int64(len(r.byID)), nil
}

func (r *fakeRepo) ReferenceCounts(ctx context.Context, productID id.ID) (ReferenceCounts, error) {
	return r.refs[productID], nil
}

func (r *fakeRepo) UpsertBySKU(ctx context.Context, p *Product) (bool, error) {
	if existingID, ok := r.bySKU[p.SKU]; ok {
		existing := r.byID[existingID]
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		r.byID[existing.ID] = *p
		return false, nil
	}
	r.byID[p.ID] = *p
	r.bySKU[p.SKU] = p.ID
	return true, nil
}

var _ Repository = (*fakeRepo)(nil)

func TestCreateValidates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	err := svc.Create(ctx, &Product{Name: "No SKU"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = svc.Create(ctx, &Product{SKU: "SKU-1"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	bad := New("SKU-1", "Widget")
	bad.Cost = types.MustQuantity("-1")
	err = svc.Create(ctx, bad)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	p := New("SKU-1", "Widget")
	require.NoError(t, svc.Create(ctx, p))
	assert.False(t, id.IsNil(p.ID))
	assert.False(t, p.CreatedAt.IsZero())
}

func TestCreateDuplicateSKU(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, New("SKU-1", "First")))
	err := svc.Create(ctx, New("SKU-1", "Second"))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestDeleteRefusedWhenReferenced(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	p := New("SKU-1", "Widget")
	require.NoError(t, svc.Create(ctx, p))
	repo.refs[p.ID] = ReferenceCounts{Moves: 3, Levels: 1}

	err := svc.Delete(ctx, p.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, int64(3), appErr.Details["moves"])

	// Still there.
	_, err = svc.Get(ctx, p.ID)
	assert.NoError(t, err)
}

func TestDeleteUnreferenced(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	p := New("SKU-1", "Widget")
	require.NoError(t, svc.Create(ctx, p))
	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err := svc.Get(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	first := New("SKU-1", "Widget")
	created, err := svc.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := New("SKU-1", "Widget v2")
	created, err = svc.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID, "upsert keeps the original id")

	got, err := svc.GetBySKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", got.Name)
}
