package location

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

type fakeRepo struct {
	byID   map[id.ID]Location
	byCode map[string]id.ID
	refs   map[id.ID]ReferenceCounts
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:   make(map[id.ID]Location),
		byCode: make(map[string]id.ID),
		refs:   make(map[id.ID]ReferenceCounts),
	}
}

func (r *fakeRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeRepo) Create(ctx context.Context, l *Location) error {
	if _, ok := r.byCode[l.Code]; ok {
		return apperror.NewDuplicate("location", "code", l.Code)
	}
	r.byID[l.ID] = *l
	r.byCode[l.Code] = l.ID
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, locationID id.ID) (*Location, error) {
	l, ok := r.byID[locationID]
	if !ok {
		return nil, apperror.NewNotFound("location", locationID.String())
	}
	return &l, nil
}

func (r *fakeRepo) GetByCode(ctx context.Context, code string) (*Location, error) {
	lid, ok := r.byCode[code]
	if !ok {
		return nil, apperror.NewNotFound("location", code)
	}
	return r.GetByID(ctx, lid)
}

func (r *fakeRepo) Update(ctx context.Context, l *Location) error {
	if _, ok := r.byID[l.ID]; !ok {
		return apperror.NewNotFound("location", l.ID.String())
	}
	r.byID[l.ID] = *l
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, locationID id.ID) error {
	l, ok := r.byID[locationID]
	if !ok {
		return apperror.NewNotFound("location", locationID.String())
	}
	delete(r.byID, locationID)
	delete(r.byCode, l.Code)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter Filter) ([]Location, error) {
	out := make([]Location, 0, len(r.byID))
	for _, l := range r.byID {
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeRepo) Count(ctx context.Context, filter Filter) (int64, error) {
	return int64(len(r.byID)), nil
}

func (r *fakeRepo) ReferenceCounts(ctx context.Context, locationID id.ID) (ReferenceCounts, error) {
	return r.refs[locationID], nil
}

var _ Repository = (*fakeRepo)(nil)

func TestCreateValidates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	err := svc.Create(ctx, &Location{Name: "Main warehouse"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = svc.Create(ctx, &Location{Code: "MAIN"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	l := New("MAIN", "Main warehouse")
	require.NoError(t, svc.Create(ctx, l))
	assert.False(t, id.IsNil(l.ID))
}

func TestDeleteRefusedWhenReferenced(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	l := New("MAIN", "Main warehouse")
	require.NoError(t, svc.Create(ctx, l))
	repo.refs[l.ID] = ReferenceCounts{Moves: 5, Batches: 1, Levels: 2}

	err := svc.Delete(ctx, l.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, int64(5), appErr.Details["moves"])

	_, err = svc.Get(ctx, l.ID)
	assert.NoError(t, err)
}

func TestDeleteUnreferenced(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	l := New("STAGING", "Staging area")
	require.NoError(t, svc.Create(ctx, l))
	require.NoError(t, svc.Delete(ctx, l.ID))

	_, err := svc.GetByCode(ctx, "STAGING")
	assert.True(t, apperror.IsNotFound(err))
}
