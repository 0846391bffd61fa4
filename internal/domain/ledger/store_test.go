package ledger

import (
	"context"
	"sync"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// fakeStore is an in-memory Repository plus tx.Manager for engine tests.
// It emulates the storage locking contract: LevelForUpdate holds a per-key
// mutex until the surrounding transaction ends, so misordered acquisitions
// would deadlock and concurrent feasibility checks are properly serialized.
type fakeStore struct {
	mu        sync.Mutex
	lockByKey map[LevelKey]*sync.Mutex
	levels    map[LevelKey]types.Quantity
	moves     map[id.ID]Move
	batches   map[id.ID]Batch
	products  map[id.ID]ProductRef
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lockByKey: make(map[LevelKey]*sync.Mutex),
		levels:    make(map[LevelKey]types.Quantity),
		moves:     make(map[id.ID]Move),
		batches:   make(map[id.ID]Batch),
		products:  make(map[id.ID]ProductRef),
	}
}

// setLevel seeds a balance outside any transaction.
func (s *fakeStore) setLevel(key LevelKey, qty types.Quantity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[key] = qty
}

func (s *fakeStore) level(key LevelKey) types.Quantity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[key]
}

// --- tx.Manager ---

type fakeTxKey struct{}

type fakeTxState struct {
	held []*sync.Mutex
}

func (s *fakeStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	st := &fakeTxState{}
	err := fn(context.WithValue(ctx, fakeTxKey{}, st))
	for i := len(st.held) - 1; i >= 0; i-- {
		st.held[i].Unlock()
	}
	return err
}

func (s *fakeStore) txState(ctx context.Context) *fakeTxState {
	st, _ := ctx.Value(fakeTxKey{}).(*fakeTxState)
	return st
}

// --- Repository ---

func (s *fakeStore) LevelForUpdate(ctx context.Context, key LevelKey) (Level, error) {
	s.mu.Lock()
	l, ok := s.lockByKey[key]
	if !ok {
		l = &sync.Mutex{}
		s.lockByKey[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	if st := s.txState(ctx); st != nil {
		st.held = append(st.held, l)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.levels[key]; !ok {
		s.levels[key] = types.ZeroQuantity()
	}
	return Level{
		ID:         id.New(),
		ProductID:  key.ProductID,
		LocationID: key.LocationID,
		OnHand:     s.levels[key],
	}, nil
}

func (s *fakeStore) ApplyDelta(ctx context.Context, key LevelKey, delta types.Quantity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[key] = s.levels[key].Add(delta)
	return nil
}

func (s *fakeStore) GetLevels(ctx context.Context, filter LevelFilter) ([]Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Level, 0, len(s.levels))
	for k, q := range s.levels {
		if filter.ProductID != nil && *filter.ProductID != k.ProductID {
			continue
		}
		if filter.LocationID != nil && *filter.LocationID != k.LocationID {
			continue
		}
		out = append(out, Level{ProductID: k.ProductID, LocationID: k.LocationID, OnHand: q})
	}
	return out, nil
}

func (s *fakeStore) OnHandTotals(ctx context.Context) (map[id.ID]types.Quantity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[id.ID]types.Quantity)
	for k, q := range s.levels {
		totals[k.ProductID] = totals[k.ProductID].Add(q)
	}
	return totals, nil
}

func (s *fakeStore) CreateMove(ctx context.Context, m *Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.CreatedAt = time.Now().UTC()
	s.moves[m.ID] = *m
	return nil
}

func (s *fakeStore) GetMove(ctx context.Context, moveID id.ID) (*Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moves[moveID]
	if !ok {
		return nil, apperror.NewNotFound("stock move", moveID.String())
	}
	return &m, nil
}

func (s *fakeStore) DeleteMove(ctx context.Context, moveID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.moves[moveID]; !ok {
		return apperror.NewNotFound("stock move", moveID.String())
	}
	delete(s.moves, moveID)
	return nil
}

func (s *fakeStore) ListMoves(ctx context.Context, filter MoveFilter) ([]Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Move, 0, len(s.moves))
	for _, m := range s.moves {
		out = append(out, m)
	}
	return out, nil
}

func (s *fakeStore) CreateBatch(ctx context.Context, b *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.CreatedAt = time.Now().UTC()
	s.batches[b.ID] = *b
	return nil
}

func (s *fakeStore) GetBatch(ctx context.Context, batchID id.ID) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("stock batch", batchID.String())
	}
	return &b, nil
}

func (s *fakeStore) DeleteBatch(ctx context.Context, batchID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batchID]; !ok {
		return apperror.NewNotFound("stock batch", batchID.String())
	}
	delete(s.batches, batchID)
	return nil
}

func (s *fakeStore) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, b)
	}
	return out, nil
}

func (s *fakeStore) OutboundTotalsSince(ctx context.Context, cutoff time.Time) (map[id.ID]types.Quantity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[id.ID]types.Quantity)
	for _, m := range s.moves {
		if m.Kind == KindOutbound && !m.OccurredAt.Before(cutoff) {
			totals[m.ProductID] = totals[m.ProductID].Add(m.Qty)
		}
	}
	for _, b := range s.batches {
		if b.Kind != KindOutbound || b.OccurredAt.Before(cutoff) {
			continue
		}
		for _, ln := range b.Lines {
			totals[ln.ProductID] = totals[ln.ProductID].Add(ln.Qty)
		}
	}
	return totals, nil
}

func (s *fakeStore) ProductRefs(ctx context.Context, ids []id.ID) (map[id.ID]ProductRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make(map[id.ID]ProductRef, len(ids))
	for _, pid := range ids {
		if ref, ok := s.products[pid]; ok {
			refs[pid] = ref
		}
	}
	return refs, nil
}

var _ Repository = (*fakeStore)(nil)
