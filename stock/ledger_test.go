package stock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store with the same conditional-decrement
// semantics as the mongo-backed one.
type memStore struct {
	mu     sync.Mutex
	counts map[UnitRef]int
	errOn  map[UnitRef]error
}

func newMemStore(counts map[UnitRef]int) *memStore {
	cp := make(map[UnitRef]int, len(counts))
	for k, v := range counts {
		cp[k] = v
	}
	return &memStore{counts: cp, errOn: map[UnitRef]error{}}
}

func (s *memStore) Available(_ context.Context, ref UnitRef) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[ref], nil
}

func (s *memStore) DecrementIfAvailable(_ context.Context, ref UnitRef, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errOn[ref]; err != nil {
		return false, err
	}
	if s.counts[ref] < qty {
		return false, nil
	}
	s.counts[ref] -= qty
	return true, nil
}

func (s *memStore) Increment(_ context.Context, ref UnitRef, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[ref] += qty
	return nil
}

func TestDecrementStockAppliesWholeBatch(t *testing.T) {
	a := UnitRef{ProductID: "p1"}
	b := UnitRef{ProductID: "p2", VariantID: "v1"}
	store := newMemStore(map[UnitRef]int{a: 5, b: 3})
	ledger := NewLedger(store)

	err := ledger.DecrementStock(context.Background(), []Line{
		{Ref: a, Quantity: 2},
		{Ref: b, Quantity: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, store.counts[a])
	assert.Equal(t, 0, store.counts[b])
}

func TestDecrementStockRollsBackOnInsufficientLine(t *testing.T) {
	refs := []UnitRef{
		{ProductID: "p1"},
		{ProductID: "p2"},
		{ProductID: "p3"},
		{ProductID: "p4"},
		{ProductID: "p5"},
	}
	store := newMemStore(map[UnitRef]int{
		refs[0]: 10, refs[1]: 10, refs[2]: 1, refs[3]: 10, refs[4]: 10,
	})
	ledger := NewLedger(store)

	lines := make([]Line, len(refs))
	for i, ref := range refs {
		lines[i] = Line{Ref: ref, Quantity: 2}
	}

	err := ledger.DecrementStock(context.Background(), lines)

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, refs[2], ise.Ref)

	// the two decrements that succeeded before the failure are compensated
	assert.Equal(t, 10, store.counts[refs[0]])
	assert.Equal(t, 10, store.counts[refs[1]])
	assert.Equal(t, 1, store.counts[refs[2]])
	assert.Equal(t, 10, store.counts[refs[3]])
	assert.Equal(t, 10, store.counts[refs[4]])
}

func TestDecrementStockRollsBackOnStoreError(t *testing.T) {
	a := UnitRef{ProductID: "p1"}
	b := UnitRef{ProductID: "p2"}
	store := newMemStore(map[UnitRef]int{a: 5, b: 5})
	store.errOn[b] = errors.New("write timeout")
	ledger := NewLedger(store)

	err := ledger.DecrementStock(context.Background(), []Line{
		{Ref: a, Quantity: 2},
		{Ref: b, Quantity: 2},
	})
	require.Error(t, err)

	var ise *InsufficientStockError
	assert.False(t, errors.As(err, &ise))
	assert.Equal(t, 5, store.counts[a])
}

func TestRestoreStockRoundTrip(t *testing.T) {
	a := UnitRef{ProductID: "p1", VariantID: "v1"}
	store := newMemStore(map[UnitRef]int{a: 4})
	ledger := NewLedger(store)
	lines := []Line{{Ref: a, Quantity: 3}}

	require.NoError(t, ledger.DecrementStock(context.Background(), lines))
	assert.Equal(t, 1, store.counts[a])

	require.NoError(t, ledger.RestoreStock(context.Background(), lines))
	assert.Equal(t, 4, store.counts[a])
}

func TestConcurrentCheckoutsOnLastUnit(t *testing.T) {
	ref := UnitRef{ProductID: "p1"}
	store := newMemStore(map[UnitRef]int{ref: 1})
	ledger := NewLedger(store)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.DecrementStock(context.Background(), []Line{{Ref: ref, Quantity: 1}})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one checkout should win the last unit")
	assert.Equal(t, 0, store.counts[ref])
}

func TestCheckAvailability(t *testing.T) {
	ref := UnitRef{ProductID: "p1"}
	ledger := NewLedger(newMemStore(map[UnitRef]int{ref: 3}))

	ok, err := ledger.CheckAvailability(context.Background(), ref, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CheckAvailability(context.Background(), ref, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}
