package stock

import (
	"context"
	"fmt"
)

// UnitRef identifies one stock counter: a bare product, or a specific variant
// when VariantID is set.
type UnitRef struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
}

func (ref UnitRef) String() string {
	if ref.VariantID != "" {
		return ref.ProductID + "/" + ref.VariantID
	}
	return ref.ProductID
}

// Line is one unit and the quantity to decrement or restore.
type Line struct {
	Ref      UnitRef
	Quantity int
}

// InsufficientStockError reports the first unit whose conditional decrement
// failed. By the time it is returned, every decrement already applied in the
// same batch has been compensated.
type InsufficientStockError struct {
	Ref UnitRef
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Ref)
}

// Store is the persistence contract for stock counters. DecrementIfAvailable
// must be a single conditional write ("subtract iff stock >= qty"), never a
// read-modify-write: two concurrent checkouts racing on the same unit must
// serialize on the database, not on anything in-process.
type Store interface {
	Available(ctx context.Context, ref UnitRef) (int, error)
	DecrementIfAvailable(ctx context.Context, ref UnitRef, qty int) (bool, error)
	Increment(ctx context.Context, ref UnitRef, qty int) error
}

// Ledger is the source of truth for per-unit available quantity.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// CheckAvailability is a read-only snapshot. It can be stale by the time a
// decrement runs; only DecrementStock is authoritative.
func (l *Ledger) CheckAvailability(ctx context.Context, ref UnitRef, qty int) (bool, error) {
	available, err := l.store.Available(ctx, ref)
	if err != nil {
		return false, err
	}
	return available >= qty, nil
}

// Available returns the current counter for one unit.
func (l *Ledger) Available(ctx context.Context, ref UnitRef) (int, error) {
	return l.store.Available(ctx, ref)
}

// DecrementStock applies the whole batch or none of it. Each line is a
// conditional decrement; on the first failure all prior decrements in the
// batch are compensated before InsufficientStockError is returned.
func (l *Ledger) DecrementStock(ctx context.Context, lines []Line) error {
	applied := make([]Line, 0, len(lines))

	for _, line := range lines {
		ok, err := l.store.DecrementIfAvailable(ctx, line.Ref, line.Quantity)
		if err != nil {
			l.compensate(ctx, applied)
			return err
		}
		if !ok {
			l.compensate(ctx, applied)
			return &InsufficientStockError{Ref: line.Ref}
		}
		applied = append(applied, line)
	}
	return nil
}

// RestoreStock unconditionally returns quantities, used by cancellation.
// Idempotency is the caller's job: the lifecycle manager only restores on the
// single transition into cancelled.
func (l *Ledger) RestoreStock(ctx context.Context, lines []Line) error {
	var firstErr error
	for _, line := range lines {
		if err := l.store.Increment(ctx, line.Ref, line.Quantity); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *Ledger) compensate(ctx context.Context, applied []Line) {
	// Best effort: a failed compensating increment would strand stock, so
	// every line is attempted even if one errors.
	for _, line := range applied {
		_ = l.store.Increment(ctx, line.Ref, line.Quantity)
	}
}
