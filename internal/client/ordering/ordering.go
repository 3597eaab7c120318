// Package ordering implements the reorder protocol shared by the vault and
// note stores: the caller applies a new order to its mirror immediately, then
// Apply persists every item's new position in index order. A failed persist
// does not stop the loop and is not rolled back; the caller marks its
// ordering dirty until the next full reload.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotPermutation  = errors.New("new order is not a permutation of the current items")
	ErrUnknownItem     = errors.New("unknown item in new order")
)

// Draggable is anything with a stable id that can be reordered.
type Draggable interface {
	DragID() string
}

// PersistFunc stores one item's position.
type PersistFunc func(ctx context.Context, id string, position int) error

// Failure is one position that could not be persisted.
type Failure struct {
	ID       string
	Position int
	Err      error
}

// PersistError collects every failed position of one Apply.
type PersistError struct {
	Failures []Failure
}

func (e *PersistError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s@%d: %v", f.ID, f.Position, f.Err))
	}
	return "persist order: " + strings.Join(parts, "; ")
}

func (e *PersistError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Apply calls persist(id, index) for every item, strictly one after another
// in slice order. All items are attempted; the returned *PersistError lists
// those that failed. A cancelled ctx is reported per remaining item by
// persist itself.
func Apply[T Draggable](ctx context.Context, items []T, persist PersistFunc) error {
	var failures []Failure
	for i, it := range items {
		if err := persist(ctx, it.DragID(), i); err != nil {
			failures = append(failures, Failure{ID: it.DragID(), Position: i, Err: err})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &PersistError{Failures: failures}
}

// Move returns a copy of items with the element at from moved to index to,
// the array move performed at the end of a drag gesture.
func Move[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, ErrIndexOutOfRange
	}
	out := make([]T, 0, len(items))
	moved := items[from]
	for i, it := range items {
		if i == from {
			continue
		}
		out = append(out, it)
	}
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out, nil
}

// IDs lists the drag ids of items in order.
func IDs[T Draggable](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.DragID()
	}
	return out
}

// Rearrange puts the items named by newOrder first, followed by the remaining
// items of current in their existing order. Elements are taken from current,
// so fields the caller did not fill in are preserved.
func Rearrange[T Draggable](current, newOrder []T) ([]T, error) {
	index := make(map[string]int, len(current))
	for i, it := range current {
		index[it.DragID()] = i
	}
	taken := make(map[string]struct{}, len(newOrder))
	out := make([]T, 0, len(current))
	for _, it := range newOrder {
		id := it.DragID()
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		if _, dup := taken[id]; dup {
			return nil, fmt.Errorf("%w: %s listed twice", ErrNotPermutation, id)
		}
		taken[id] = struct{}{}
		out = append(out, current[i])
	}
	for _, it := range current {
		if _, ok := taken[it.DragID()]; !ok {
			out = append(out, it)
		}
	}
	return out, nil
}
