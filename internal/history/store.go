package history

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// CursorMode selects whether a cursor may delete the records it visits.
type CursorMode int

const (
	ReadOnly CursorMode = iota
	ReadWrite
)

// Store is the persisted, timestamp-indexed collection of records.
type Store interface {
	// Snapshot returns the store's current insertion mark. Records stored
	// afterwards are never included by a Range carrying it.
	Snapshot(ctx context.Context) (Snapshot, error)
	// OpenCursor returns a cursor over r, highest timestamp first.
	OpenCursor(ctx context.Context, r Range, mode CursorMode) (Cursor, error)
	// Delete removes the record with the given id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	// Clear removes every record.
	Clear(ctx context.Context) error
}

// Cursor is a forward-only pointer into a descending store range.
// Callers must always Close it.
type Cursor interface {
	// Next advances to the next record. It returns false when the range is
	// exhausted or the cursor failed; check Err to tell them apart.
	Next(ctx context.Context) bool
	// Record returns the record the cursor is positioned on.
	Record() Record
	// Delete removes the current record. The cursor stays valid and the
	// following Next moves past it.
	Delete(ctx context.Context) error
	Err() error
	Close() error
}

// ErrReadOnlyCursor is returned by Cursor.Delete on a ReadOnly cursor.
var ErrReadOnlyCursor = errors.New("cursor is read-only")

// StoreFault wraps a failure of the underlying Store.
type StoreFault struct {
	Op  string
	Err error
}

func (f *StoreFault) Error() string {
	return fmt.Sprintf("store %s: %v", f.Op, f.Err)
}

func (f *StoreFault) Unwrap() error { return f.Err }

// IsStoreFault reports whether err was caused by the Store.
func IsStoreFault(err error) bool {
	var f *StoreFault
	return errors.As(err, &f)
}

func storeFault(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsStoreFault(err) {
		return err
	}
	return &StoreFault{Op: op, Err: err}
}
