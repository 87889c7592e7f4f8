// Package rowstore describes the tabular store events and birthdays live in.
package rowstore

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrStoreUnavailable marks transient I/O failures against a row store,
// timeouts included. Callers retry these through their own backoff.
var ErrStoreUnavailable = errors.New("row store unavailable")

// FirstDataRow is the row number of the first data row, row 1 being the header.
const FirstDataRow = 2

// Row is one data row keyed by header name. Cells missing from the store read as "".
type Row map[string]string

// Store is one sheet of a row store. Row 1 is the header; data starts at row 2.
// Rows and columns are 1-based.
type Store interface {
	ReadHeader(ctx context.Context) ([]string, error)
	InsertHeader(ctx context.Context, header []string) error
	// ReadAllRows returns data rows in store order.
	ReadAllRows(ctx context.Context) ([]Row, error)
	WriteCell(ctx context.Context, row, column int, value string) error
	// AppendRow adds values after the last row. rowHint is the row the caller
	// expects to be next; backends may use it as a placement hint.
	AppendRow(ctx context.Context, values []string, rowHint int) error
}

// HeaderMatches reports whether got starts with want.
func HeaderMatches(got, want []string) bool {
	if len(got) < len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// EnsureHeader inserts want as row 1 when the store does not already carry it.
// It reports whether a header was inserted.
func EnsureHeader(ctx context.Context, s Store, want []string) (bool, error) {
	got, err := s.ReadHeader(ctx)
	if err != nil {
		return false, err
	}
	if HeaderMatches(got, want) {
		return false, nil
	}
	if err := s.InsertHeader(ctx, want); err != nil {
		return false, err
	}
	return true, nil
}

// Unavailable wraps err and marks it as ErrStoreUnavailable.
func Unavailable(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrStoreUnavailable)
}
