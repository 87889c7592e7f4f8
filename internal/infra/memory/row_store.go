// Package memory is an in-process row store for local runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
)

// RowStore keeps one sheet as a slice of rows; rows[0] is row 1.
type RowStore struct {
	mu   sync.Mutex
	rows [][]string

	failNext int // upcoming calls that fail as unavailable
	calls    int
}

func NewRowStore(rows ...[]string) *RowStore {
	s := &RowStore{}
	for _, r := range rows {
		s.rows = append(s.rows, append([]string(nil), r...))
	}
	return s
}

// FailNext makes the next n calls fail as an unavailable store.
func (s *RowStore) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

// Calls returns how many store operations have been attempted, failed ones included.
func (s *RowStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Rows returns a copy of every row, header included.
func (s *RowStore) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (s *RowStore) fail(op string) error {
	s.calls++
	if s.failNext == 0 {
		return nil
	}
	s.failNext--
	return rowstore.Unavailable(errors.New("injected failure"), "memory %s", op)
}

func (s *RowStore) ReadHeader(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("read header"); err != nil {
		return nil, err
	}
	if len(s.rows) == 0 {
		return nil, nil
	}
	return append([]string(nil), s.rows[0]...), nil
}

func (s *RowStore) InsertHeader(ctx context.Context, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("insert header"); err != nil {
		return err
	}
	s.rows = append([][]string{append([]string(nil), header...)}, s.rows...)
	return nil
}

func (s *RowStore) ReadAllRows(ctx context.Context) ([]rowstore.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("read rows"); err != nil {
		return nil, err
	}
	if len(s.rows) == 0 {
		return nil, nil
	}
	header := s.rows[0]
	out := make([]rowstore.Row, 0, len(s.rows)-1)
	for _, r := range s.rows[1:] {
		row := make(rowstore.Row, len(header))
		for i, name := range header {
			if i < len(r) {
				row[name] = r[i]
			} else {
				row[name] = ""
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *RowStore) WriteCell(ctx context.Context, row, column int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("write cell"); err != nil {
		return err
	}
	if row < 1 || column < 1 {
		return errors.Newf("memory: cell %d,%d out of range", row, column)
	}
	for len(s.rows) < row {
		s.rows = append(s.rows, nil)
	}
	r := s.rows[row-1]
	for len(r) < column {
		r = append(r, "")
	}
	r[column-1] = value
	s.rows[row-1] = r
	return nil
}

func (s *RowStore) AppendRow(ctx context.Context, values []string, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("append row"); err != nil {
		return err
	}
	s.rows = append(s.rows, append([]string(nil), values...))
	return nil
}
