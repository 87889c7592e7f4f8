// internal/infra/database/postgres_row_store.go
package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq" // For pq.Array

	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
)

// PostgresRowStore keeps one sheet in the row_store table, one record per
// non-empty cell. Rows and columns are 1-based like a spreadsheet.
type PostgresRowStore struct {
	db    *sql.DB
	sheet string
}

func NewPostgresRowStore(db *sql.DB, sheet string) *PostgresRowStore {
	return &PostgresRowStore{db: db, sheet: sheet}
}

func (r *PostgresRowStore) ReadHeader(ctx context.Context) ([]string, error) {
	query := `SELECT col_num, value FROM row_store WHERE sheet = $1 AND row_num = 1 ORDER BY col_num`
	rows, err := r.db.QueryContext(ctx, query, r.sheet)
	if err != nil {
		return nil, rowstore.Unavailable(err, "error reading header of %s", r.sheet)
	}
	defer rows.Close()

	var header []string
	for rows.Next() {
		var col int
		var value string
		if err := rows.Scan(&col, &value); err != nil {
			return nil, rowstore.Unavailable(err, "error scanning header cell")
		}
		header = setCell(header, col, value)
	}
	if err := rows.Err(); err != nil {
		return nil, rowstore.Unavailable(err, "error iterating header cells")
	}
	return header, nil
}

// ReadAllRows returns every row from 2 up to the last stored one. Row numbers
// without any stored cell come back blank so positions stay aligned.
func (r *PostgresRowStore) ReadAllRows(ctx context.Context) ([]rowstore.Row, error) {
	query := `SELECT row_num, col_num, value FROM row_store WHERE sheet = $1 ORDER BY row_num, col_num`
	rows, err := r.db.QueryContext(ctx, query, r.sheet)
	if err != nil {
		return nil, rowstore.Unavailable(err, "error reading rows of %s", r.sheet)
	}
	defer rows.Close()

	grid := map[int][]string{}
	last := 0
	for rows.Next() {
		var rowNum, col int
		var value string
		if err := rows.Scan(&rowNum, &col, &value); err != nil {
			return nil, rowstore.Unavailable(err, "error scanning cell")
		}
		grid[rowNum] = setCell(grid[rowNum], col, value)
		if rowNum > last {
			last = rowNum
		}
	}
	if err := rows.Err(); err != nil {
		return nil, rowstore.Unavailable(err, "error iterating cells")
	}

	header := grid[1]
	if len(header) == 0 || last < 2 {
		return nil, nil
	}
	out := make([]rowstore.Row, 0, last-1)
	for n := 2; n <= last; n++ {
		cells := grid[n]
		row := make(rowstore.Row, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *PostgresRowStore) WriteCell(ctx context.Context, row, column int, value string) error {
	query := `INSERT INTO row_store (sheet, row_num, col_num, value)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (sheet, row_num, col_num) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, query, r.sheet, row, column, value); err != nil {
		return rowstore.Unavailable(err, "error writing cell %d,%d of %s", row, column, r.sheet)
	}
	return nil
}

// AppendRow writes values one row below the current last row. The row number
// is computed in the same statement, so rowHint is not needed here.
func (r *PostgresRowStore) AppendRow(ctx context.Context, values []string, _ int) error {
	query := `INSERT INTO row_store (sheet, row_num, col_num, value)
               SELECT $1,
                      (SELECT COALESCE(MAX(row_num), 0) + 1 FROM row_store WHERE sheet = $1),
                      v.ord,
                      v.value
               FROM unnest($2::text[]) WITH ORDINALITY AS v(value, ord)`
	if _, err := r.db.ExecContext(ctx, query, r.sheet, pq.Array(values)); err != nil {
		return rowstore.Unavailable(err, "error appending row to %s", r.sheet)
	}
	return nil
}

// InsertHeader moves every row down by one and writes header as row 1.
func (r *PostgresRowStore) InsertHeader(ctx context.Context, header []string) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return rowstore.Unavailable(err, "failed to begin transaction for header insert")
	}
	defer txn.Rollback() // Rollback if not committed

	// Negate first so the shift never collides with the primary key mid-statement.
	if _, err := txn.ExecContext(ctx, `UPDATE row_store SET row_num = -(row_num + 1) WHERE sheet = $1`, r.sheet); err != nil {
		return rowstore.Unavailable(err, "error shifting rows of %s", r.sheet)
	}
	if _, err := txn.ExecContext(ctx, `UPDATE row_store SET row_num = -row_num WHERE sheet = $1 AND row_num < 0`, r.sheet); err != nil {
		return rowstore.Unavailable(err, "error shifting rows of %s", r.sheet)
	}
	query := `INSERT INTO row_store (sheet, row_num, col_num, value)
               SELECT $1, 1, v.ord, v.value
               FROM unnest($2::text[]) WITH ORDINALITY AS v(value, ord)`
	if _, err := txn.ExecContext(ctx, query, r.sheet, pq.Array(header)); err != nil {
		return rowstore.Unavailable(err, "error writing header of %s", r.sheet)
	}

	if err := txn.Commit(); err != nil {
		return rowstore.Unavailable(err, "failed to commit header insert")
	}
	return nil
}

// setCell stores value at 1-based col, padding with blanks.
func setCell(cells []string, col int, value string) []string {
	if col < 1 {
		return cells
	}
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	return cells
}
