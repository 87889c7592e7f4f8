// Package sheets stores rows in a Google Sheets worksheet.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
)

// NewService builds a Sheets client from a service-account credentials file.
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	opts = append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing Google Sheets client")
	}
	return srv, nil
}

// RowStore is one worksheet (tab) of a spreadsheet.
type RowStore struct {
	srv           *sheets.Service
	spreadsheetID string
	sheet         string

	mu      sync.Mutex
	sheetID *int64 // resolved lazily for structural updates
}

func NewRowStore(srv *sheets.Service, spreadsheetID, sheet string) *RowStore {
	return &RowStore{srv: srv, spreadsheetID: spreadsheetID, sheet: sheet}
}

func (s *RowStore) ReadHeader(ctx context.Context) ([]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("1:1")).Context(ctx).Do()
	if err != nil {
		return nil, rowstore.Unavailable(err, "read header of %s", s.sheet)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

// ReadAllRows maps each row below the header by header name. The API drops
// trailing empty cells, they read as "".
func (s *RowStore) ReadAllRows(ctx context.Context) ([]rowstore.Row, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(s.sheet)).Context(ctx).Do()
	if err != nil {
		return nil, rowstore.Unavailable(err, "read rows of %s", s.sheet)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}

	header := toStrings(resp.Values[0])
	out := make([]rowstore.Row, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		cells := toStrings(raw)
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

func (s *RowStore) WriteCell(ctx context.Context, row, column int, value string) error {
	if row < 1 || column < 1 {
		return errors.Newf("sheets: cell %d,%d out of range", row, column)
	}
	cell := fmt.Sprintf("%s%d", ColumnLetter(column), row)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, s.a1(cell), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return rowstore.Unavailable(err, "write %s of %s", cell, s.sheet)
	}
	return nil
}

// AppendRow appends after the table that starts at rowHint. Values are
// written RAW so dates and times stay canonical strings.
func (s *RowStore) AppendRow(ctx context.Context, values []string, rowHint int) error {
	if rowHint < 1 {
		rowHint = 1
	}
	table := fmt.Sprintf("A%d:%s%d", rowHint, ColumnLetter(max(len(values), 1)), rowHint)
	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(values)}}
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, s.a1(table), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return rowstore.Unavailable(err, "append row to %s", s.sheet)
	}
	return nil
}

// InsertHeader inserts a blank row 1, shifting data down, then writes header into it.
func (s *RowStore) InsertHeader(ctx context.Context, header []string) error {
	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		InsertDimension: &sheets.InsertDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:         sheetID,
				Dimension:       "ROWS",
				StartIndex:      0,
				EndIndex:        1,
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}}}
	if _, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return rowstore.Unavailable(err, "insert header row into %s", s.sheet)
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(header)}}
	if _, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, s.a1("A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return rowstore.Unavailable(err, "write header of %s", s.sheet)
	}
	return nil
}

func (s *RowStore) resolveSheetID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetID != nil {
		return *s.sheetID, nil
	}

	doc, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, rowstore.Unavailable(err, "look up sheet %s", s.sheet)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheet {
			id := sh.Properties.SheetId
			s.sheetID = &id
			return id, nil
		}
	}
	return 0, errors.Newf("sheets: no worksheet named %q", s.sheet)
}

func (s *RowStore) a1(r string) string { return quoteSheet(s.sheet) + "!" + r }

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ColumnLetter converts a 1-based column index to its A1 letters (1 → A, 27 → AA).
func ColumnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func toStrings(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
