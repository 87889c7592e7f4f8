package event

import (
	"time"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/datetime"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
)

// Columns of the event sheet, in order. Row 1 holds them as the header.
const (
	ColumnName   = "Name"
	ColumnDate   = "Date"
	ColumnTime   = "Time"
	ColumnStatus = "Notification_status"
)

// Header is the expected first row of the event sheet.
var Header = []string{ColumnName, ColumnDate, ColumnTime, ColumnStatus}

// StatusColumn is the 1-based column index of ColumnStatus.
const StatusColumn = 4

// FirstDataRow is the row number of the first event.
const FirstDataRow = rowstore.FirstDataRow

// Event is one scheduled reminder read from the event sheet.
type Event struct {
	Row      int // 1-based store row, used as the event identifier
	Name     string
	At       time.Time
	LastSent Tier
}

// FromRow builds an Event from a store row keyed by header name.
func FromRow(row int, cells map[string]string, now time.Time) (*Event, error) {
	at, err := datetime.Normalize(cells[ColumnDate], cells[ColumnTime], now)
	if err != nil {
		return nil, err
	}
	tier, err := ParseStatus(cells[ColumnStatus])
	if err != nil {
		return nil, err
	}
	return &Event{Row: row, Name: cells[ColumnName], At: at, LastSent: tier}, nil
}

// Values renders the event as a store row in Header order.
func (e *Event) Values() []string {
	return []string{e.Name, datetime.FormatDate(e.At), datetime.FormatTime(e.At), e.LastSent.Status()}
}

// IsPast reports whether the event instant is not after now.
func (e *Event) IsPast(now time.Time) bool { return !e.At.After(now) }
