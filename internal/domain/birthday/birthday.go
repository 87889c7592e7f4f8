package birthday

import (
	"time"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/datetime"
)

// Columns of the birthday sheet.
const (
	ColumnPerson = "Person"
	ColumnDate   = "Date"
)

// Header is the expected first row of the birthday sheet.
var Header = []string{ColumnPerson, ColumnDate}

// Birthday is a person's birth date. It carries no mutable state.
type Birthday struct {
	Person string
	Born   time.Time
}

// FromRow builds a Birthday from a store row keyed by header name.
func FromRow(cells map[string]string, now time.Time) (*Birthday, error) {
	born, err := datetime.ParseDate(cells[ColumnDate], now)
	if err != nil {
		return nil, err
	}
	return &Birthday{Person: cells[ColumnPerson], Born: born}, nil
}

// IsOn matches by day and month only. Someone born on 29 February never
// matches in a non-leap year, because such a year has no 29 February.
func (b *Birthday) IsOn(day time.Time) bool {
	return b.Born.Day() == day.Day() && b.Born.Month() == day.Month()
}

// AgeOn is day's year minus the birth year. It is only meaningful on the birthday itself.
func (b *Birthday) AgeOn(day time.Time) int {
	return day.Year() - b.Born.Year()
}
