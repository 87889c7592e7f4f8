// Package datetime turns the date and time text users type into instants and
// back into the single canonical form stored in the row store.
package datetime

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrInvalidFormat is returned for date or time text that is not one of the accepted forms.
var ErrInvalidFormat = errors.New("invalid date/time format")

const (
	// DateLayout is the canonical stored date form.
	DateLayout = "02.01.2006"
	// TimeLayout is the canonical stored time form.
	TimeLayout = "15:04"
)

// ParseDate accepts DD-MM-YYYY, DD.MM.YYYY, DD-MM or DD.MM. A missing year
// defaults to now's year, a two-digit year is taken as 20YY.
// The result is midnight of that day in now's location.
func ParseDate(token string, now time.Time) (time.Time, error) {
	token = strings.TrimSpace(token)
	sep := ""
	switch {
	case strings.Contains(token, "-") && !strings.Contains(token, "."):
		sep = "-"
	case strings.Contains(token, ".") && !strings.Contains(token, "-"):
		sep = "."
	default:
		return time.Time{}, errors.Wrapf(ErrInvalidFormat, "date %q", token)
	}

	parts := strings.Split(token, sep)
	if len(parts) != 2 && len(parts) != 3 {
		return time.Time{}, errors.Wrapf(ErrInvalidFormat, "date %q", token)
	}

	day, err := number(parts[0], 1, 2)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidFormat, "date %q: day", token)
	}
	month, err := number(parts[1], 1, 2)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidFormat, "date %q: month", token)
	}

	year := now.Year()
	if len(parts) == 3 {
		y := parts[2]
		if len(y) != 2 && len(y) != 4 {
			return time.Time{}, errors.Wrapf(ErrInvalidFormat, "date %q: year", token)
		}
		year, err = number(y, 2, 4)
		if err != nil {
			return time.Time{}, errors.Wrapf(ErrInvalidFormat, "date %q: year", token)
		}
		if len(y) == 2 {
			year += 2000
		}
	}

	// time.Date normalises 31.04 into 01.05, reject anything that rolled over.
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	if d.Day() != day || int(d.Month()) != month || d.Year() != year {
		return time.Time{}, errors.Wrapf(ErrInvalidFormat, "date %q: no such day", token)
	}
	return d, nil
}

// ParseClock accepts HH:MM or HH-MM and returns the offset from midnight.
func ParseClock(token string) (time.Duration, error) {
	token = strings.ReplaceAll(strings.TrimSpace(token), "-", ":")
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return 0, errors.Wrapf(ErrInvalidFormat, "time %q", token)
	}
	hour, err := number(parts[0], 1, 2)
	if err != nil || hour > 23 {
		return 0, errors.Wrapf(ErrInvalidFormat, "time %q: hour", token)
	}
	minute, err := number(parts[1], 1, 2)
	if err != nil || minute > 59 {
		return 0, errors.Wrapf(ErrInvalidFormat, "time %q: minute", token)
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, nil
}

// Normalize combines a date token and a time token into one local instant.
func Normalize(dateToken, timeToken string, now time.Time) (time.Time, error) {
	day, err := ParseDate(dateToken, now)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := ParseClock(timeToken)
	if err != nil {
		return time.Time{}, err
	}
	h := int(clock / time.Hour)
	m := int((clock % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()), nil
}

// FormatDate renders t as DD.MM.YYYY.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// FormatTime renders t as HH:MM.
func FormatTime(t time.Time) string { return t.Format(TimeLayout) }

// Canonicalize rewrites user supplied date and time text into the stored form.
func Canonicalize(dateToken, timeToken string, now time.Time) (string, string, error) {
	at, err := Normalize(dateToken, timeToken, now)
	if err != nil {
		return "", "", err
	}
	return FormatDate(at), FormatTime(at), nil
}

// CanonicalizeDate is Canonicalize for rows that carry only a date.
func CanonicalizeDate(dateToken string, now time.Time) (string, error) {
	d, err := ParseDate(dateToken, now)
	if err != nil {
		return "", err
	}
	return FormatDate(d), nil
}

func number(s string, minDigits, maxDigits int) (int, error) {
	if len(s) < minDigits || len(s) > maxDigits {
		return 0, errors.Newf("want %d-%d digits, got %q", minDigits, maxDigits, s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.Newf("not a number: %q", s)
		}
	}
	return strconv.Atoi(s)
}
