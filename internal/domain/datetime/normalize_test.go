package datetime

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now2024 = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.Local)

func TestNormalizeAcceptedForms(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		clock    string
		wantDate string
		wantTime string
	}{
		{"dashed date colon time", "01-11-2023", "12:20", "01.11.2023", "12:20"},
		{"dotted date dashed time", "01.11.2023", "12-20", "01.11.2023", "12:20"},
		{"two digit year", "5.3.25", "9:05", "05.03.2025", "09:05"},
		{"no year defaults to current", "1-3", "08:00", "01.03.2024", "08:00"},
		{"dotted no year", "31.12", "23:59", "31.12.2024", "23:59"},
		{"midnight", "29.02.2024", "00:00", "29.02.2024", "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, c, err := Canonicalize(tt.date, tt.clock, now2024)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, d)
			assert.Equal(t, tt.wantTime, c)
		})
	}
}

func TestNormalizeRejectsOtherForms(t *testing.T) {
	tests := []struct {
		date  string
		clock string
	}{
		{"01/11/2023", "12:20"},
		{"01-11.2023", "12:20"},
		{"2023-11-01-01", "12:20"},
		{"01.11.023", "12:20"},
		{"aa.11.2023", "12:20"},
		{"31.04.2024", "12:20"},
		{"29.02.2023", "12:20"},
		{"01.13.2024", "12:20"},
		{"01.11.2023", "12.20"},
		{"01.11.2023", "24:00"},
		{"01.11.2023", "12:60"},
		{"01.11.2023", "1220"},
		{"", ""},
	}
	for _, tt := range tests {
		_, err := Normalize(tt.date, tt.clock, now2024)
		require.Error(t, err, "%q %q", tt.date, tt.clock)
		assert.True(t, errors.Is(err, ErrInvalidFormat), "%q %q: %v", tt.date, tt.clock, err)
	}
}

func TestNormalizeProducesLocalInstant(t *testing.T) {
	at, err := Normalize("10-06-2024", "15-30", now2024)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 10, 15, 30, 0, 0, time.Local), at)
}

func TestCanonicalFormIsIdempotent(t *testing.T) {
	inputs := [][2]string{
		{"1-3", "8-5"},
		{"01.11.2023", "12:20"},
		{"7.7.27", "0:00"},
	}
	for _, in := range inputs {
		d1, c1, err := Canonicalize(in[0], in[1], now2024)
		require.NoError(t, err)
		d2, c2, err := Canonicalize(d1, c1, now2024)
		require.NoError(t, err)
		assert.Equal(t, d1, d2)
		assert.Equal(t, c1, c2)
	}
}

func TestCanonicalizeDate(t *testing.T) {
	d, err := CanonicalizeDate("1-3", now2024)
	require.NoError(t, err)
	assert.Equal(t, "01.03.2024", d)

	_, err = CanonicalizeDate("1 3", now2024)
	assert.True(t, errors.Is(err, ErrInvalidFormat))
}
