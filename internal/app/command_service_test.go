package app

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/birthday"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/datetime"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/event"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/logger"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/memory"
)

const ownerChat int64 = 4242

func newCommandService(events, birthdays *memory.RowStore, now time.Time) *CommandService {
	bs := NewBirthdayService(birthdays, &recordingGateway{}, logger.Discard())
	bs.now = fixedClock(now)
	s := NewCommandService(events, bs, ownerChat, logger.Discard())
	s.now = fixedClock(now)
	return s
}

func TestAddEventStoresCanonicalForm(t *testing.T) {
	events := memory.NewRowStore()
	s := newCommandService(events, memory.NewRowStore(), at(2023, time.October, 30, 9, 0))

	ev, err := s.AddEvent(context.Background(), ownerChat, " Dentist ", "1-11", "9-05")

	require.NoError(t, err)
	assert.Equal(t, 2, ev.Row)
	assert.Equal(t, [][]string{
		event.Header,
		{"Dentist", "01.11.2023", "09:05", ""},
	}, events.Rows())
}

func TestAddEventRejectsBadInput(t *testing.T) {
	events := memory.NewRowStore(event.Header)
	s := newCommandService(events, memory.NewRowStore(), at(2023, time.October, 30, 9, 0))
	ctx := context.Background()

	_, err := s.AddEvent(ctx, ownerChat, "Dentist", "31.02.2023", "10:00")
	assert.True(t, errors.Is(err, datetime.ErrInvalidFormat))

	_, err = s.AddEvent(ctx, ownerChat, "  ", "01.11.2023", "10:00")
	assert.True(t, errors.Is(err, ErrEmptyName))

	_, err = s.AddEvent(ctx, 1, "Dentist", "01.11.2023", "10:00")
	assert.True(t, errors.Is(err, ErrNotAuthorized))

	assert.Len(t, events.Rows(), 1)
}

func TestListFutureEventsSortedAndFiltered(t *testing.T) {
	events := memory.NewRowStore(
		event.Header,
		[]string{"Later", "05.11.2023", "10:00", ""},
		[]string{"Gone", "29.10.2023", "10:00", "Notified_1hour"},
		[]string{"Soon", "31.10.2023", "08:00", ""},
		[]string{"Garbage", "soon", "", ""},
	)
	s := newCommandService(events, memory.NewRowStore(), at(2023, time.October, 30, 9, 0))

	list, err := s.ListFutureEvents(context.Background(), ownerChat)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Soon", list[0].Name)
	assert.Equal(t, "Later", list[1].Name)
	assert.Equal(t, 4, list[0].Row)
	assert.Equal(t, 2, list[1].Row)
}

func TestAddAndListBirthdays(t *testing.T) {
	birthdays := memory.NewRowStore()
	s := newCommandService(memory.NewRowStore(), birthdays, at(2023, time.October, 30, 9, 0))
	ctx := context.Background()

	b, err := s.AddBirthday(ctx, ownerChat, "Ana", "10-6-1990")
	require.NoError(t, err)
	assert.Equal(t, "Ana", b.Person)

	list, err := s.ListBirthdays(ctx, ownerChat)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, [][]string{birthday.Header, {"Ana", "10.06.1990"}}, birthdays.Rows())

	_, err = s.ListBirthdays(ctx, 7)
	assert.True(t, errors.Is(err, ErrNotAuthorized))
}

func TestAddBirthdayHintCountsEveryStoredRow(t *testing.T) {
	birthdays := &hintRecordingStore{RowStore: memory.NewRowStore(
		birthday.Header,
		[]string{"Ana", "10.06.1990"},
		[]string{"Broken", "not a date"},
		[]string{"", ""},
	)}
	bs := NewBirthdayService(birthdays, &recordingGateway{}, logger.Discard())
	s := NewCommandService(memory.NewRowStore(), bs, ownerChat, logger.Discard())

	_, err := s.AddBirthday(context.Background(), ownerChat, "Marko", "10.06.1985")
	require.NoError(t, err)

	assert.Equal(t, []int{5}, birthdays.hints)
	assert.Equal(t, []string{"Marko", "10.06.1985"}, birthdays.Rows()[4])
}
