package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/birthday"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/datetime"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/event"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
)

// Application-level errors for the command surface
var (
	ErrNotAuthorized = errors.New("chat is not authorized to use this bot")
	ErrEmptyName     = errors.New("name must not be empty")
)

// CommandService backs the chat commands. Every operation checks that the
// request comes from the configured chat.
type CommandService struct {
	events    rowstore.Store
	birthdays *BirthdayService
	chatID    int64
	logger    *logrus.Entry
	now       func() time.Time
}

func NewCommandService(events rowstore.Store, birthdays *BirthdayService, chatID int64, logger *logrus.Entry) *CommandService {
	return &CommandService{
		events:    events,
		birthdays: birthdays,
		chatID:    chatID,
		logger:    logger,
		now:       time.Now,
	}
}

// Authorized reports whether chatID may use the bot.
func (s *CommandService) Authorized(chatID int64) bool { return chatID == s.chatID }

// AddEvent canonicalises date and time and appends the event with no status.
func (s *CommandService) AddEvent(ctx context.Context, chatID int64, name, date, clock string) (*event.Event, error) {
	if !s.Authorized(chatID) {
		return nil, ErrNotAuthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	at, err := datetime.Normalize(date, clock, s.now())
	if err != nil {
		return nil, err
	}

	rows, err := s.readEvents(ctx)
	if err != nil {
		return nil, err
	}

	ev := &event.Event{Row: event.FirstDataRow + len(rows), Name: name, At: at, LastSent: event.TierNone}
	if err := s.events.AppendRow(ctx, ev.Values(), ev.Row); err != nil {
		return nil, rowstore.Unavailable(err, "append event %q", name)
	}
	s.logger.WithFields(logrus.Fields{"event": name, "at": at}).Info("Event added")
	return ev, nil
}

// ListFutureEvents returns events still ahead of now, soonest first.
func (s *CommandService) ListFutureEvents(ctx context.Context, chatID int64) ([]*event.Event, error) {
	if !s.Authorized(chatID) {
		return nil, ErrNotAuthorized
	}
	rows, err := s.readEvents(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out []*event.Event
	for i, cells := range rows {
		if isBlank(cells) {
			continue
		}
		ev, err := event.FromRow(event.FirstDataRow+i, cells, now)
		if err != nil {
			s.logger.WithError(err).WithField("row", event.FirstDataRow+i).Warn("Skipping unreadable event row")
			continue
		}
		if !ev.IsPast(now) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// AddBirthday canonicalises the birth date and appends the person.
func (s *CommandService) AddBirthday(ctx context.Context, chatID int64, person, date string) (*birthday.Birthday, error) {
	if !s.Authorized(chatID) {
		return nil, ErrNotAuthorized
	}
	person = strings.TrimSpace(person)
	if person == "" {
		return nil, ErrEmptyName
	}
	born, err := datetime.ParseDate(date, s.now())
	if err != nil {
		return nil, err
	}

	existing, err := s.birthdays.readRows(ctx)
	if err != nil {
		return nil, err
	}
	rowHint := rowstore.FirstDataRow + len(existing)
	if err := s.birthdays.store.AppendRow(ctx, []string{person, datetime.FormatDate(born)}, rowHint); err != nil {
		return nil, rowstore.Unavailable(err, "append birthday %q", person)
	}
	s.logger.WithField("person", person).Info("Birthday added")
	return &birthday.Birthday{Person: person, Born: born}, nil
}

// ListBirthdays returns every stored birthday.
func (s *CommandService) ListBirthdays(ctx context.Context, chatID int64) ([]*birthday.Birthday, error) {
	if !s.Authorized(chatID) {
		return nil, ErrNotAuthorized
	}
	return s.birthdays.List(ctx)
}

func (s *CommandService) readEvents(ctx context.Context) ([]rowstore.Row, error) {
	if _, err := rowstore.EnsureHeader(ctx, s.events, event.Header); err != nil {
		return nil, rowstore.Unavailable(err, "ensure event header")
	}
	rows, err := s.events.ReadAllRows(ctx)
	if err != nil {
		return nil, rowstore.Unavailable(err, "read events")
	}
	return rows, nil
}
