package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/birthday"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/datetime"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/messaging"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
)

// BirthdayMatch is a birthday falling on the evaluated day.
type BirthdayMatch struct {
	Person string
	Born   time.Time
	Age    int
}

// BirthdayService evaluates the birthday sheet once a day.
type BirthdayService struct {
	store   rowstore.Store
	gateway messaging.Gateway
	logger  *logrus.Entry
	now     func() time.Time
}

func NewBirthdayService(store rowstore.Store, gateway messaging.Gateway, logger *logrus.Entry) *BirthdayService {
	return &BirthdayService{store: store, gateway: gateway, logger: logger, now: time.Now}
}

// List returns every readable birthday in store order.
func (s *BirthdayService) List(ctx context.Context) ([]*birthday.Birthday, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*birthday.Birthday, 0, len(rows))
	for i, cells := range rows {
		if isBlank(cells) {
			continue
		}
		b, err := birthday.FromRow(cells, now)
		if err != nil {
			s.logger.WithError(err).WithField("row", rowstore.FirstDataRow+i).Warn("Skipping unreadable birthday row")
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// readRows returns every data row, blank and unreadable ones included.
func (s *BirthdayService) readRows(ctx context.Context) ([]rowstore.Row, error) {
	inserted, err := rowstore.EnsureHeader(ctx, s.store, birthday.Header)
	if err != nil {
		return nil, rowstore.Unavailable(err, "ensure birthday header")
	}
	if inserted {
		s.logger.Info("Birthday sheet header was missing and has been inserted")
	}

	rows, err := s.store.ReadAllRows(ctx)
	if err != nil {
		return nil, rowstore.Unavailable(err, "read birthdays")
	}
	return rows, nil
}

// Matches returns the birthdays on day, with age computed as day's year minus birth year.
func (s *BirthdayService) Matches(ctx context.Context, day time.Time) ([]BirthdayMatch, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []BirthdayMatch
	for _, b := range all {
		if b.IsOn(day) {
			out = append(out, BirthdayMatch{Person: b.Person, Born: b.Born, Age: b.AgeOn(day)})
		}
	}
	return out, nil
}

// TodayDigest builds today's digest. It is empty when nobody has a birthday.
func (s *BirthdayService) TodayDigest(ctx context.Context) (string, error) {
	matches, err := s.Matches(ctx, s.now())
	if err != nil {
		return "", err
	}
	return FormatBirthdayDigest(matches), nil
}

// SendDigest is the daily job: it sends today's digest if there is one.
func (s *BirthdayService) SendDigest(ctx context.Context) error {
	digest, err := s.TodayDigest(ctx)
	if err != nil {
		return err
	}
	if digest == "" {
		s.logger.Info("No birthdays today")
		return nil
	}
	if err := s.gateway.Send(ctx, digest); err != nil {
		return err
	}
	s.logger.Info("Birthday digest sent")
	return nil
}

// FormatBirthdayDigest renders matches, or "" for none.
func FormatBirthdayDigest(matches []BirthdayMatch) string {
	if len(matches) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Birthdays today:\n")
	for _, m := range matches {
		b.WriteString(fmt.Sprintf("🎂 %s (%s) turns %d\n", m.Person, datetime.FormatDate(m.Born), m.Age))
	}
	return strings.TrimRight(b.String(), "\n")
}
