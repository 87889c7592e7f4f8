package app

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/forecast"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/messaging"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/memory"
)

type recordingGateway struct {
	mu       sync.Mutex
	messages []string
	failing  bool
}

func (g *recordingGateway) Send(_ context.Context, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing {
		return errors.Mark(errors.New("telegram is down"), messaging.ErrSendFailed)
	}
	g.messages = append(g.messages, text)
	return nil
}

func (g *recordingGateway) Messages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.messages...)
}

func (g *recordingGateway) SetFailing(failing bool) {
	g.mu.Lock()
	g.failing = failing
	g.mu.Unlock()
}

// writeFailingStore reads fine but refuses every WriteCell.
type writeFailingStore struct {
	*memory.RowStore
}

func (writeFailingStore) WriteCell(context.Context, int, int, string) error {
	return errors.New("quota exceeded")
}

// hintRecordingStore remembers the rowHint of every append.
type hintRecordingStore struct {
	*memory.RowStore
	hints []int
}

func (s *hintRecordingStore) AppendRow(ctx context.Context, values []string, rowHint int) error {
	s.hints = append(s.hints, rowHint)
	return s.RowStore.AppendRow(ctx, values, rowHint)
}

type stubProvider struct {
	forecast *forecast.Forecast
	err      error
}

func (p stubProvider) Fetch(context.Context) (*forecast.Forecast, error) {
	return p.forecast, p.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}
