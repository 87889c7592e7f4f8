package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/event"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
)

// StateTracker decides whether a tier still has to be sent for an event and
// persists the tier once it has been. The event's store row is its identifier,
// and the Notification_status column is the only durable state.
//
// A send that succeeds followed by a failed Record leaves the old status in
// place, so the same tier fires again next cycle: delivery is at-least-once.
type StateTracker struct {
	store  rowstore.Store
	logger *logrus.Entry
}

func NewStateTracker(store rowstore.Store, logger *logrus.Entry) *StateTracker {
	return &StateTracker{store: store, logger: logger}
}

// ShouldFire is true iff candidate is a real tier different from lastSent.
func (t *StateTracker) ShouldFire(eventRow int, candidate, lastSent event.Tier) bool {
	if candidate == event.TierNone || candidate == lastSent {
		return false
	}
	t.logger.WithFields(logrus.Fields{
		"row":       eventRow,
		"tier":      candidate.String(),
		"last_sent": lastSent.String(),
	}).Debug("Tier due")
	return true
}

// Record persists tier for the event at eventRow. Call it only after the send was attempted.
func (t *StateTracker) Record(ctx context.Context, eventRow int, tier event.Tier) error {
	if err := t.store.WriteCell(ctx, eventRow, event.StatusColumn, tier.Status()); err != nil {
		return rowstore.Unavailable(err, "record %s for row %d", tier, eventRow)
	}
	return nil
}
