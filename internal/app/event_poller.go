package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/event"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/messaging"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
)

// LoopEventPoller is the name the poller reports under.
const LoopEventPoller = "event_poller"

// ErrPollerHalted is returned by Run once the failure ceiling was reached.
var ErrPollerHalted = errors.New("event poller halted after repeated store failures")

// PollerState is the state of the event poller loop.
type PollerState int

const (
	StateRunning PollerState = iota
	StateBackoffWait
	StateHalted
)

func (s PollerState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateBackoffWait:
		return "backoff_wait"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// PollerConfig holds the poller's timing and escalation settings.
type PollerConfig struct {
	Interval        time.Duration // sleep after a successful cycle
	BackoffInterval time.Duration // sleep after a failed cycle
	AlertAfter      int           // consecutive failures that trigger one admin alert
	HaltAfter       int           // consecutive failures that stop the loop for good
	CallTimeout     time.Duration // per store/gateway round trip, 0 disables
}

// DefaultPollerConfig mirrors the configuration defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:        30 * time.Second,
		BackoffInterval: 2 * time.Minute,
		AlertAfter:      3,
		HaltAfter:       15,
		CallTimeout:     20 * time.Second,
	}
}

// EventPoller reads the event sheet every cycle and sends the reminders that
// are due. Repeated store failures escalate to an alert and finally halt the
// loop; it never crashes the process.
type EventPoller struct {
	store   rowstore.Store
	gateway messaging.Gateway
	tracker *StateTracker
	cfg     PollerConfig
	logger  *logrus.Entry
	health  LoopReporter

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	state    PollerState
	failures int
}

func NewEventPoller(
	store rowstore.Store,
	gateway messaging.Gateway,
	cfg PollerConfig,
	logger *logrus.Entry,
	health LoopReporter,
) *EventPoller {
	if health == nil {
		health = NopReporter{}
	}
	return &EventPoller{
		store:   store,
		gateway: gateway,
		tracker: NewStateTracker(store, logger),
		cfg:     cfg,
		logger:  logger,
		health:  health,
		now:     time.Now,
		sleep:   sleepContext,
		state:   StateRunning,
	}
}

// State returns the current loop state.
func (p *EventPoller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Failures returns the consecutive failure count.
func (p *EventPoller) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// Run polls until ctx is done or the circuit breaker trips.
func (p *EventPoller) Run(ctx context.Context) error {
	p.logger.WithFields(logrus.Fields{
		"interval":    p.cfg.Interval,
		"backoff":     p.cfg.BackoffInterval,
		"alert_after": p.cfg.AlertAfter,
		"halt_after":  p.cfg.HaltAfter,
	}).Info("Event poller started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := p.RunCycle(ctx)
		if err == nil {
			p.succeeded()
			if err := p.sleep(ctx, p.cfg.Interval); err != nil {
				return err
			}
			continue
		}

		// Shutdown in the middle of a cycle is not a store failure.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.failed(ctx, err) {
			return ErrPollerHalted
		}
		if err := p.sleep(ctx, p.cfg.BackoffInterval); err != nil {
			return err
		}
	}
}

// RunCycle performs one pass over the event sheet. Rows are handled in store
// order. Rows whose date or status cannot be read are skipped. A failed send
// leaves the row untouched so it is retried next cycle.
func (p *EventPoller) RunCycle(ctx context.Context) error {
	callCtx, cancel := p.callContext(ctx)
	inserted, err := rowstore.EnsureHeader(callCtx, p.store, event.Header)
	cancel()
	if err != nil {
		return rowstore.Unavailable(err, "ensure event header")
	}
	if inserted {
		p.logger.Info("Event sheet header was missing and has been inserted")
	}

	callCtx, cancel = p.callContext(ctx)
	rows, err := p.store.ReadAllRows(callCtx)
	cancel()
	if err != nil {
		return rowstore.Unavailable(err, "read events")
	}

	now := p.now()
	sent := 0
	for i, cells := range rows {
		rowNum := event.FirstDataRow + i
		if isBlank(cells) {
			continue
		}
		rowLogger := p.logger.WithField("row", rowNum)

		ev, err := event.FromRow(rowNum, cells, now)
		if err != nil {
			rowLogger.WithError(err).Warn("Skipping unreadable event row")
			continue
		}

		tier := event.Evaluate(ev.At, now, ev.LastSent)
		if !p.tracker.ShouldFire(ev.Row, tier, ev.LastSent) {
			continue
		}

		rowLogger = rowLogger.WithFields(logrus.Fields{"event": ev.Name, "tier": tier.String()})
		callCtx, cancel = p.callContext(ctx)
		err = p.gateway.Send(callCtx, ReminderText(ev.Name, tier))
		cancel()
		if err != nil {
			rowLogger.WithError(err).Error("Failed to send reminder, will retry next cycle")
			continue
		}

		callCtx, cancel = p.callContext(ctx)
		err = p.tracker.Record(callCtx, ev.Row, tier)
		cancel()
		if err != nil {
			rowLogger.WithError(err).Error("Reminder sent but status not saved, it may be sent again")
			return err
		}
		rowLogger.Info("Reminder sent")
		sent++
	}

	p.logger.WithFields(logrus.Fields{"rows": len(rows), "sent": sent}).Debug("Poll cycle finished")
	return nil
}

// ReminderText is the message sent when tier fires for an event.
func ReminderText(name string, tier event.Tier) string {
	return fmt.Sprintf("Reminder: less than %s until %s", tier.Lead(), name)
}

func (p *EventPoller) succeeded() {
	p.mu.Lock()
	p.failures = 0
	p.state = StateRunning
	p.mu.Unlock()
	p.health.Beat(LoopEventPoller)
}

// failed applies the escalation policy and reports whether the loop must halt.
func (p *EventPoller) failed(ctx context.Context, cause error) bool {
	p.mu.Lock()
	p.failures++
	failures := p.failures
	halt := failures >= p.cfg.HaltAfter
	if halt {
		p.state = StateHalted
	} else {
		p.state = StateBackoffWait
	}
	p.mu.Unlock()

	p.logger.WithError(cause).WithField("failures", failures).Error("Poll cycle failed")
	p.health.Fail(LoopEventPoller, cause)

	if failures == p.cfg.AlertAfter && !halt {
		p.alert(ctx, fmt.Sprintf("Failed to reach the event table %d times in a row. Still retrying.", failures))
	}
	if halt {
		p.alert(ctx, fmt.Sprintf("Failed to reach the event table %d times in a row. Bot stopped checking the schedule!", failures))
		p.health.Halt(LoopEventPoller)
		p.logger.WithField("failures", failures).Error("Event poller halted")
	}
	return halt
}

func (p *EventPoller) alert(ctx context.Context, text string) {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	if err := p.gateway.Send(callCtx, text); err != nil {
		p.logger.WithError(err).Error("Failed to send administrative alert")
	}
}

func (p *EventPoller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.CallTimeout)
}

func isBlank(cells rowstore.Row) bool {
	for _, v := range cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
