package health

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/sirupsen/logrus"
)

// SystemdNotifier reports READY, WATCHDOG and STOPPING to systemd. Outside a
// systemd unit every call is a no-op.
type SystemdNotifier struct {
	monitor Monitor
	logger  *logrus.Entry

	notify   func(state string) (bool, error)
	watchdog func() (time.Duration, error)
}

func NewSystemdNotifier(monitor Monitor, logger *logrus.Entry) *SystemdNotifier {
	return &SystemdNotifier{
		monitor:  monitor,
		logger:   logger,
		notify:   func(state string) (bool, error) { return daemon.SdNotify(false, state) },
		watchdog: func() (time.Duration, error) { return daemon.SdWatchdogEnabled(false) },
	}
}

func (n *SystemdNotifier) Ready()    { n.send(daemon.SdNotifyReady) }
func (n *SystemdNotifier) Stopping() { n.send(daemon.SdNotifyStopping) }

// Run pings the watchdog at half its timeout, skipping pings while a loop is
// stale. A halted loop does not stop the pings. It returns at once when the
// unit has no watchdog.
func (n *SystemdNotifier) Run(ctx context.Context) {
	interval, err := n.watchdog()
	if err != nil {
		n.logger.WithError(err).Warn("Could not read systemd watchdog settings")
		return
	}
	if interval <= 0 {
		n.logger.Debug("systemd watchdog not enabled")
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !n.monitor.Live() {
				n.logger.Warn("A loop is stale, withholding watchdog ping")
				continue
			}
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *SystemdNotifier) send(state string) {
	sent, err := n.notify(state)
	if err != nil {
		n.logger.WithError(err).WithField("state", state).Warn("systemd notification failed")
		return
	}
	if sent {
		n.logger.WithField("state", state).Debug("systemd notified")
	}
}
