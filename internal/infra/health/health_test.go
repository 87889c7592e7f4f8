package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxSohoxx/scheduler-bot/internal/app"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/logger"
)

type stubMonitor struct {
	mu      sync.Mutex
	loops   []app.LoopHealth
	healthy bool
	live    bool
}

func (m *stubMonitor) Snapshot() []app.LoopHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loops
}

func (m *stubMonitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

func (m *stubMonitor) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

func (m *stubMonitor) setLive(l bool) {
	m.mu.Lock()
	m.live = l
	m.mu.Unlock()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	monitor := app.NewHealthMonitor()
	monitor.Register(app.LoopEventPoller, time.Hour)
	h := NewServer(":0", monitor, logger.Discard()).Handler()

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body overallResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	require.Len(t, body.Loops, 1)
	assert.Equal(t, app.LoopOK, body.Loops[0].Status)

	monitor.Halt(app.LoopEventPoller)
	rec = get(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}

func TestLoopEndpoint(t *testing.T) {
	monitor := &stubMonitor{healthy: true, loops: []app.LoopHealth{
		{Name: "event_poller", Status: app.LoopDegraded, Failures: 2},
		{Name: "daily_scheduler", Status: app.LoopStale},
	}}
	h := NewServer(":0", monitor, logger.Discard()).Handler()

	rec := get(t, h, "/health/event_poller")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failures":2`)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health/daily_scheduler").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/health/nope").Code)
}

func TestHealthRejectsOtherMethods(t *testing.T) {
	h := NewServer(":0", &stubMonitor{healthy: true}, logger.Discard()).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type recordingNotify struct {
	mu     sync.Mutex
	states []string
}

func (r *recordingNotify) notify(state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return true, nil
}

func (r *recordingNotify) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s == state {
			n++
		}
	}
	return n
}

func TestSystemdNotifierReadyAndStopping(t *testing.T) {
	rec := &recordingNotify{}
	n := NewSystemdNotifier(&stubMonitor{healthy: true}, logger.Discard())
	n.notify = rec.notify

	n.Ready()
	n.Stopping()

	assert.Equal(t, []string{daemon.SdNotifyReady, daemon.SdNotifyStopping}, rec.states)
}

func TestSystemdWatchdogOnlyWhileLive(t *testing.T) {
	rec := &recordingNotify{}
	monitor := &stubMonitor{}
	n := NewSystemdNotifier(monitor, logger.Discard())
	n.notify = rec.notify
	n.watchdog = func() (time.Duration, error) { return 10 * time.Millisecond, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, rec.count(daemon.SdNotifyWatchdog))

	monitor.setLive(true)
	require.Eventually(t, func() bool { return rec.count(daemon.SdNotifyWatchdog) > 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSystemdWatchdogKeepsPingingAfterPollerHalts(t *testing.T) {
	monitor := app.NewHealthMonitor()
	monitor.Register(app.LoopEventPoller, time.Hour)
	monitor.Register("daily_scheduler", time.Hour)
	monitor.Halt(app.LoopEventPoller)
	monitor.Beat("daily_scheduler")
	require.False(t, monitor.Healthy())

	rec := &recordingNotify{}
	n := NewSystemdNotifier(monitor, logger.Discard())
	n.notify = rec.notify
	n.watchdog = func() (time.Duration, error) { return 10 * time.Millisecond, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.count(daemon.SdNotifyWatchdog) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	h := NewServer(":0", monitor, logger.Discard()).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health/"+app.LoopEventPoller).Code)
}

func TestSystemdWatchdogDisabled(t *testing.T) {
	n := NewSystemdNotifier(&stubMonitor{healthy: true}, logger.Discard())
	n.watchdog = func() (time.Duration, error) { return 0, nil }

	n.Run(context.Background()) // returns immediately
}
