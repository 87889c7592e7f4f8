package app

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthMonitorStatuses(t *testing.T) {
	now := at(2023, time.November, 1, 9, 0)
	m := NewHealthMonitor()
	m.now = func() time.Time { return now }

	m.Register("poller", time.Minute)
	m.Register("scheduler", 0)
	assert.True(t, m.Healthy())

	m.Fail("poller", errors.New("sheet unreachable"))
	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "poller", snap[0].Name)
	assert.Equal(t, LoopDegraded, snap[0].Status)
	assert.Equal(t, "sheet unreachable", snap[0].LastError)
	assert.True(t, m.Healthy())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, LoopStale, m.Snapshot()[0].Status)
	assert.Equal(t, LoopOK, m.Snapshot()[1].Status)
	assert.False(t, m.Healthy())

	m.Beat("poller")
	assert.Equal(t, LoopOK, m.Snapshot()[0].Status)
	assert.Equal(t, 0, m.Snapshot()[0].Failures)

	m.Halt("poller")
	assert.Equal(t, LoopHalted, m.Snapshot()[0].Status)
	assert.False(t, m.Healthy())
}

func TestHealthMonitorUnregisteredLoop(t *testing.T) {
	m := NewHealthMonitor()
	m.Beat("adhoc")

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, LoopOK, snap[0].Status)
}

func TestHealthMonitorHaltedLoopStaysLive(t *testing.T) {
	now := at(2023, time.November, 1, 9, 0)
	m := NewHealthMonitor()
	m.now = func() time.Time { return now }
	m.Register("poller", time.Minute)
	m.Register("scheduler", time.Minute)

	m.Halt("poller")
	assert.False(t, m.Healthy())
	assert.True(t, m.Live())

	now = now.Add(2 * time.Minute)
	m.Beat("poller")
	assert.False(t, m.Live(), "scheduler missed its beats")
}
