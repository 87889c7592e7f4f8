package app

import (
	"sort"
	"sync"
	"time"
)

// LoopReporter is how long-running loops report liveness.
type LoopReporter interface {
	Beat(loop string)
	Fail(loop string, err error)
	Halt(loop string)
}

// NopReporter discards every report.
type NopReporter struct{}

func (NopReporter) Beat(string)        {}
func (NopReporter) Fail(string, error) {}
func (NopReporter) Halt(string)        {}

// LoopStatus is the health of one loop.
type LoopStatus string

const (
	LoopOK       LoopStatus = "ok"
	LoopDegraded LoopStatus = "degraded"
	LoopHalted   LoopStatus = "halted"
	LoopStale    LoopStatus = "stale"
)

// LoopHealth is a point-in-time view of one loop.
type LoopHealth struct {
	Name      string     `json:"name"`
	Status    LoopStatus `json:"status"`
	LastBeat  time.Time  `json:"last_beat"`
	Failures  int        `json:"failures"`
	LastError string     `json:"last_error,omitempty"`
}

type loopRecord struct {
	staleAfter time.Duration
	lastBeat   time.Time
	failures   int
	lastError  string
	halted     bool
}

// HealthMonitor aggregates liveness of the registered loops.
type HealthMonitor struct {
	mu    sync.Mutex
	loops map[string]*loopRecord
	now   func() time.Time
}

func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{loops: map[string]*loopRecord{}, now: time.Now}
}

// Register adds a loop. A loop that has not beaten for staleAfter is reported
// stale; zero disables the check. Registration counts as the first beat.
func (m *HealthMonitor) Register(loop string, staleAfter time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loops[loop] = &loopRecord{staleAfter: staleAfter, lastBeat: m.now()}
}

func (m *HealthMonitor) record(loop string) *loopRecord {
	r, ok := m.loops[loop]
	if !ok {
		r = &loopRecord{lastBeat: m.now()}
		m.loops[loop] = r
	}
	return r
}

func (m *HealthMonitor) Beat(loop string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.record(loop)
	r.lastBeat = m.now()
	r.failures = 0
	r.lastError = ""
}

func (m *HealthMonitor) Fail(loop string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.record(loop)
	r.failures++
	if err != nil {
		r.lastError = err.Error()
	}
}

func (m *HealthMonitor) Halt(loop string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(loop).halted = true
}

// Snapshot returns every loop sorted by name.
func (m *HealthMonitor) Snapshot() []LoopHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	out := make([]LoopHealth, 0, len(m.loops))
	for name, r := range m.loops {
		status := LoopOK
		switch {
		case r.halted:
			status = LoopHalted
		case r.staleAfter > 0 && now.Sub(r.lastBeat) > r.staleAfter:
			status = LoopStale
		case r.failures > 0:
			status = LoopDegraded
		}
		out = append(out, LoopHealth{
			Name:      name,
			Status:    status,
			LastBeat:  r.lastBeat,
			Failures:  r.failures,
			LastError: r.lastError,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Healthy is false when any loop is halted or stale. Degraded loops are still retrying.
func (m *HealthMonitor) Healthy() bool {
	for _, l := range m.Snapshot() {
		if l.Status == LoopHalted || l.Status == LoopStale {
			return false
		}
	}
	return true
}

// Live is false only when a loop is stale. A halted loop was stopped on
// purpose and the rest of the process keeps serving.
func (m *HealthMonitor) Live() bool {
	for _, l := range m.Snapshot() {
		if l.Status == LoopStale {
			return false
		}
	}
	return true
}
