package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/xxSohoxx/scheduler-bot/internal/app"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/datetime"
)

// LoopDailyScheduler is the name the scheduler reports under.
const LoopDailyScheduler = "daily_scheduler"

// Job is one daily task. Its error is logged and never stops the scheduler.
type Job func(ctx context.Context) error

type dailyJob struct {
	name     string
	at       string
	schedule cron.Schedule
	timeout  time.Duration
	run      Job
	ranOn    string // day key of the last run
}

// DailyJobScheduler runs each registered job once per calendar day at its
// time of day. A loop wakes every tick and runs the jobs whose time was
// reached since the previous wake.
type DailyJobScheduler struct {
	tick   time.Duration
	logger *logrus.Entry
	health app.LoopReporter
	now    func() time.Time

	mu       sync.Mutex
	jobs     []*dailyJob
	lastWake time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewDailyJobScheduler(tick time.Duration, logger *logrus.Entry, health app.LoopReporter) *DailyJobScheduler {
	if health == nil {
		health = app.NopReporter{}
	}
	return &DailyJobScheduler{
		tick:   tick,
		logger: logger,
		health: health,
		now:    time.Now,
	}
}

// AddJob registers run to fire daily at "HH:MM" local time.
func (s *DailyJobScheduler) AddJob(name, at string, timeout time.Duration, run Job) error {
	clock, err := datetime.ParseClock(at)
	if err != nil {
		return errors.Wrapf(err, "job %s", name)
	}
	hour := int(clock / time.Hour)
	minute := int((clock % time.Hour) / time.Minute)
	schedule, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return errors.Wrapf(err, "job %s: cron spec", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &dailyJob{name: name, at: at, schedule: schedule, timeout: timeout, run: run})
	s.logger.WithFields(logrus.Fields{"job": name, "at": at}).Info("Daily job registered")
	return nil
}

// Start launches the loop. Jobs whose time already passed today wait for tomorrow.
func (s *DailyJobScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting daily job scheduler...")
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.mu.Lock()
	s.lastWake = s.now()
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.wake(ctx)
			}
		}
	}()
	s.logger.WithField("tick", s.tick).Info("Daily job scheduler started")
}

// Stop ends the loop and waits for a running job to return.
func (s *DailyJobScheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.logger.Info("Stopping daily job scheduler...")
	s.cancel()
	<-s.done
	s.logger.Info("Daily job scheduler gracefully stopped.")
}

func (s *DailyJobScheduler) wake(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	due := s.dueLocked(now)
	s.lastWake = now
	s.mu.Unlock()

	for _, job := range due {
		s.runJob(ctx, job)
	}
	s.health.Beat(LoopDailyScheduler)
}

// dueLocked returns the jobs whose time lies in (lastWake, now] and marks them run.
func (s *DailyJobScheduler) dueLocked(now time.Time) []*dailyJob {
	var due []*dailyJob
	for _, job := range s.jobs {
		next := job.schedule.Next(s.lastWake)
		if next.After(now) {
			continue
		}
		day := dayKey(next)
		if job.ranOn == day {
			continue
		}
		job.ranOn = day
		due = append(due, job)
	}
	return due
}

func (s *DailyJobScheduler) runJob(ctx context.Context, job *dailyJob) {
	jobLogger := s.logger.WithField("job", job.name)
	defer func() {
		if r := recover(); r != nil {
			jobLogger.WithField("panic", r).Error("Daily job panicked")
		}
	}()

	if job.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.timeout)
		defer cancel()
	}

	jobLogger.Info("Daily job triggered")
	if err := job.run(ctx); err != nil {
		jobLogger.WithError(err).Error("Daily job failed")
		return
	}
	jobLogger.Info("Daily job finished")
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }
