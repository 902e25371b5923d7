package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a function run on a fixed interval. A zero Timeout lets a run last until the scheduler stops.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Fn       func(ctx context.Context) error
}

// JobStatus is a snapshot of a job's run history
type JobStatus struct {
	Name         string        `json:"name"`
	Interval     time.Duration `json:"interval"`
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	LastRun      time.Time     `json:"last_run"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
}

type entry struct {
	job    Job
	status JobStatus
}

// Scheduler runs registered jobs on fixed intervals until stopped.
// Each job runs in its own goroutine, so a slow run delays only its own next tick.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// Register adds a job. Jobs with a non-positive interval are ignored.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Interval <= 0 {
		slog.Warn("Cron job disabled, interval must be positive", "name", job.Name, "interval", job.Interval)
		return
	}

	s.entries = append(s.entries, &entry{
		job:    job,
		status: JobStatus{Name: job.Name, Interval: job.Interval},
	})
	slog.Info("Cron job registered", "name", job.Name, "interval", job.Interval, "timeout", job.Timeout)

	if s.started {
		s.wg.Add(1)
		go s.loop(s.entries[len(s.entries)-1])
	}
}

// Status returns the run history of every registered job
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.status
	}
	return out
}

// Start runs every job once and then on its interval. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(e)
	}
	slog.Info("Cron scheduler started", "job_count", len(s.entries))
}

// Stop cancels in-flight runs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

// RunOnce runs every job once in registration order
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	entries := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range entries {
		s.run(ctx, e)
	}
}

func (s *Scheduler) loop(e *entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()

	s.run(s.ctx, e)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.run(s.ctx, e)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, e *entry) {
	if e.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := e.job.Fn(ctx)
	elapsed := time.Since(start)

	s.mu.Lock()
	e.status.Runs++
	e.status.LastRun = start
	e.status.LastDuration = elapsed
	e.status.LastError = ""
	if err != nil {
		e.status.Failures++
		e.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		slog.Error("Cron job failed", "name", e.job.Name, "error", err, "duration", elapsed)
		return
	}
	slog.Debug("Cron job completed", "name", e.job.Name, "duration", elapsed)
}
