package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"chat-relay/internal/observability"
)

// Job is a scheduled unit of work. A returned error is logged.
type Job func(ctx context.Context) error

// Scheduler runs background jobs on cron schedules in UTC.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		log:    observability.OrDefault(logger),
	}
}

// Every runs job at a fixed interval. cron works at second resolution, so
// intervals below one second are rejected.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	if interval < time.Second {
		return fmt.Errorf("job %s: interval %v below 1s", name, interval)
	}
	return s.add(name, "@every "+interval.String(), job)
}

// Cron runs job on a standard five-field cron spec.
func (s *Scheduler) Cron(name, spec string, job Job) error {
	return s.add(name, spec, job)
}

func (s *Scheduler) add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	if err := job(s.ctx); err != nil {
		s.log.Error("scheduled job failed", "job", name, "error", err)
		return
	}
	s.log.Debug("scheduled job done", "job", name, "took", time.Since(start))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs, then cancels the jobs' context.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}
