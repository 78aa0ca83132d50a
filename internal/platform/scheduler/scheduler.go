// Package scheduler runs background jobs on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner. Every job is recovered from panics and
// skipped while its previous run is still in progress.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	entries map[string]cron.EntryID
}

// New creates a Scheduler whose jobs receive ctx.
func New(ctx context.Context) *Scheduler {
	l := cronLogger{}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)), cron.WithLogger(l)),
		ctx:     ctx,
		entries: map[string]cron.EntryID{},
	}
}

// Every registers fn to run every interval under name.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("register %s: interval must be positive, got %s", name, interval)
	}
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("register %s: already registered", name)
	}
	id, err := s.cron.AddFunc("@every "+interval.String(), func() {
		start := time.Now()
		if err := fn(s.ctx); err != nil {
			slog.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		slog.Debug("scheduled job done", "job", name, "elapsed", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	s.entries[name] = id
	return nil
}

// RunNow runs the named job synchronously through the same wrappers as a
// scheduled run. It returns false for an unknown name.
func (s *Scheduler) RunNow(name string) bool {
	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Entry(id).WrappedJob.Run()
	return true
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.entries))
}

// Stop stops scheduling and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	slog.Info("scheduler stopped")
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
