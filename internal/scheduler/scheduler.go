// Package scheduler runs the periodic maintenance loops of the service:
// stale profile refresh, job board import and search history pruning.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is one periodic job.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// StaleRefresher re-extracts profiles whose sources changed.
type StaleRefresher interface {
	RefreshStale(ctx context.Context) (int, error)
}

// SearchPruner deletes unsaved search records older than a retention window.
type SearchPruner interface {
	PruneSearches(ctx context.Context, olderThan time.Duration) (int64, error)
}

// BoardImporter pulls job board postings into job profiles.
type BoardImporter interface {
	ImportAll(ctx context.Context) (int, error)
}

// Scheduler owns the main loop: each task ticks on its own interval.
type Scheduler struct {
	tasks  []Task
	logger *slog.Logger
}

// NewScheduler creates a scheduler for the given tasks. Tasks with a
// non-positive interval are skipped.
func NewScheduler(tasks []Task, logger *slog.Logger) *Scheduler {
	active := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Interval > 0 && t.Run != nil {
			active = append(active, t)
		}
	}
	return &Scheduler{tasks: active, logger: logger}
}

// Run runs one immediate cycle of every task, then ticks each on its
// interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.Name
	}
	s.logger.Info("starting scheduler", "tasks", names)

	var wg sync.WaitGroup
	for _, t := range s.tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, t)
		}()
	}
	wg.Wait()

	s.logger.Info("shutting down scheduler")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	s.runOnce(ctx, t)
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.Interval):
			s.runOnce(ctx, t)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t Task) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := t.Run(ctx); err != nil {
		s.logger.Error("task failed", "task", t.Name, "error", err)
		return
	}
	s.logger.Debug("task complete", "task", t.Name, "duration", time.Since(start).String())
}

// RefreshTask re-extracts stale profiles every interval.
func RefreshTask(r StaleRefresher, interval time.Duration, logger *slog.Logger) Task {
	return Task{
		Name:     "refresh-stale",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := r.RefreshStale(ctx)
			if n > 0 {
				logger.Info("refreshed stale profiles", "count", n)
			}
			return err
		},
	}
}

// PruneTask deletes unsaved searches older than retention every interval.
func PruneTask(p SearchPruner, retention, interval time.Duration, logger *slog.Logger) Task {
	return Task{
		Name:     "prune-history",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := p.PruneSearches(ctx, retention)
			if n > 0 {
				logger.Info("pruned search history", "deleted", n)
			}
			return err
		},
	}
}

// ImportTask imports every configured job board every interval.
func ImportTask(im BoardImporter, interval time.Duration, logger *slog.Logger) Task {
	return Task{
		Name:     "import-boards",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := im.ImportAll(ctx)
			if n > 0 {
				logger.Info("imported job postings", "indexed", n)
			}
			return err
		},
	}
}
