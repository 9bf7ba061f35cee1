package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-portal/pkg/logger"
)

type LogPruner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// RetentionWorker deletes integration log entries older than the retention
// window, once at start and then on every tick.
type RetentionWorker struct {
	repo      LogPruner
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

func NewRetentionWorker(repo LogPruner, retention, interval time.Duration, l *logger.Logger) *RetentionWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    l,
		now:       time.Now,
	}
}

// Start blocks until ctx is done. A zero retention disables pruning.
func (w *RetentionWorker) Start(ctx context.Context) {
	if w.retention <= 0 {
		w.logger.Info("integration log retention disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.logger.Error(err, "integration log cleanup failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *RetentionWorker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune integration logs: %w", err)
	}

	w.logger.Info("pruned integration logs", "deleted", rows, "cutoff", cutoff)
	return rows, nil
}
