package worker

import (
	"context"
	"log/slog"
	"time"
)

// Sweepable is anything holding expiring in-memory state
type Sweepable interface {
	Sweep() int
}

// SweepFunc adapts a function to Sweepable
type SweepFunc func() int

func (f SweepFunc) Sweep() int { return f() }

// CleanupWorker periodically evicts idle dashboards and expired revocations
type CleanupWorker struct {
	targets  map[string]Sweepable
	logger   *slog.Logger
	interval time.Duration
}

// NewCleanupWorker creates a new cleanup worker over named targets
func NewCleanupWorker(targets map[string]Sweepable, logger *slog.Logger, interval time.Duration) *CleanupWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupWorker{
		targets:  targets,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("cleanup worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce sweeps every target and returns the total evicted
func (w *CleanupWorker) RunOnce() int {
	total := 0
	for name, target := range w.targets {
		n := target.Sweep()
		total += n
		if n > 0 {
			w.logger.Info("swept expired entries",
				slog.String("target", name),
				slog.Int("evicted", n),
			)
		}
	}
	return total
}
