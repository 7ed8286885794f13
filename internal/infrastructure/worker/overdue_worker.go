package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OverdueMarker moves SENT invoices past their due date to OVERDUE.
// Implemented by service.InvoiceService.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

// OverdueWorkerConfig holds configuration for the overdue sweeper
type OverdueWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	SweepTimeout time.Duration
}

// DefaultOverdueWorkerConfig returns default configuration
func DefaultOverdueWorkerConfig() OverdueWorkerConfig {
	return OverdueWorkerConfig{
		PollInterval: time.Hour,
		BatchSize:    100,
		SweepTimeout: 30 * time.Second,
	}
}

// OverdueStats is a snapshot of the sweeper counters
type OverdueStats struct {
	Sweeps    int
	Marked    int
	LastSweep time.Time
	LastError error
}

// OverdueWorker periodically marks overdue invoices. A sweep keeps taking
// batches until one comes back short, so a backlog clears in one tick.
type OverdueWorker struct {
	config OverdueWorkerConfig
	marker OverdueMarker
	now    func() time.Time
	logger *zap.Logger

	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	stats     OverdueStats
}

// NewOverdueWorker creates a new overdue sweeper
func NewOverdueWorker(config OverdueWorkerConfig, marker OverdueMarker, logger *zap.Logger) *OverdueWorker {
	defaults := DefaultOverdueWorkerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = defaults.SweepTimeout
	}

	return &OverdueWorker{
		config: config,
		marker: marker,
		now:    time.Now,
		logger: logger,
	}
}

// Start runs one sweep right away and then one per poll interval
func (w *OverdueWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("overdue worker already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("OverdueWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to finish
func (w *OverdueWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	stats := w.Stats()
	w.logger.Info("OverdueWorker stopped",
		zap.Int("sweeps", stats.Sweeps),
		zap.Int("marked", stats.Marked))
	return nil
}

// Name returns the worker name for identification
func (w *OverdueWorker) Name() string {
	return "OverdueWorker"
}

// Stats returns a copy of the counters
func (w *OverdueWorker) Stats() OverdueStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *OverdueWorker) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Overdue poll loop context cancelled")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep marks batches until the backlog is empty or the context ends
func (w *OverdueWorker) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, w.config.SweepTimeout)
	defer cancel()

	asOf := w.now()
	total := 0
	var sweepErr error
	for sweepCtx.Err() == nil {
		marked, err := w.marker.MarkOverdue(sweepCtx, asOf, w.config.BatchSize)
		total += marked
		if err != nil {
			sweepErr = err
			w.logger.Error("Failed to mark overdue invoices", zap.Error(err))
			break
		}
		if marked < w.config.BatchSize {
			break
		}
	}

	w.mu.Lock()
	w.stats.Sweeps++
	w.stats.Marked += total
	w.stats.LastSweep = asOf
	w.stats.LastError = sweepErr
	w.mu.Unlock()

	if total > 0 {
		w.logger.Info("Invoices marked overdue", zap.Int("count", total), zap.Time("as_of", asOf))
	}
}
