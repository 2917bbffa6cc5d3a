package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"clipflow/internal/config"
	"clipflow/internal/logging"
	"clipflow/internal/workflow"
)

// Runner executes a single polling pass.
type Runner interface {
	RunOnce(ctx context.Context) (workflow.Summary, error)
}

// Driver runs polling passes on a fixed interval and enforces
// single-instance execution through a file lock.
//
// Passes never overlap. A tick that fires while a pass is still running is
// dropped, not queued, so a pass that outlives the interval is followed by
// the next fresh tick rather than an immediate rerun.
type Driver struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a driver from configuration. The poll interval comes from
// the scheduler section; the lock file lives next to the logs.
func New(cfg *config.Config, runner Runner, logger *slog.Logger) *Driver {
	lockPath := filepath.Join(cfg.Paths.LogDir, "clipflow.lock")
	return &Driver{
		runner:   runner,
		interval: time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
}

// WithInterval overrides the poll interval (for testing).
func (d *Driver) WithInterval(interval time.Duration) {
	d.interval = interval
}

// Start acquires the instance lock and launches the polling loop. The first
// pass fires immediately, later passes on each interval tick. Starting a
// running driver replaces its schedule: the old loop stops, a new one begins
// under the given context with the current interval, and the instance lock
// stays held throughout.
func (d *Driver) Start(ctx context.Context) error {
	if d.interval <= 0 {
		return errors.New("poll interval must be positive")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		d.stopLoopLocked()
		d.logger.Info("replacing schedule", logging.Duration("interval", d.interval))
	} else if err := d.acquireLock(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true

	d.wg.Add(1)
	go d.loop(runCtx)

	d.logger.Info("scheduler started",
		logging.Duration("interval", d.interval),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop halts the polling loop, waits for an in-flight pass, and releases the
// instance lock. Stop is idempotent; a stopped driver can be started again.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}

	d.stopLoopLocked()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release instance lock", logging.Error(err))
	}
	d.running = false
	d.logger.Info("scheduler stopped")
}

// RunOnce executes a single pass under the instance lock and returns its
// summary. It is the one-shot counterpart of Start.
func (d *Driver) RunOnce(ctx context.Context) (workflow.Summary, error) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return workflow.Summary{}, errors.New("scheduler already running")
	}
	if err := d.acquireLock(); err != nil {
		d.mu.Unlock()
		return workflow.Summary{}, err
	}
	d.mu.Unlock()
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("release instance lock", logging.Error(err))
		}
	}()

	return d.runner.RunOnce(ctx)
}

// stopLoopLocked cancels the loop and waits for it to exit. Callers hold mu.
func (d *Driver) stopLoopLocked() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
}

func (d *Driver) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.runPass(ctx)
	d.dropStaleTick(ticker)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runPass(ctx)
			d.dropStaleTick(ticker)
		}
	}
}

// dropStaleTick discards the tick a ticker buffered while a pass ran past
// the interval. The next pass then waits for a fresh tick instead of firing
// back to back.
func (d *Driver) dropStaleTick(ticker *time.Ticker) {
	select {
	case <-ticker.C:
		d.logger.Info("pass outlived the poll interval, skipping a tick")
	default:
	}
}

func (d *Driver) runPass(ctx context.Context) {
	if _, err := d.runner.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Error("poll pass failed", logging.Error(err))
	}
}

func (d *Driver) acquireLock() error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return errors.New("another clipflow instance is already running")
	}
	return nil
}
