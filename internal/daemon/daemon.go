package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"embyscan/internal/config"
	"embyscan/internal/emby"
	"embyscan/internal/index"
	"embyscan/internal/logging"
	"embyscan/internal/media"
	"embyscan/internal/notify"
	"embyscan/internal/trigger"
	"embyscan/internal/watch"
	"embyscan/internal/webhook"
)

// deliverContext wraps the context handed to debounced deliveries.
// atomic.Value requires a single concrete type across stores, and the
// contexts swapped in (cancel vs timeout) are different types.
type deliverContext struct {
	ctx context.Context
}

// Daemon owns the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *index.Store
	client    *emby.Client
	notifier  notify.Service
	processor *trigger.Processor

	lockPath string
	lock     *flock.Flock

	mu         sync.Mutex
	running    atomic.Bool
	deliverCtx atomic.Value
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	watcher    *watch.Watcher
	debouncer  *watch.Debouncer
	sweeper    *watch.Sweeper
	webhook    *webhook.Server
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	PID             int
	Roots           []string
	IndexDBPath     string
	LockFilePath    string
	WebhookEnabled  bool
	WebhookBind     string
	Files           int64
	Pending         int64
	LastTriggeredAt *time.Time
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *index.Store, client *emby.Client, notifier notify.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || client == nil {
		return nil, errors.New("daemon requires config, store, and emby client")
	}
	if notifier == nil {
		notifier = notify.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "embyscan.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		client:    client,
		notifier:  notifier,
		processor: trigger.New(store, client, notifier, cfg, logger),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, seeds empty roots, and launches the
// watcher, sweeper, and webhook server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another embyscan instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.deliverCtx.Store(deliverContext{ctx: d.ctx})

	if err := d.seedEmptyRoots(d.ctx); err != nil {
		d.teardownLocked()
		return err
	}

	filter := media.NewFilter(d.cfg.Watcher.ExtraExtensions...)
	d.debouncer = watch.NewDebouncer(d.cfg.DebounceWindow(), d.deliver)

	watcher, err := watch.NewWatcher(d.cfg.Watcher.Roots, filter, d.debouncer.Add, d.logger)
	if err != nil {
		d.teardownLocked()
		return fmt.Errorf("start watcher: %w", err)
	}
	d.watcher = watcher
	d.sweeper = watch.NewSweeper(d.cfg.Watcher.Roots, filter, d.store, d.debouncer.Add, d.cfg.SweepInterval(), d.logger)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.watcher.Run(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("watcher stopped", logging.Error(err))
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.sweeper.Run(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("sweeper stopped", logging.Error(err))
		}
	}()

	if d.cfg.Webhook.Enabled {
		d.webhook = webhook.NewServer(d.cfg, d.notifier, d.logger)
		if err := d.webhook.Start(); err != nil {
			d.logger.Warn("webhook server not started", logging.Error(err))
			d.webhook = nil
		}
	}

	// Changes queued before a crash or failed trigger resume here.
	if err := d.processor.Flush(d.ctx); err != nil {
		d.logger.Warn("resuming queued changes failed", logging.Error(err))
	}

	d.running.Store(true)
	d.logger.Info("embyscan daemon started",
		logging.String("lock", d.lockPath),
		logging.Int(logging.FieldCount, len(d.cfg.Watcher.Roots)))
	return nil
}

// Stop flushes pending events through one final trigger and releases
// the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.watcher != nil {
		_ = d.watcher.Close()
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()

	if d.debouncer != nil {
		// The run context is cancelled by now; give the final trigger
		// its own deadline so queued changes still go out.
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		d.deliverCtx.Store(deliverContext{ctx: flushCtx})
		d.debouncer.Flush()
		d.debouncer.Stop()
		cancel()
	}
	if d.webhook != nil {
		if err := d.webhook.Stop(context.Background()); err != nil {
			d.logger.Warn("webhook shutdown failed", logging.Error(err))
		}
	}

	d.teardownLocked()
	d.running.Store(false)
	d.logger.Info("embyscan daemon stopped")
}

// teardownLocked releases the lock and clears runtime state. Caller
// holds the mutex.
func (d *Daemon) teardownLocked() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	d.watcher = nil
	d.sweeper = nil
	d.webhook = nil
}

// Close stops the daemon and closes the index store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// deliver receives a debounced batch on the debouncer's timer
// goroutine.
func (d *Daemon) deliver(batch []watch.Event) {
	ctx := d.runContext()
	if err := d.processor.Process(ctx, batch); err != nil {
		d.logger.Warn("trigger batch failed", logging.Error(err))
	}
}

func (d *Daemon) runContext() context.Context {
	if wrapped, ok := d.deliverCtx.Load().(deliverContext); ok && wrapped.ctx != nil {
		return wrapped.ctx
	}
	return context.Background()
}

// seedEmptyRoots populates the index for roots it has never seen
// without triggering a scan, so the first start on an existing library
// does not hammer Emby.
func (d *Daemon) seedEmptyRoots(ctx context.Context) error {
	filter := media.NewFilter(d.cfg.Watcher.ExtraExtensions...)
	for _, root := range d.cfg.Watcher.Roots {
		has, err := d.store.HasFiles(ctx, root)
		if err != nil {
			return fmt.Errorf("inspect index for %s: %w", root, err)
		}
		if has {
			continue
		}
		files, err := watch.ScanRoot(root, filter)
		if err != nil {
			return fmt.Errorf("initial scan of %s: %w", root, err)
		}
		if err := d.store.SeedFiles(ctx, root, files); err != nil {
			return fmt.Errorf("seed index for %s: %w", root, err)
		}
		d.logger.Info("index seeded",
			logging.String(logging.FieldRoot, root),
			logging.Int(logging.FieldCount, len(files)))
	}
	return nil
}

// ScanNow runs one sweep across all roots and triggers immediately,
// bypassing the debounce window.
func (d *Daemon) ScanNow(ctx context.Context) (int, error) {
	if !d.running.Load() {
		return 0, errors.New("daemon is not running")
	}
	filter := media.NewFilter(d.cfg.Watcher.ExtraExtensions...)
	var found []watch.Event
	sweeper := watch.NewSweeper(d.cfg.Watcher.Roots, filter, d.store, func(event watch.Event) {
		found = append(found, event)
	}, 0, d.logger)
	if err := sweeper.Sweep(ctx); err != nil {
		return 0, err
	}
	if err := d.processor.Process(ctx, found); err != nil {
		return len(found), err
	}
	return len(found), nil
}

// Status reports runtime and index information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		Roots:          append([]string(nil), d.cfg.Watcher.Roots...),
		IndexDBPath:    d.store.Path(),
		LockFilePath:   d.lockPath,
		WebhookEnabled: d.cfg.Webhook.Enabled,
		WebhookBind:    d.cfg.Webhook.Bind,
	}
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("index stats unavailable", logging.Error(err))
		return status
	}
	status.Files = stats.Files
	status.Pending = stats.Pending
	status.LastTriggeredAt = stats.LastTriggeredAt
	return status
}

// IndexStats returns index counters for CLI consumers.
func (d *Daemon) IndexStats(ctx context.Context) (index.Stats, error) {
	return d.store.Stats(ctx)
}

// ClearIndex wipes the file index and pending queue.
func (d *Daemon) ClearIndex(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// DatabaseHealth returns detailed index database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (index.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification sends a test message through the notifier and pings
// Emby so both integrations are exercised.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "telegram notification failed", err
	}
	if err := d.client.Ping(ctx); err != nil {
		return false, "telegram ok, emby ping failed", err
	}
	return true, "telegram and emby reachable", nil
}

// LogPath returns the daemon's primary log file.
func (d *Daemon) LogPath() string {
	return filepath.Join(d.cfg.Paths.LogDir, "embyscan.log")
}
