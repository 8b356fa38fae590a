package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"embyscan/internal/config"
	"embyscan/internal/emby"
	"embyscan/internal/index"
	"embyscan/internal/logging"
	"embyscan/internal/notify"
	"embyscan/internal/watch"
)

// EmbyTrigger is the slice of the Emby client the processor needs.
type EmbyTrigger interface {
	ItemsUpdated(ctx context.Context, updates []emby.ItemUpdate) error
	RefreshLibrary(ctx context.Context) error
}

// Processor owns the pending set. It accepts event batches from the
// debouncer, drops anything the index already reflects, and drives the
// Emby trigger with retries. At most one trigger is in flight at a
// time.
type Processor struct {
	mu             sync.Mutex
	store          *index.Store
	emby           EmbyTrigger
	notifier       notify.Service
	roots          []string
	perPathUpdates bool
	attempts       int
	backoff        time.Duration
	logger         *slog.Logger
}

// New builds a processor from the daemon configuration.
func New(store *index.Store, client EmbyTrigger, notifier notify.Service, cfg *config.Config, logger *slog.Logger) *Processor {
	if notifier == nil {
		notifier = notify.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	attempts := cfg.Watcher.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Processor{
		store:          store,
		emby:           client,
		notifier:       notifier,
		roots:          append([]string(nil), cfg.Watcher.Roots...),
		perPathUpdates: cfg.Emby.PerPathUpdates,
		attempts:       attempts,
		backoff:        cfg.RetryBackoff(),
		logger:         logger.With(logging.String(logging.FieldComponent, "trigger")),
	}
}

// Process persists a debounced batch and fires a trigger for everything
// pending, including changes carried over from earlier failed attempts.
func (p *Processor) Process(ctx context.Context, batch []watch.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.enqueue(ctx, batch); err != nil {
		return err
	}
	return p.trigger(ctx)
}

// Flush fires a trigger for whatever is already pending. Used on
// startup to resume after a crash and by the scan-now IPC operation.
func (p *Processor) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trigger(ctx)
}

// enqueue dedupes events against the index and marks survivors pending.
func (p *Processor) enqueue(ctx context.Context, batch []watch.Event) error {
	for _, event := range batch {
		record, err := p.store.Lookup(ctx, event.Path)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", event.Path, err)
		}
		switch event.Kind {
		case watch.KindDeleted:
			if record == nil {
				// A queued Created for a path that vanished before
				// its trigger went out must not reach Emby.
				if err := p.store.DiscardPending(ctx, event.Path); err != nil {
					return err
				}
				continue
			}
			if err := p.store.MarkPending(ctx, event.Path, index.KindDeleted); err != nil {
				return err
			}
		default:
			if record != nil && sameModTime(record.ModifiedAt, event.ModTime) {
				p.logger.Debug("unchanged, skipping",
					logging.String(logging.FieldPath, event.Path))
				continue
			}
			kind := index.KindCreated
			if record != nil {
				kind = index.KindModified
			}
			if err := p.store.MarkPending(ctx, event.Path, kind); err != nil {
				return err
			}
		}
	}
	return nil
}

// trigger sends everything pending to Emby and commits on success.
// Caller holds the lock.
func (p *Processor) trigger(ctx context.Context) error {
	changes, err := p.store.Pending(ctx)
	if err != nil {
		return fmt.Errorf("load pending changes: %w", err)
	}
	if len(changes) == 0 {
		return nil
	}

	updates := make([]emby.ItemUpdate, 0, len(changes))
	for _, change := range changes {
		updates = append(updates, emby.ItemUpdate{Path: change.Path, UpdateType: change.Kind})
	}

	if err := p.send(ctx, updates); err != nil {
		p.logger.Warn("trigger failed, changes stay queued",
			logging.Int(logging.FieldCount, len(changes)),
			logging.Error(err))
		if notifyErr := p.notifier.NotifyTriggerFailed(ctx, err, len(changes)); notifyErr != nil {
			p.logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
		return err
	}

	modTimes, roots := p.describe(changes)
	if err := p.store.CommitTrigger(ctx, changes, modTimes, roots); err != nil {
		return fmt.Errorf("commit trigger: %w", err)
	}

	created, modified, deleted := countKinds(changes)
	p.logger.Info("library update triggered",
		logging.Int(logging.FieldCount, len(changes)),
		logging.Int("created", created),
		logging.Int("modified", modified),
		logging.Int("deleted", deleted))
	if err := p.notifier.NotifyScanTriggered(ctx, created, modified, deleted); err != nil {
		p.logger.Warn("scan notification failed", logging.Error(err))
	}
	return nil
}

// send performs the Emby call with bounded retries and linear backoff.
func (p *Processor) send(ctx context.Context, updates []emby.ItemUpdate) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.backoff*time.Duration(attempt-1)); err != nil {
				return err
			}
		}
		if p.perPathUpdates {
			lastErr = p.emby.ItemsUpdated(ctx, updates)
		} else {
			lastErr = p.emby.RefreshLibrary(ctx)
		}
		if lastErr == nil {
			return nil
		}
		p.logger.Warn("emby trigger attempt failed",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Error(lastErr))
	}
	return fmt.Errorf("trigger emby after %d attempts: %w", p.attempts, lastErr)
}

// describe collects modification times and root assignments for the
// changed paths. Carried-over rows are re-stated since their event
// metadata is gone.
func (p *Processor) describe(changes []index.PendingChange) (map[string]time.Time, map[string]string) {
	modTimes := make(map[string]time.Time, len(changes))
	roots := make(map[string]string, len(changes))
	for _, change := range changes {
		if root := p.rootOf(change.Path); root != "" {
			roots[change.Path] = root
		}
		if change.Kind == index.KindDeleted {
			continue
		}
		if info, err := os.Stat(change.Path); err == nil {
			modTimes[change.Path] = info.ModTime()
		} else {
			modTimes[change.Path] = change.QueuedAt
		}
	}
	return modTimes, roots
}

func (p *Processor) rootOf(path string) string {
	for _, root := range p.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}

func countKinds(changes []index.PendingChange) (created, modified, deleted int) {
	for _, change := range changes {
		switch change.Kind {
		case index.KindCreated:
			created++
		case index.KindModified:
			modified++
		case index.KindDeleted:
			deleted++
		}
	}
	return created, modified, deleted
}

func sameModTime(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
