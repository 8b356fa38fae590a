package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"embyscan/internal/logging"
	"embyscan/internal/media"
)

// SnapshotSource supplies the indexed view of a root for sweep diffing.
type SnapshotSource interface {
	Snapshot(ctx context.Context, root string) (map[string]time.Time, error)
}

// Sweeper periodically walks the library roots and compares what is on
// disk against the index, emitting events for anything fsnotify missed.
// It catches changes made while the daemon was down and events dropped
// on network filesystems.
type Sweeper struct {
	roots    []string
	filter   *media.Filter
	source   SnapshotSource
	sink     func(Event)
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper builds a sweeper over the given roots. A zero or negative
// interval disables the periodic loop; Sweep can still be invoked
// directly.
func NewSweeper(roots []string, filter *media.Filter, source SnapshotSource, sink func(Event), interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{
		roots:    append([]string(nil), roots...),
		filter:   filter,
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   logger.With(logging.String(logging.FieldComponent, "sweeper")),
	}
}

// Run executes sweeps on the configured interval until the context is
// cancelled. It returns immediately when the interval disables the
// loop.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("periodic sweep disabled")
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Warn("sweep failed", logging.Error(err))
			}
		}
	}
}

// Sweep diffs every root once and reports how many events it emitted.
func (s *Sweeper) Sweep(ctx context.Context) error {
	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return err
		}
		emitted, err := s.sweepRoot(ctx, root)
		if err != nil {
			return fmt.Errorf("sweep root %s: %w", root, err)
		}
		if emitted > 0 {
			s.logger.Info("sweep found changes",
				logging.String(logging.FieldRoot, root),
				logging.Int(logging.FieldCount, emitted))
		}
	}
	return nil
}

func (s *Sweeper) sweepRoot(ctx context.Context, root string) (int, error) {
	onDisk, err := ScanRoot(root, s.filter)
	if err != nil {
		return 0, err
	}
	indexed, err := s.source.Snapshot(ctx, root)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	emitted := 0
	for _, path := range sortedPaths(onDisk) {
		modTime := onDisk[path]
		have, known := indexed[path]
		switch {
		case !known:
			s.sink(Event{Path: path, Root: root, Kind: KindCreated, ModTime: modTime, At: now})
			emitted++
		case !sameModTime(have, modTime):
			s.sink(Event{Path: path, Root: root, Kind: KindModified, ModTime: modTime, At: now})
			emitted++
		}
	}
	for _, path := range sortedPaths(indexed) {
		if _, exists := onDisk[path]; !exists {
			s.sink(Event{Path: path, Root: root, Kind: KindDeleted, At: now})
			emitted++
		}
	}
	return emitted, nil
}

// sameModTime compares with second precision to tolerate filesystems
// with coarse mtime resolution.
func sameModTime(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
