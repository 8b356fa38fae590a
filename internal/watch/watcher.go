package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"embyscan/internal/logging"
	"embyscan/internal/media"
)

// Watcher follows library roots recursively with fsnotify and forwards
// media file changes to a sink. New directories are added to the watch
// set as they appear, and their contents are reported as created so
// files moved in wholesale are not missed.
type Watcher struct {
	fsw    *fsnotify.Watcher
	roots  []string
	filter *media.Filter
	sink   func(Event)
	logger *slog.Logger
}

// NewWatcher builds a watcher over the given roots. Every root must
// exist and be a directory.
func NewWatcher(roots []string, filter *media.Filter, sink func(Event), logger *slog.Logger) (*Watcher, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("no watch roots configured")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fsw:    fsw,
		roots:  append([]string(nil), roots...),
		filter: filter,
		sink:   sink,
		logger: logger.With(logging.String(logging.FieldComponent, "watcher")),
	}
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch root %s: %w", root, err)
		}
		w.logger.Info("watching root", logging.String(logging.FieldRoot, root))
	}
	return w, nil
}

// Run processes fsnotify events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("watch new directory", logging.String(logging.FieldPath, path), logging.Error(err))
			}
			w.emitTree(path)
			return
		}
		w.emit(path, KindCreated, info.ModTime())
	case event.Op.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		w.emit(path, KindModified, info.ModTime())
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// The path is gone, so there is no way to stat it. Media
		// filtering still applies by extension.
		w.emit(path, KindDeleted, time.Time{})
	}
}

func (w *Watcher) emit(path string, kind Kind, modTime time.Time) {
	if !w.filter.Match(path) {
		return
	}
	root := w.rootOf(path)
	if root == "" {
		return
	}
	w.logger.Debug("change detected",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldKind, string(kind)))
	w.sink(Event{Path: path, Root: root, Kind: kind, ModTime: modTime, At: time.Now()})
}

// emitTree reports every media file below dir as created.
func (w *Watcher) emitTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		w.emit(path, KindCreated, info.ModTime())
		return nil
	})
}

// addTree registers dir and all of its subdirectories with fsnotify.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) rootOf(path string) string {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}

// ScanRoot walks a root and returns modification times for every media
// file beneath it, keyed by absolute path.
func ScanRoot(root string, filter *media.Filter) (map[string]time.Time, error) {
	found := make(map[string]time.Time)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !filter.Match(path) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		found[path] = info.ModTime()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return found, nil
}

// sortedPaths returns map keys in deterministic order.
func sortedPaths(m map[string]time.Time) []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
