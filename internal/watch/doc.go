// Package watch observes library roots for filesystem changes. It
// combines a recursive fsnotify watcher with a periodic sweep that
// diffs the on-disk tree against the index, and coalesces both sources
// through a quiet-window debouncer before they reach the trigger
// pipeline.
package watch
