// Package daemon coordinates the watcher, sweeper, trigger processor,
// and webhook server, and enforces single-instance execution through a
// file lock.
package daemon
