// Package logs reads the daemon log file for the CLI, supporting
// last-N reads and offset-based follow polling over IPC.
package logs
