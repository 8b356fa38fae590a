// Package ipc exposes daemon control over JSON-RPC on a Unix domain
// socket, and the matching client used by the CLI.
package ipc
