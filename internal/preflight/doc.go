// Package preflight verifies the daemon's environment: watched roots
// must be accessible directories and the Emby server must accept the
// configured API key. The status command surfaces the results.
package preflight
