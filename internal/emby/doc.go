// Package emby is a minimal client for the Emby server HTTP API.
//
// It covers the three calls the scan pipeline needs: per-path library update
// notifications (Library/Media/Updated), whole-library refresh requests
// (Library/Refresh), and a reachability probe (System/Info/Public).
// Authentication uses the X-Emby-Token header; any 2xx response counts as
// success since Emby answers update notifications with 204 No Content.
package emby
