// Package index persists the media file index and trigger state in SQLite.
//
// The Store tracks every known media file (path plus modification time), the
// set of paths pending a library-update trigger, and the timestamp of the last
// successful trigger. Pending rows survive restarts so a burst interrupted by
// shutdown is completed rather than replayed, and the file index lets the
// periodic sweep distinguish new, modified, and deleted files without
// re-notifying Emby about content it already indexed.
//
// Treat this package as the single source of truth for "has this burst been
// handled". Schema changes bump the version in schema.go; users clear the
// database to adopt the new schema.
package index
