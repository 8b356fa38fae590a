package index

import "time"

// FileRecord is one tracked media file.
type FileRecord struct {
	Path       string
	Root       string
	ModifiedAt time.Time
	UpdatedAt  time.Time
}

// PendingChange is a filesystem change awaiting a successful trigger.
type PendingChange struct {
	Path     string
	Kind     string
	QueuedAt time.Time
}

// Change kinds stored with pending rows. They mirror the Emby UpdateType
// values so the trigger pipeline can forward them directly.
const (
	KindCreated  = "Created"
	KindModified = "Modified"
	KindDeleted  = "Deleted"
)

// Stats summarizes index contents for status output.
type Stats struct {
	Files           int64
	Pending         int64
	LastTriggeredAt *time.Time
}

// DatabaseHealth reports detailed diagnostics for the index database.
type DatabaseHealth struct {
	DBPath         string
	SchemaVersion  int
	IntegrityCheck string
	Files          int64
	Pending        int64
	Error          string
}
