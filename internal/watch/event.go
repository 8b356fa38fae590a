package watch

import "time"

// Kind classifies a filesystem change.
type Kind string

const (
	KindCreated  Kind = "created"
	KindModified Kind = "modified"
	KindDeleted  Kind = "deleted"
)

// Event describes a single change to a media file under a watched root.
type Event struct {
	Path    string
	Root    string
	Kind    Kind
	ModTime time.Time
	At      time.Time
}
