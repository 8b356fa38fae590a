package ipc

import "time"

// StartRequest resumes daemon processing after a stop.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest halts daemon processing.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and index status.
type StatusResponse struct {
	Running         bool       `json:"running"`
	PID             int        `json:"pid"`
	Roots           []string   `json:"roots"`
	IndexDBPath     string     `json:"index_db_path"`
	LockPath        string     `json:"lock_path"`
	WebhookEnabled  bool       `json:"webhook_enabled"`
	WebhookBind     string     `json:"webhook_bind"`
	Files           int64      `json:"files"`
	Pending         int64      `json:"pending"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`
}

// ScanNowRequest forces an immediate sweep and trigger.
type ScanNowRequest struct{}

// ScanNowResponse reports what the forced scan found.
type ScanNowResponse struct {
	Found   int    `json:"found"`
	Message string `json:"message"`
}

// IndexStatsRequest fetches index counters.
type IndexStatsRequest struct{}

// IndexStatsResponse contains index counters.
type IndexStatsResponse struct {
	Files           int64      `json:"files"`
	Pending         int64      `json:"pending"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`
}

// IndexClearRequest wipes the file index and pending queue.
type IndexClearRequest struct{}

// IndexClearResponse reports number of removed entries.
type IndexClearResponse struct {
	Removed int64 `json:"removed"`
}

// DatabaseHealthRequest fetches index database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse contains index database diagnostics.
type DatabaseHealthResponse struct {
	DBPath         string `json:"db_path"`
	SchemaVersion  int    `json:"schema_version"`
	IntegrityCheck string `json:"integrity_check"`
	Files          int64  `json:"files"`
	Pending        int64  `json:"pending"`
	Error          string `json:"error"`
}

// TestNotificationRequest exercises the notifier and the Emby link.
type TestNotificationRequest struct{}

// TestNotificationResponse reports test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// LogTailRequest reads lines from the daemon log.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int64 `json:"wait_millis"`
}

// LogTailResponse carries log lines and the next read offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
