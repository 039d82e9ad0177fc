package domain

import "time"

// Collection bounds; the oldest entries are evicted past these sizes.
const (
	MaxAuditLogs = 5000
	MaxSyncLogs  = 1000
)

// AuditLog is an append-only record of a staff action.
type AuditLog struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	StudentID  string    `json:"studentId,omitempty"`
	Details    string    `json:"details"`
}

// SyncAction is the external-calendar operation a sync log describes.
type SyncAction string

const (
	SyncCreate SyncAction = "CREATE"
	SyncUpdate SyncAction = "UPDATE"
	SyncDelete SyncAction = "DELETE"
)

// SyncStatus is the outcome of a calendar sync.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "SUCCESS"
	SyncError   SyncStatus = "ERROR"
)

// SyncLog records one calendar synchronization attempt.
type SyncLog struct {
	ID              string     `json:"id"`
	Timestamp       time.Time  `json:"timestamp"`
	UserID          string     `json:"userId"`
	EntityID        string     `json:"entityId"`
	Action          SyncAction `json:"action"`
	CalendarEventID string     `json:"calendarEventId,omitempty"`
	Status          SyncStatus `json:"status"`
	Message         string     `json:"message"`
}

// BackupType tells scheduled backups from staff-triggered ones.
type BackupType string

const (
	BackupAuto   BackupType = "AUTO"
	BackupManual BackupType = "MANUAL"
)

// BackupStatus is the outcome of a backup run.
type BackupStatus string

const (
	BackupSuccess BackupStatus = "SUCCESS"
	BackupError   BackupStatus = "ERROR"
)

// BackupRecord describes one snapshot of the document.
type BackupRecord struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Size      int64        `json:"size"`
	Status    BackupStatus `json:"status"`
	Type      BackupType   `json:"type"`
	ObjectKey string       `json:"objectKey,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// BillingEvent records a change in a student's billing situation.
type BillingEvent struct {
	ID          string        `json:"id"`
	StudentID   string        `json:"studentId"`
	Month       string        `json:"month"` // YYYY-MM
	Status      BillingStatus `json:"status"`
	AmountCents int64         `json:"amountCents,omitempty"`
	Note        string        `json:"note,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	CreatedBy   string        `json:"createdBy,omitempty"`
}
