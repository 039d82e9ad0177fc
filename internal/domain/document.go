package domain

import (
	"sort"
	"time"
)

// DocumentKey identifies the single root document in every backend.
const DocumentKey = "main"

// Document is the root aggregate holding every collection of the studio.
// It is always read and written whole.
type Document struct {
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
	SchemaTag string    `json:"schemaSyncTag"`

	Students map[string]Student `json:"students"`
	Sessions map[string]Session `json:"sessions"`
	Bookings map[string]Booking `json:"bookings"`
	// Keyed by student id.
	Assessments   map[string]Assessment   `json:"assessments"`
	TrainingPlans map[string]TrainingPlan `json:"trainingPlans"`

	// Newest first.
	AuditLogs     []AuditLog     `json:"auditLogs"`
	SyncLogs      []SyncLog      `json:"syncLogs"`
	Backups       []BackupRecord `json:"backups"`
	BillingEvents []BillingEvent `json:"billingEvents"`

	Settings Settings `json:"settings"`
}

// NewDocument returns an empty document with default settings.
func NewDocument(now time.Time) *Document {
	d := &Document{UpdatedAt: now, Settings: DefaultSettings()}
	d.Normalize()
	return d
}

// Normalize replaces nil collections with empty ones so callers can index them freely.
func (d *Document) Normalize() {
	if d.Students == nil {
		d.Students = map[string]Student{}
	}
	if d.Sessions == nil {
		d.Sessions = map[string]Session{}
	}
	if d.Bookings == nil {
		d.Bookings = map[string]Booking{}
	}
	if d.Assessments == nil {
		d.Assessments = map[string]Assessment{}
	}
	if d.TrainingPlans == nil {
		d.TrainingPlans = map[string]TrainingPlan{}
	}
}

// AppendAudit prepends an audit entry and evicts the oldest past MaxAuditLogs.
func (d *Document) AppendAudit(entry AuditLog) {
	d.AuditLogs = append([]AuditLog{entry}, d.AuditLogs...)
	if len(d.AuditLogs) > MaxAuditLogs {
		d.AuditLogs = d.AuditLogs[:MaxAuditLogs]
	}
}

// AppendSyncLog prepends a sync entry and evicts the oldest past MaxSyncLogs.
func (d *Document) AppendSyncLog(entry SyncLog) {
	d.SyncLogs = append([]SyncLog{entry}, d.SyncLogs...)
	if len(d.SyncLogs) > MaxSyncLogs {
		d.SyncLogs = d.SyncLogs[:MaxSyncLogs]
	}
}

// SortedStudents returns the roster ordered by name, then id.
func (d *Document) SortedStudents() []Student {
	out := make([]Student, 0, len(d.Students))
	for _, s := range d.Students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortedSessions returns sessions ordered by date, start time, then id.
func (d *Document) SortedSessions() []Session {
	out := make([]Session, 0, len(d.Sessions))
	for _, s := range d.Sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortedBookings returns bookings ordered by creation time, then id.
func (d *Document) SortedBookings() []Booking {
	out := make([]Booking, 0, len(d.Bookings))
	for _, b := range d.Bookings {
		out = append(out, b)
	}
	SortByCreation(out)
	return out
}

// SortByCreation orders bookings by CreatedAt ascending; equal timestamps fall
// back to id so the order does not depend on map iteration.
func SortByCreation(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
		}
		return bookings[i].ID < bookings[j].ID
	})
}
