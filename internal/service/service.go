// Package service implements the studio use cases on top of the document
// store: roster management, scheduling and attendance, the kiosk, clinical
// records, backups, billing and settings.
package service

import (
	"context"
	"log"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
)

// DocumentStore is the part of *store.Store the services depend on.
type DocumentStore interface {
	Read(ctx context.Context) (*domain.Document, error)
	ExportData(ctx context.Context) (*domain.Document, error)
	Mutate(ctx context.Context, fn func(doc *domain.Document) error) error
	Apply(ctx context.Context, fn func(doc *domain.Document) (bool, error)) error
	NewAuditLog(e store.AuditEntry) domain.AuditLog
	SyncStudents(ctx context.Context) (int, error)
	SaveAssessment(ctx context.Context, a domain.Assessment) error
	SaveTrainingPlan(ctx context.Context, p domain.TrainingPlan) error
	AddBackup(ctx context.Context, rec domain.BackupRecord) error
	NewID() string
	Now() time.Time
}

var _ DocumentStore = (*store.Store)(nil)

// Audit actions written by the services.
const (
	ActionStudentCreated      = "STUDENT_CREATED"
	ActionStudentUpdated      = "STUDENT_UPDATED"
	ActionStudentDeactivated  = "STUDENT_DEACTIVATED"
	ActionStudentReactivated  = "STUDENT_REACTIVATED"
	ActionStudentsImported    = "STUDENTS_IMPORTED"
	ActionSessionCreated      = "SESSION_CREATED"
	ActionSessionDeleted      = "SESSION_DELETED"
	ActionBookingCreated      = "BOOKING_CREATED"
	ActionBookingRemoved      = "BOOKING_REMOVED"
	ActionBookingRescheduled  = "BOOKING_RESCHEDULED"
	ActionWaitlistPromoted    = "WAITLIST_PROMOTED"
	ActionCheckIn             = "CHECK_IN"
	ActionAbsence             = "ABSENCE_JUSTIFIED"
	ActionAssessmentSaved     = "ASSESSMENT_SAVED"
	ActionAssessmentFinalized = "ASSESSMENT_FINALIZED"
	ActionPlanSaved           = "TRAINING_PLAN_SAVED"
	ActionPlanFinalized       = "TRAINING_PLAN_FINALIZED"
	ActionBillingRecorded     = "BILLING_RECORDED"
	ActionSettingsUpdated     = "SETTINGS_UPDATED"
	ActionKioskPINChanged     = "KIOSK_PIN_CHANGED"
	ActionBackupDeleted       = "BACKUP_DELETED"
)

// Entity types used in audit entries.
const (
	entityStudent      = "STUDENT"
	entitySession      = "SESSION"
	entityBooking      = "BOOKING"
	entityAssessment   = "ASSESSMENT"
	entityTrainingPlan = "TRAINING_PLAN"
	entityBilling      = "BILLING"
	entitySettings     = "SETTINGS"
	entityBackup       = "BACKUP"
)

// audit appends an entry to doc inside the running mutation so the change and
// its trail are written together.
func audit(ds DocumentStore, doc *domain.Document, e store.AuditEntry) {
	doc.AppendAudit(ds.NewAuditLog(e))
}

// studentName returns the stored name of a student, or its id when unknown.
func studentName(doc *domain.Document, id string) string {
	if st, ok := doc.Students[id]; ok {
		return st.Name
	}
	return id
}

func logAuditFailure(action string, err error) {
	log.Printf("ERROR: Failed to write audit entry %s: %v", action, err)
}

func studentNotFound(id string) error {
	return domain.NotFound("STUDENT_NOT_FOUND", "student "+id+" not found")
}

func sessionNotFound(id string) error {
	return domain.NotFound("SESSION_NOT_FOUND", "session "+id+" not found")
}

func bookingNotFound(id string) error {
	return domain.NotFound("BOOKING_NOT_FOUND", "booking "+id+" not found")
}
