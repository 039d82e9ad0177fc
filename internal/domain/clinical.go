package domain

import "time"

// RecordStatus is the lifecycle of a clinical record. FINALIZED is terminal.
type RecordStatus string

const (
	RecordDraft     RecordStatus = "DRAFT"
	RecordFinalized RecordStatus = "FINALIZED"
)

// Valid reports whether s is a known record status.
func (s RecordStatus) Valid() bool {
	return s == RecordDraft || s == RecordFinalized
}

// Assessment is the intake evaluation of a student. At most one per student.
type Assessment struct {
	ID                       string          `json:"id"`
	StudentID                string          `json:"studentId"`
	AssessmentDate           Date            `json:"assessmentDate"`
	PrescribedBy             string          `json:"prescribedBy,omitempty"`
	PrescribedByRegistration string          `json:"prescribedByRegistration,omitempty"`
	Conditions               map[string]bool `json:"conditions,omitempty"`
	ConditionNotes           string          `json:"conditionNotes,omitempty"`
	Goals                    map[string]bool `json:"goals,omitempty"`
	GoalNotes                string          `json:"goalNotes,omitempty"`
	Status                   RecordStatus    `json:"status"`
	UpdatedAt                time.Time       `json:"updatedAt"`
}

// TrainingRecord is one session entry inside a training plan.
type TrainingRecord struct {
	ID           string   `json:"id"`
	Date         Date     `json:"date"`
	Objectives   []string `json:"objectives,omitempty"`
	Regions      []string `json:"regions,omitempty"`
	Equipment    []string `json:"equipment,omitempty"`
	Arrival      string   `json:"arrival,omitempty"`
	Departure    string   `json:"departure,omitempty"`
	Observations string   `json:"observations,omitempty"`
}

// TrainingPlan is the running treatment record of a student. At most one per student.
type TrainingPlan struct {
	ID                       string           `json:"id"`
	StudentID                string           `json:"studentId"`
	Sessions                 []TrainingRecord `json:"sessions"`
	PrescribedBy             string           `json:"prescribedBy,omitempty"`
	PrescribedByRegistration string           `json:"prescribedByRegistration,omitempty"`
	Status                   RecordStatus     `json:"status"`
	UpdatedAt                time.Time        `json:"updatedAt"`
	UpdatedBy                string           `json:"updatedBy,omitempty"`
}

// CheckRecordWrite enforces the finalization rule for a clinical record write:
// a stored FINALIZED record accepts no further writes, and the incoming status
// must be a known one.
func CheckRecordWrite(stored *RecordStatus, next RecordStatus) error {
	if !next.Valid() {
		return Validation("INVALID_RECORD_STATUS", "record status must be DRAFT or FINALIZED")
	}
	if stored != nil && *stored == RecordFinalized {
		return ErrRecordFinalized
	}
	return nil
}
