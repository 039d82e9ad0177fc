package store

import (
	"context"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

// ExportData returns a copy of the whole document for export collaborators.
func (s *Store) ExportData(ctx context.Context) (*domain.Document, error) {
	return s.Read(ctx)
}

// SaveStudent inserts or replaces a student.
func (s *Store) SaveStudent(ctx context.Context, st domain.Student) error {
	return s.Mutate(ctx, func(doc *domain.Document) error {
		doc.Students[st.ID] = st
		return nil
	})
}

// SaveSession inserts or replaces a session.
func (s *Store) SaveSession(ctx context.Context, sess domain.Session) error {
	return s.Mutate(ctx, func(doc *domain.Document) error {
		doc.Sessions[sess.ID] = sess
		return nil
	})
}

// SaveBooking inserts or replaces a booking.
func (s *Store) SaveBooking(ctx context.Context, b domain.Booking) error {
	return s.Mutate(ctx, func(doc *domain.Document) error {
		doc.Bookings[b.ID] = b
		return nil
	})
}

// DeleteBooking physically removes a booking. No audit entry is written here.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	return s.Mutate(ctx, func(doc *domain.Document) error {
		if _, ok := doc.Bookings[id]; !ok {
			return domain.NotFound("BOOKING_NOT_FOUND", "booking "+id+" not found")
		}
		delete(doc.Bookings, id)
		return nil
	})
}

// AuditEntry is the caller-supplied part of an audit log record.
type AuditEntry struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Details    string
	StudentID  string
}

// NewAuditLog stamps e with an id and the current time.
func (s *Store) NewAuditLog(e AuditEntry) domain.AuditLog {
	return domain.AuditLog{
		ID:         s.NewID(),
		Timestamp:  s.Now(),
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		StudentID:  e.StudentID,
		Details:    e.Details,
	}
}

// LogAction appends an audit entry as its own queued write.
func (s *Store) LogAction(ctx context.Context, e AuditEntry) error {
	entry := s.NewAuditLog(e)
	return s.Mutate(ctx, func(doc *domain.Document) error {
		doc.AppendAudit(entry)
		return nil
	})
}

// AppendSyncLog records a calendar sync attempt.
func (s *Store) AppendSyncLog(ctx context.Context, entry domain.SyncLog) error {
	if entry.ID == "" {
		entry.ID = s.NewID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.Now()
	}
	return s.Mutate(ctx, func(doc *domain.Document) error {
		doc.AppendSyncLog(entry)
		return nil
	})
}

// AddBackup prepends a backup record.
func (s *Store) AddBackup(ctx context.Context, rec domain.BackupRecord) error {
	return s.Mutate(ctx, func(doc *domain.Document) error {
		doc.Backups = append([]domain.BackupRecord{rec}, doc.Backups...)
		return nil
	})
}

// Settings returns the studio settings.
func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	doc, err := s.Read(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return doc.Settings, nil
}

// SaveSettings replaces the studio settings.
func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return s.Mutate(ctx, func(doc *domain.Document) error {
		doc.Settings = settings
		return nil
	})
}

// SyncStudents adds seed students missing from the roster and reports how many
// were added. The document is written only when at least one was added.
func (s *Store) SyncStudents(ctx context.Context) (int, error) {
	added := 0
	err := s.Apply(ctx, func(doc *domain.Document) (bool, error) {
		added = addMissingStudents(doc, s.seed, s.Now())
		return added > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// SaveAssessment stores the assessment of a.StudentID. A stored assessment
// that is already FINALIZED cannot be replaced.
func (s *Store) SaveAssessment(ctx context.Context, a domain.Assessment) error {
	return s.Mutate(ctx, func(doc *domain.Document) error {
		var stored *domain.RecordStatus
		if cur, ok := doc.Assessments[a.StudentID]; ok {
			stored = &cur.Status
			if a.ID == "" {
				a.ID = cur.ID
			}
		}
		if err := domain.CheckRecordWrite(stored, a.Status); err != nil {
			return err
		}
		if a.ID == "" {
			a.ID = s.NewID()
		}
		a.UpdatedAt = s.Now()
		doc.Assessments[a.StudentID] = a
		return nil
	})
}

// SaveTrainingPlan stores the training plan of p.StudentID with the same
// finalization rule as SaveAssessment.
func (s *Store) SaveTrainingPlan(ctx context.Context, p domain.TrainingPlan) error {
	return s.Mutate(ctx, func(doc *domain.Document) error {
		var stored *domain.RecordStatus
		if cur, ok := doc.TrainingPlans[p.StudentID]; ok {
			stored = &cur.Status
			if p.ID == "" {
				p.ID = cur.ID
			}
		}
		if err := domain.CheckRecordWrite(stored, p.Status); err != nil {
			return err
		}
		if p.ID == "" {
			p.ID = s.NewID()
		}
		for i := range p.Sessions {
			if p.Sessions[i].ID == "" {
				p.Sessions[i].ID = s.NewID()
			}
		}
		p.UpdatedAt = s.Now()
		doc.TrainingPlans[p.StudentID] = p
		return nil
	})
}
