package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/export"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
)

// --- Service Interface ---

// StudentInput carries the editable fields of a student.
type StudentInput struct {
	Name           string                 `json:"name"`
	Phone          string                 `json:"phone"`
	Email          string                 `json:"email"`
	StudentType    domain.StudentType     `json:"studentType"`
	WeeklySchedule []domain.ScheduleEntry `json:"weeklySchedule"`
}

type StudentService interface {
	ListStudents(ctx context.Context, includeInactive bool) ([]domain.Student, error)
	GetStudent(ctx context.Context, id string) (*domain.Student, error)
	CreateStudent(ctx context.Context, actorID string, in StudentInput) (*domain.Student, error)
	UpdateStudent(ctx context.Context, actorID, id string, in StudentInput) (*domain.Student, error)
	SetActive(ctx context.Context, actorID, id string, active bool) (*domain.Student, error)
	// SyncRoster adds the official roster students missing from the document.
	SyncRoster(ctx context.Context) (int, error)
	// ImportStudents upserts the students of an XLSX roster sheet.
	ImportStudents(ctx context.Context, actorID string, r io.Reader) (int, error)
}

// --- Service Implementation ---

type studentService struct {
	store DocumentStore
}

// NewStudentService creates a new instance of studentService.
func NewStudentService(ds DocumentStore) StudentService {
	return &studentService{store: ds}
}

// validate normalizes in and checks the required fields.
func (in *StudentInput) validate() error {
	in.Name = domain.NormalizeName(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return domain.Validation("NAME_REQUIRED", "student name is required")
	}
	if in.StudentType == "" {
		in.StudentType = domain.StudentFixed
	}
	if !in.StudentType.Valid() {
		return domain.Validation("INVALID_STUDENT_TYPE", fmt.Sprintf("unknown student type %q", in.StudentType))
	}
	for _, e := range in.WeeklySchedule {
		if e.Day < 0 || e.Day > 6 || e.Time < 0 || e.Time >= domain.MinutesPerDay {
			return domain.Validation("INVALID_SCHEDULE", "weekly schedule entry out of range")
		}
	}
	in.WeeklySchedule = domain.NormalizeSchedule(in.WeeklySchedule)
	return nil
}

func (s *studentService) ListStudents(ctx context.Context, includeInactive bool) ([]domain.Student, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	all := doc.SortedStudents()
	if includeInactive {
		return all, nil
	}
	active := make([]domain.Student, 0, len(all))
	for _, st := range all {
		if st.Active {
			active = append(active, st)
		}
	}
	return active, nil
}

func (s *studentService) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := doc.Students[id]
	if !ok {
		return nil, studentNotFound(id)
	}
	return &st, nil
}

// CreateStudent adds an active student with NO_INFO billing.
func (s *studentService) CreateStudent(ctx context.Context, actorID string, in StudentInput) (*domain.Student, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	st := domain.Student{
		ID:             s.store.NewID(),
		Name:           in.Name,
		Phone:          in.Phone,
		Email:          in.Email,
		StudentType:    in.StudentType,
		Active:         true,
		WeeklySchedule: in.WeeklySchedule,
		BillingStatus:  domain.BillingNoInfo,
		CreatedAt:      s.store.Now(),
	}
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		doc.Students[st.ID] = st
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionStudentCreated,
			EntityType: entityStudent,
			EntityID:   st.ID,
			StudentID:  st.ID,
			Details:    "Aluno cadastrado: " + st.Name,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// UpdateStudent replaces the editable fields; activity, billing and creation
// time are kept.
func (s *studentService) UpdateStudent(ctx context.Context, actorID, id string, in StudentInput) (*domain.Student, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated domain.Student
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		st, ok := doc.Students[id]
		if !ok {
			return studentNotFound(id)
		}
		st.Name = in.Name
		st.Phone = in.Phone
		st.Email = in.Email
		st.StudentType = in.StudentType
		st.WeeklySchedule = in.WeeklySchedule
		doc.Students[id] = st
		updated = st
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionStudentUpdated,
			EntityType: entityStudent,
			EntityID:   id,
			StudentID:  id,
			Details:    "Cadastro atualizado: " + st.Name,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetActive deactivates or reactivates a student. Students are never deleted.
func (s *studentService) SetActive(ctx context.Context, actorID, id string, active bool) (*domain.Student, error) {
	var updated domain.Student
	err := s.store.Apply(ctx, func(doc *domain.Document) (bool, error) {
		st, ok := doc.Students[id]
		if !ok {
			return false, studentNotFound(id)
		}
		updated = st
		if st.Active == active {
			return false, nil
		}
		st.Active = active
		doc.Students[id] = st
		updated = st
		action := ActionStudentDeactivated
		if active {
			action = ActionStudentReactivated
		}
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     action,
			EntityType: entityStudent,
			EntityID:   id,
			StudentID:  id,
			Details:    st.Name,
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *studentService) SyncRoster(ctx context.Context) (int, error) {
	return s.store.SyncStudents(ctx)
}

// ImportStudents reads a roster workbook and upserts its rows by id. New rows
// become active FIXED students with an empty schedule; rows for existing
// students only update name and contact data.
func (s *studentService) ImportStudents(ctx context.Context, actorID string, r io.Reader) (int, error) {
	rows, err := export.ReadStudents(r)
	if err != nil {
		return 0, domain.Validation("INVALID_WORKBOOK", err.Error())
	}
	if len(rows) == 0 {
		return 0, nil
	}
	now := s.store.Now()
	err = s.store.Mutate(ctx, func(doc *domain.Document) error {
		for _, in := range rows {
			in.Name = domain.NormalizeName(in.Name)
			cur, ok := doc.Students[in.ID]
			if !ok {
				in.StudentType = domain.StudentFixed
				in.Active = true
				in.WeeklySchedule = []domain.ScheduleEntry{}
				in.BillingStatus = domain.BillingNoInfo
				in.CreatedAt = now
				doc.Students[in.ID] = in
				continue
			}
			cur.Name = in.Name
			cur.Phone = in.Phone
			cur.Email = in.Email
			doc.Students[in.ID] = cur
		}
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionStudentsImported,
			EntityType: entityStudent,
			EntityID:   "N/A",
			Details:    fmt.Sprintf("%d alunos importados", len(rows)),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
