package service

import (
	"context"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
)

// --- Service Interface ---

// ClinicalService manages the assessment and training plan of each student.
// Both records are frozen once FINALIZED.
type ClinicalService interface {
	GetAssessment(ctx context.Context, studentID string) (*domain.Assessment, error)
	SaveAssessment(ctx context.Context, actorID string, a domain.Assessment) (*domain.Assessment, error)
	GetTrainingPlan(ctx context.Context, studentID string) (*domain.TrainingPlan, error)
	SaveTrainingPlan(ctx context.Context, actorID string, p domain.TrainingPlan) (*domain.TrainingPlan, error)
}

// --- Service Implementation ---

type clinicalService struct {
	store DocumentStore
}

// NewClinicalService creates a new instance of clinicalService.
func NewClinicalService(ds DocumentStore) ClinicalService {
	return &clinicalService{store: ds}
}

func (s *clinicalService) GetAssessment(ctx context.Context, studentID string) (*domain.Assessment, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := doc.Assessments[studentID]
	if !ok {
		return nil, domain.NotFound("ASSESSMENT_NOT_FOUND", "no assessment for student "+studentID)
	}
	return &a, nil
}

func (s *clinicalService) SaveAssessment(ctx context.Context, actorID string, a domain.Assessment) (*domain.Assessment, error) {
	if err := s.requireStudent(ctx, a.StudentID); err != nil {
		return nil, err
	}
	if a.Status == "" {
		a.Status = domain.RecordDraft
	}
	if err := s.store.SaveAssessment(ctx, a); err != nil {
		return nil, err
	}
	saved, err := s.GetAssessment(ctx, a.StudentID)
	if err != nil {
		return nil, err
	}
	action := ActionAssessmentSaved
	if saved.Status == domain.RecordFinalized {
		action = ActionAssessmentFinalized
	}
	s.logAction(ctx, store.AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: entityAssessment,
		EntityID:   saved.ID,
		StudentID:  saved.StudentID,
		Details:    "Avaliação " + string(saved.Status),
	})
	return saved, nil
}

func (s *clinicalService) GetTrainingPlan(ctx context.Context, studentID string) (*domain.TrainingPlan, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := doc.TrainingPlans[studentID]
	if !ok {
		return nil, domain.NotFound("TRAINING_PLAN_NOT_FOUND", "no training plan for student "+studentID)
	}
	return &p, nil
}

func (s *clinicalService) SaveTrainingPlan(ctx context.Context, actorID string, p domain.TrainingPlan) (*domain.TrainingPlan, error) {
	if err := s.requireStudent(ctx, p.StudentID); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = domain.RecordDraft
	}
	if p.Sessions == nil {
		p.Sessions = []domain.TrainingRecord{}
	}
	p.UpdatedBy = actorID
	if err := s.store.SaveTrainingPlan(ctx, p); err != nil {
		return nil, err
	}
	saved, err := s.GetTrainingPlan(ctx, p.StudentID)
	if err != nil {
		return nil, err
	}
	action := ActionPlanSaved
	if saved.Status == domain.RecordFinalized {
		action = ActionPlanFinalized
	}
	s.logAction(ctx, store.AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: entityTrainingPlan,
		EntityID:   saved.ID,
		StudentID:  saved.StudentID,
		Details:    "Plano de treino " + string(saved.Status),
	})
	return saved, nil
}

func (s *clinicalService) requireStudent(ctx context.Context, studentID string) error {
	if studentID == "" {
		return domain.Validation("STUDENT_REQUIRED", "student id is required")
	}
	doc, err := s.store.Read(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc.Students[studentID]; !ok {
		return studentNotFound(studentID)
	}
	return nil
}

// logAction writes the audit entry as a separate write after the record is
// saved; a failure there does not undo the save.
func (s *clinicalService) logAction(ctx context.Context, e store.AuditEntry) {
	entry := s.store.NewAuditLog(e)
	if err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		doc.AppendAudit(entry)
		return nil
	}); err != nil {
		logAuditFailure(e.Action, err)
	}
}
