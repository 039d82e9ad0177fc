package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

func TestAssessmentFinalizationFreezesRecord(t *testing.T) {
	ds, _ := newTestStore(t, dropIn("ana", "Ana"))
	svc := NewClinicalService(ds)
	ctx := context.Background()

	if _, err := svc.GetAssessment(ctx, "ana"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound before the first save, got %v", err)
	}

	draft, err := svc.SaveAssessment(ctx, "staff", domain.Assessment{
		StudentID:      "ana",
		AssessmentDate: testMonday,
		Conditions:     map[string]bool{"lombalgia": true},
	})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if draft.Status != domain.RecordDraft || draft.ID == "" {
		t.Fatalf("unexpected draft %+v", draft)
	}
	if entry := lastAudit(t, ds); entry.Action != ActionAssessmentSaved || entry.StudentID != "ana" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}

	final, err := svc.SaveAssessment(ctx, "staff", domain.Assessment{
		StudentID:      "ana",
		AssessmentDate: testMonday,
		GoalNotes:      "voltar a correr",
		Status:         domain.RecordFinalized,
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.ID != draft.ID {
		t.Fatalf("finalizing must keep the record id, got %s and %s", draft.ID, final.ID)
	}
	if entry := lastAudit(t, ds); entry.Action != ActionAssessmentFinalized {
		t.Fatalf("unexpected audit action %s", entry.Action)
	}

	_, err = svc.SaveAssessment(ctx, "staff", domain.Assessment{StudentID: "ana", Status: domain.RecordDraft})
	if !errors.Is(err, domain.ErrRecordFinalized) {
		t.Fatalf("expected ErrRecordFinalized, got %v", err)
	}
	stored, err := svc.GetAssessment(ctx, "ana")
	if err != nil || stored.GoalNotes != "voltar a correr" || stored.Status != domain.RecordFinalized {
		t.Fatalf("finalized record changed: %+v (%v)", stored, err)
	}
}

func TestSaveAssessmentUnknownStudent(t *testing.T) {
	ds, _ := newTestStore(t)
	_, err := NewClinicalService(ds).SaveAssessment(context.Background(), "staff", domain.Assessment{StudentID: "ghost"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if len(mustRead(t, ds).Assessments) != 0 {
		t.Fatal("no assessment should be stored")
	}
}

func TestTrainingPlanSave(t *testing.T) {
	ds, _ := newTestStore(t, dropIn("ana", "Ana"))
	svc := NewClinicalService(ds)
	ctx := context.Background()

	plan, err := svc.SaveTrainingPlan(ctx, "physio-1", domain.TrainingPlan{StudentID: "ana"})
	if err != nil {
		t.Fatalf("save empty plan: %v", err)
	}
	if plan.Sessions == nil || len(plan.Sessions) != 0 {
		t.Fatalf("expected an empty session list, got %#v", plan.Sessions)
	}
	if plan.UpdatedBy != "physio-1" || plan.Status != domain.RecordDraft {
		t.Fatalf("unexpected plan %+v", plan)
	}

	plan.Sessions = append(plan.Sessions, domain.TrainingRecord{
		Date:       testMonday,
		Objectives: []string{"mobilidade"},
	})
	plan.Status = domain.RecordFinalized
	final, err := svc.SaveTrainingPlan(ctx, "physio-2", *plan)
	if err != nil {
		t.Fatalf("finalize plan: %v", err)
	}
	if len(final.Sessions) != 1 || final.Sessions[0].ID == "" {
		t.Fatalf("expected the session record to get an id: %+v", final.Sessions)
	}
	if !final.UpdatedAt.Equal(monday0910) {
		t.Fatalf("expected store clock on UpdatedAt, got %v", final.UpdatedAt.Format(time.RFC3339))
	}
	if entry := lastAudit(t, ds); entry.Action != ActionPlanFinalized || entry.UserID != "physio-2" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
	if _, err := svc.SaveTrainingPlan(ctx, "physio-2", *final); !errors.Is(err, domain.ErrRecordFinalized) {
		t.Fatalf("expected ErrRecordFinalized, got %v", err)
	}
}
