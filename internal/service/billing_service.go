package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
)

// BillingInput describes a billing event to record.
type BillingInput struct {
	StudentID   string               `json:"studentId"`
	Month       string               `json:"month"` // YYYY-MM
	Status      domain.BillingStatus `json:"status"`
	AmountCents int64                `json:"amountCents"`
	Note        string               `json:"note"`
}

// --- Service Interface ---

type BillingService interface {
	// RecordEvent appends a billing event and sets the student's billing status.
	RecordEvent(ctx context.Context, actorID string, in BillingInput) (*domain.BillingEvent, error)
	// ListEvents returns the events of a student, or all events when
	// studentID is empty, newest first.
	ListEvents(ctx context.Context, studentID string) ([]domain.BillingEvent, error)
}

// --- Service Implementation ---

type billingService struct {
	store DocumentStore
}

// NewBillingService creates a new instance of billingService.
func NewBillingService(ds DocumentStore) BillingService {
	return &billingService{store: ds}
}

func (s *billingService) RecordEvent(ctx context.Context, actorID string, in BillingInput) (*domain.BillingEvent, error) {
	if !in.Status.Valid() {
		return nil, domain.Validation("INVALID_BILLING_STATUS", fmt.Sprintf("unknown billing status %q", in.Status))
	}
	if _, err := time.Parse("2006-01", in.Month); err != nil {
		return nil, domain.Validation("INVALID_MONTH", "month must be YYYY-MM")
	}
	if in.AmountCents < 0 {
		return nil, domain.Validation("INVALID_AMOUNT", "amount cannot be negative")
	}
	ev := domain.BillingEvent{
		ID:          s.store.NewID(),
		StudentID:   in.StudentID,
		Month:       in.Month,
		Status:      in.Status,
		AmountCents: in.AmountCents,
		Note:        strings.TrimSpace(in.Note),
		CreatedAt:   s.store.Now(),
		CreatedBy:   actorID,
	}
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		st, ok := doc.Students[in.StudentID]
		if !ok {
			return studentNotFound(in.StudentID)
		}
		st.BillingStatus = in.Status
		doc.Students[st.ID] = st
		doc.BillingEvents = append([]domain.BillingEvent{ev}, doc.BillingEvents...)
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionBillingRecorded,
			EntityType: entityBilling,
			EntityID:   ev.ID,
			StudentID:  st.ID,
			Details:    fmt.Sprintf("%s %s: %s", st.Name, ev.Month, ev.Status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *billingService) ListEvents(ctx context.Context, studentID string) ([]domain.BillingEvent, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if studentID == "" {
		return doc.BillingEvents, nil
	}
	var out []domain.BillingEvent
	for _, ev := range doc.BillingEvents {
		if ev.StudentID == studentID {
			out = append(out, ev)
		}
	}
	return out, nil
}
