package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lucap2714-svg/fisiostudio/internal/attendance"
	"github.com/lucap2714-svg/fisiostudio/internal/calendar"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/metrics"
	"github.com/lucap2714-svg/fisiostudio/internal/schedule"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
)

// --- Error Definitions ---
var (
	ErrNoStudents       = domain.Validation("STUDENTS_REQUIRED", "a session needs at least one student")
	ErrOverCapacity     = domain.Validation("OVER_CAPACITY", "more students than the session capacity")
	ErrSessionExists    = domain.Validation("SESSION_EXISTS", "a session already exists at this date and time")
	ErrReasonRequired   = domain.Validation("REASON_REQUIRED", "rescheduling requires a reason")
	ErrSameSlot         = domain.Validation("SAME_SLOT", "target slot is the current slot")
	ErrInactiveStudent  = domain.Validation("STUDENT_INACTIVE", "student is not active")
	ErrDuplicateStudent = domain.Validation("DUPLICATE_STUDENT", "student listed more than once")
)

// SlotRef names a student's place in a (date, time) slot, whether or not a
// session or booking exists for it yet.
type SlotRef struct {
	Date      domain.Date      `json:"date"`
	Time      domain.TimeOfDay `json:"time"`
	StudentID string           `json:"studentId"`
}

// RescheduleRequest moves a student from one slot of a day to another time.
type RescheduleRequest struct {
	From    SlotRef          `json:"from"`
	NewTime domain.TimeOfDay `json:"newTime"`
	// NewDate defaults to From.Date.
	NewDate domain.Date `json:"newDate"`
	Reason  string      `json:"reason"`
}

// --- Service Interface ---

type ScheduleService interface {
	Day(ctx context.Context, date domain.Date) (*schedule.Day, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	CreateSession(ctx context.Context, actorID string, date domain.Date, start domain.TimeOfDay, studentIDs []string) (*domain.Session, error)
	DeleteSession(ctx context.Context, actorID, id string) error
	Roster(ctx context.Context, sessionID string) ([]domain.Booking, error)
	Waitlist(ctx context.Context, sessionID string) ([]domain.Booking, error)

	// Booking transitions by booking id.
	BookStudent(ctx context.Context, actorID, sessionID, studentID string, confirmWaitlist bool) (*domain.Booking, error)
	CheckIn(ctx context.Context, actorID, bookingID string, method domain.CheckInMethod) (*domain.Booking, error)
	MarkAbsent(ctx context.Context, actorID, bookingID, justification string) (*domain.Booking, error)
	Promote(ctx context.Context, actorID, bookingID string) (*domain.Booking, error)
	RemoveBooking(ctx context.Context, actorID, bookingID string) error

	// Slot transitions materialize the session and booking when needed.
	CheckInSlot(ctx context.Context, actorID string, ref SlotRef, method domain.CheckInMethod) (*domain.Booking, error)
	MarkAbsentSlot(ctx context.Context, actorID string, ref SlotRef, justification string) (*domain.Booking, error)
	Reschedule(ctx context.Context, actorID string, req RescheduleRequest) (*domain.Booking, error)
}

// --- Service Implementation ---

type scheduleService struct {
	store    DocumentStore
	calendar calendar.Syncer
	metrics  *metrics.Metrics
}

// NewScheduleService creates a new instance of scheduleService. A nil syncer
// disables calendar synchronization.
func NewScheduleService(ds DocumentStore, syncer calendar.Syncer, m *metrics.Metrics) ScheduleService {
	if syncer == nil {
		syncer = calendar.NewSyncer(calendar.Options{Enabled: false})
	}
	return &scheduleService{store: ds, calendar: syncer, metrics: m}
}

func (s *scheduleService) Day(ctx context.Context, date domain.Date) (*schedule.Day, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	day := schedule.ResolveDay(doc, date)
	return &day, nil
}

func (s *scheduleService) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	sess, ok := doc.Sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return &sess, nil
}

// CreateSession schedules an explicit session with one AWAITING booking per
// student. The calendar event is created before the session is stored.
func (s *scheduleService) CreateSession(ctx context.Context, actorID string, date domain.Date, start domain.TimeOfDay, studentIDs []string) (*domain.Session, error) {
	if len(studentIDs) == 0 {
		return nil, ErrNoStudents
	}
	if len(studentIDs) > domain.DefaultCapacity {
		return nil, ErrOverCapacity
	}
	seen := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		if seen[id] {
			return nil, ErrDuplicateStudent
		}
		seen[id] = true
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkStudents(doc, studentIDs); err != nil {
		return nil, err
	}
	if _, exists := schedule.FindSession(doc, date, start); exists {
		return nil, ErrSessionExists
	}

	sess := domain.NewSession(s.store.NewID(), date, start, s.store.Now())
	if eventID, ok := s.calendar.SyncSession(ctx, sess, actorID); ok {
		sess.CalendarEventID = eventID
	}

	err = s.store.Mutate(ctx, func(doc *domain.Document) error {
		if err := checkStudents(doc, studentIDs); err != nil {
			return err
		}
		if _, exists := schedule.FindSession(doc, date, start); exists {
			return ErrSessionExists
		}
		doc.Sessions[sess.ID] = sess
		now := s.store.Now()
		names := make([]string, 0, len(studentIDs))
		for _, id := range studentIDs {
			names = append(names, studentName(doc, id))
			b := domain.Booking{
				ID:        s.store.NewID(),
				SessionID: sess.ID,
				StudentID: id,
				Status:    domain.StatusAwaiting,
				CreatedAt: now,
			}
			doc.Bookings[b.ID] = b
		}
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionSessionCreated,
			EntityType: entitySession,
			EntityID:   sess.ID,
			Details:    fmt.Sprintf("Aula %s %s: %s", date, start, strings.Join(names, ", ")),
		})
		return nil
	})
	if err != nil {
		s.releasePending(ctx, actorID, &sess)
		return nil, err
	}
	for range studentIDs {
		s.metrics.Transition(string(domain.StatusAwaiting))
	}
	return &sess, nil
}

// DeleteSession removes a session together with its bookings and the calendar
// event.
func (s *scheduleService) DeleteSession(ctx context.Context, actorID, id string) error {
	var eventID string
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		sess, ok := doc.Sessions[id]
		if !ok {
			return sessionNotFound(id)
		}
		eventID = sess.CalendarEventID
		delete(doc.Sessions, id)
		removed := 0
		for bid, b := range doc.Bookings {
			if b.SessionID == id {
				delete(doc.Bookings, bid)
				removed++
			}
		}
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionSessionDeleted,
			EntityType: entitySession,
			EntityID:   id,
			Details:    fmt.Sprintf("Aula %s %s removida com %d reservas", sess.Date, sess.StartTime, removed),
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.calendar.DeleteEvent(ctx, eventID, actorID)
	return nil
}

func (s *scheduleService) Roster(ctx context.Context, sessionID string) ([]domain.Booking, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Sessions[sessionID]; !ok {
		return nil, sessionNotFound(sessionID)
	}
	return attendance.Roster(doc, sessionID), nil
}

// Waitlist returns the session's waitlisted bookings, oldest first.
func (s *scheduleService) Waitlist(ctx context.Context, sessionID string) ([]domain.Booking, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Sessions[sessionID]; !ok {
		return nil, sessionNotFound(sessionID)
	}
	return attendance.Waitlist(doc, sessionID), nil
}

// BookStudent books a student into an existing session. A full session
// requires confirmWaitlist and yields a WAITLISTED booking.
func (s *scheduleService) BookStudent(ctx context.Context, actorID, sessionID, studentID string, confirmWaitlist bool) (*domain.Booking, error) {
	var booked domain.Booking
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		sess, ok := doc.Sessions[sessionID]
		if !ok {
			return sessionNotFound(sessionID)
		}
		if err := checkStudents(doc, []string{studentID}); err != nil {
			return err
		}
		b, err := attendance.Book(doc, sess, attendance.BookRequest{
			ID:              s.store.NewID(),
			StudentID:       studentID,
			ConfirmWaitlist: confirmWaitlist,
			Now:             s.store.Now(),
		})
		if err != nil {
			return err
		}
		booked = b
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionBookingCreated,
			EntityType: entityBooking,
			EntityID:   b.ID,
			StudentID:  studentID,
			Details:    fmt.Sprintf("%s em %s %s (%s)", studentName(doc, studentID), sess.Date, sess.StartTime, b.Status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transition(string(booked.Status))
	return &booked, nil
}

// transition applies fn to a stored booking and writes it back with an audit
// entry.
func (s *scheduleService) transition(ctx context.Context, actorID, bookingID, action string, fn func(b *domain.Booking) error) (*domain.Booking, error) {
	var updated domain.Booking
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		b, ok := doc.Bookings[bookingID]
		if !ok {
			return bookingNotFound(bookingID)
		}
		if err := fn(&b); err != nil {
			return err
		}
		doc.Bookings[b.ID] = b
		updated = b
		audit(s.store, doc, bookingAudit(doc, actorID, action, b))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transition(string(updated.Status))
	return &updated, nil
}

func (s *scheduleService) CheckIn(ctx context.Context, actorID, bookingID string, method domain.CheckInMethod) (*domain.Booking, error) {
	now := s.store.Now()
	return s.transition(ctx, actorID, bookingID, ActionCheckIn, func(b *domain.Booking) error {
		return attendance.CheckIn(b, method, now)
	})
}

func (s *scheduleService) MarkAbsent(ctx context.Context, actorID, bookingID, justification string) (*domain.Booking, error) {
	return s.transition(ctx, actorID, bookingID, ActionAbsence, func(b *domain.Booking) error {
		return attendance.MarkAbsent(b, justification, actorID)
	})
}

// Promote moves a waitlisted booking to AWAITING even past capacity.
func (s *scheduleService) Promote(ctx context.Context, actorID, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, actorID, bookingID, ActionWaitlistPromoted, attendance.Promote)
}

// RemoveBooking deletes a booking and logs the removal.
func (s *scheduleService) RemoveBooking(ctx context.Context, actorID, bookingID string) error {
	return s.store.Mutate(ctx, func(doc *domain.Document) error {
		b, err := attendance.Remove(doc, bookingID)
		if err != nil {
			return err
		}
		audit(s.store, doc, bookingAudit(doc, actorID, ActionBookingRemoved, b))
		return nil
	})
}

// CheckInSlot marks the student PRESENT in the slot, creating the session and
// the booking first when they do not exist.
func (s *scheduleService) CheckInSlot(ctx context.Context, actorID string, ref SlotRef, method domain.CheckInMethod) (*domain.Booking, error) {
	if !method.Valid() {
		return nil, attendance.ErrInvalidMethod
	}
	now := s.store.Now()
	return s.materialize(ctx, actorID, ref, ActionCheckIn, func(b *domain.Booking) error {
		return attendance.CheckIn(b, method, now)
	})
}

// MarkAbsentSlot records a justified absence in the slot, materializing as
// CheckInSlot does.
func (s *scheduleService) MarkAbsentSlot(ctx context.Context, actorID string, ref SlotRef, justification string) (*domain.Booking, error) {
	if strings.TrimSpace(justification) == "" {
		return nil, attendance.ErrJustificationRequired
	}
	return s.materialize(ctx, actorID, ref, ActionAbsence, func(b *domain.Booking) error {
		return attendance.MarkAbsent(b, justification, actorID)
	})
}

// Reschedule moves the student's booking in From to the target slot. The
// source booking is deleted when one exists; the weekly schedule is untouched,
// so a recurring student still appears implicitly in the source slot.
func (s *scheduleService) Reschedule(ctx context.Context, actorID string, req RescheduleRequest) (*domain.Booking, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if req.NewDate == "" {
		req.NewDate = req.From.Date
	}
	if req.NewDate == req.From.Date && req.NewTime == req.From.Time {
		return nil, ErrSameSlot
	}
	target := SlotRef{Date: req.NewDate, Time: req.NewTime, StudentID: req.From.StudentID}
	pending, err := s.prepareSession(ctx, actorID, target)
	if err != nil {
		return nil, err
	}

	var moved domain.Booking
	adopted := false
	err = s.store.Mutate(ctx, func(doc *domain.Document) error {
		if err := checkStudents(doc, []string{req.From.StudentID}); err != nil {
			return err
		}
		if src, ok := schedule.FindSession(doc, req.From.Date, req.From.Time); ok {
			if b, ok := attendance.FindBooking(doc, src.ID, req.From.StudentID); ok {
				delete(doc.Bookings, b.ID)
			}
		}
		var sess domain.Session
		sess, adopted = s.adoptSession(doc, target, pending)
		if existing, ok := attendance.FindBooking(doc, sess.ID, req.From.StudentID); ok {
			delete(doc.Bookings, existing.ID)
		}
		moved = domain.Booking{
			ID:        s.store.NewID(),
			SessionID: sess.ID,
			StudentID: req.From.StudentID,
			Status:    domain.StatusAwaiting,
			CreatedAt: s.store.Now(),
		}
		doc.Bookings[moved.ID] = moved
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionBookingRescheduled,
			EntityType: entityBooking,
			EntityID:   moved.ID,
			StudentID:  req.From.StudentID,
			Details: fmt.Sprintf("%s: %s %s -> %s %s. Motivo: %s", studentName(doc, req.From.StudentID),
				req.From.Date, req.From.Time, req.NewDate, req.NewTime, reason),
		})
		return nil
	})
	if err != nil || !adopted {
		s.releasePending(ctx, actorID, pending)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.Transition(string(moved.Status))
	return &moved, nil
}

// prepareSession returns a calendar-synced session for ref's slot when none is
// stored yet, or nil when the slot already has one. Syncing happens outside
// the queue so the calendar latency does not hold up other writes.
func (s *scheduleService) prepareSession(ctx context.Context, actorID string, ref SlotRef) (*domain.Session, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkStudents(doc, []string{ref.StudentID}); err != nil {
		return nil, err
	}
	if _, ok := schedule.FindSession(doc, ref.Date, ref.Time); ok {
		return nil, nil
	}
	sess := domain.NewSession(s.store.NewID(), ref.Date, ref.Time, s.store.Now())
	if eventID, ok := s.calendar.SyncSession(ctx, sess, actorID); ok {
		sess.CalendarEventID = eventID
	}
	return &sess, nil
}

// adoptSession stores pending unless another write created the slot's session
// in the meantime, and returns the session now holding the slot. adopted
// reports whether pending itself was stored.
func (s *scheduleService) adoptSession(doc *domain.Document, ref SlotRef, pending *domain.Session) (sess domain.Session, adopted bool) {
	if existing, ok := schedule.FindSession(doc, ref.Date, ref.Time); ok {
		return existing, false
	}
	if pending == nil {
		created := domain.NewSession(s.store.NewID(), ref.Date, ref.Time, s.store.Now())
		doc.Sessions[created.ID] = created
		return created, false
	}
	doc.Sessions[pending.ID] = *pending
	return *pending, true
}

// releasePending deletes the calendar event synced for a session that was
// never stored.
func (s *scheduleService) releasePending(ctx context.Context, actorID string, pending *domain.Session) {
	if pending == nil || pending.CalendarEventID == "" {
		return
	}
	log.Printf("WARN: Session %s was not stored, removing its calendar event", pending.ID)
	s.calendar.DeleteEvent(context.WithoutCancel(ctx), pending.CalendarEventID, actorID)
}

// materialize finds or creates the session and the student's booking for ref,
// then applies fn to the booking, all in one write.
func (s *scheduleService) materialize(ctx context.Context, actorID string, ref SlotRef, action string, fn func(b *domain.Booking) error) (*domain.Booking, error) {
	pending, err := s.prepareSession(ctx, actorID, ref)
	if err != nil {
		return nil, err
	}
	var updated domain.Booking
	adopted := false
	err = s.store.Mutate(ctx, func(doc *domain.Document) error {
		if err := checkStudents(doc, []string{ref.StudentID}); err != nil {
			return err
		}
		_, adopted = s.adoptSession(doc, ref, pending)
		m := schedule.Materialize(doc, schedule.MaterializeRequest{
			Date:      ref.Date,
			Time:      ref.Time,
			StudentID: ref.StudentID,
			Now:       s.store.Now(),
			NewID:     s.store.NewID,
		})
		b := m.Booking
		if err := fn(&b); err != nil {
			return err
		}
		doc.Bookings[b.ID] = b
		updated = b
		audit(s.store, doc, bookingAudit(doc, actorID, action, b))
		return nil
	})
	if err != nil || !adopted {
		s.releasePending(ctx, actorID, pending)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.Transition(string(updated.Status))
	return &updated, nil
}

// checkStudents verifies that every id names an active student.
func checkStudents(doc *domain.Document, ids []string) error {
	for _, id := range ids {
		st, ok := doc.Students[id]
		if !ok {
			return studentNotFound(id)
		}
		if !st.Active {
			return ErrInactiveStudent
		}
	}
	return nil
}

func bookingAudit(doc *domain.Document, actorID, action string, b domain.Booking) store.AuditEntry {
	details := fmt.Sprintf("%s: %s", studentName(doc, b.StudentID), b.Status)
	if sess, ok := doc.Sessions[b.SessionID]; ok {
		details = fmt.Sprintf("%s em %s %s: %s", studentName(doc, b.StudentID), sess.Date, sess.StartTime, b.Status)
	}
	if b.Justification != "" {
		details += ". Justificativa: " + b.Justification
	}
	return store.AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: entityBooking,
		EntityID:   b.ID,
		StudentID:  b.StudentID,
		Details:    details,
	}
}
