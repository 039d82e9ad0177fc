// Package attendance holds the booking state machine: capacity and waitlist
// admission, check-in, justified absence, promotion and removal. It operates on
// a document passed in by the caller and performs no I/O.
package attendance

import (
	"strings"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

// Errors returned by the transitions.
var (
	ErrSessionFull           = domain.Validation("SESSION_FULL", "session is full; waitlist confirmation required")
	ErrAlreadyBooked         = domain.Validation("ALREADY_BOOKED", "student already has a booking for this session")
	ErrInvalidTransition     = domain.Validation("INVALID_TRANSITION", "booking cannot make this transition")
	ErrJustificationRequired = domain.Validation("JUSTIFICATION_REQUIRED", "absence requires a justification")
	ErrInvalidMethod         = domain.Validation("INVALID_CHECK_IN_METHOD", "check-in method must be MANUAL or QR")
)

// ConfirmedCount counts the bookings of a session that hold a seat: AWAITING,
// PRESENT and ABSENT.
func ConfirmedCount(doc *domain.Document, sessionID string) int {
	n := 0
	for _, b := range doc.Bookings {
		if b.SessionID != sessionID {
			continue
		}
		switch b.Status {
		case domain.StatusAwaiting, domain.StatusPresent, domain.StatusAbsent:
			n++
		}
	}
	return n
}

// HasRoom reports whether the session has a free seat.
func HasRoom(doc *domain.Document, sess domain.Session) bool {
	return ConfirmedCount(doc, sess.ID) < sess.Capacity
}

// FindBooking returns the booking of studentID in sessionID, ignoring
// CANCELLED ones.
func FindBooking(doc *domain.Document, sessionID, studentID string) (domain.Booking, bool) {
	for _, b := range doc.Bookings {
		if b.SessionID == sessionID && b.StudentID == studentID && b.Status != domain.StatusCancelled {
			return b, true
		}
	}
	return domain.Booking{}, false
}

// BookRequest describes a new booking.
type BookRequest struct {
	ID        string
	StudentID string
	// ConfirmWaitlist is the caller's explicit opt-in to join the waitlist
	// when the session is full.
	ConfirmWaitlist bool
	Now             time.Time
}

// Book admits a student to a session: AWAITING when a seat is free, WAITLISTED
// when full and the caller confirmed, ErrSessionFull otherwise. The booking is
// added to doc.
func Book(doc *domain.Document, sess domain.Session, req BookRequest) (domain.Booking, error) {
	if req.StudentID == "" {
		return domain.Booking{}, domain.Validation("STUDENT_REQUIRED", "student id is required")
	}
	if _, ok := FindBooking(doc, sess.ID, req.StudentID); ok {
		return domain.Booking{}, ErrAlreadyBooked
	}
	status := domain.StatusAwaiting
	if !HasRoom(doc, sess) {
		if !req.ConfirmWaitlist {
			return domain.Booking{}, ErrSessionFull
		}
		status = domain.StatusWaitlisted
	}
	b := domain.Booking{
		ID:        req.ID,
		SessionID: sess.ID,
		StudentID: req.StudentID,
		Status:    status,
		CreatedAt: req.Now,
	}
	doc.Bookings[b.ID] = b
	return b, nil
}

// CheckIn marks the booking PRESENT. Repeating it overwrites method and time.
// Waitlisted and cancelled bookings cannot check in.
func CheckIn(b *domain.Booking, method domain.CheckInMethod, at time.Time) error {
	if !method.Valid() {
		return ErrInvalidMethod
	}
	switch b.Status {
	case domain.StatusAwaiting, domain.StatusPresent, domain.StatusAbsent:
	default:
		return ErrInvalidTransition
	}
	b.Status = domain.StatusPresent
	b.CheckInMethod = method
	b.CheckInTime = &at
	b.Justification = ""
	return nil
}

// MarkAbsent records a justified absence authorized by recordedBy. The
// justification is trimmed and must not be empty.
func MarkAbsent(b *domain.Booking, justification, recordedBy string) error {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return ErrJustificationRequired
	}
	switch b.Status {
	case domain.StatusAwaiting, domain.StatusPresent, domain.StatusAbsent:
	default:
		return ErrInvalidTransition
	}
	b.Status = domain.StatusAbsent
	b.Justification = justification
	b.RecordedBy = recordedBy
	b.CheckInMethod = ""
	b.CheckInTime = nil
	return nil
}

// Promote moves a waitlisted booking to AWAITING. Capacity is not checked:
// promotion is a staff override and may exceed it.
func Promote(b *domain.Booking) error {
	if b.Status != domain.StatusWaitlisted {
		return ErrInvalidTransition
	}
	b.Status = domain.StatusAwaiting
	return nil
}

// Remove deletes the booking from doc. It leaves no trace; callers log it.
func Remove(doc *domain.Document, bookingID string) (domain.Booking, error) {
	b, ok := doc.Bookings[bookingID]
	if !ok {
		return domain.Booking{}, domain.NotFound("BOOKING_NOT_FOUND", "booking "+bookingID+" not found")
	}
	delete(doc.Bookings, bookingID)
	return b, nil
}

// Waitlist returns the WAITLISTED bookings of a session, oldest first.
func Waitlist(doc *domain.Document, sessionID string) []domain.Booking {
	var out []domain.Booking
	for _, b := range doc.Bookings {
		if b.SessionID == sessionID && b.Status == domain.StatusWaitlisted {
			out = append(out, b)
		}
	}
	domain.SortByCreation(out)
	return out
}

// Roster returns every booking of a session, oldest first.
func Roster(doc *domain.Document, sessionID string) []domain.Booking {
	var out []domain.Booking
	for _, b := range doc.Bookings {
		if b.SessionID == sessionID {
			out = append(out, b)
		}
	}
	domain.SortByCreation(out)
	return out
}
