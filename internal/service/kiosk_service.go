package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/schedule"
	"golang.org/x/crypto/bcrypt"
)

// DefaultKioskPIN unlocks the kiosk while no PIN has been configured.
const DefaultKioskPIN = "1234"

// KioskActorID is recorded as the actor of walk-up check-ins.
const KioskActorID = "kiosk"

// --- Error Definitions ---
var (
	ErrNotInActiveSession = domain.Validation("NOT_IN_ACTIVE_SESSION", "student has no session in progress")
	ErrWaitlisted         = domain.Validation("WAITLISTED", "booking is on the waitlist; please wait for staff")
	ErrInvalidPIN         = domain.Validation("INVALID_PIN", "invalid kiosk PIN")
)

// LiveAttendee is one row of the kiosk list.
type LiveAttendee struct {
	StudentID string                  `json:"studentId"`
	Name      string                  `json:"name"`
	Time      domain.TimeOfDay        `json:"time"`
	Status    domain.AttendanceStatus `json:"status"`
	BookingID string                  `json:"bookingId,omitempty"`
}

// --- Service Interface ---

type KioskService interface {
	// LiveAttendees lists the students of the sessions in progress, filtered by
	// a case-insensitive name fragment.
	LiveAttendees(ctx context.Context, search string) ([]LiveAttendee, error)
	CheckIn(ctx context.Context, studentID string) (*domain.Booking, error)
	Unlock(ctx context.Context, pin string) error
}

// --- Service Implementation ---

type kioskService struct {
	store    DocumentStore
	schedule ScheduleService
	loc      *time.Location
}

// NewKioskService creates a kiosk bound to the studio time zone.
func NewKioskService(ds DocumentStore, schedule ScheduleService, loc *time.Location) KioskService {
	if loc == nil {
		loc = time.UTC
	}
	return &kioskService{store: ds, schedule: schedule, loc: loc}
}

func (s *kioskService) now() time.Time {
	return s.store.Now().In(s.loc)
}

func (s *kioskService) LiveAttendees(ctx context.Context, search string) ([]LiveAttendee, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	var out []LiveAttendee
	for _, slot := range schedule.LiveAt(doc, s.now()) {
		for _, a := range slot.Attendees {
			if search != "" && !strings.Contains(strings.ToLower(a.Name), search) {
				continue
			}
			row := LiveAttendee{StudentID: a.StudentID, Name: a.Name, Time: slot.Time, Status: a.Status}
			if a.Booking != nil {
				row.BookingID = a.Booking.ID
			}
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// CheckIn marks the student PRESENT with method QR in the session in progress.
func (s *kioskService) CheckIn(ctx context.Context, studentID string) (*domain.Booking, error) {
	now := s.now()
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, slot := range schedule.LiveAt(doc, now) {
		for _, a := range slot.Attendees {
			if a.StudentID != studentID {
				continue
			}
			if a.Status == domain.StatusWaitlisted {
				return nil, ErrWaitlisted
			}
			ref := SlotRef{Date: slot.Date, Time: slot.Time, StudentID: studentID}
			return s.schedule.CheckInSlot(ctx, KioskActorID, ref, domain.CheckInQR)
		}
	}
	return nil, ErrNotInActiveSession
}

// Unlock verifies the kiosk exit PIN.
func (s *kioskService) Unlock(ctx context.Context, pin string) error {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return err
	}
	hash := doc.Settings.KioskExitPINHash
	if hash == "" {
		if pin == DefaultKioskPIN {
			return nil
		}
		return ErrInvalidPIN
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPIN
		}
		return err
	}
	return nil
}
