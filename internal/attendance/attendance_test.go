package attendance

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

var t0 = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

func fullSession(t *testing.T) (*domain.Document, domain.Session) {
	t.Helper()
	doc := domain.NewDocument(t0)
	sess := domain.NewSession("s1", "2024-05-20", domain.MustTimeOfDay("09:00"), t0)
	doc.Sessions[sess.ID] = sess
	for i := 0; i < sess.Capacity; i++ {
		if _, err := Book(doc, sess, BookRequest{ID: fmt.Sprintf("b%d", i), StudentID: fmt.Sprintf("st%d", i), Now: t0}); err != nil {
			t.Fatalf("book %d: %v", i, err)
		}
	}
	return doc, sess
}

func TestBookRespectsCapacity(t *testing.T) {
	doc, sess := fullSession(t)
	if got := ConfirmedCount(doc, sess.ID); got != 8 {
		t.Fatalf("expected 8 confirmed, got %d", got)
	}

	_, err := Book(doc, sess, BookRequest{ID: "b9", StudentID: "st9", Now: t0})
	if !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}
	if _, ok := doc.Bookings["b9"]; ok {
		t.Fatal("rejected booking was stored")
	}

	b, err := Book(doc, sess, BookRequest{ID: "b9", StudentID: "st9", ConfirmWaitlist: true, Now: t0})
	if err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	if b.Status != domain.StatusWaitlisted {
		t.Fatalf("expected WAITLISTED, got %s", b.Status)
	}
}

func TestBookWithRoomIgnoresWaitlistFlag(t *testing.T) {
	doc := domain.NewDocument(t0)
	sess := domain.NewSession("s1", "2024-05-20", domain.MustTimeOfDay("09:00"), t0)
	b, err := Book(doc, sess, BookRequest{ID: "b1", StudentID: "st1", ConfirmWaitlist: true, Now: t0})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if b.Status != domain.StatusAwaiting {
		t.Fatalf("expected AWAITING, got %s", b.Status)
	}
}

func TestBookRejectsDuplicate(t *testing.T) {
	doc, sess := fullSession(t)
	if _, err := Book(doc, sess, BookRequest{ID: "dup", StudentID: "st0", ConfirmWaitlist: true, Now: t0}); !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("expected ErrAlreadyBooked, got %v", err)
	}
}

func TestWaitlistOrderedByCreation(t *testing.T) {
	doc, sess := fullSession(t)
	t1, t2, t3 := t0.Add(time.Minute), t0.Add(2*time.Minute), t0.Add(3*time.Minute)
	// Insert out of order and with ids that sort against creation time.
	doc.Bookings["w-a"] = domain.Booking{ID: "w-a", SessionID: sess.ID, StudentID: "x3", Status: domain.StatusWaitlisted, CreatedAt: t3}
	doc.Bookings["w-b"] = domain.Booking{ID: "w-b", SessionID: sess.ID, StudentID: "x1", Status: domain.StatusWaitlisted, CreatedAt: t1}
	doc.Bookings["w-c"] = domain.Booking{ID: "w-c", SessionID: sess.ID, StudentID: "x2", Status: domain.StatusWaitlisted, CreatedAt: t2}

	got := Waitlist(doc, sess.ID)
	if len(got) != 3 {
		t.Fatalf("expected 3 waitlisted, got %d", len(got))
	}
	want := []string{"w-b", "w-c", "w-a"}
	for i, b := range got {
		if b.ID != want[i] {
			t.Fatalf("position %d: want %s, got %s", i, want[i], b.ID)
		}
	}
}

func TestPromoteBypassesCapacity(t *testing.T) {
	doc, sess := fullSession(t)
	b, err := Book(doc, sess, BookRequest{ID: "w", StudentID: "late", ConfirmWaitlist: true, Now: t0})
	if err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	if err := Promote(&b); err != nil {
		t.Fatalf("promotion over capacity must succeed: %v", err)
	}
	doc.Bookings[b.ID] = b
	if got := ConfirmedCount(doc, sess.ID); got != sess.Capacity+1 {
		t.Fatalf("expected %d confirmed, got %d", sess.Capacity+1, got)
	}
	if err := Promote(&b); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("promoting a confirmed booking should fail, got %v", err)
	}
}

func TestCheckInTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.AttendanceStatus
		wantErr error
	}{
		{"awaiting", domain.StatusAwaiting, nil},
		{"present overwrites", domain.StatusPresent, nil},
		{"absent overwrites", domain.StatusAbsent, nil},
		{"waitlisted", domain.StatusWaitlisted, ErrInvalidTransition},
		{"cancelled", domain.StatusCancelled, ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := domain.Booking{ID: "b", Status: tt.from, Justification: "old"}
			err := CheckIn(&b, domain.CheckInQR, t0)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if b.Status != tt.from {
					t.Fatalf("status changed on rejected transition: %s", b.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("check-in: %v", err)
			}
			if b.Status != domain.StatusPresent || b.CheckInMethod != domain.CheckInQR || b.CheckInTime == nil || !b.CheckInTime.Equal(t0) {
				t.Fatalf("unexpected booking after check-in: %+v", b)
			}
		})
	}
}

func TestCheckInOverwritesMethodAndTime(t *testing.T) {
	b := domain.Booking{Status: domain.StatusAwaiting}
	if err := CheckIn(&b, domain.CheckInQR, t0); err != nil {
		t.Fatalf("first: %v", err)
	}
	later := t0.Add(5 * time.Minute)
	if err := CheckIn(&b, domain.CheckInManual, later); err != nil {
		t.Fatalf("second: %v", err)
	}
	if b.CheckInMethod != domain.CheckInManual || !b.CheckInTime.Equal(later) {
		t.Fatalf("check-in not overwritten: %+v", b)
	}
}

func TestCheckInRejectsUnknownMethod(t *testing.T) {
	b := domain.Booking{Status: domain.StatusAwaiting}
	if err := CheckIn(&b, "FACE", t0); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestMarkAbsentRequiresJustification(t *testing.T) {
	b := domain.Booking{Status: domain.StatusAwaiting}
	for _, j := range []string{"", "   ", "\t\n"} {
		err := MarkAbsent(&b, j, "staff-1")
		if !errors.Is(err, ErrJustificationRequired) || !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("justification %q: expected validation failure, got %v", j, err)
		}
		if b.Status != domain.StatusAwaiting {
			t.Fatal("booking changed on rejected absence")
		}
	}
	if err := MarkAbsent(&b, "  atestado médico ", "staff-1"); err != nil {
		t.Fatalf("mark absent: %v", err)
	}
	if b.Status != domain.StatusAbsent || b.Justification != "atestado médico" || b.RecordedBy != "staff-1" {
		t.Fatalf("unexpected booking: %+v", b)
	}
}

func TestMarkAbsentRejectsWaitlisted(t *testing.T) {
	b := domain.Booking{Status: domain.StatusWaitlisted}
	if err := MarkAbsent(&b, "doente", "staff-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRemoveIsHardDelete(t *testing.T) {
	doc, sess := fullSession(t)
	removed, err := Remove(doc, "b0")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.StudentID != "st0" {
		t.Fatalf("unexpected removed booking: %+v", removed)
	}
	if _, ok := doc.Bookings["b0"]; ok {
		t.Fatal("booking still present")
	}
	if got := ConfirmedCount(doc, sess.ID); got != sess.Capacity-1 {
		t.Fatalf("expected a free seat, confirmed=%d", got)
	}
	if _, err := Remove(doc, "b0"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
