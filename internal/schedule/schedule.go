// Package schedule resolves the recurring weekly schedule and the explicit
// sessions of a day into attendance slots, and materializes a session and
// booking when a recurring attendee first needs a real record.
package schedule

import (
	"sort"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/attendance"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

// ActiveWindowMinutes is how long after its start a session counts as live.
const ActiveWindowMinutes = 60

// InWindow reports whether now falls in [start, start+60min).
func InWindow(start, now domain.TimeOfDay) bool {
	return now >= start && now < start+ActiveWindowMinutes
}

// IsActive reports whether sess is live at the given day and minute.
func IsActive(sess domain.Session, date domain.Date, now domain.TimeOfDay) bool {
	return sess.Date == date && InWindow(sess.StartTime, now)
}

// IsActiveAt is IsActive for an instant; at must already be in the studio's
// time zone.
func IsActiveAt(sess domain.Session, at time.Time) bool {
	return IsActive(sess, domain.DateOf(at), domain.TimeOfDayOf(at))
}

// Attendee is a student expected in a slot.
type Attendee struct {
	StudentID string
	Name      string
	Status    domain.AttendanceStatus
	// Booking is nil for a recurring attendee that has not been materialized.
	Booking *domain.Booking
	// Recurring is true when the weekly schedule places the student here.
	Recurring bool
}

// Implicit reports whether the attendee has no stored booking yet.
func (a Attendee) Implicit() bool {
	return a.Booking == nil
}

// Slot is one start time of a day.
type Slot struct {
	Date domain.Date
	Time domain.TimeOfDay
	// Session is nil until the slot has been materialized or scheduled.
	Session   *domain.Session
	Attendees []Attendee
}

// Day is the resolved schedule of a date, slots ordered by time.
type Day struct {
	Date  domain.Date
	Slots []Slot
}

// FindSession returns the session at (date, start). Sessions are unique per
// slot by construction; if duplicates exist the earliest created wins.
func FindSession(doc *domain.Document, date domain.Date, start domain.TimeOfDay) (domain.Session, bool) {
	var found domain.Session
	ok := false
	for _, s := range doc.Sessions {
		if s.Date != date || s.StartTime != start {
			continue
		}
		if !ok || s.CreatedAt.Before(found.CreatedAt) || (s.CreatedAt.Equal(found.CreatedAt) && s.ID < found.ID) {
			found, ok = s, true
		}
	}
	return found, ok
}

// ResolveDay lists the slots of date: every time in an active FIXED student's
// schedule for that weekday plus the start of every session on that date.
func ResolveDay(doc *domain.Document, date domain.Date) Day {
	weekday := date.Weekday()
	times := map[domain.TimeOfDay]bool{}
	for _, st := range doc.Students {
		if !st.IsRecurring() {
			continue
		}
		for _, e := range st.WeeklySchedule {
			if e.Day == weekday {
				times[e.Time] = true
			}
		}
	}
	for _, s := range doc.Sessions {
		if s.Date == date {
			times[s.StartTime] = true
		}
	}

	ordered := make([]domain.TimeOfDay, 0, len(times))
	for t := range times {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	day := Day{Date: date, Slots: make([]Slot, 0, len(ordered))}
	for _, t := range ordered {
		day.Slots = append(day.Slots, resolveSlot(doc, date, weekday, t))
	}
	return day
}

// ResolveSlot resolves a single slot of date.
func ResolveSlot(doc *domain.Document, date domain.Date, start domain.TimeOfDay) Slot {
	return resolveSlot(doc, date, date.Weekday(), start)
}

func resolveSlot(doc *domain.Document, date domain.Date, weekday time.Weekday, start domain.TimeOfDay) Slot {
	slot := Slot{Date: date, Time: start}
	sess, hasSession := FindSession(doc, date, start)
	byStudent := map[string]domain.Booking{}
	cancelled := map[string]bool{}
	if hasSession {
		slot.Session = &sess
		for _, b := range attendance.Roster(doc, sess.ID) {
			if b.Status == domain.StatusCancelled {
				cancelled[b.StudentID] = true
				continue
			}
			if _, seen := byStudent[b.StudentID]; !seen {
				byStudent[b.StudentID] = b
			}
		}
	}

	listed := map[string]bool{}
	for _, st := range doc.Students {
		if !st.IsRecurring() || !st.ScheduledAt(weekday, start) {
			continue
		}
		listed[st.ID] = true
		a := Attendee{StudentID: st.ID, Name: st.Name, Status: domain.StatusAwaiting, Recurring: true}
		if b, ok := byStudent[st.ID]; ok {
			a.Booking = &b
			a.Status = b.Status
		} else if cancelled[st.ID] {
			continue
		}
		slot.Attendees = append(slot.Attendees, a)
	}
	for id, b := range byStudent {
		if listed[id] {
			continue
		}
		a := Attendee{StudentID: id, Status: b.Status, Booking: &b}
		if st, ok := doc.Students[id]; ok {
			a.Name = st.Name
		}
		slot.Attendees = append(slot.Attendees, a)
	}
	sort.Slice(slot.Attendees, func(i, j int) bool {
		if slot.Attendees[i].Name != slot.Attendees[j].Name {
			return slot.Attendees[i].Name < slot.Attendees[j].Name
		}
		return slot.Attendees[i].StudentID < slot.Attendees[j].StudentID
	})
	return slot
}

// LiveAt returns the slots active at the instant, keeping only attendees that
// are active students. at must already be in the studio's time zone.
func LiveAt(doc *domain.Document, at time.Time) []Slot {
	date, now := domain.DateOf(at), domain.TimeOfDayOf(at)
	var live []Slot
	for _, slot := range ResolveDay(doc, date).Slots {
		if !InWindow(slot.Time, now) {
			continue
		}
		kept := slot.Attendees[:0]
		for _, a := range slot.Attendees {
			if st, ok := doc.Students[a.StudentID]; ok && st.Active {
				kept = append(kept, a)
			}
		}
		slot.Attendees = kept
		if len(slot.Attendees) > 0 {
			live = append(live, slot)
		}
	}
	return live
}

// MaterializeRequest identifies the slot and student needing a real booking.
type MaterializeRequest struct {
	Date      domain.Date
	Time      domain.TimeOfDay
	StudentID string
	Now       time.Time
	NewID     func() string
}

// Materialized is the outcome of Materialize.
type Materialized struct {
	Session        domain.Session
	Booking        domain.Booking
	SessionCreated bool
	BookingCreated bool
}

// Materialize looks up or creates the session of the slot and the student's
// booking in it, adding whatever it creates to doc. A created booking is
// AWAITING whatever the session's occupancy: only stored bookings count
// against capacity, so first-time recurring check-ins may oversell a slot.
func Materialize(doc *domain.Document, req MaterializeRequest) Materialized {
	var m Materialized
	sess, ok := FindSession(doc, req.Date, req.Time)
	if !ok {
		sess = domain.NewSession(req.NewID(), req.Date, req.Time, req.Now)
		doc.Sessions[sess.ID] = sess
		m.SessionCreated = true
	}
	m.Session = sess

	if b, ok := attendance.FindBooking(doc, sess.ID, req.StudentID); ok {
		m.Booking = b
		return m
	}
	b := domain.Booking{
		ID:        req.NewID(),
		SessionID: sess.ID,
		StudentID: req.StudentID,
		Status:    domain.StatusAwaiting,
		CreatedAt: req.Now,
	}
	doc.Bookings[b.ID] = b
	m.Booking = b
	m.BookingCreated = true
	return m
}
