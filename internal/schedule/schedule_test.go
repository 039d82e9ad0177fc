package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

// 2024-05-20 is a Monday.
const monday domain.Date = "2024-05-20"

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func tod(s string) domain.TimeOfDay { return domain.MustTimeOfDay(s) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func fixedStudent(id, name string, entries ...domain.ScheduleEntry) domain.Student {
	return domain.Student{ID: id, Name: name, StudentType: domain.StudentFixed, Active: true, WeeklySchedule: entries}
}

func TestIsActiveWindow(t *testing.T) {
	sess := domain.NewSession("s", monday, tod("09:00"), created)
	tests := []struct {
		at   string
		want bool
	}{
		{"08:59", false},
		{"09:00", true},
		{"09:30", true},
		{"09:59", true},
		{"10:00", false},
	}
	for _, tt := range tests {
		if got := IsActive(sess, monday, tod(tt.at)); got != tt.want {
			t.Errorf("IsActive at %s = %v, want %v", tt.at, got, tt.want)
		}
	}
	if IsActive(sess, "2024-05-21", tod("09:30")) {
		t.Error("session must not be active on another date")
	}
	at := time.Date(2024, 5, 20, 9, 59, 59, 0, time.UTC)
	if !IsActiveAt(sess, at) {
		t.Error("IsActiveAt should truncate to the minute")
	}
}

func TestResolveDayUnionsScheduleAndSessions(t *testing.T) {
	doc := domain.NewDocument(created)
	doc.Students["ana"] = fixedStudent("ana", "Ana", domain.ScheduleEntry{Day: time.Monday, Time: tod("07:00")})
	doc.Students["bia"] = fixedStudent("bia", "Bia", domain.ScheduleEntry{Day: time.Tuesday, Time: tod("08:00")})
	doc.Students["caio"] = domain.Student{ID: "caio", Name: "Caio", StudentType: domain.StudentDropIn, Active: true,
		WeeklySchedule: []domain.ScheduleEntry{{Day: time.Monday, Time: tod("06:00")}}}
	inactive := fixedStudent("dani", "Dani", domain.ScheduleEntry{Day: time.Monday, Time: tod("05:00")})
	inactive.Active = false
	doc.Students["dani"] = inactive
	doc.Sessions["s18"] = domain.NewSession("s18", monday, tod("18:00"), created)
	doc.Sessions["other"] = domain.NewSession("other", "2024-05-21", tod("19:00"), created)

	day := ResolveDay(doc, monday)
	var times []string
	for _, s := range day.Slots {
		times = append(times, s.Time.String())
	}
	if fmt.Sprint(times) != "[07:00 18:00]" {
		t.Fatalf("unexpected slots %v", times)
	}
	first := day.Slots[0]
	if first.Session != nil {
		t.Fatal("07:00 has no materialized session")
	}
	if len(first.Attendees) != 1 || first.Attendees[0].StudentID != "ana" || !first.Attendees[0].Implicit() || first.Attendees[0].Status != domain.StatusAwaiting {
		t.Fatalf("unexpected 07:00 attendees %+v", first.Attendees)
	}
	if day.Slots[1].Session == nil || day.Slots[1].Session.ID != "s18" {
		t.Fatalf("18:00 should carry its session, got %+v", day.Slots[1].Session)
	}
}

func TestResolveSlotUsesExplicitBookingStatus(t *testing.T) {
	doc := domain.NewDocument(created)
	doc.Students["ana"] = fixedStudent("ana", "Ana", domain.ScheduleEntry{Day: time.Monday, Time: tod("07:00")})
	doc.Students["bia"] = fixedStudent("bia", "Bia", domain.ScheduleEntry{Day: time.Monday, Time: tod("07:00")})
	doc.Students["guest"] = domain.Student{ID: "guest", Name: "Guest", StudentType: domain.StudentDropIn, Active: true}
	doc.Sessions["s7"] = domain.NewSession("s7", monday, tod("07:00"), created)
	doc.Bookings["b1"] = domain.Booking{ID: "b1", SessionID: "s7", StudentID: "ana", Status: domain.StatusPresent, CreatedAt: created}
	doc.Bookings["b2"] = domain.Booking{ID: "b2", SessionID: "s7", StudentID: "guest", Status: domain.StatusWaitlisted, CreatedAt: created}

	slot := ResolveSlot(doc, monday, tod("07:00"))
	got := map[string]Attendee{}
	for _, a := range slot.Attendees {
		got[a.StudentID] = a
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 attendees, got %+v", slot.Attendees)
	}
	if got["ana"].Status != domain.StatusPresent || got["ana"].Implicit() {
		t.Fatalf("ana should use her booking: %+v", got["ana"])
	}
	if got["bia"].Status != domain.StatusAwaiting || !got["bia"].Implicit() {
		t.Fatalf("bia should be implicit: %+v", got["bia"])
	}
	if got["guest"].Status != domain.StatusWaitlisted || got["guest"].Recurring {
		t.Fatalf("guest should be an explicit non-recurring attendee: %+v", got["guest"])
	}
}

func TestLiveAtFiltersByWindowAndActiveStudents(t *testing.T) {
	doc := domain.NewDocument(created)
	doc.Students["ana"] = fixedStudent("ana", "Ana", domain.ScheduleEntry{Day: time.Monday, Time: tod("09:00")})
	doc.Students["bia"] = fixedStudent("bia", "Bia", domain.ScheduleEntry{Day: time.Monday, Time: tod("10:00")})
	gone := domain.Student{ID: "gone", Name: "Gone", StudentType: domain.StudentDropIn, Active: false}
	doc.Students["gone"] = gone
	doc.Sessions["s9"] = domain.NewSession("s9", monday, tod("09:00"), created)
	doc.Bookings["b"] = domain.Booking{ID: "b", SessionID: "s9", StudentID: "gone", Status: domain.StatusAwaiting, CreatedAt: created}

	live := LiveAt(doc, time.Date(2024, 5, 20, 9, 45, 0, 0, time.UTC))
	if len(live) != 1 || live[0].Time != tod("09:00") {
		t.Fatalf("expected only the 09:00 slot, got %+v", live)
	}
	if len(live[0].Attendees) != 1 || live[0].Attendees[0].StudentID != "ana" {
		t.Fatalf("expected only ana, got %+v", live[0].Attendees)
	}
	if got := LiveAt(doc, time.Date(2024, 5, 20, 8, 59, 0, 0, time.UTC)); len(got) != 0 {
		t.Fatalf("nothing should be live at 08:59, got %+v", got)
	}
}

func TestMaterializeCreatesSessionAndBookingOnce(t *testing.T) {
	doc := domain.NewDocument(created)
	newID := sequentialIDs()
	req := MaterializeRequest{Date: monday, Time: tod("07:00"), StudentID: "ana", Now: created, NewID: newID}

	m := Materialize(doc, req)
	if !m.SessionCreated || !m.BookingCreated {
		t.Fatalf("expected both created: %+v", m)
	}
	if m.Session.Capacity != domain.DefaultCapacity || m.Session.DurationMinutes != domain.DefaultDurationMinutes {
		t.Fatalf("unexpected session shape %+v", m.Session)
	}
	if m.Booking.Status != domain.StatusAwaiting || m.Booking.SessionID != m.Session.ID {
		t.Fatalf("unexpected booking %+v", m.Booking)
	}

	again := Materialize(doc, req)
	if again.SessionCreated || again.BookingCreated {
		t.Fatalf("second materialization must reuse records: %+v", again)
	}
	if again.Booking.ID != m.Booking.ID || len(doc.Sessions) != 1 || len(doc.Bookings) != 1 {
		t.Fatalf("duplicate records created: sessions=%d bookings=%d", len(doc.Sessions), len(doc.Bookings))
	}
}

func TestMaterializeIgnoresCapacity(t *testing.T) {
	doc := domain.NewDocument(created)
	sess := domain.NewSession("full", monday, tod("07:00"), created)
	doc.Sessions[sess.ID] = sess
	for i := 0; i < sess.Capacity; i++ {
		id := fmt.Sprintf("b%d", i)
		doc.Bookings[id] = domain.Booking{ID: id, SessionID: sess.ID, StudentID: fmt.Sprintf("st%d", i), Status: domain.StatusAwaiting, CreatedAt: created}
	}
	m := Materialize(doc, MaterializeRequest{Date: monday, Time: tod("07:00"), StudentID: "late", Now: created, NewID: sequentialIDs()})
	if m.SessionCreated || m.Session.ID != "full" {
		t.Fatalf("expected the existing session, got %+v", m)
	}
	if m.Booking.Status != domain.StatusAwaiting {
		t.Fatalf("materialized booking must be AWAITING even when full, got %s", m.Booking.Status)
	}
}

func TestFindSessionPrefersEarliest(t *testing.T) {
	doc := domain.NewDocument(created)
	older := domain.NewSession("z-old", monday, tod("07:00"), created)
	newer := domain.NewSession("a-new", monday, tod("07:00"), created.Add(time.Hour))
	doc.Sessions[older.ID] = older
	doc.Sessions[newer.ID] = newer
	got, ok := FindSession(doc, monday, tod("07:00"))
	if !ok || got.ID != "z-old" {
		t.Fatalf("expected z-old, got %+v", got)
	}
}
