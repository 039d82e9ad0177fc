package domain

import (
	"sort"
	"time"
)

// StudentType describes how a student attends the studio.
type StudentType string

const (
	StudentFixed       StudentType = "FIXED"        // Recurring weekly schedule
	StudentDropIn      StudentType = "DROP_IN"      // Books individual sessions
	StudentPartnerPlan StudentType = "PARTNER_PLAN" // Attends through a partner benefit plan
)

// Valid reports whether t is a known student type.
func (t StudentType) Valid() bool {
	switch t {
	case StudentFixed, StudentDropIn, StudentPartnerPlan:
		return true
	}
	return false
}

// BillingStatus tracks the student's payment situation.
type BillingStatus string

const (
	BillingNoInfo  BillingStatus = "NO_INFO"
	BillingPaid    BillingStatus = "PAID"
	BillingPending BillingStatus = "PENDING"
	BillingOverdue BillingStatus = "OVERDUE"
)

// Valid reports whether s is a known billing status.
func (s BillingStatus) Valid() bool {
	switch s {
	case BillingNoInfo, BillingPaid, BillingPending, BillingOverdue:
		return true
	}
	return false
}

// ScheduleEntry is one recurring weekly attendance slot.
type ScheduleEntry struct {
	Day  time.Weekday `json:"day"`
	Time TimeOfDay    `json:"time"`
}

// Student is a client on the studio roster. Students are never deleted, only deactivated.
type Student struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	StudentType    StudentType     `json:"studentType"`
	Active         bool            `json:"active"`
	WeeklySchedule []ScheduleEntry `json:"weeklySchedule"`
	BillingStatus  BillingStatus   `json:"billingStatus"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// IsRecurring reports whether the student's weekly schedule produces implicit attendance.
func (s *Student) IsRecurring() bool {
	return s.Active && s.StudentType == StudentFixed
}

// ScheduledAt reports whether the weekly schedule contains (day, t).
func (s *Student) ScheduledAt(day time.Weekday, t TimeOfDay) bool {
	for _, e := range s.WeeklySchedule {
		if e.Day == day && e.Time == t {
			return true
		}
	}
	return false
}

// NormalizeSchedule sorts entries by weekday then time and drops duplicates.
func NormalizeSchedule(entries []ScheduleEntry) []ScheduleEntry {
	out := make([]ScheduleEntry, 0, len(entries))
	seen := make(map[ScheduleEntry]bool, len(entries))
	for _, e := range entries {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Time < out[j].Time
	})
	return out
}
