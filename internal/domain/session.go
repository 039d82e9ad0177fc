package domain

import "time"

// Every creation path produces sessions of this shape.
const (
	DefaultDurationMinutes = 60
	DefaultCapacity        = 8
)

// Session is a single class occurrence. (Date, StartTime) is the implicit lookup key.
type Session struct {
	ID              string    `json:"id"`
	Date            Date      `json:"date"`
	StartTime       TimeOfDay `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Capacity        int       `json:"capacity"`
	CalendarEventID string    `json:"calendarEventId,omitempty"`
	InstructorID    string    `json:"instructorId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewSession builds a session with the fixed duration and capacity.
func NewSession(id string, date Date, start TimeOfDay, now time.Time) Session {
	return Session{
		ID:              id,
		Date:            date,
		StartTime:       start,
		DurationMinutes: DefaultDurationMinutes,
		Capacity:        DefaultCapacity,
		InstructorID:    "system",
		CreatedAt:       now,
	}
}
