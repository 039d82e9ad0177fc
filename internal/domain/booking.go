package domain

import "time"

// AttendanceStatus is the state of a booking.
type AttendanceStatus string

const (
	StatusAwaiting   AttendanceStatus = "AWAITING" // Confirmed, not yet checked in
	StatusPresent    AttendanceStatus = "PRESENT"
	StatusAbsent     AttendanceStatus = "ABSENT"
	StatusWaitlisted AttendanceStatus = "WAITLISTED"
	// StatusCancelled is recognized on read but no transition produces it;
	// removal is a hard delete.
	StatusCancelled AttendanceStatus = "CANCELLED"
)

// CheckInMethod records how a check-in happened.
type CheckInMethod string

const (
	CheckInManual CheckInMethod = "MANUAL"
	CheckInQR     CheckInMethod = "QR"
)

// Valid reports whether m is a known check-in method.
func (m CheckInMethod) Valid() bool {
	return m == CheckInManual || m == CheckInQR
}

// Booking links a student to a session. The store does not enforce that either
// reference exists.
type Booking struct {
	ID            string           `json:"id"`
	SessionID     string           `json:"sessionId"`
	StudentID     string           `json:"studentId"`
	Status        AttendanceStatus `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	CheckInMethod CheckInMethod    `json:"checkInMethod,omitempty"`
	CheckInTime   *time.Time       `json:"checkInTime,omitempty"`
	Justification string           `json:"manualJustification,omitempty"`
	RecordedBy    string           `json:"recordedBy,omitempty"`
}
