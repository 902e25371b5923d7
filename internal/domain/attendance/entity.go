package attendance

import (
	"time"
)

// DateLayout is the day key format used to bucket events per employee.
const DateLayout = "2006-01-02"

// ClockLayout is the time-of-day format stored for check-in and check-out.
const ClockLayout = "15:04"

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half-day"
)

type EventType string

const (
	EventCheckIn  EventType = "check-in"
	EventCheckOut EventType = "check-out"
)

func (e EventType) IsValid() bool {
	return e == EventCheckIn || e == EventCheckOut
}

// NoopReason explains why a mark request left state untouched.
type NoopReason string

const (
	NoopNone              NoopReason = ""
	NoopOrphanCheckout    NoopReason = "orphan_checkout"
	NoopDuplicateCheckIn  NoopReason = "duplicate_checkin"
	NoopDuplicateCheckOut NoopReason = "duplicate_checkout"
)

// AttendanceRecord is the single record kept per employee per day.
type AttendanceRecord struct {
	ID           string
	EmployeeID   string
	EmployeeName string
	Date         string
	CheckIn      *string
	CheckOut     *string
	Status       Status
	WorkingHours *float64

	// Synced is false while the record only exists in the local store.
	Synced   bool
	RemoteID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy that shares no pointers with r.
func (r AttendanceRecord) Clone() AttendanceRecord {
	out := r
	if r.CheckIn != nil {
		v := *r.CheckIn
		out.CheckIn = &v
	}
	if r.CheckOut != nil {
		v := *r.CheckOut
		out.CheckOut = &v
	}
	if r.WorkingHours != nil {
		v := *r.WorkingHours
		out.WorkingHours = &v
	}
	if r.RemoteID != nil {
		v := *r.RemoteID
		out.RemoteID = &v
	}
	return out
}

// StatusPolicy is the configured work schedule used to derive Status.
type StatusPolicy struct {
	WorkStart            string
	WorkEnd              string
	LateThresholdMinutes int
	LateDetection        bool
	// HalfDayHours marks completed days shorter than this as half-day. Zero disables it.
	HalfDayHours float64
}

// MarkResult is what MarkAttendance hands back. Synced reports whether the
// remote gateway accepted the change; a false value with Applied set means the
// change lives only in the local store until the next sync.
type MarkResult struct {
	Record  *AttendanceRecord
	Applied bool
	Noop    NoopReason
	Synced  bool
}

// RemoteRecord is the attendance shape exchanged with the persistence gateway.
type RemoteRecord struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	Date         string   `json:"date"`
	CheckIn      *string  `json:"check_in"`
	CheckOut     *string  `json:"check_out"`
	Status       string   `json:"status"`
	WorkingHours *float64 `json:"total_hours,omitempty"`
}

// RemoteMark is the body posted to the gateway's mark endpoint.
type RemoteMark struct {
	EmployeeID string    `json:"employee_id"`
	Type       EventType `json:"type"`
	Timestamp  string    `json:"timestamp"`
}

// DayCount is one status bucket for a date.
type DayCount struct {
	Present int64
	Late    int64
	HalfDay int64
}
