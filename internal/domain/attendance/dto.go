package attendance

import (
	"github.com/afraexpress/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type MarkAttendanceRequest struct {
	EmployeeID string    `json:"employee_id"`
	Type       EventType `json:"type"`
	// Timestamp is optional; the server clock is used when it is absent
	Timestamp *string `json:"timestamp,omitempty"`
}

func (r *MarkAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if !r.Type.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be check-in or check-out",
		})
	}

	if r.Timestamp != nil && !validator.IsEmpty(*r.Timestamp) {
		if !validator.IsValidTimestamp(*r.Timestamp) {
			errs = append(errs, validator.ValidationError{
				Field:   "timestamp",
				Message: "timestamp must be ISO8601 or a time of day, e.g. 2024-06-01T09:15, 2024-06-01T09:15:00Z or 09:15",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ScanRequest struct {
	Template  string    `json:"template"`
	Type      EventType `json:"type"`
	Timestamp *string   `json:"timestamp,omitempty"`
}

func (r *ScanRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Template) {
		errs = append(errs, validator.ValidationError{
			Field:   "template",
			Message: "fingerprint template is required",
		})
	}

	if r.Type == "" {
		r.Type = EventCheckIn
	}
	if !r.Type.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be check-in or check-out",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AttendanceFilter struct {
	EmployeeID *string
	DateFrom   *string
	DateTo     *string
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = appendDateRangeErrors(errs, f.DateFrom, f.DateTo)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReportFilter struct {
	DateFrom string
	DateTo   string
}

func (f *ReportFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.DateFrom) {
		errs = append(errs, validator.ValidationError{Field: "date_from", Message: "date_from is required"})
	}
	if validator.IsEmpty(f.DateTo) {
		errs = append(errs, validator.ValidationError{Field: "date_to", Message: "date_to is required"})
	}
	if len(errs) == 0 {
		errs = appendDateRangeErrors(errs, &f.DateFrom, &f.DateTo)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReconcileRequest struct {
	EmployeeID string `json:"employee_id"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
}

func (r *ReconcileRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.DateFrom) {
		errs = append(errs, validator.ValidationError{Field: "date_from", Message: "date_from is required"})
	}
	if validator.IsEmpty(r.DateTo) {
		errs = append(errs, validator.ValidationError{Field: "date_to", Message: "date_to is required"})
	}
	if len(errs) == 0 {
		errs = appendDateRangeErrors(errs, &r.DateFrom, &r.DateTo)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func appendDateRangeErrors(errs validator.ValidationErrors, from, to *string) validator.ValidationErrors {
	var fromDate, toDate validator.Date
	var fromOK, toOK bool

	if from != nil && *from != "" {
		d, err := validator.ParseDate(*from)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "date_from", Message: "date_from must be YYYY-MM-DD"})
		} else {
			fromDate, fromOK = d, true
		}
	}
	if to != nil && *to != "" {
		d, err := validator.ParseDate(*to)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "date_to", Message: "date_to must be YYYY-MM-DD"})
		} else {
			toDate, toOK = d, true
		}
	}
	if fromOK && toOK && toDate.Before(fromDate) {
		errs = append(errs, validator.ValidationError{Field: "date_to", Message: "date_to must not be before date_from"})
	}
	return errs
}

type AttendanceResponse struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	Date         string   `json:"date"`
	CheckIn      *string  `json:"check_in"`
	CheckOut     *string  `json:"check_out"`
	Status       Status   `json:"status"`
	WorkingHours *float64 `json:"working_hours,omitempty"`
	Synced       bool     `json:"synced"`
}

func NewAttendanceResponse(r AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Date:         r.Date,
		CheckIn:      r.CheckIn,
		CheckOut:     r.CheckOut,
		Status:       r.Status,
		WorkingHours: r.WorkingHours,
		Synced:       r.Synced,
	}
}

type MarkAttendanceResponse struct {
	Applied bool                `json:"applied"`
	Noop    NoopReason          `json:"noop,omitempty"`
	Synced  bool                `json:"synced"`
	Record  *AttendanceResponse `json:"record"`
}

func NewMarkAttendanceResponse(res MarkResult) MarkAttendanceResponse {
	out := MarkAttendanceResponse{
		Applied: res.Applied,
		Noop:    res.Noop,
		Synced:  res.Synced,
	}
	if res.Record != nil {
		rec := NewAttendanceResponse(*res.Record)
		out.Record = &rec
	}
	return out
}

type StatusResponse struct {
	EmployeeID string              `json:"employee_id"`
	Date       string              `json:"date"`
	Status     Status              `json:"status"`
	Record     *AttendanceResponse `json:"record"`
}

// DailySummaryResponse mirrors the dashboard counters. AbsentCount is the
// complement of PresentCount, so late and half-day employees fall into it.
type DailySummaryResponse struct {
	Date           string  `json:"date"`
	TotalEmployees int64   `json:"total_employees"`
	PresentCount   int64   `json:"present_count"`
	AbsentCount    int64   `json:"absent_count"`
	LateCount      int64   `json:"late_count"`
	HalfDayCount   int64   `json:"half_day_count"`
	AttendanceRate float64 `json:"attendance_rate"`
}

type WeeklySummaryResponse struct {
	StartDate             string                 `json:"start_date"`
	EndDate               string                 `json:"end_date"`
	Days                  []DailySummaryResponse `json:"days"`
	TotalPresent          int64                  `json:"total_present"`
	TotalLate             int64                  `json:"total_late"`
	TotalAbsent           int64                  `json:"total_absent"`
	AverageAttendanceRate float64                `json:"average_attendance_rate"`

	// OnTimeRate is present check-ins over present plus late check-ins
	OnTimeRate float64 `json:"on_time_rate"`
}

type EmployeeReportRow struct {
	EmployeeID        string  `json:"employee_id"`
	EmployeeName      string  `json:"employee_name"`
	Department        string  `json:"department"`
	Present           int     `json:"present"`
	Late              int     `json:"late"`
	HalfDay           int     `json:"half_day"`
	Total             int     `json:"total"`
	TotalWorkingHours float64 `json:"total_working_hours"`
	AvgWorkingHours   float64 `json:"avg_working_hours"`
	AttendanceRate    float64 `json:"attendance_rate"`
}

type ReconcileResponse struct {
	Fetched   int `json:"fetched"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
