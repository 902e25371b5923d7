package attendance

import (
	"context"
)

// AttendanceService turns check-in/check-out events into day records and derived metrics
type AttendanceService interface {
	// MarkAttendance applies a check-in or check-out event. It fails only for unknown employees.
	MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (MarkResult, error)

	// MarkByFingerprint identifies the employee by fingerprint template, then marks attendance
	MarkByFingerprint(ctx context.Context, req ScanRequest) (MarkResult, error)

	// GetStatus returns the stored record for the day, or absent when there is none
	GetStatus(ctx context.Context, employeeID string, date string) (StatusResponse, error)

	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceResponse, error)

	DailySummary(ctx context.Context, date string) (DailySummaryResponse, error)
	WeeklySummary(ctx context.Context, endDate string) (WeeklySummaryResponse, error)
	EmployeeReport(ctx context.Context, filter ReportFilter) ([]EmployeeReportRow, error)

	// Reconcile merges remote records for an employee into the local store
	Reconcile(ctx context.Context, req ReconcileRequest) (ReconcileResponse, error)

	// SyncPending pushes local-only records to the gateway and returns how many were synced
	SyncPending(ctx context.Context) (int, error)
}
