package attendance

import "errors"

// Attendance domain errors
var (
	ErrUnknownEmployee       = errors.New("employee not found")
	ErrFingerprintNotMatched = errors.New("fingerprint not matched")
	ErrInvalidEventType      = errors.New("type must be check-in or check-out")
	ErrInvalidClock          = errors.New("time of day must be HH:MM")

	// ErrRemoteUnavailable is recovered inside the engine; callers see it only through MarkResult.Synced.
	ErrRemoteUnavailable = errors.New("remote attendance gateway unavailable")
	ErrGatewayDisabled   = errors.New("remote attendance gateway is not configured")

	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAttendanceExists   = errors.New("attendance record already exists for this employee and date")
)
