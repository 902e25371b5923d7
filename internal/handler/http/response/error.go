package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/domain/auth"
	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrAccountInactive):
		Forbidden(w, "Account is not active")
	case errors.Is(err, auth.ErrForbidden):
		Forbidden(w, "Insufficient role for this action")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeCodeExists):
		Conflict(w, "Employee code already exists")
	case errors.Is(err, employee.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, employee.ErrCannotDeleteSelf):
		Forbidden(w, "Cannot delete your own employee record")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrUnknownEmployee):
		NotFound(w, "Employee not found")
	case errors.Is(err, attendance.ErrFingerprintNotMatched):
		NotFound(w, "Fingerprint not matched")
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrInvalidEventType):
		BadRequest(w, "Type must be check-in or check-out", nil)
	case errors.Is(err, attendance.ErrGatewayDisabled):
		BadGateway(w, "Remote attendance gateway is not configured")
	case errors.Is(err, attendance.ErrRemoteUnavailable):
		BadGateway(w, "Remote attendance gateway unavailable")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
