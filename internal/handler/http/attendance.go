package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/domain/auth"
	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/handler/http/middleware"
	"github.com/afraexpress/attendance-backend-go/internal/handler/http/response"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/jwt"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/sse"
	attendanceService "github.com/afraexpress/attendance-backend-go/internal/service/attendance"
)

type AttendanceHandler interface {
	Mark(w http.ResponseWriter, r *http.Request)
	Scan(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	DailySummary(w http.ResponseWriter, r *http.Request)
	WeeklySummary(w http.ResponseWriter, r *http.Request)
	EmployeeReport(w http.ResponseWriter, r *http.Request)
	Reconcile(w http.ResponseWriter, r *http.Request)
	StreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

// EventSubscriber is the subscribe side of the live event hub
type EventSubscriber interface {
	Subscribe(topic string, filter sse.Filter) (<-chan sse.Event, func())
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	employeeService   employee.EmployeeService
	jwtService        jwt.Service
	events            EventSubscriber
	keepalive         time.Duration
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, employeeService employee.EmployeeService, jwtService jwt.Service, events EventSubscriber) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		employeeService:   employeeService,
		jwtService:        jwtService,
		events:            events,
		keepalive:         30 * time.Second,
	}
}

// ensureSelf fills in or checks the employee for callers with the employee role.
// Managers and admins may act on anyone.
func (h *attendanceHandlerImpl) ensureSelf(r *http.Request, employeeID *string) error {
	if middleware.RoleFromContext(r.Context()) != employee.RoleEmployee {
		return nil
	}

	self := middleware.EmployeeIDFromContext(r.Context())
	if *employeeID == "" || *employeeID == self {
		*employeeID = self
		return nil
	}

	target, err := h.employeeService.GetEmployee(r.Context(), *employeeID)
	if err != nil {
		return err
	}
	if target.ID != self {
		return fmt.Errorf("employees may only access their own attendance: %w", auth.ErrForbidden)
	}
	return nil
}

// Mark implements AttendanceHandler.
func (h *attendanceHandlerImpl) Mark(w http.ResponseWriter, r *http.Request) {
	var req attendance.MarkAttendanceRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Mark attendance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := h.ensureSelf(r, &req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.MarkAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	respondMark(w, result)
}

// Scan implements AttendanceHandler.
func (h *attendanceHandlerImpl) Scan(w http.ResponseWriter, r *http.Request) {
	var req attendance.ScanRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Scan attendance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.MarkByFingerprint(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	respondMark(w, result)
}

func respondMark(w http.ResponseWriter, result attendance.MarkResult) {
	body := attendance.NewMarkAttendanceResponse(result)
	switch {
	case !result.Applied:
		response.SuccessWithMessage(w, "Attendance unchanged", body)
	case !result.Synced:
		response.SuccessWithMessage(w, "Attendance saved locally", body)
	default:
		response.SuccessWithMessage(w, "Attendance marked", body)
	}
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := attendance.AttendanceFilter{}

	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if middleware.RoleFromContext(ctx) == employee.RoleEmployee {
		self := middleware.EmployeeIDFromContext(ctx)
		filter.EmployeeID = &self
	}

	if dateFrom := r.URL.Query().Get("date_from"); dateFrom != "" {
		filter.DateFrom = &dateFrom
	}
	if dateTo := r.URL.Query().Get("date_to"); dateTo != "" {
		filter.DateTo = &dateTo
	}

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.attendanceService.ListAttendance(ctx, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Status implements AttendanceHandler.
func (h *attendanceHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee_id")
	if err := h.ensureSelf(r, &employeeID); err != nil {
		response.HandleError(w, err)
		return
	}
	if employeeID == "" {
		employeeID = middleware.EmployeeIDFromContext(r.Context())
	}

	result, err := h.attendanceService.GetStatus(r.Context(), employeeID, r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DailySummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) DailySummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.DailySummary(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// WeeklySummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.WeeklySummary(r.Context(), r.URL.Query().Get("end_date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// EmployeeReport implements AttendanceHandler.
func (h *attendanceHandlerImpl) EmployeeReport(w http.ResponseWriter, r *http.Request) {
	filter := attendance.ReportFilter{
		DateFrom: r.URL.Query().Get("date_from"),
		DateTo:   r.URL.Query().Get("date_to"),
	}

	rows, err := h.attendanceService.EmployeeReport(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, rows)
}

// Reconcile implements AttendanceHandler.
func (h *attendanceHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req attendance.ReconcileRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Reconcile decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.Reconcile(r.Context(), req)
	if err != nil {
		slog.Error("Reconcile failed", "employee_id", req.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance reconciled", result)
}

// StreamToken issues a short-lived token for the live attendance stream
func (h *attendanceHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.EmployeeIDFromContext(r.Context())
	if employeeID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(employeeID, middleware.RoleFromContext(r.Context()))
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, attendance.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream handles the SSE connection for live attendance marks
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot set headers, so the token travels in the query
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cancel := h.events.Subscribe(attendanceService.TopicAttendance, streamFilter(claims))
	defer cancel()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"employee_id\":%q}\n\n", claims.EmployeeID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Warn("Dropping unencodable attendance event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.ID, event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// streamFilter limits employees to their own marks; managers and admins see the whole feed
func streamFilter(claims jwt.StreamClaims) sse.Filter {
	if claims.Role != employee.RoleEmployee {
		return nil
	}
	return func(ev sse.Event) bool {
		rec, ok := ev.Data.(attendance.AttendanceResponse)
		return ok && rec.EmployeeID == claims.EmployeeID
	}
}
