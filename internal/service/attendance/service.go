package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/clock"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/keylock"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/sse"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/validator"
)

// TopicAttendance is the live feed topic every applied mark is published on.
const TopicAttendance = "attendance"

// EventPublisher receives a live event for every applied mark. *sse.Hub satisfies it.
type EventPublisher interface {
	Publish(topic string, event sse.Event)
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	directory employee.EmployeeDirectory
	gateway   attendance.PersistenceGateway
	clock     clock.Clock
	loc       *time.Location
	policy    attendance.StatusPolicy
	publisher EventPublisher
	locks     *keylock.KeyLock
	syncBatch int
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	directory employee.EmployeeDirectory,
	gateway attendance.PersistenceGateway,
	clk clock.Clock,
	loc *time.Location,
	policy attendance.StatusPolicy,
	publisher EventPublisher,
) attendance.AttendanceService {
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		directory:            directory,
		gateway:              gateway,
		clock:                clk,
		loc:                  loc,
		policy:               policy,
		publisher:            publisher,
		locks:                keylock.New(),
		syncBatch:            syncBatchSize,
	}
}

func lockKey(employeeID, date string) string {
	return employeeID + "|" + date
}

func (s *AttendanceServiceImpl) today() string {
	return s.clock.Now().In(s.loc).Format(attendance.DateLayout)
}

// resolveEmployee maps a directory miss onto ErrUnknownEmployee.
func (s *AttendanceServiceImpl) resolveEmployee(ctx context.Context, id string) (employee.Employee, error) {
	emp, err := s.directory.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, attendance.ErrUnknownEmployee
		}
		return employee.Employee{}, fmt.Errorf("failed to resolve employee %s: %w", id, err)
	}
	return emp, nil
}

// MarkAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAttendance(ctx context.Context, req attendance.MarkAttendanceRequest) (attendance.MarkResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.MarkResult{}, err
	}

	emp, err := s.resolveEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.MarkResult{}, err
	}

	at := s.clock.Now().In(s.loc)
	if req.Timestamp != nil && *req.Timestamp != "" {
		// A bare time of day falls on today's date
		parsed, ok := validator.ParseTimestamp(*req.Timestamp, at)
		if !ok {
			return attendance.MarkResult{}, validator.ValidationErrors{{Field: "timestamp", Message: "timestamp is invalid"}}
		}
		at = parsed.In(s.loc)
	}

	return s.mark(ctx, emp, req.Type, at)
}

// MarkByFingerprint implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkByFingerprint(ctx context.Context, req attendance.ScanRequest) (attendance.MarkResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.MarkResult{}, err
	}

	emp, err := s.directory.FindByFingerprint(ctx, req.Template)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return attendance.MarkResult{}, attendance.ErrFingerprintNotMatched
		}
		return attendance.MarkResult{}, fmt.Errorf("failed to match fingerprint: %w", err)
	}

	return s.MarkAttendance(ctx, attendance.MarkAttendanceRequest{
		EmployeeID: emp.ID,
		Type:       req.Type,
		Timestamp:  req.Timestamp,
	})
}

func (s *AttendanceServiceImpl) mark(ctx context.Context, emp employee.Employee, event attendance.EventType, at time.Time) (attendance.MarkResult, error) {
	date := at.Format(attendance.DateLayout)
	clockTime := at.Format(attendance.ClockLayout)

	unlock := s.locks.Lock(lockKey(emp.ID, date))
	defer unlock()

	// A create conflict means another writer took the day key first; the
	// second pass sees its record and resolves to a no-op or a check-out.
	for attempt := 0; ; attempt++ {
		res, err := s.apply(ctx, emp, event, date, clockTime)
		if errors.Is(err, attendance.ErrAttendanceExists) && attempt == 0 {
			slog.Info("Attendance created concurrently, re-applying", "employee_id", emp.ID, "date", date)
			continue
		}
		return res, err
	}
}

func (s *AttendanceServiceImpl) apply(ctx context.Context, emp employee.Employee, event attendance.EventType, date, clockTime string) (attendance.MarkResult, error) {
	existing, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.MarkResult{}, fmt.Errorf("failed to load attendance: %w", err)
	}

	switch {
	case existing == nil && event == attendance.EventCheckOut:
		slog.Info("Ignoring check-out without check-in", "employee_id", emp.ID, "date", date)
		return attendance.MarkResult{Noop: attendance.NoopOrphanCheckout}, nil
	case existing != nil && event == attendance.EventCheckIn:
		return attendance.MarkResult{Record: existing, Noop: attendance.NoopDuplicateCheckIn, Synced: existing.Synced}, nil
	case existing != nil && existing.CheckOut != nil:
		return attendance.MarkResult{Record: existing, Noop: attendance.NoopDuplicateCheckOut, Synced: existing.Synced}, nil
	}

	var (
		rec    attendance.AttendanceRecord
		events []attendance.EventType
	)

	if existing == nil {
		rec = attendance.AttendanceRecord{
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			Date:         date,
			CheckIn:      &clockTime,
		}
		rec.Status = ComputeStatus(rec, s.policy)

		rec, err = s.AttendanceRepository.Create(ctx, rec)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceExists) {
				return attendance.MarkResult{}, err
			}
			return attendance.MarkResult{}, fmt.Errorf("failed to store check-in: %w", err)
		}
		events = []attendance.EventType{attendance.EventCheckIn}
	} else {
		rec = existing.Clone()
		if err := s.completeDay(&rec, clockTime); err != nil {
			return attendance.MarkResult{}, err
		}

		// The gateway never saw the check-in, so replay it before the check-out
		if !rec.Synced {
			events = append(events, attendance.EventCheckIn)
		}
		events = append(events, attendance.EventCheckOut)

		rec.Synced = false
		if err := s.AttendanceRepository.Update(ctx, rec); err != nil {
			return attendance.MarkResult{}, fmt.Errorf("failed to store check-out: %w", err)
		}
	}

	rec.Synced = s.push(ctx, &rec, events)

	s.publish(rec, event)

	return attendance.MarkResult{Record: &rec, Applied: true, Synced: rec.Synced}, nil
}

// completeDay sets the check-out and the derived fields that depend on it.
func (s *AttendanceServiceImpl) completeDay(rec *attendance.AttendanceRecord, checkOut string) error {
	rec.CheckOut = &checkOut

	hours, err := ComputeWorkingHours(*rec.CheckIn, checkOut)
	if err != nil {
		return fmt.Errorf("failed to compute working hours: %w", err)
	}
	if hours < 0 {
		slog.Warn("Check-out is earlier than check-in, storing negative working hours",
			"employee_id", rec.EmployeeID, "date", rec.Date, "check_in", *rec.CheckIn, "check_out", checkOut)
	}
	rec.WorkingHours = &hours
	rec.Status = ComputeStatus(*rec, s.policy)
	return nil
}

// push replays events for rec to the gateway and marks the record synced when
// every event was accepted. It reports whether the record is now synced.
func (s *AttendanceServiceImpl) push(ctx context.Context, rec *attendance.AttendanceRecord, events []attendance.EventType) bool {
	var remoteID string

	for _, event := range events {
		clockTime := rec.CheckIn
		if event == attendance.EventCheckOut {
			clockTime = rec.CheckOut
		}
		if clockTime == nil {
			continue
		}

		ts, err := eventTimestamp(rec.Date, *clockTime, s.loc)
		if err != nil {
			slog.Warn("Cannot build event timestamp", "record_id", rec.ID, "error", err)
			return false
		}

		remote, err := s.gateway.MarkAttendance(ctx, attendance.RemoteMark{
			EmployeeID: rec.EmployeeID,
			Type:       event,
			Timestamp:  ts,
		})
		if err != nil {
			if errors.Is(err, attendance.ErrGatewayDisabled) {
				slog.Debug("Remote gateway disabled, keeping attendance local", "record_id", rec.ID)
			} else {
				slog.Warn("Remote attendance gateway failed, keeping attendance local",
					"employee_id", rec.EmployeeID, "date", rec.Date, "type", event, "error", err)
			}
			return false
		}
		if remote.ID != "" {
			remoteID = remote.ID
		}
	}

	var remoteIDPtr *string
	if remoteID != "" {
		remoteIDPtr = &remoteID
		rec.RemoteID = remoteIDPtr
	}

	if err := s.AttendanceRepository.MarkSynced(ctx, rec.ID, remoteIDPtr); err != nil {
		slog.Error("Failed to flag attendance as synced", "record_id", rec.ID, "error", err)
		return false
	}
	return true
}

func (s *AttendanceServiceImpl) publish(rec attendance.AttendanceRecord, event attendance.EventType) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(TopicAttendance, sse.Event{
		Event: "attendance." + string(event),
		Data:  attendance.NewAttendanceResponse(rec),
	})
}

// GetStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetStatus(ctx context.Context, employeeID string, date string) (attendance.StatusResponse, error) {
	if date == "" {
		date = s.today()
	} else if _, ok := validator.IsValidDate(date); !ok {
		return attendance.StatusResponse{}, validator.ValidationErrors{{Field: "date", Message: "date must be YYYY-MM-DD"}}
	}

	emp, err := s.resolveEmployee(ctx, employeeID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	rec, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.StatusResponse{}, fmt.Errorf("failed to get attendance status: %w", err)
	}

	resp := attendance.StatusResponse{
		EmployeeID: emp.ID,
		Date:       date,
		Status:     attendance.StatusAbsent,
	}
	if rec != nil {
		r := attendance.NewAttendanceResponse(*rec)
		resp.Status = rec.Status
		resp.Record = &r
	}
	return resp, nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		emp, err := s.resolveEmployee(ctx, *filter.EmployeeID)
		if err != nil {
			return nil, err
		}
		filter.EmployeeID = &emp.ID
	}

	records, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, attendance.NewAttendanceResponse(rec))
	}
	return resp, nil
}
