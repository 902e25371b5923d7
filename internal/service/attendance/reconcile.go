package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/validator"
)

const syncBatchSize = 100

// Reconcile implements attendance.AttendanceService.
// Remote days missing locally are inserted as synced. For days present on both
// sides a locally set time is kept and only missing fields are taken from the
// remote record; status and working hours are then derived again.
func (s *AttendanceServiceImpl) Reconcile(ctx context.Context, req attendance.ReconcileRequest) (attendance.ReconcileResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ReconcileResponse{}, err
	}

	emp, err := s.resolveEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.ReconcileResponse{}, err
	}

	remote, err := s.gateway.ListAttendance(ctx, emp.ID, req.DateFrom, req.DateTo)
	if err != nil {
		return attendance.ReconcileResponse{}, fmt.Errorf("failed to fetch remote attendance: %w", err)
	}

	result := attendance.ReconcileResponse{Fetched: len(remote)}
	for _, rr := range remote {
		if _, ok := validator.IsValidDate(rr.Date); !ok || rr.CheckIn == nil || !validator.IsValidClock(*rr.CheckIn) {
			slog.Warn("Skipping remote attendance without a usable date or check-in",
				"employee_id", emp.ID, "remote_id", rr.ID, "date", rr.Date)
			result.Skipped++
			continue
		}
		if rr.CheckOut != nil && !validator.IsValidClock(*rr.CheckOut) {
			rr.CheckOut = nil
		}

		outcome, err := s.mergeRemote(ctx, emp.ID, emp.Name, rr)
		if err != nil {
			return result, err
		}
		switch outcome {
		case mergeInserted:
			result.Inserted++
		case mergeUpdated:
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	slog.Info("Reconciled attendance", "employee_id", emp.ID,
		"fetched", result.Fetched, "inserted", result.Inserted, "updated", result.Updated, "skipped", result.Skipped)

	return result, nil
}

type mergeOutcome int

const (
	mergeUnchanged mergeOutcome = iota
	mergeInserted
	mergeUpdated
)

func (s *AttendanceServiceImpl) mergeRemote(ctx context.Context, employeeID, employeeName string, rr attendance.RemoteRecord) (mergeOutcome, error) {
	unlock := s.locks.Lock(lockKey(employeeID, rr.Date))
	defer unlock()

	var remoteID *string
	if rr.ID != "" {
		id := rr.ID
		remoteID = &id
	}

	local, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, rr.Date)
	if err != nil {
		return mergeUnchanged, fmt.Errorf("failed to load attendance: %w", err)
	}

	if local == nil {
		rec := attendance.AttendanceRecord{
			EmployeeID:   employeeID,
			EmployeeName: employeeName,
			Date:         rr.Date,
			CheckIn:      rr.CheckIn,
			Synced:       true,
			RemoteID:     remoteID,
		}
		rec.Status = ComputeStatus(rec, s.policy)
		if rr.CheckOut != nil {
			if err := s.completeDay(&rec, *rr.CheckOut); err != nil {
				return mergeUnchanged, err
			}
		}

		if _, err := s.AttendanceRepository.Create(ctx, rec); err != nil {
			if errors.Is(err, attendance.ErrAttendanceExists) {
				// Created elsewhere since the read; the next reconcile merges it
				return mergeUnchanged, nil
			}
			return mergeUnchanged, fmt.Errorf("failed to insert remote attendance: %w", err)
		}
		return mergeInserted, nil
	}

	merged := local.Clone()
	changed := false

	if merged.CheckOut == nil && rr.CheckOut != nil {
		if err := s.completeDay(&merged, *rr.CheckOut); err != nil {
			return mergeUnchanged, err
		}
		changed = true
	}
	if merged.RemoteID == nil && remoteID != nil {
		merged.RemoteID = remoteID
		changed = true
	}
	if status := ComputeStatus(merged, s.policy); status != merged.Status {
		merged.Status = status
		changed = true
	}

	if !changed {
		return mergeUnchanged, nil
	}
	if err := s.AttendanceRepository.Update(ctx, merged); err != nil {
		return mergeUnchanged, fmt.Errorf("failed to merge remote attendance: %w", err)
	}
	return mergeUpdated, nil
}

type syncOutcome int

const (
	syncSkipped syncOutcome = iota
	syncPushed
	syncFailed
)

// SyncPending implements attendance.AttendanceService.
// It pages through every unsynced record. Records that fail stay unsynced and
// are stepped over with the offset, so rejected rows cannot starve newer ones.
func (s *AttendanceServiceImpl) SyncPending(ctx context.Context) (int, error) {
	synced, failed, seen := 0, 0, 0

	for {
		page, err := s.AttendanceRepository.ListUnsynced(ctx, failed, s.syncBatch)
		if err != nil {
			return synced, fmt.Errorf("failed to list unsynced attendance: %w", err)
		}

		for _, p := range page {
			if err := ctx.Err(); err != nil {
				return synced, err
			}

			outcome, err := s.syncOne(ctx, p.EmployeeID, p.Date)
			if err != nil {
				return synced, err
			}
			switch outcome {
			case syncPushed:
				synced++
			case syncFailed:
				failed++
			}
		}
		seen += len(page)

		if len(page) < s.syncBatch {
			break
		}
	}

	if seen > 0 {
		slog.Info("Synced local attendance", "pending", seen, "synced", synced, "failed", failed)
	}
	return synced, nil
}

func (s *AttendanceServiceImpl) syncOne(ctx context.Context, employeeID, date string) (syncOutcome, error) {
	unlock := s.locks.Lock(lockKey(employeeID, date))
	defer unlock()

	// Re-read under the lock; a mark may have synced it meanwhile
	rec, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return syncSkipped, fmt.Errorf("failed to load attendance: %w", err)
	}
	if rec == nil || rec.Synced {
		return syncSkipped, nil
	}

	events := []attendance.EventType{attendance.EventCheckIn}
	if rec.CheckOut != nil {
		events = append(events, attendance.EventCheckOut)
	}
	if !s.push(ctx, rec, events) {
		return syncFailed, nil
	}
	return syncPushed, nil
}
