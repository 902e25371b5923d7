package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/google/uuid"
)

type storedRecord struct {
	seq    int64
	record attendance.AttendanceRecord
}

type attendanceRepository struct {
	mu    sync.RWMutex
	seq   int64
	byID  map[string]*storedRecord
	byDay map[string]string
}

// NewAttendanceRepository returns an in-process store with the same
// one-record-per-day guarantee as the postgres unique index.
func NewAttendanceRepository() attendance.AttendanceRepository {
	return &attendanceRepository{
		byID:  make(map[string]*storedRecord),
		byDay: make(map[string]string),
	}
}

func dayKey(employeeID, date string) string {
	return employeeID + "|" + date
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dayKey(rec.EmployeeID, rec.Date)
	if _, exists := r.byDay[key]; exists {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceExists
	}

	now := time.Now()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	r.seq++
	r.byID[rec.ID] = &storedRecord{seq: r.seq, record: rec.Clone()}
	r.byDay[key] = rec.ID

	return rec, nil
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceRepository) Update(ctx context.Context, rec attendance.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[rec.ID]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}

	next := rec.Clone()
	// Times already on the row are never replaced
	if stored.record.CheckIn != nil {
		next.CheckIn = stored.record.CheckIn
	}
	if stored.record.CheckOut != nil {
		next.CheckOut = stored.record.CheckOut
	}
	next.EmployeeID = stored.record.EmployeeID
	next.Date = stored.record.Date
	next.CreatedAt = stored.record.CreatedAt
	next.UpdatedAt = time.Now()
	if next.EmployeeName == "" {
		next.EmployeeName = stored.record.EmployeeName
	}

	stored.record = next
	return nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date string) (*attendance.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byDay[dayKey(employeeID, date)]
	if !ok {
		return nil, nil
	}
	rec := r.byID[id].record.Clone()
	return &rec, nil
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceRecord, error) {
	return r.collect(func(rec attendance.AttendanceRecord) bool {
		if filter.EmployeeID != nil && *filter.EmployeeID != "" && rec.EmployeeID != *filter.EmployeeID {
			return false
		}
		// Dates are YYYY-MM-DD so string order is calendar order
		if filter.DateFrom != nil && *filter.DateFrom != "" && rec.Date < *filter.DateFrom {
			return false
		}
		if filter.DateTo != nil && *filter.DateTo != "" && rec.Date > *filter.DateTo {
			return false
		}
		return true
	}, func(a, b *storedRecord) bool {
		if a.record.Date != b.record.Date {
			return a.record.Date > b.record.Date
		}
		return a.record.EmployeeName < b.record.EmployeeName
	}, 0, 0), nil
}

// ListByDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByDate(ctx context.Context, date string) ([]attendance.AttendanceRecord, error) {
	return r.List(ctx, attendance.AttendanceFilter{DateFrom: &date, DateTo: &date})
}

// CountByStatus implements attendance.AttendanceRepository.
func (r *attendanceRepository) CountByStatus(ctx context.Context, date string) (attendance.DayCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count attendance.DayCount
	for _, s := range r.byID {
		if s.record.Date != date {
			continue
		}
		switch s.record.Status {
		case attendance.StatusPresent:
			count.Present++
		case attendance.StatusLate:
			count.Late++
		case attendance.StatusHalfDay:
			count.HalfDay++
		}
	}
	return count, nil
}

// ListUnsynced implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListUnsynced(ctx context.Context, offset, limit int) ([]attendance.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.collect(func(rec attendance.AttendanceRecord) bool {
		return !rec.Synced
	}, func(a, b *storedRecord) bool {
		return a.seq < b.seq
	}, offset, limit), nil
}

// MarkSynced implements attendance.AttendanceRepository.
func (r *attendanceRepository) MarkSynced(ctx context.Context, id string, remoteID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	stored.record.Synced = true
	if remoteID != nil {
		v := *remoteID
		stored.record.RemoteID = &v
	}
	stored.record.UpdatedAt = time.Now()
	return nil
}

// DeleteByEmployee implements attendance.AttendanceRepository.
func (r *attendanceRepository) DeleteByEmployee(ctx context.Context, employeeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.byID {
		if s.record.EmployeeID == employeeID {
			delete(r.byDay, dayKey(s.record.EmployeeID, s.record.Date))
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *attendanceRepository) collect(keep func(attendance.AttendanceRecord) bool, less func(a, b *storedRecord) bool, offset, limit int) []attendance.AttendanceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*storedRecord, 0, len(r.byID))
	for _, s := range r.byID {
		if keep(s.record) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })

	if offset > 0 {
		if offset >= len(matched) {
			return []attendance.AttendanceRecord{}
		}
		matched = matched[offset:]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]attendance.AttendanceRecord, 0, len(matched))
	for _, s := range matched {
		out = append(out, s.record.Clone())
	}
	return out
}
