package attendance

import (
	"context"
)

// AttendanceRepository is the local store. It holds at most one record per
// (employee, date); Create returns ErrAttendanceExists when that key is taken.
type AttendanceRepository interface {
	// Create inserts a new record and returns it with ID and timestamps set
	Create(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// Update overwrites check-out, derived fields and sync state of an existing record
	Update(ctx context.Context, record AttendanceRecord) error

	// GetByEmployeeAndDate returns nil, nil when no record exists for the day
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date string) (*AttendanceRecord, error)

	List(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error)
	ListByDate(ctx context.Context, date string) ([]AttendanceRecord, error)
	CountByStatus(ctx context.Context, date string) (DayCount, error)

	// ListUnsynced returns records not yet accepted by the remote gateway,
	// oldest first, skipping the first offset of them
	ListUnsynced(ctx context.Context, offset, limit int) ([]AttendanceRecord, error)
	MarkSynced(ctx context.Context, id string, remoteID *string) error

	DeleteByEmployee(ctx context.Context, employeeID string) error
}

// PersistenceGateway is the remote attendance API. Any error it returns is
// treated by the engine as the remote being unavailable.
type PersistenceGateway interface {
	MarkAttendance(ctx context.Context, mark RemoteMark) (RemoteRecord, error)
	ListAttendance(ctx context.Context, employeeID string, dateFrom string, dateTo string) ([]RemoteRecord, error)
}
