package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const attendanceColumns = `
	a.id, a.employee_id::text, COALESCE(e.name, ''), to_char(a.date, 'YYYY-MM-DD'),
	a.check_in, a.check_out, a.status, a.working_hours,
	a.synced, a.remote_id, a.created_at, a.updated_at
`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.AttendanceRecord, error) {
	var rec attendance.AttendanceRecord
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.Date,
		&rec.CheckIn, &rec.CheckOut, &rec.Status, &rec.WorkingHours,
		&rec.Synced, &rec.RemoteID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func collectAttendance(rows pgx.Rows) ([]attendance.AttendanceRecord, error) {
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance rows: %w", err)
	}
	return records, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			employee_id, date, check_in, check_out, status, working_hours, synced, remote_id
		) VALUES (
			$1, $2::date, $3, $4, $5, $6, $7, $8
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.EmployeeID,
		rec.Date,
		rec.CheckIn,
		rec.CheckOut,
		rec.Status,
		rec.WorkingHours,
		rec.Synced,
		rec.RemoteID,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceExists
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return rec, nil
}

// Update implements attendance.AttendanceRepository.
// check_in is only written when the row has none, so a stored check-in survives any update.
func (a *attendanceRepository) Update(ctx context.Context, rec attendance.AttendanceRecord) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET check_in = COALESCE(check_in, $1),
			check_out = COALESCE(check_out, $2),
			status = $3,
			working_hours = $4,
			synced = $5,
			remote_id = $6,
			updated_at = NOW()
		WHERE id = $7
	`

	tag, err := q.Exec(ctx, query,
		rec.CheckIn,
		rec.CheckOut,
		rec.Status,
		rec.WorkingHours,
		rec.Synced,
		rec.RemoteID,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date string) (*attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id::text = $1
		  AND a.date = $2::date
		LIMIT 1
	`

	rec, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No record for the day
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &rec, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	where := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND a.employee_id::text = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.DateFrom != nil && *filter.DateFrom != "" {
		where += fmt.Sprintf(" AND a.date >= $%d::date", argIdx)
		args = append(args, *filter.DateFrom)
		argIdx++
	}
	if filter.DateTo != nil && *filter.DateTo != "" {
		where += fmt.Sprintf(" AND a.date <= $%d::date", argIdx)
		args = append(args, *filter.DateTo)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY a.date DESC, e.name ASC
	`, attendanceColumns, where)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	return collectAttendance(rows)
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, date string) ([]attendance.AttendanceRecord, error) {
	return a.List(ctx, attendance.AttendanceFilter{DateFrom: &date, DateTo: &date})
}

// CountByStatus implements attendance.AttendanceRepository.
func (a *attendanceRepository) CountByStatus(ctx context.Context, date string) (attendance.DayCount, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE status = $4)
		FROM attendance_records
		WHERE date = $1::date
	`

	var count attendance.DayCount
	err := q.QueryRow(ctx, query, date,
		attendance.StatusPresent, attendance.StatusLate, attendance.StatusHalfDay,
	).Scan(&count.Present, &count.Late, &count.HalfDay)
	if err != nil {
		return attendance.DayCount{}, fmt.Errorf("failed to count attendance for %s: %w", date, err)
	}

	return count, nil
}

// ListUnsynced implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListUnsynced(ctx context.Context, offset, limit int) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.synced = FALSE
		ORDER BY a.created_at ASC, a.id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced attendance: %w", err)
	}
	return collectAttendance(rows)
}

// MarkSynced implements attendance.AttendanceRepository.
func (a *attendanceRepository) MarkSynced(ctx context.Context, id string, remoteID *string) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET synced = TRUE, remote_id = COALESCE($1, remote_id), updated_at = NOW()
		WHERE id = $2
	`

	tag, err := q.Exec(ctx, query, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to mark attendance %s synced: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// DeleteByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) DeleteByEmployee(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, a.db)

	if _, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE employee_id::text = $1`, employeeID); err != nil {
		return fmt.Errorf("failed to delete attendance for employee %s: %w", employeeID, err)
	}
	return nil
}
