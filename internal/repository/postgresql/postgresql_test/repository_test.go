package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func createTestEmployee(t *testing.T, ctx context.Context, repo employee.EmployeeRepository, code, email string) employee.Employee {
	t.Helper()
	e, err := repo.Create(ctx, employee.Employee{
		EmployeeCode: code,
		Name:         "Test " + code,
		Email:        email,
		Department:   "Operations",
		Role:         employee.RoleEmployee,
		Status:       employee.StatusActive,
		PasswordHash: "hash",
		HireDate:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return e
}

func TestEmployeeRepository_Postgres(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(db)

	john := createTestEmployee(t, ctx, repo, "EMP001", "john@afraexpress.com")

	byCode, err := repo.GetByID(ctx, "EMP001")
	require.NoError(t, err)
	assert.Equal(t, john.ID, byCode.ID)

	_, err = repo.Create(ctx, employee.Employee{
		EmployeeCode: "EMP002", Name: "Dup", Email: "john@afraexpress.com",
		Department: "Ops", Role: employee.RoleEmployee, Status: employee.StatusActive, PasswordHash: "x",
	})
	assert.ErrorIs(t, err, employee.ErrEmailExists)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAttendanceRepository_Postgres(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	employees := postgresql.NewEmployeeRepository(db)
	repo := postgresql.NewAttendanceRepository(db)

	john := createTestEmployee(t, ctx, employees, "EMP001", "john@afraexpress.com")

	created, err := repo.Create(ctx, attendance.AttendanceRecord{
		EmployeeID: john.ID,
		Date:       "2024-06-01",
		CheckIn:    strPtr("09:15"),
		Status:     attendance.StatusPresent,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, attendance.AttendanceRecord{
		EmployeeID: john.ID,
		Date:       "2024-06-01",
		CheckIn:    strPtr("10:00"),
		Status:     attendance.StatusPresent,
	})
	assert.ErrorIs(t, err, attendance.ErrAttendanceExists)

	hours := 7.75
	created.CheckOut = strPtr("17:00")
	created.WorkingHours = &hours
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.GetByEmployeeAndDate(ctx, john.ID, "2024-06-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "09:15", *got.CheckIn)
	assert.Equal(t, "17:00", *got.CheckOut)
	assert.InDelta(t, 7.75, *got.WorkingHours, 0.0001)
	assert.Equal(t, "Test EMP001", got.EmployeeName)

	count, err := repo.CountByStatus(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Present)

	pending, err := repo.ListUnsynced(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NoError(t, repo.MarkSynced(ctx, created.ID, strPtr("remote-1")))

	// deleting the employee cascades to attendance
	require.NoError(t, employees.Delete(ctx, john.ID))
	got, err = repo.GetByEmployeeAndDate(ctx, john.ID, "2024-06-01")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	employees := postgresql.NewEmployeeRepository(db)
	tx := postgresql.NewTransactor(db)

	errBoom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		createTestEmployee(t, ctx, employees, "EMP001", "john@afraexpress.com")
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	_, err = employees.GetByID(ctx, "EMP001")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
