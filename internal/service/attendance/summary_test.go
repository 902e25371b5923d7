package attendance

import (
	"context"
	"testing"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strictPolicy() attendance.StatusPolicy {
	return attendance.StatusPolicy{
		WorkStart:            "09:00",
		WorkEnd:              "17:00",
		LateThresholdMinutes: 15,
		LateDetection:        true,
		HalfDayHours:         4,
	}
}

// seedDay leaves one present, one late and one half-day employee on 2024-06-01
func seedDay(t *testing.T, env *testEnv) {
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:00")
	env.mark(t, "EMP002", attendance.EventCheckIn, "2024-06-01T09:30")
	env.mark(t, "EMP003", attendance.EventCheckIn, "2024-06-01T09:00")
	env.mark(t, "EMP003", attendance.EventCheckOut, "2024-06-01T12:00")
}

func TestDailySummary_AbsentIsComplementOfPresent(t *testing.T) {
	env := newTestEnv(t, strictPolicy())
	seedDay(t, env)

	summary, err := env.svc.DailySummary(context.Background(), "2024-06-01")
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.TotalEmployees)
	assert.Equal(t, int64(1), summary.PresentCount)
	assert.Equal(t, int64(1), summary.LateCount)
	assert.Equal(t, int64(1), summary.HalfDayCount)
	assert.Equal(t, summary.TotalEmployees-summary.PresentCount, summary.AbsentCount)
	assert.Equal(t, int64(2), summary.AbsentCount)
	assert.InDelta(t, 33.3, summary.AttendanceRate, 1e-9)
}

func TestDailySummary_EmptyDay(t *testing.T) {
	env := newTestEnv(t, strictPolicy())

	summary, err := env.svc.DailySummary(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", summary.Date)
	assert.Equal(t, int64(3), summary.AbsentCount)
	assert.Zero(t, summary.AttendanceRate)

	_, err = env.svc.DailySummary(context.Background(), "June 1st")
	assert.Error(t, err)
}

func TestWeeklySummary(t *testing.T) {
	env := newTestEnv(t, strictPolicy())
	seedDay(t, env)

	week, err := env.svc.WeeklySummary(context.Background(), "2024-06-07")
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", week.StartDate)
	assert.Equal(t, "2024-06-07", week.EndDate)
	require.Len(t, week.Days, 7)
	for i, day := range week.Days {
		assert.Equal(t, day.TotalEmployees-day.PresentCount, day.AbsentCount, "day %d", i)
	}
	assert.Equal(t, "2024-06-01", week.Days[0].Date)
	assert.Equal(t, "2024-06-07", week.Days[6].Date)

	assert.Equal(t, int64(1), week.TotalPresent)
	assert.Equal(t, int64(1), week.TotalLate)
	assert.Equal(t, int64(2+6*3), week.TotalAbsent)
	assert.InDelta(t, 4.8, week.AverageAttendanceRate, 1e-9)
	assert.InDelta(t, 50.0, week.OnTimeRate, 1e-9)
}

func TestEmployeeReport(t *testing.T) {
	env := newTestEnv(t, strictPolicy())

	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:00")
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-02T09:00")
	env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-02T17:30")
	env.mark(t, "EMP002", attendance.EventCheckIn, "2024-06-01T09:45")
	env.mark(t, "EMP003", attendance.EventCheckIn, "2024-06-05T09:00")

	rows, err := env.svc.EmployeeReport(context.Background(), attendance.ReportFilter{
		DateFrom: "2024-06-01",
		DateTo:   "2024-06-02",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	john := rows[0]
	assert.Equal(t, "John Doe", john.EmployeeName)
	assert.Equal(t, "Operations", john.Department)
	assert.Equal(t, 2, john.Present)
	assert.Equal(t, 2, john.Total)
	assert.InDelta(t, 16.5, john.TotalWorkingHours, 1e-9)
	assert.InDelta(t, 8.25, john.AvgWorkingHours, 1e-9)
	assert.InDelta(t, 100.0, john.AttendanceRate, 1e-9)

	sarah := rows[1]
	assert.Equal(t, "Sarah Smith", sarah.EmployeeName)
	assert.Equal(t, 1, sarah.Late)
	assert.Equal(t, 0, sarah.Present)
	assert.Zero(t, sarah.AvgWorkingHours)
	assert.Zero(t, sarah.AttendanceRate)
}

func TestEmployeeReport_SumsUnroundedHours(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	for _, day := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
		env.mark(t, "EMP001", attendance.EventCheckIn, day+"T09:00")
		env.mark(t, "EMP001", attendance.EventCheckOut, day+"T09:20")
	}

	rows, err := env.svc.EmployeeReport(context.Background(), attendance.ReportFilter{
		DateFrom: "2024-06-01",
		DateTo:   "2024-06-03",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1.0, rows[0].TotalWorkingHours, 1e-9)
	assert.InDelta(t, 0.33, rows[0].AvgWorkingHours, 1e-9)
}

func TestEmployeeReport_RequiresRange(t *testing.T) {
	env := newTestEnv(t, strictPolicy())

	_, err := env.svc.EmployeeReport(context.Background(), attendance.ReportFilter{DateFrom: "2024-06-01"})
	assert.Error(t, err)
}
