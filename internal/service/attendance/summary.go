package attendance

import (
	"context"
	"fmt"
	"sort"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/validator"
	"golang.org/x/sync/errgroup"
)

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return round(float64(part)/float64(whole)*100, 1)
}

// DailySummary implements attendance.AttendanceService.
// Only status=present counts as present; AbsentCount is the complement of
// PresentCount, so late and half-day employees are included in it.
func (s *AttendanceServiceImpl) DailySummary(ctx context.Context, date string) (attendance.DailySummaryResponse, error) {
	if date == "" {
		date = s.today()
	} else if _, ok := validator.IsValidDate(date); !ok {
		return attendance.DailySummaryResponse{}, validator.ValidationErrors{{Field: "date", Message: "date must be YYYY-MM-DD"}}
	}

	total, err := s.directory.CountActive(ctx)
	if err != nil {
		return attendance.DailySummaryResponse{}, fmt.Errorf("failed to count employees: %w", err)
	}

	count, err := s.AttendanceRepository.CountByStatus(ctx, date)
	if err != nil {
		return attendance.DailySummaryResponse{}, fmt.Errorf("failed to count attendance: %w", err)
	}

	return attendance.DailySummaryResponse{
		Date:           date,
		TotalEmployees: total,
		PresentCount:   count.Present,
		AbsentCount:    total - count.Present,
		LateCount:      count.Late,
		HalfDayCount:   count.HalfDay,
		AttendanceRate: percent(count.Present, total),
	}, nil
}

// WeeklySummary implements attendance.AttendanceService.
// It returns the seven daily summaries ending on endDate, oldest first.
func (s *AttendanceServiceImpl) WeeklySummary(ctx context.Context, endDate string) (attendance.WeeklySummaryResponse, error) {
	if endDate == "" {
		endDate = s.today()
	}
	end, ok := validator.IsValidDate(endDate)
	if !ok {
		return attendance.WeeklySummaryResponse{}, validator.ValidationErrors{{Field: "end_date", Message: "end_date must be YYYY-MM-DD"}}
	}

	const days = 7
	start := end.AddDate(0, 0, -(days - 1))
	summaries := make([]attendance.DailySummaryResponse, days)

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format(attendance.DateLayout)
		g.Go(func() error {
			summary, err := s.DailySummary(gCtx, day)
			if err != nil {
				return fmt.Errorf("summary for %s: %w", day, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return attendance.WeeklySummaryResponse{}, err
	}

	resp := attendance.WeeklySummaryResponse{
		StartDate: start.Format(attendance.DateLayout),
		EndDate:   end.Format(attendance.DateLayout),
		Days:      summaries,
	}

	var rateSum float64
	for _, d := range summaries {
		resp.TotalPresent += d.PresentCount
		resp.TotalLate += d.LateCount
		resp.TotalAbsent += d.AbsentCount
		rateSum += d.AttendanceRate
	}
	resp.AverageAttendanceRate = round(rateSum/days, 1)
	resp.OnTimeRate = percent(resp.TotalPresent, resp.TotalPresent+resp.TotalLate)

	return resp, nil
}

// EmployeeReport implements attendance.AttendanceService.
// Rows cover employees with at least one record in the range, ordered by name.
func (s *AttendanceServiceImpl) EmployeeReport(ctx context.Context, filter attendance.ReportFilter) ([]attendance.EmployeeReportRow, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	records, err := s.AttendanceRepository.List(ctx, attendance.AttendanceFilter{
		DateFrom: &filter.DateFrom,
		DateTo:   &filter.DateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	employees, err := s.directory.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	departments := make(map[string]string, len(employees))
	for _, e := range employees {
		departments[e.ID] = e.Department
	}

	rows := make(map[string]*attendance.EmployeeReportRow)
	for _, rec := range records {
		row, ok := rows[rec.EmployeeID]
		if !ok {
			row = &attendance.EmployeeReportRow{
				EmployeeID:   rec.EmployeeID,
				EmployeeName: rec.EmployeeName,
				Department:   departments[rec.EmployeeID],
			}
			rows[rec.EmployeeID] = row
		}

		row.Total++
		switch rec.Status {
		case attendance.StatusPresent:
			row.Present++
		case attendance.StatusLate:
			row.Late++
		case attendance.StatusHalfDay:
			row.HalfDay++
		}
		if rec.WorkingHours != nil {
			row.TotalWorkingHours += *rec.WorkingHours
		}
	}

	out := make([]attendance.EmployeeReportRow, 0, len(rows))
	for _, row := range rows {
		if row.Present > 0 {
			row.AvgWorkingHours = round(row.TotalWorkingHours/float64(row.Present), 2)
		}
		row.TotalWorkingHours = round(row.TotalWorkingHours, 2)
		row.AttendanceRate = percent(int64(row.Present), int64(row.Total))
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})

	return out, nil
}
