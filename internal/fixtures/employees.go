package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
)

func strPtr(s string) *string { return &s }

// DemoEmployee is an employee seeded with a known login password
type DemoEmployee struct {
	Employee employee.Employee
	Password string
}

// SeededEmployeeIDs maps employee codes to the stored IDs
type SeededEmployeeIDs map[string]string

// ==========================================
// DEFAULT EMPLOYEES
// ==========================================

// GetDefaultEmployees returns the demo staff used when running without a database
func GetDefaultEmployees() []DemoEmployee {
	return []DemoEmployee{
		{
			Employee: employee.Employee{
				EmployeeCode: "ADM001",
				Name:         "AfraExpress Admin",
				Email:        "admin@afraexpress.com",
				Position:     "System Administrator",
				Department:   "Management",
				Role:         employee.RoleAdmin,
				HireDate:     date(2023, time.January, 1),
			},
			Password: "admin123",
		},
		{
			Employee: employee.Employee{
				EmployeeCode:        "EMP001",
				Name:                "John Doe",
				Email:               "john.doe@afraexpress.com",
				Phone:               strPtr("+1234567890"),
				Position:            "Senior Developer",
				Department:          "Engineering",
				Role:                employee.RoleEmployee,
				FingerprintTemplate: strPtr("FP_EMP001"),
				HireDate:            date(2023, time.January, 15),
			},
			Password: "password123",
		},
		{
			Employee: employee.Employee{
				EmployeeCode: "EMP002",
				Name:         "Sarah Smith",
				Email:        "sarah.smith@afraexpress.com",
				Phone:        strPtr("+1234567892"),
				Position:     "HR Manager",
				Department:   "HR",
				Role:         employee.RoleManager,
				HireDate:     date(2023, time.February, 1),
			},
			Password: "password123",
		},
		{
			Employee: employee.Employee{
				EmployeeCode:        "EMP003",
				Name:                "Mike Johnson",
				Email:               "mike.johnson@afraexpress.com",
				Phone:               strPtr("+1234567893"),
				Position:            "Marketing Specialist",
				Department:          "Marketing",
				Role:                employee.RoleEmployee,
				FingerprintTemplate: strPtr("FP_EMP003"),
				HireDate:            date(2023, time.March, 1),
			},
			Password: "password123",
		},
	}
}

// SeedEmployees stores the demo staff. Employees that already exist are left untouched.
func SeedEmployees(ctx context.Context, repo employee.EmployeeRepository, hash func(string) (string, error)) (SeededEmployeeIDs, error) {
	ids := make(SeededEmployeeIDs)

	for _, demo := range GetDefaultEmployees() {
		emp := demo.Employee
		passwordHash, err := hash(demo.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", emp.EmployeeCode, err)
		}
		emp.PasswordHash = passwordHash
		emp.Status = employee.StatusActive

		created, err := repo.Create(ctx, emp)
		if errors.Is(err, employee.ErrEmailExists) || errors.Is(err, employee.ErrEmployeeCodeExists) {
			existing, getErr := repo.GetByID(ctx, emp.EmployeeCode)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load existing employee %s: %w", emp.EmployeeCode, getErr)
			}
			ids[emp.EmployeeCode] = existing.ID
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to seed employee %s: %w", emp.EmployeeCode, err)
		}
		ids[emp.EmployeeCode] = created.ID
	}

	slog.Info("Seeded demo employees", "count", len(ids))
	return ids, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
