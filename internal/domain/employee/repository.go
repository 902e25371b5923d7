package employee

import (
	"context"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	// GetByFingerprint returns the employee whose stored template equals template
	GetByFingerprint(ctx context.Context, template string) (Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	CountActive(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// EmployeeDirectory resolves employee identity for the attendance engine
type EmployeeDirectory interface {
	FindByID(ctx context.Context, id string) (Employee, error)
	FindByFingerprint(ctx context.Context, template string) (Employee, error)
	CountActive(ctx context.Context) (int64, error)
	ListActive(ctx context.Context) ([]Employee, error)
}
