package employee

import (
	"time"
)

type Employee struct {
	ID                  string
	EmployeeCode        string
	Name                string
	Email               string
	Phone               *string
	Position            string
	Department          string
	Role                Role
	Status              EmploymentStatus
	PasswordHash        string
	FingerprintTemplate *string
	HireDate            time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}

type EmploymentStatus string

const (
	StatusActive     EmploymentStatus = "active"
	StatusInactive   EmploymentStatus = "inactive"
	StatusTerminated EmploymentStatus = "terminated"
)

func (s EmploymentStatus) IsValid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusTerminated
}
