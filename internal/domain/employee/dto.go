package employee

import (
	"strings"

	"github.com/afraexpress/attendance-backend-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	EmployeeCode        string  `json:"employee_id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Phone               *string `json:"phone,omitempty"`
	Position            string  `json:"position"`
	Department          string  `json:"department"`
	Role                Role    `json:"role"`
	Password            string  `json:"password"`
	FingerprintTemplate *string `json:"fingerprint_template,omitempty"`
	HireDate            string  `json:"hire_date"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.EmployeeCode = strings.TrimSpace(r.EmployeeCode)

	if !validator.IsValidEmployeeCode(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must look like EMP001",
		})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is invalid",
		})
	}
	if validator.IsEmpty(r.Department) {
		errs = append(errs, validator.ValidationError{
			Field:   "department",
			Message: "department is required",
		})
	}
	if r.Role == "" {
		r.Role = RoleEmployee
	}
	if !r.Role.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role must be admin, manager or employee",
		})
	}
	if len(r.Password) < 8 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be at least 8 characters",
		})
	}
	if r.HireDate != "" {
		if _, ok := validator.IsValidDate(r.HireDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "hire_date",
				Message: "hire_date must be YYYY-MM-DD",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeFilter struct {
	Department *string
	Status     *EmploymentStatus
	Search     *string
}

type EmployeeResponse struct {
	ID           string  `json:"id"`
	EmployeeCode string  `json:"employee_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone,omitempty"`
	Position     string  `json:"position"`
	Department   string  `json:"department"`
	Role         Role    `json:"role"`
	Status       string  `json:"status"`
	HireDate     string  `json:"hire_date"`
	HasBiometric bool    `json:"has_biometric"`
}

func NewEmployeeResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:           e.ID,
		EmployeeCode: e.EmployeeCode,
		Name:         e.Name,
		Email:        e.Email,
		Phone:        e.Phone,
		Position:     e.Position,
		Department:   e.Department,
		Role:         e.Role,
		Status:       string(e.Status),
		HireDate:     e.HireDate.Format("2006-01-02"),
		HasBiometric: e.FingerprintTemplate != nil && *e.FingerprintTemplate != "",
	}
}
