package domain

import (
	"fmt"
	"strings"
	"time"
)

// Employee is a team member owned by a single identity.
type Employee struct {
	ID        string
	UserID    string
	Name      string
	Email     string
	Phone     string
	Role      string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// EmployeeInput is the schema for a new employee; EmployeePatch mirrors it
// for updates.
type EmployeeInput struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (in EmployeeInput) Build(userID string) (*Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	return &Employee{
		UserID: userID,
		Name:   name,
		Email:  strings.TrimSpace(in.Email),
		Phone:  strings.TrimSpace(in.Phone),
		Role:   strings.TrimSpace(in.Role),
	}, nil
}

type EmployeePatch struct {
	Name  *string `json:"name"  validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone"`
	Role  *string `json:"role"`
}

// EmployeeUpdate is a validated EmployeePatch.
type EmployeeUpdate struct {
	Name  *string
	Email *string
	Phone *string
	Role  *string
}

func (p EmployeePatch) Resolve() (EmployeeUpdate, error) {
	var u EmployeeUpdate
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		if n == "" {
			return u, &ValidationError{Field: "name", Reason: "is required"}
		}
		u.Name = &n
	}
	u.Email = trimmed(p.Email)
	u.Phone = trimmed(p.Phone)
	u.Role = trimmed(p.Role)
	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// DeletePolicy decides what happens to project assignments when an employee
// is deleted.
type DeletePolicy string

const (
	// DeleteIgnore leaves dangling employee ids on projects.
	DeleteIgnore DeletePolicy = "ignore"
	// DeleteBlock refuses the delete while any project references the employee.
	DeleteBlock DeletePolicy = "block"
	// DeleteCascade removes the employee id from every project before deleting.
	DeleteCascade DeletePolicy = "cascade"
)

func ParseDeletePolicy(raw string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return DeleteIgnore, nil
	case DeleteIgnore, DeleteBlock, DeleteCascade:
		return p, nil
	default:
		return "", fmt.Errorf("unknown employee delete policy %q", raw)
	}
}
