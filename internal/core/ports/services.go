package ports

import (
	"context"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// ProjectService is the project record access module as the HTTP layer sees it.
type ProjectService interface {
	List(ctx context.Context) ([]*domain.Project, error)
	Create(ctx context.Context, input domain.ProjectInput) (*domain.Project, error)
	Update(ctx context.Context, id string, patch domain.ProjectPatch) error
	Delete(ctx context.Context, id string) error
}

type EmployeeService interface {
	List(ctx context.Context) ([]*domain.Employee, error)
	Create(ctx context.Context, input domain.EmployeeInput) (*domain.Employee, error)
	Update(ctx context.Context, id string, patch domain.EmployeePatch) error
	Delete(ctx context.Context, id string) error
	// CascadesToProjects reports whether Delete also rewrites projects.
	CascadesToProjects() bool
}

type RevenueService interface {
	List(ctx context.Context) ([]*domain.RevenueEntry, error)
	Create(ctx context.Context, input domain.RevenueInput) (*domain.RevenueEntry, error)
}
