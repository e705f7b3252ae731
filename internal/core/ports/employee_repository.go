package ports

import (
	"context"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

type EmployeeRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]*domain.Employee, error)
	Create(ctx context.Context, e *domain.Employee) (string, error)
	Update(ctx context.Context, userID, id string, u domain.EmployeeUpdate) error
	Delete(ctx context.Context, userID, id string) error
}
