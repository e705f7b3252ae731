package ports

import (
	"context"
	"time"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// ProjectRepository defines persistence operations for projects. Every call
// is scoped to an owner id.
type ProjectRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]*domain.Project, error)
	// Create writes p with a fresh id. A nil createdAt asks the store for a
	// server timestamp.
	Create(ctx context.Context, p *domain.Project, createdAt *time.Time) (string, error)
	// Update returns domain.ErrNotFound when no project with id belongs to userID.
	Update(ctx context.Context, userID, id string, u domain.ProjectUpdate) error
	// Delete succeeds whether or not the project existed.
	Delete(ctx context.Context, userID, id string) error
	CountAssigned(ctx context.Context, userID, employeeID string) (int64, error)
	UnassignEmployee(ctx context.Context, userID, employeeID string) (int64, error)
}
