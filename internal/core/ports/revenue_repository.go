package ports

import (
	"context"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

type RevenueRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]*domain.RevenueEntry, error)
	Create(ctx context.Context, r *domain.RevenueEntry) (string, error)
}
