package ports

import (
	"context"
	"time"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// AccountRepository persists identity provider accounts.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByProvider(ctx context.Context, provider, providerUserID string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// Create returns domain.ErrAccountExists when the email is taken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

// TokenRevoker tracks session tokens invalidated before their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
