package ports

import (
	"context"
	"time"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// LocalStorage is the string key/value store the pre-account version of the
// app kept its data in.
type LocalStorage interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Remove(ctx context.Context, key string) error
}

// MigrationLedger remembers which legacy records have already been written
// for an identity, so a retried migration skips them. Lock makes runs for
// the same identity exclusive: it returns ok=false while another holder's
// lease is live, and release is only valid when ok is true.
type MigrationLedger interface {
	Migrated(ctx context.Context, userID string) (map[string]bool, error)
	Mark(ctx context.Context, userID, fingerprint string) error
	Clear(ctx context.Context, userID string) error
	Lock(ctx context.Context, userID string, ttl time.Duration) (release func(), ok bool, err error)
}

// Migrator moves legacy records into the store for a new identity.
type Migrator interface {
	Migrate(ctx context.Context, userID string) (domain.MigrationStatus, error)
}
