package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock only while it still holds our token, so an
// expired lease never releases the next holder's lock.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// MigrationLedger keeps one set per identity holding the fingerprints of the
// legacy records already written for it.
// Key format: migration:<user_id>, lock at migration-lock:<user_id>
type MigrationLedger struct {
	client *redis.Client
}

func NewMigrationLedger(client *redis.Client) *MigrationLedger {
	return &MigrationLedger{client: client}
}

func (l *MigrationLedger) Migrated(ctx context.Context, userID string) (map[string]bool, error) {
	members, err := l.client.SMembers(ctx, l.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger read: %w", err)
	}
	out := make(map[string]bool, len(members))
	for _, m := range members {
		out[m] = true
	}
	return out, nil
}

func (l *MigrationLedger) Mark(ctx context.Context, userID, fingerprint string) error {
	if err := l.client.SAdd(ctx, l.key(userID), fingerprint).Err(); err != nil {
		return fmt.Errorf("ledger mark: %w", err)
	}
	return nil
}

func (l *MigrationLedger) Clear(ctx context.Context, userID string) error {
	if err := l.client.Del(ctx, l.key(userID)).Err(); err != nil {
		return fmt.Errorf("ledger clear: %w", err)
	}
	return nil
}

// Lock takes the per-identity migration lease with SET NX PX.
func (l *MigrationLedger) Lock(ctx context.Context, userID string, ttl time.Duration) (func(), bool, error) {
	key := "migration-lock:" + userID
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("ledger lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// The caller's context may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = unlockScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}

func (l *MigrationLedger) key(userID string) string {
	return "migration:" + userID
}
