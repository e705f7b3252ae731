package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
)

const (
	migrationConcurrency = 8
	// migrationLease bounds how long a crashed run can hold an identity.
	migrationLease = 2 * time.Minute
	// migrationWait is how long a run waits for a concurrent one to finish.
	migrationWait = 30 * time.Second
	lockPoll      = 100 * time.Millisecond
)

// ErrMigrationBusy is returned when another run for the same identity held
// the lock for longer than the wait.
var ErrMigrationBusy = errors.New("another legacy migration is running for this identity")

// MigrationService moves projects kept in local storage by the pre-account
// version of the app into the store. It implements ports.Migrator.
type MigrationService struct {
	storage  ports.LocalStorage
	ledger   ports.MigrationLedger
	projects ports.ProjectRepository
	key      string
	logger   zerolog.Logger
	now      func() time.Time
	wait     time.Duration
	poll     time.Duration
}

func NewMigrationService(storage ports.LocalStorage, ledger ports.MigrationLedger, projects ports.ProjectRepository, key string, logger zerolog.Logger) *MigrationService {
	if key == "" {
		key = domain.LegacyProjectsKey
	}
	return &MigrationService{
		storage:  storage,
		ledger:   ledger,
		projects: projects,
		key:      key,
		logger:   logger,
		now:      time.Now,
		wait:     migrationWait,
		poll:     lockPoll,
	}
}

// Migrate writes every legacy record staged for userID that is not yet in
// the ledger. Each record is marked in the ledger once its own write
// succeeds, so a retry after a partial failure picks up where the last run
// stopped. Runs for one identity are exclusive; a run that had to wait
// usually finds nothing left. The staged key and the ledger are only removed
// once every record is in.
func (s *MigrationService) Migrate(ctx context.Context, userID string) (domain.MigrationStatus, error) {
	failed := domain.MigrationStatus{Success: false, Count: 0}

	release, err := s.lock(ctx, userID)
	if err != nil {
		return failed, err
	}
	defer release()
	return s.migrate(ctx, userID)
}

// lock polls for the identity's migration lease until s.wait elapses.
func (s *MigrationService) lock(parent context.Context, userID string) (func(), error) {
	ctx, cancel := context.WithTimeout(parent, s.wait)
	defer cancel()
	for {
		release, ok, err := s.ledger.Lock(ctx, userID, migrationLease)
		if err != nil {
			return nil, fmt.Errorf("lock migration: %w", err)
		}
		if ok {
			return release, nil
		}
		select {
		case <-ctx.Done():
			if err := parent.Err(); err != nil {
				return nil, err
			}
			return nil, ErrMigrationBusy
		case <-time.After(s.poll):
		}
	}
}

func (s *MigrationService) migrate(ctx context.Context, userID string) (domain.MigrationStatus, error) {
	failed := domain.MigrationStatus{Success: false, Count: 0}
	key := domain.LegacyStorageKey(userID, s.key)
	log := s.logger.With().Str("user_id", userID).Str("key", key).Logger()

	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return failed, fmt.Errorf("read local storage: %w", err)
	}
	if !ok {
		return domain.MigrationStatus{Success: true, Count: 0}, nil
	}

	records, err := domain.ParseLegacyProjects(raw)
	if err != nil {
		return failed, fmt.Errorf("decode legacy projects: %w", err)
	}

	done, err := s.ledger.Migrated(ctx, userID)
	if err != nil {
		return failed, fmt.Errorf("read migration ledger: %w", err)
	}

	now := s.now()
	fingerprints := fingerprintAll(records)
	var previous int
	var written atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(migrationConcurrency)
	for i, rec := range records {
		fp := fingerprints[i]
		if done[fp] {
			previous++
			continue
		}
		g.Go(func() error {
			project, createdAt := rec.ToProject(userID, now)
			if _, err := s.projects.Create(gctx, project, &createdAt); err != nil {
				return fmt.Errorf("migrate %s: %w", fp, err)
			}
			// The write is durable at this point; marking must not be
			// abandoned because a sibling failed.
			if err := s.ledger.Mark(ctx, userID, fp); err != nil {
				return fmt.Errorf("mark %s: %w", fp, err)
			}
			written.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Int64("written", written.Load()).Msg("legacy migration incomplete")
		return failed, err
	}

	if err := s.storage.Remove(ctx, key); err != nil {
		return failed, fmt.Errorf("clear local storage: %w", err)
	}
	if err := s.ledger.Clear(ctx, userID); err != nil {
		log.Warn().Err(err).Msg("failed to clear migration ledger")
	}

	return domain.MigrationStatus{Success: true, Count: int(written.Load()) + previous}, nil
}

// fingerprintAll returns one fingerprint per record. Identical records get an
// occurrence suffix so each copy is tracked on its own.
func fingerprintAll(records []domain.LegacyProject) []string {
	out := make([]string, len(records))
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		fp := rec.Fingerprint()
		seen[fp]++
		if n := seen[fp]; n > 1 {
			fp += "#" + strconv.Itoa(n)
		}
		out[i] = fp
	}
	return out
}
