package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
)

// RevenueService records income that is not tied to a project.
type RevenueService struct {
	repo    ports.RevenueRepository
	session ports.Session
	logger  zerolog.Logger
	now     func() time.Time
}

func NewRevenueService(repo ports.RevenueRepository, session ports.Session, logger zerolog.Logger) *RevenueService {
	return &RevenueService{repo: repo, session: session, logger: logger, now: time.Now}
}

func (s *RevenueService) List(ctx context.Context) ([]*domain.RevenueEntry, error) {
	identity := s.session.Identity()
	if identity == nil {
		return []*domain.RevenueEntry{}, nil
	}

	entries, err := s.repo.ListByOwner(ctx, identity.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.ID).Msg("failed to list revenue")
		return nil, domain.StoreError("failed to load revenue. please try again later", err)
	}
	return entries, nil
}

func (s *RevenueService) Create(ctx context.Context, input domain.RevenueInput) (*domain.RevenueEntry, error) {
	identity := s.session.Identity()
	if identity == nil {
		return nil, domain.ErrNotAuthenticated
	}

	entry, err := input.Build(identity.ID)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, entry)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.ID).Msg("failed to record revenue")
		return nil, domain.StoreError("failed to add revenue. please try again later", err)
	}

	created := s.now().UTC()
	entry.ID = id
	entry.CreatedAt = &created
	return entry, nil
}

// Total sums the caller's revenue entries.
func (s *RevenueService) Total(ctx context.Context) (float64, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, e := range entries {
		total += e.Amount
	}
	return total, nil
}
