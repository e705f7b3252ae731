package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
)

// ProjectService is the record access module for projects. Every call reads
// the identity from its session at call time.
type ProjectService struct {
	repo    ports.ProjectRepository
	session ports.Session
	logger  zerolog.Logger
	now     func() time.Time
}

func NewProjectService(repo ports.ProjectRepository, session ports.Session, logger zerolog.Logger) *ProjectService {
	return &ProjectService{repo: repo, session: session, logger: logger, now: time.Now}
}

// List returns the caller's projects with defaults applied. Without an
// identity it returns an empty slice and no error.
func (s *ProjectService) List(ctx context.Context) ([]*domain.Project, error) {
	identity := s.session.Identity()
	if identity == nil {
		return []*domain.Project{}, nil
	}

	projects, err := s.repo.ListByOwner(ctx, identity.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.ID).Msg("failed to list projects")
		return nil, domain.StoreError("failed to load projects. please try again later", err)
	}
	for _, p := range projects {
		p.Normalize()
	}
	return projects, nil
}

// Create stores a new project owned by the caller. The store stamps the
// authoritative creation time; the returned CreatedAt is the local clock at
// write time and may differ slightly from what List later reports.
func (s *ProjectService) Create(ctx context.Context, input domain.ProjectInput) (*domain.Project, error) {
	identity := s.session.Identity()
	if identity == nil {
		return nil, domain.ErrNotAuthenticated
	}

	project, err := input.Build(identity.ID)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, project, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.ID).Msg("failed to create project")
		return nil, domain.StoreError("failed to add project. please try again later", err)
	}

	created := s.now().UTC()
	project.ID = id
	project.CreatedAt = &created
	project.Normalize()

	s.logger.Info().Str("user_id", identity.ID).Str("project_id", id).Msg("project created")
	return project, nil
}

// Update applies a partial update. The completed flag is only rewritten when
// the patch carries a status.
func (s *ProjectService) Update(ctx context.Context, id string, patch domain.ProjectPatch) error {
	identity := s.session.Identity()
	if identity == nil {
		return domain.ErrNotAuthenticated
	}

	update, err := patch.Resolve()
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, identity.ID, id, update); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("user_id", identity.ID).Str("project_id", id).Msg("failed to update project")
		return domain.StoreError("failed to update project. please try again later", err)
	}

	s.logger.Info().Str("user_id", identity.ID).Str("project_id", id).Msg("project updated")
	return nil
}

// Delete removes the project. Deleting an id that does not exist succeeds.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	identity := s.session.Identity()
	if identity == nil {
		return domain.ErrNotAuthenticated
	}

	if err := s.repo.Delete(ctx, identity.ID, id); err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.ID).Str("project_id", id).Msg("failed to delete project")
		return domain.StoreError("failed to delete project. please try again later", err)
	}

	s.logger.Info().Str("user_id", identity.ID).Str("project_id", id).Msg("project deleted")
	return nil
}
