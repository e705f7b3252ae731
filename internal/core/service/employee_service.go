package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
)

// EmployeeService is the record access module for employees.
type EmployeeService struct {
	repo     ports.EmployeeRepository
	projects ports.ProjectRepository
	policy   domain.DeletePolicy
	session  ports.Session
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEmployeeService wires the module. projects is only consulted on delete,
// and only when policy is block or cascade.
func NewEmployeeService(repo ports.EmployeeRepository, projects ports.ProjectRepository, policy domain.DeletePolicy, session ports.Session, logger zerolog.Logger) *EmployeeService {
	if policy == "" {
		policy = domain.DeleteIgnore
	}
	return &EmployeeService{
		repo:     repo,
		projects: projects,
		policy:   policy,
		session:  session,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *EmployeeService) List(ctx context.Context) ([]*domain.Employee, error) {
	identity := s.session.Identity()
	if identity == nil {
		return []*domain.Employee{}, nil
	}

	employees, err := s.repo.ListByOwner(ctx, identity.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.ID).Msg("failed to list employees")
		return nil, domain.StoreError("failed to load employees. please try again later", err)
	}
	return employees, nil
}

// Create stores a new employee. As with projects, CreatedAt on the result is
// the local clock, not the stored server timestamp.
func (s *EmployeeService) Create(ctx context.Context, input domain.EmployeeInput) (*domain.Employee, error) {
	identity := s.session.Identity()
	if identity == nil {
		return nil, domain.ErrNotAuthenticated
	}

	employee, err := input.Build(identity.ID)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, employee)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.ID).Msg("failed to create employee")
		return nil, domain.StoreError("failed to add employee. please try again later", err)
	}

	created := s.now().UTC()
	employee.ID = id
	employee.CreatedAt = &created

	s.logger.Info().Str("user_id", identity.ID).Str("employee_id", id).Msg("employee created")
	return employee, nil
}

func (s *EmployeeService) Update(ctx context.Context, id string, patch domain.EmployeePatch) error {
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
		s.logger.Error().Err(err).Str("user_id", identity.ID).Str("employee_id", id).Msg("failed to update employee")
		return domain.StoreError("failed to update employee. please try again later", err)
	}
	return nil
}

// Delete removes the employee, applying the configured policy to projects
// that still list it.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	identity := s.session.Identity()
	if identity == nil {
		return domain.ErrNotAuthenticated
	}
	log := s.logger.With().Str("user_id", identity.ID).Str("employee_id", id).Logger()

	switch s.policy {
	case domain.DeleteBlock:
		n, err := s.projects.CountAssigned(ctx, identity.ID, id)
		if err != nil {
			log.Error().Err(err).Msg("failed to check employee assignments")
			return domain.StoreError("failed to delete employee. please try again later", err)
		}
		if n > 0 {
			log.Info().Int64("projects", n).Msg("employee delete refused")
			return domain.ErrEmployeeReferenced
		}
	case domain.DeleteCascade:
		n, err := s.projects.UnassignEmployee(ctx, identity.ID, id)
		if err != nil {
			log.Error().Err(err).Msg("failed to unassign employee")
			return domain.StoreError("failed to delete employee. please try again later", err)
		}
		if n > 0 {
			log.Info().Int64("projects", n).Msg("employee unassigned from projects")
		}
	}

	if err := s.repo.Delete(ctx, identity.ID, id); err != nil {
		log.Error().Err(err).Msg("failed to delete employee")
		return domain.StoreError("failed to delete employee. please try again later", err)
	}

	log.Info().Msg("employee deleted")
	return nil
}

// CascadesToProjects reports whether a delete can modify projects, so callers
// know to announce a project change as well.
func (s *EmployeeService) CascadesToProjects() bool {
	return s.policy == domain.DeleteCascade
}
