package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// ProjectService handles project-related operations
type ProjectService struct {
	store  ports.Store
	logger *logger.Logger
	now    Clock
}

// NewProjectService creates a new project service
func NewProjectService(store ports.Store, appLogger *logger.Logger, clock Clock) *ProjectService {
	if clock == nil {
		clock = SystemClock
	}
	return &ProjectService{
		store:  store,
		logger: appLogger,
		now:    clock,
	}
}

// ListProjects returns system projects first, then by creation time
func (s *ProjectService) ListProjects(ctx context.Context) ([]*entities.Project, error) {
	projects, err := s.store.Projects().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	entities.SortProjects(projects)
	return projects, nil
}

// CreateProject creates a new user project
func (s *ProjectService) CreateProject(ctx context.Context, req ports.CreateProjectRequest) (*entities.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, entities.NewValidationError("name", "Project name is required")
	}

	project := &entities.Project{
		ID:        newID(),
		Name:      name,
		CreatedAt: s.now().UnixMilli(),
		Icon:      req.Icon,
		Kind:      entities.ProjectKindUser,
	}

	if err := s.store.Projects().Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Infow("Project created", "project_id", project.ID, "name", project.Name)
	return project, nil
}

// UpdateProject renames a project or changes its icon. System projects keep
// their name.
func (s *ProjectService) UpdateProject(ctx context.Context, id string, req ports.UpdateProjectRequest) (*entities.Project, error) {
	project, err := s.store.Projects().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, entities.NewValidationError("name", "Project name cannot be empty")
		}
		if name != project.Name && project.IsProtected() {
			return nil, entities.ErrProjectProtected
		}
		project.Name = name
	}
	if req.Icon != nil {
		project.Icon = req.Icon
	}

	if err := s.store.Projects().Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.logger.Infow("Project updated", "project_id", project.ID, "name", project.Name)
	return project, nil
}

// DeleteProject removes a project with its tasks and their reminders in one
// transaction and reports how many tasks went with it.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		project, err := tx.Projects().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if project.IsProtected() {
			return entities.ErrProjectProtected
		}

		if err := tx.Reminders().DeleteByProject(ctx, id); err != nil {
			return err
		}
		if removed, err = tx.Tasks().DeleteByProject(ctx, id); err != nil {
			return err
		}
		deleted, err := tx.Projects().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return entities.NewNotFoundError("project", id)
		}
		return nil
	})
	if err != nil {
		if entities.IsNotFound(err) || errors.Is(err, entities.ErrProjectProtected) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Infow("Project deleted", "project_id", id, "tasks_removed", removed)
	return removed, nil
}

// EnsureDefaults seeds the Inbox and Work projects when they are missing
func (s *ProjectService) EnsureDefaults(ctx context.Context) error {
	for _, seed := range entities.SeedProjects(s.now()) {
		_, err := s.store.Projects().GetByID(ctx, seed.ID)
		if err == nil {
			continue
		}
		if !entities.IsNotFound(err) {
			return fmt.Errorf("failed to look up default project: %w", err)
		}
		if err := s.store.Projects().Create(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed project %s: %w", seed.ID, err)
		}
		s.logger.Infow("Default project created", "project_id", seed.ID, "name", seed.Name)
	}
	return nil
}
