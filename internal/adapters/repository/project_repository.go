package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
)

const projectColumns = `id, name, created_at, icon, kind`

// ProjectRepository implements ports.ProjectRepository
type ProjectRepository struct {
	ext sqlx.ExtContext
}

func (r *ProjectRepository) Create(ctx context.Context, project *entities.Project) error {
	query := `
		INSERT INTO projects (id, name, created_at, icon, kind)
		VALUES (?, ?, ?, ?, ?)`

	if _, err := exec(ctx, r.ext, query,
		project.ID, project.Name, project.CreatedAt, project.Icon, project.Kind,
	); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entities.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	var project entities.Project
	if err := get(ctx, r.ext, &project, "project", id, query, id); err != nil {
		if entities.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *entities.Project) error {
	query := `UPDATE projects SET name = ?, icon = ?, kind = ? WHERE id = ?`

	n, err := exec(ctx, r.ext, query, project.Name, project.Icon, project.Kind, project.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n == 0 {
		return entities.NewNotFoundError("project", project.ID)
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := exec(ctx, r.ext, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	return n > 0, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]*entities.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		ORDER BY CASE WHEN kind = 'system' THEN 0 ELSE 1 END, created_at, id`

	projects := []*entities.Project{}
	if err := selectAll(ctx, r.ext, &projects, query); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}
