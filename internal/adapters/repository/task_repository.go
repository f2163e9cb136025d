package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

const taskColumns = `id, title, completed, project_id, created_at, due_date, priority,
	order_index, reminder_enabled, reminder_time, user_email`

// TaskRepository implements ports.TaskRepository
type TaskRepository struct {
	ext sqlx.ExtContext
}

func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := exec(ctx, r.ext, query,
		task.ID, task.Title, task.Completed, task.ProjectID, task.CreatedAt,
		task.DueDate, task.Priority, task.Order, task.ReminderEnabled,
		task.ReminderTime, task.UserEmail,
	); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	var task entities.Task
	if err := get(ctx, r.ext, &task, "task", id, query, id); err != nil {
		if entities.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, completed = ?, project_id = ?, due_date = ?, priority = ?,
			order_index = ?, reminder_enabled = ?, reminder_time = ?, user_email = ?
		WHERE id = ?`

	n, err := exec(ctx, r.ext, query,
		task.Title, task.Completed, task.ProjectID, task.DueDate, task.Priority,
		task.Order, task.ReminderEnabled, task.ReminderTime, task.UserEmail,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n == 0 {
		return entities.NewNotFoundError("task", task.ID)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := exec(ctx, r.ext, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return n > 0, nil
}

func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []interface{}
	if filter.ProjectID != nil {
		query += ` WHERE project_id = ?`
		args = append(args, *filter.ProjectID)
	}
	query += ` ORDER BY order_index, created_at, id`

	tasks := []*entities.Task{}
	if err := selectAll(ctx, r.ext, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	n, err := exec(ctx, r.ext, `DELETE FROM tasks WHERE project_id = ?`, projectID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks by project: %w", err)
	}
	return n, nil
}

func (r *TaskRepository) DeleteAll(ctx context.Context) error {
	if _, err := exec(ctx, r.ext, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("delete all tasks: %w", err)
	}
	return nil
}
