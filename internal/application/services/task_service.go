package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

const maxTitleLength = 500

// TaskService handles task-related operations
type TaskService struct {
	store  ports.Store
	logger *logger.Logger
	now    Clock
}

// NewTaskService creates a new task service
func NewTaskService(store ports.Store, appLogger *logger.Logger, clock Clock) *TaskService {
	if clock == nil {
		clock = SystemClock
	}
	return &TaskService{
		store:  store,
		logger: appLogger,
		now:    clock,
	}
}

// ListTasks returns every task, or only those of one project
func (s *TaskService) ListTasks(ctx context.Context, projectID string) ([]*entities.Task, error) {
	filter := ports.TaskFilter{}
	if projectID != "" {
		filter.ProjectID = &projectID
	}

	tasks, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	entities.SortTasks(tasks)
	return tasks, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*entities.Task, error) {
	return s.store.Tasks().GetByID(ctx, id)
}

// CreateTask appends a task to its project. Without an explicit order it goes
// after the last task of the project.
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, entities.NewValidationError("title", "Title is required")
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, entities.NewValidationError("priority", "Invalid priority value")
	}

	task := &entities.Task{
		ID:              newID(),
		Title:           title,
		ProjectID:       req.ProjectID,
		CreatedAt:       s.now().UnixMilli(),
		DueDate:         req.DueDate,
		Priority:        req.Priority,
		ReminderEnabled: req.ReminderEnabled,
		ReminderTime:    req.ReminderTime,
		UserEmail:       strings.TrimSpace(req.UserEmail),
	}

	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		if _, err := tx.Projects().GetByID(ctx, req.ProjectID); err != nil {
			if entities.IsNotFound(err) {
				return entities.NewValidationError("projectId", "Project does not exist")
			}
			return err
		}

		if req.Order != nil {
			task.Order = *req.Order
		} else {
			siblings, err := tx.Tasks().List(ctx, ports.TaskFilter{ProjectID: &req.ProjectID})
			if err != nil {
				return err
			}
			task.Order = entities.MaxOrder(siblings) + 1
		}

		if err := tx.Tasks().Create(ctx, task); err != nil {
			return err
		}
		return reconcileReminder(ctx, tx, task)
	})
	if err != nil {
		if entities.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "project_id", task.ProjectID)
	return task, nil
}

// UpdateTask applies a partial update. The whole patch is validated first and
// written in one transaction, so it is never partially applied.
func (s *TaskService) UpdateTask(ctx context.Context, id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	if err := validatePatch(req); err != nil {
		return nil, err
	}

	var updated *entities.Task
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		task, err := tx.Tasks().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.ProjectID.Set && req.ProjectID.Value != task.ProjectID {
			if _, err := tx.Projects().GetByID(ctx, req.ProjectID.Value); err != nil {
				if entities.IsNotFound(err) {
					return entities.NewValidationError("projectId", "Project does not exist")
				}
				return err
			}
		}

		applyPatch(task, req)

		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}
		if err := reconcileReminder(ctx, tx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		if entities.IsValidation(err) || entities.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated", "task_id", updated.ID)
	return updated, nil
}

func validatePatch(req ports.UpdateTaskRequest) error {
	if req.Title.Set {
		title := strings.TrimSpace(req.Title.Value)
		if req.Title.Null || title == "" {
			return entities.NewValidationError("title", "Title cannot be empty")
		}
		if len(title) > maxTitleLength {
			return entities.NewValidationError("title", "Title is too long")
		}
	}
	if req.Completed.Set && req.Completed.Null {
		return entities.NewValidationError("completed", "Invalid completed value")
	}
	if req.ProjectID.Set && (req.ProjectID.Null || req.ProjectID.Value == "") {
		return entities.NewValidationError("projectId", "Invalid projectId value")
	}
	if req.Priority.Set && !req.Priority.Null && req.Priority.Value != nil && !req.Priority.Value.Valid() {
		return entities.NewValidationError("priority", "Invalid priority value")
	}
	if req.Order.Set && (req.Order.Null || req.Order.Value < 0) {
		return entities.NewValidationError("order", "Invalid order value")
	}
	if req.ReminderEnabled.Set && req.ReminderEnabled.Null {
		return entities.NewValidationError("reminderEnabled", "Invalid reminderEnabled value")
	}
	if req.UserEmail.Set && !req.UserEmail.Null && strings.TrimSpace(req.UserEmail.Value) != "" {
		if err := fieldValidator.Var(strings.TrimSpace(req.UserEmail.Value), "email"); err != nil {
			return entities.NewValidationError("userEmail", "Invalid email address")
		}
	}
	return nil
}

func applyPatch(task *entities.Task, req ports.UpdateTaskRequest) {
	if req.Title.Set {
		task.Title = strings.TrimSpace(req.Title.Value)
	}
	if req.Completed.Set {
		task.Completed = req.Completed.Value
	}
	if req.ProjectID.Set {
		task.ProjectID = req.ProjectID.Value
	}
	if req.DueDate.Set {
		task.DueDate = req.DueDate.Value
	}
	if req.Priority.Set {
		task.Priority = req.Priority.Value
	}
	if req.Order.Set {
		task.Order = req.Order.Value
	}
	if req.ReminderEnabled.Set {
		task.ReminderEnabled = req.ReminderEnabled.Value
	}
	if req.ReminderTime.Set {
		task.ReminderTime = req.ReminderTime.Value
	}
	if req.UserEmail.Set {
		task.UserEmail = strings.TrimSpace(req.UserEmail.Value)
	}
}

// DeleteTask removes a task and its reminders
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		deleted, err := tx.Tasks().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return entities.NewNotFoundError("task", id)
		}
		return tx.Reminders().DeleteByTask(ctx, id)
	})
	if err != nil {
		if entities.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Infow("Task deleted", "task_id", id)
	return nil
}

type reminderKey struct {
	taskID string
	at     int64
}

// SyncTasks replaces the whole task set and recomputes the reminders. Sent
// state survives for tasks whose reminder time did not change.
func (s *TaskService) SyncTasks(ctx context.Context, req ports.SyncTasksRequest) (*ports.SyncTasksResult, error) {
	tasks := make([]*entities.Task, 0, len(req.Tasks))
	seen := make(map[string]bool, len(req.Tasks))
	for i, st := range req.Tasks {
		task := st.ToEntity()
		if seen[task.ID] {
			return nil, entities.NewValidationError(fmt.Sprintf("tasks[%d].id", i), "Duplicate task id")
		}
		if task.Priority != nil && !task.Priority.Valid() {
			return nil, entities.NewValidationError(fmt.Sprintf("tasks[%d].priority", i), "Invalid priority value")
		}
		seen[task.ID] = true
		tasks = append(tasks, task)
	}

	result := &ports.SyncTasksResult{TasksCount: len(tasks)}
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		projects, err := tx.Projects().List(ctx)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(projects))
		for _, p := range projects {
			known[p.ID] = true
		}
		for i, task := range tasks {
			if !known[task.ProjectID] {
				return entities.NewValidationError(fmt.Sprintf("tasks[%d].projectId", i), "Project does not exist")
			}
		}

		previous, err := tx.Reminders().ListAll(ctx)
		if err != nil {
			return err
		}
		prior := make(map[reminderKey]*entities.Reminder, len(previous))
		for _, r := range previous {
			if existing, ok := prior[reminderKey{r.TaskID, r.ReminderTime}]; ok && existing.Sent {
				continue
			}
			prior[reminderKey{r.TaskID, r.ReminderTime}] = r
		}

		if err := tx.Reminders().DeleteAll(ctx); err != nil {
			return err
		}
		if err := tx.Tasks().DeleteAll(ctx); err != nil {
			return err
		}

		kept := make(map[string]bool)
		for _, task := range tasks {
			if err := tx.Tasks().Create(ctx, task); err != nil {
				return err
			}
			if !task.WantsReminder() {
				continue
			}

			reminder := &entities.Reminder{
				ID:           newID(),
				TaskID:       task.ID,
				UserEmail:    task.UserEmail,
				ReminderTime: *task.ReminderTime,
			}
			if old, ok := prior[reminderKey{task.ID, *task.ReminderTime}]; ok {
				reminder.ID = old.ID
				reminder.Sent = old.Sent
				reminder.SentAt = old.SentAt
			}
			if err := tx.Reminders().Create(ctx, reminder); err != nil {
				return err
			}
			kept[reminder.ID] = true
			result.RemindersCount++
		}

		// sent history of surviving tasks stays, so it is never re-sent
		for _, old := range previous {
			if old.Sent && seen[old.TaskID] && !kept[old.ID] {
				if err := tx.Reminders().Create(ctx, old); err != nil {
					return err
				}
				kept[old.ID] = true
			}
		}
		return nil
	})
	if err != nil {
		if entities.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to sync tasks: %w", err)
	}

	s.logger.Infow("Tasks synced", "tasks", result.TasksCount, "reminders", result.RemindersCount)
	return result, nil
}

// ReorderTasks moves one task within its project and renumbers the project
func (s *TaskService) ReorderTasks(ctx context.Context, req ports.ReorderTasksRequest) ([]*entities.Task, error) {
	if req.FromIndex == nil || req.ToIndex == nil {
		return nil, entities.NewValidationError("fromIndex", "fromIndex and toIndex are required")
	}

	var ordered []*entities.Task
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		if _, err := tx.Projects().GetByID(ctx, req.ProjectID); err != nil {
			return err
		}

		tasks, err := tx.Tasks().List(ctx, ports.TaskFilter{ProjectID: &req.ProjectID})
		if err != nil {
			return err
		}
		entities.SortTasks(tasks)

		before := make(map[string]int, len(tasks))
		for _, t := range tasks {
			before[t.ID] = t.Order
		}

		ordered, err = entities.MoveTask(tasks, *req.FromIndex, *req.ToIndex)
		if err != nil {
			return err
		}

		for _, t := range ordered {
			if before[t.ID] == t.Order {
				continue
			}
			if err := tx.Tasks().Update(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if entities.IsValidation(err) || entities.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to reorder tasks: %w", err)
	}

	s.logger.Infow("Tasks reordered", "project_id", req.ProjectID, "from", *req.FromIndex, "to", *req.ToIndex)
	return ordered, nil
}
