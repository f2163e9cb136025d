package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
)

const reminderColumns = `id, task_id, user_email, reminder_time, sent, sent_at`

// ReminderRepository implements ports.ReminderRepository
type ReminderRepository struct {
	ext sqlx.ExtContext
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *entities.Reminder) error {
	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := exec(ctx, r.ext, query,
		reminder.ID, reminder.TaskID, reminder.UserEmail, reminder.ReminderTime,
		reminder.Sent, reminder.SentAt,
	); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepository) list(ctx context.Context, where string, args ...interface{}) ([]*entities.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY reminder_time, id`

	reminders := []*entities.Reminder{}
	if err := selectAll(ctx, r.ext, &reminders, query, args...); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

func (r *ReminderRepository) ListUnsent(ctx context.Context) ([]*entities.Reminder, error) {
	return r.list(ctx, `sent = ?`, false)
}

func (r *ReminderRepository) ListByTask(ctx context.Context, taskID string) ([]*entities.Reminder, error) {
	return r.list(ctx, `task_id = ?`, taskID)
}

func (r *ReminderRepository) ListAll(ctx context.Context) ([]*entities.Reminder, error) {
	return r.list(ctx, "")
}

// MarkSent flips sent only while it is still false, so concurrent callers
// observe exactly one transition.
func (r *ReminderRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	query := `UPDATE reminders SET sent = ?, sent_at = ? WHERE id = ? AND sent = ?`

	n, err := exec(ctx, r.ext, query, true, sentAt.UnixMilli(), id, false)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return n > 0, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := exec(ctx, r.ext, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	return n > 0, nil
}

func (r *ReminderRepository) DeleteUnsentByTask(ctx context.Context, taskID string) error {
	if _, err := exec(ctx, r.ext, `DELETE FROM reminders WHERE task_id = ? AND sent = ?`, taskID, false); err != nil {
		return fmt.Errorf("delete unsent reminders: %w", err)
	}
	return nil
}

func (r *ReminderRepository) DeleteByTask(ctx context.Context, taskID string) error {
	if _, err := exec(ctx, r.ext, `DELETE FROM reminders WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("delete reminders by task: %w", err)
	}
	return nil
}

func (r *ReminderRepository) DeleteByProject(ctx context.Context, projectID string) error {
	query := `DELETE FROM reminders WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)`
	if _, err := exec(ctx, r.ext, query, projectID); err != nil {
		return fmt.Errorf("delete reminders by project: %w", err)
	}
	return nil
}

func (r *ReminderRepository) DeleteAll(ctx context.Context) error {
	if _, err := exec(ctx, r.ext, `DELETE FROM reminders`); err != nil {
		return fmt.Errorf("delete all reminders: %w", err)
	}
	return nil
}
