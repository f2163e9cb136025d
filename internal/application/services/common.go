package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// Clock returns the current time. Tests substitute a fixed one.
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time { return time.Now() }

var fieldValidator = validator.New()

func newID() string { return uuid.NewString() }

// reconcileReminder brings the stored reminders of task in line with its
// fields. Sent rows are never touched; an existing row for the same time is
// kept instead of being recreated.
func reconcileReminder(ctx context.Context, tx ports.Store, task *entities.Task) error {
	reminders, err := tx.Reminders().ListByTask(ctx, task.ID)
	if err != nil {
		return err
	}

	var keep *entities.Reminder
	if task.WantsReminder() {
		for _, r := range reminders {
			if r.ReminderTime == *task.ReminderTime {
				keep = r
				break
			}
		}
	}

	if keep == nil {
		if err := tx.Reminders().DeleteUnsentByTask(ctx, task.ID); err != nil {
			return err
		}
		if !task.WantsReminder() {
			return nil
		}
		return tx.Reminders().Create(ctx, &entities.Reminder{
			ID:           newID(),
			TaskID:       task.ID,
			UserEmail:    task.UserEmail,
			ReminderTime: *task.ReminderTime,
		})
	}

	for _, r := range reminders {
		if r.ID == keep.ID || r.Sent {
			continue
		}
		if _, err := tx.Reminders().Delete(ctx, r.ID); err != nil {
			return err
		}
	}
	return nil
}
