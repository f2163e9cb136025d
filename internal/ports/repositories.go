package ports

import (
	"context"
	"time"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
)

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *entities.Project) error
	GetByID(ctx context.Context, id string) (*entities.Project, error)
	Update(ctx context.Context, project *entities.Project) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*entities.Project, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id string) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
	DeleteAll(ctx context.Context) error
}

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *entities.Reminder) error
	ListUnsent(ctx context.Context) ([]*entities.Reminder, error)
	ListByTask(ctx context.Context, taskID string) ([]*entities.Reminder, error)
	ListAll(ctx context.Context) ([]*entities.Reminder, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteUnsentByTask(ctx context.Context, taskID string) error
	DeleteByTask(ctx context.Context, taskID string) error
	DeleteByProject(ctx context.Context, projectID string) error
	DeleteAll(ctx context.Context) error
}

// SettingsRepository stores the SMTP settings singleton
type SettingsRepository interface {
	// Get returns entities.DefaultSmtpSettings when nothing was saved yet
	Get(ctx context.Context) (*entities.SmtpSettings, error)
	Save(ctx context.Context, settings *entities.SmtpSettings) error
}

// Store groups the repositories behind one persistence backend
type Store interface {
	Projects() ProjectRepository
	Tasks() TaskRepository
	Reminders() ReminderRepository
	Settings() SettingsRepository

	// WithinTx runs fn against a store whose writes commit together or not at all
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// TaskFilter narrows task listings
type TaskFilter struct {
	ProjectID *string
}
