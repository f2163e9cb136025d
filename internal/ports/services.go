package ports

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
)

// Mailer delivers rendered emails over the configured transport
type Mailer interface {
	Send(ctx context.Context, email OutgoingEmail) error
	// Verify opens and authenticates a connection without sending
	Verify(ctx context.Context) error
	// Reset drops any cached connection handle so new settings take effect
	Reset()
}

// SweepLocker guards a reminder sweep across processes
type SweepLocker interface {
	// TryLock returns ok=false without blocking when another holder owns the lock
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// SettingsSource yields the SMTP settings the transport should use right now
type SettingsSource interface {
	Effective(ctx context.Context) (*entities.SmtpSettings, error)
}

// SecretCipher protects credentials stored at rest
type SecretCipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(stored string) (string, error)
}

// OutgoingEmail is a fully rendered message
type OutgoingEmail struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Optional records whether a JSON field was present, so a PATCH can tell
// "absent" from "null" from a value.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON implements json.Unmarshaler
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Project related types
type CreateProjectRequest struct {
	Name string  `json:"name" validate:"required,max=200"`
	Icon *string `json:"icon" validate:"omitempty,max=64"`
}

type UpdateProjectRequest struct {
	Name *string `json:"name" validate:"omitempty,max=200"`
	Icon *string `json:"icon" validate:"omitempty,max=64"`
}

// Task related types
type CreateTaskRequest struct {
	Title           string             `json:"title" validate:"required,max=500"`
	ProjectID       string             `json:"projectId" validate:"required"`
	Order           *int               `json:"order" validate:"omitempty,min=0"`
	DueDate         *int64             `json:"dueDate"`
	Priority        *entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	ReminderEnabled bool               `json:"reminderEnabled"`
	ReminderTime    *int64             `json:"reminderTime"`
	UserEmail       string             `json:"userEmail" validate:"omitempty,email"`
}

// UpdateTaskRequest is a partial update. Absent fields are left untouched and
// null clears the nullable ones.
type UpdateTaskRequest struct {
	Title           Optional[string]             `json:"title"`
	Completed       Optional[bool]               `json:"completed"`
	ProjectID       Optional[string]             `json:"projectId"`
	DueDate         Optional[*int64]             `json:"dueDate"`
	Priority        Optional[*entities.Priority] `json:"priority"`
	Order           Optional[int]                `json:"order"`
	ReminderEnabled Optional[bool]               `json:"reminderEnabled"`
	ReminderTime    Optional[*int64]             `json:"reminderTime"`
	UserEmail       Optional[string]             `json:"userEmail"`
}

// SyncTask is one element of a full-replace sync payload
type SyncTask struct {
	ID              string             `json:"id" validate:"required"`
	Title           string             `json:"title" validate:"required"`
	Completed       *bool              `json:"completed" validate:"required"`
	ProjectID       string             `json:"projectId" validate:"required"`
	CreatedAt       *int64             `json:"createdAt" validate:"required"`
	DueDate         *int64             `json:"dueDate"`
	Priority        *entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Order           *int               `json:"order" validate:"required"`
	ReminderEnabled *bool              `json:"reminderEnabled" validate:"required"`
	ReminderTime    *int64             `json:"reminderTime"`
	UserEmail       string             `json:"userEmail" validate:"omitempty,email"`
}

// ToEntity converts a validated sync element
func (s SyncTask) ToEntity() *entities.Task {
	task := &entities.Task{
		ID:           s.ID,
		Title:        s.Title,
		ProjectID:    s.ProjectID,
		DueDate:      s.DueDate,
		Priority:     s.Priority,
		ReminderTime: s.ReminderTime,
		UserEmail:    s.UserEmail,
	}
	if s.Completed != nil {
		task.Completed = *s.Completed
	}
	if s.CreatedAt != nil {
		task.CreatedAt = *s.CreatedAt
	}
	if s.Order != nil {
		task.Order = *s.Order
	}
	if s.ReminderEnabled != nil {
		task.ReminderEnabled = *s.ReminderEnabled
	}
	return task
}

type SyncTasksRequest struct {
	Tasks []SyncTask `json:"tasks" validate:"required,dive"`
}

type SyncTasksResult struct {
	TasksCount     int `json:"tasksCount"`
	RemindersCount int `json:"remindersCount"`
}

type ReorderTasksRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
	FromIndex *int   `json:"fromIndex" validate:"required,min=0"`
	ToIndex   *int   `json:"toIndex" validate:"required,min=0"`
}

// Settings related types
type SmtpSettingsRequest struct {
	Host      string `json:"host" validate:"required,hostname_rfc1123|ip"`
	Port      int    `json:"port" validate:"required,min=1,max=65535"`
	User      string `json:"user" validate:"required,email"`
	Pass      string `json:"pass" validate:"required,min=1"`
	FromEmail string `json:"fromEmail" validate:"omitempty,email"`
	ToEmail   string `json:"toEmail" validate:"omitempty,email"`
}

// ToEntity converts a validated settings request
func (r SmtpSettingsRequest) ToEntity() *entities.SmtpSettings {
	return &entities.SmtpSettings{
		Host:      r.Host,
		Port:      r.Port,
		User:      r.User,
		Pass:      r.Pass,
		FromEmail: r.FromEmail,
		ToEmail:   r.ToEmail,
	}
}

// SmtpSettingsView is the settings representation returned to clients
type SmtpSettingsView struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	User        string `json:"user"`
	FromEmail   string `json:"fromEmail"`
	ToEmail     string `json:"toEmail"`
	HasPassword bool   `json:"hasPassword"`
	Configured  bool   `json:"configured"`
}

type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type SettingsUpdateResult struct {
	Configured bool                 `json:"configured"`
	TestResult ConnectionTestResult `json:"testResult"`
}

type TestEmailRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// SweepResult summarises one reminder sweep
type SweepResult struct {
	Due      int `json:"due"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	Orphaned int `json:"orphaned"`
}
