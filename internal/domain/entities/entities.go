package entities

import (
	"sort"
	"strings"
	"time"
)

// Seeded project identifiers
const (
	InboxProjectID = "inbox-default-id"
	WorkProjectID  = "work-default-id"
)

// ProjectKind distinguishes seeded system projects from user projects
type ProjectKind string

const (
	ProjectKindSystem ProjectKind = "system"
	ProjectKindUser   ProjectKind = "user"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Label returns the capitalised priority name used in reminder emails
func (p Priority) Label() string {
	if p == "" {
		return "Normal"
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Project represents a task container. Timestamps are epoch milliseconds.
type Project struct {
	ID        string      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	CreatedAt int64       `json:"createdAt" db:"created_at"`
	Icon      *string     `json:"icon,omitempty" db:"icon"`
	Kind      ProjectKind `json:"kind" db:"kind"`
}

// Task represents a single todo item
type Task struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Completed       bool      `json:"completed" db:"completed"`
	ProjectID       string    `json:"projectId" db:"project_id"`
	CreatedAt       int64     `json:"createdAt" db:"created_at"`
	DueDate         *int64    `json:"dueDate" db:"due_date"`
	Priority        *Priority `json:"priority" db:"priority"`
	Order           int       `json:"order" db:"order_index"`
	ReminderEnabled bool      `json:"reminderEnabled" db:"reminder_enabled"`
	ReminderTime    *int64    `json:"reminderTime" db:"reminder_time"`
	UserEmail       string    `json:"userEmail,omitempty" db:"user_email"`
}

// Reminder is a one-time email notification derived from a task
type Reminder struct {
	ID           string `json:"id" db:"id"`
	TaskID       string `json:"taskId" db:"task_id"`
	UserEmail    string `json:"userEmail" db:"user_email"`
	ReminderTime int64  `json:"reminderTime" db:"reminder_time"`
	Sent         bool   `json:"sent" db:"sent"`
	SentAt       *int64 `json:"sentAt,omitempty" db:"sent_at"`
}

// SmtpSettings is the process-wide mail transport configuration
type SmtpSettings struct {
	Host      string `json:"host" db:"host"`
	Port      int    `json:"port" db:"port"`
	User      string `json:"user" db:"smtp_user"`
	Pass      string `json:"pass" db:"smtp_pass"`
	FromEmail string `json:"fromEmail" db:"from_email"`
	ToEmail   string `json:"toEmail" db:"to_email"`
}

const DefaultSmtpPort = 587

// DefaultSmtpSettings returns the settings reported before anything was saved
func DefaultSmtpSettings() SmtpSettings {
	return SmtpSettings{Port: DefaultSmtpPort}
}

// Business logic methods for Project
func (p *Project) IsProtected() bool {
	return p.Kind == ProjectKindSystem
}

// Business logic methods for Task
func (t *Task) WantsReminder() bool {
	return t.ReminderEnabled && t.ReminderTime != nil && !t.Completed
}

func (t *Task) PriorityValue() Priority {
	if t.Priority == nil {
		return ""
	}
	return *t.Priority
}

// Business logic methods for Reminder
func (r *Reminder) IsDue(now time.Time) bool {
	return !r.Sent && r.ReminderTime <= now.UnixMilli()
}

// MarkSent flips the reminder into its terminal state
func (r *Reminder) MarkSent(at time.Time) {
	if r.Sent {
		return
	}
	ms := at.UnixMilli()
	r.Sent = true
	r.SentAt = &ms
}

// Business logic methods for SmtpSettings
func (s SmtpSettings) Configured() bool {
	return s.Host != "" && s.User != "" && s.Pass != ""
}

// Sender returns the envelope sender address: the saved from address, then
// defaultFrom, then the login user.
func (s SmtpSettings) Sender(defaultFrom string) string {
	for _, addr := range []string{s.FromEmail, defaultFrom} {
		if addr = strings.TrimSpace(addr); addr != "" {
			return addr
		}
	}
	return s.User
}

// ResolveRecipient picks the task-level address and falls back to the
// configured one. It returns "" when neither is set.
func ResolveRecipient(task *Task, fallbacks ...string) string {
	if task != nil {
		if email := strings.TrimSpace(task.UserEmail); email != "" {
			return email
		}
	}
	for _, f := range fallbacks {
		if f = strings.TrimSpace(f); f != "" {
			return f
		}
	}
	return ""
}

// SortTasks orders tasks for display: by order, then insertion time
func SortTasks(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
}

// SortProjects puts system projects first, then orders by creation time
func SortProjects(projects []*Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if a.IsProtected() != b.IsProtected() {
			return a.IsProtected()
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
}

// MaxOrder returns the highest order among tasks, or -1 for an empty list
func MaxOrder(tasks []*Task) int {
	max := -1
	for _, t := range tasks {
		if t.Order > max {
			max = t.Order
		}
	}
	return max
}

// MoveTask moves the task at index from to index to and renumbers every
// task's order with its new position. The input slice keeps its sequence;
// the tasks it points to are renumbered in place.
func MoveTask(tasks []*Task, from, to int) ([]*Task, error) {
	if from < 0 || from >= len(tasks) {
		return nil, NewValidationError("fromIndex", "index out of range")
	}
	if to < 0 || to >= len(tasks) {
		return nil, NewValidationError("toIndex", "index out of range")
	}

	moved := make([]*Task, 0, len(tasks))
	moved = append(moved, tasks[:from]...)
	moved = append(moved, tasks[from+1:]...)

	item := tasks[from]
	moved = append(moved[:to], append([]*Task{item}, moved[to:]...)...)

	for i, t := range moved {
		t.Order = i
	}
	return moved, nil
}

// SeedProjects returns the projects created on first boot
func SeedProjects(now time.Time) []*Project {
	ms := now.UnixMilli()
	return []*Project{
		{ID: InboxProjectID, Name: "Inbox", CreatedAt: ms, Kind: ProjectKindSystem},
		{ID: WorkProjectID, Name: "Work", CreatedAt: ms, Kind: ProjectKindUser},
	}
}
