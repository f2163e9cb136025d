// Package email renders reminder messages. Task fields are escaped as they are
// interpolated into the HTML body, and the finished document is passed through
// Sanitize. The plain text body carries the raw values.
package email

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
)

const (
	dueDateLayout      = "Jan 2, 2006"
	reminderTimeLayout = "Jan 2, 2006 3:04 PM"

	// TestSubject is the subject of the connectivity test email
	TestSubject = "Test Email - Todo Reminder"
)

// Message is a rendered email
type Message struct {
	Subject string
	HTML    string
	Text    string
}

type view struct {
	Title         string
	DueDate       string
	Priority      string
	PriorityClass string
	ReminderTime  string
}

var funcs = template.FuncMap{"esc": EscapeHTML}

var htmlTemplate = template.Must(template.New("reminder.html").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Task Reminder</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
    .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
    .task-card { background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); margin: 20px 0; }
    .task-title { font-size: 24px; font-weight: bold; margin-bottom: 10px; color: #2c3e50; }
    .detail-item { margin: 8px 0; }
    .label { font-weight: bold; color: #7f8c8d; }
    .priority-high { color: #e74c3c; }
    .priority-medium { color: #f39c12; }
    .priority-low { color: #3498db; }
    .footer { text-align: center; margin-top: 30px; color: #7f8c8d; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Task Reminder</h1>
    <p>Don't forget about your upcoming task!</p>
  </div>
  <div class="content">
    <div class="task-card">
      <div class="task-title">{{esc .Title}}</div>
      <div class="task-details">
        <div class="detail-item">
          <span class="label">Due Date:</span> {{esc .DueDate}}
        </div>
        <div class="detail-item">
          <span class="label">Priority:</span>
          <span class="priority-{{esc .PriorityClass}}">{{esc .Priority}}</span>
        </div>
        <div class="detail-item">
          <span class="label">Reminder Time:</span> {{esc .ReminderTime}}
        </div>
      </div>
    </div>
    <p>This is a friendly reminder about your task. Make sure to complete it on time!</p>
    <div class="footer">
      <p>This email was sent from your Todo Reminder App</p>
      <p>If you no longer want to receive reminders, please update your task settings.</p>
    </div>
  </div>
</body>
</html>
`))

var textTemplate = template.Must(template.New("reminder.txt").Parse(`Task Reminder: {{.Title}}

Due Date: {{.DueDate}}
Priority: {{.Priority}}
Reminder Time: {{.ReminderTime}}

This is a friendly reminder about your task. Make sure to complete it on time!

This email was sent from your Todo Reminder App.
`))

// Renderer formats times in a fixed location
type Renderer struct {
	loc *time.Location
}

// NewRenderer returns a renderer for loc; nil means time.Local
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{loc: loc}
}

// Render builds the reminder email for task
func (r *Renderer) Render(task *entities.Task) (Message, error) {
	v := r.view(task)

	var html, text bytes.Buffer
	if err := htmlTemplate.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	if err := textTemplate.Execute(&text, v); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}

	return Message{
		Subject: "Reminder: " + task.Title,
		HTML:    Sanitize(html.String()),
		Text:    text.String(),
	}, nil
}

// RenderTest builds the test email sent from the settings screen
func (r *Renderer) RenderTest(now time.Time) (Message, error) {
	msg, err := r.Render(TestTask(now))
	if err != nil {
		return Message{}, err
	}
	msg.Subject = TestSubject
	return msg, nil
}

func (r *Renderer) view(task *entities.Task) view {
	v := view{
		Title:         task.Title,
		DueDate:       "No due date",
		Priority:      task.PriorityValue().Label(),
		PriorityClass: "normal",
		ReminderTime:  "Not set",
	}
	if task.DueDate != nil {
		v.DueDate = time.UnixMilli(*task.DueDate).In(r.loc).Format(dueDateLayout)
	}
	if p := task.PriorityValue(); p != "" {
		v.PriorityClass = string(p)
	}
	if task.ReminderTime != nil {
		v.ReminderTime = time.UnixMilli(*task.ReminderTime).In(r.loc).Format(reminderTimeLayout)
	}
	return v
}

// TestTask is the synthetic task rendered by the test email: due tomorrow,
// medium priority, reminder now.
func TestTask(now time.Time) *entities.Task {
	due := now.Add(24 * time.Hour).UnixMilli()
	at := now.UnixMilli()
	priority := entities.PriorityMedium
	return &entities.Task{
		ID:              "test-reminder",
		Title:           "Test Reminder Email",
		CreatedAt:       at,
		DueDate:         &due,
		Priority:        &priority,
		ReminderEnabled: true,
		ReminderTime:    &at,
	}
}
