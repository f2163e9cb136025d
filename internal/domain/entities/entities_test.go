package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestMoveTaskReordersWithDistinctOrders(t *testing.T) {
	tasks := []*Task{
		{ID: "task0", Order: 0},
		{ID: "task1", Order: 1},
		{ID: "task2", Order: 2},
		{ID: "task3", Order: 3},
	}

	moved, err := MoveTask(tasks, 0, 2)
	require.NoError(t, err)

	SortTasks(moved)
	ids := make([]string, 0, len(moved))
	seen := map[int]bool{}
	for _, task := range moved {
		ids = append(ids, task.ID)
		assert.False(t, seen[task.Order], "duplicate order %d", task.Order)
		seen[task.Order] = true
	}
	assert.Equal(t, []string{"task1", "task2", "task0", "task3"}, ids)
}

func TestMoveTaskBackwards(t *testing.T) {
	tasks := []*Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	moved, err := MoveTask(tasks, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, "c", moved[0].ID)
	assert.Equal(t, 0, moved[0].Order)
	assert.Equal(t, "a", moved[1].ID)
	assert.Equal(t, 2, moved[2].Order)
}

func TestMoveTaskOutOfRange(t *testing.T) {
	tasks := []*Task{{ID: "a"}}

	_, err := MoveTask(tasks, 0, 3)
	assert.True(t, IsValidation(err))

	_, err = MoveTask(tasks, -1, 0)
	assert.True(t, IsValidation(err))
}

func TestWantsReminder(t *testing.T) {
	at := int64(1000)
	cases := []struct {
		name string
		task Task
		want bool
	}{
		{"enabled with time", Task{ReminderEnabled: true, ReminderTime: &at}, true},
		{"disabled", Task{ReminderEnabled: false, ReminderTime: &at}, false},
		{"no time", Task{ReminderEnabled: true}, false},
		{"completed", Task{ReminderEnabled: true, ReminderTime: &at, Completed: true}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.task.WantsReminder())
		})
	}
}

func TestResolveRecipient(t *testing.T) {
	assert.Equal(t, "task@example.com", ResolveRecipient(&Task{UserEmail: "task@example.com"}, "fallback@example.com"))
	assert.Equal(t, "fallback@example.com", ResolveRecipient(&Task{}, "", "fallback@example.com"))
	assert.Equal(t, "", ResolveRecipient(&Task{UserEmail: "  "}))
}

func TestReminderIsDueAndMarkSent(t *testing.T) {
	now := time.UnixMilli(10_000)
	r := Reminder{ReminderTime: 9_000}
	assert.True(t, r.IsDue(now))

	r.MarkSent(now)
	assert.True(t, r.Sent)
	require.NotNil(t, r.SentAt)
	assert.Equal(t, int64(10_000), *r.SentAt)
	assert.False(t, r.IsDue(now))

	r.MarkSent(now.Add(time.Hour))
	assert.Equal(t, int64(10_000), *r.SentAt)
}

func TestSortProjectsPutsSystemFirst(t *testing.T) {
	projects := []*Project{
		{ID: "b", CreatedAt: 1, Kind: ProjectKindUser},
		{ID: "inbox", CreatedAt: 5, Kind: ProjectKindSystem},
		{ID: "a", CreatedAt: 0, Kind: ProjectKindUser},
	}

	SortProjects(projects)

	assert.Equal(t, "inbox", projects[0].ID)
	assert.Equal(t, "a", projects[1].ID)
	assert.Equal(t, "b", projects[2].ID)
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "High", PriorityHigh.Label())
	assert.Equal(t, "Normal", Priority("").Label())
	assert.False(t, Priority("urgent").Valid())
	assert.Equal(t, PriorityLow, (&Task{Priority: ptr(PriorityLow)}).PriorityValue())
}

func TestSmtpSettingsConfigured(t *testing.T) {
	assert.False(t, DefaultSmtpSettings().Configured())
	assert.Equal(t, DefaultSmtpPort, DefaultSmtpSettings().Port)

	s := SmtpSettings{Host: "smtp.example.com", User: "me@example.com", Pass: "x"}
	assert.True(t, s.Configured())
	assert.Equal(t, "me@example.com", s.Sender(""))
	assert.Equal(t, "app@example.com", s.Sender("app@example.com"))
	s.FromEmail = "noreply@example.com"
	assert.Equal(t, "noreply@example.com", s.Sender("app@example.com"))
}
