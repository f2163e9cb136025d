package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskmaster/todo-reminder/internal/adapters/repository/memory"
	"github.com/taskmaster/todo-reminder/internal/application/email"
	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// fakeMailer records every message and can be told to fail
type fakeMailer struct {
	mu       sync.Mutex
	sent     []ports.OutgoingEmail
	fail     map[string]error
	verifyFn func() error
	resets   int
	block    chan struct{}
}

func (m *fakeMailer) Send(ctx context.Context, e ports.OutgoingEmail) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[e.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, e)
	return nil
}

func (m *fakeMailer) Verify(context.Context) error {
	if m.verifyFn != nil {
		return m.verifyFn()
	}
	return nil
}

func (m *fakeMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

func (m *fakeMailer) Sent() []ports.OutgoingEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.OutgoingEmail(nil), m.sent...)
}

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store     *memory.Store
	mailer    *fakeMailer
	clock     *fakeClock
	projects  *ProjectService
	tasks     *TaskService
	settings  *SettingsService
	provider  *SettingsProvider
	reminders *ReminderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	mailer := &fakeMailer{fail: map[string]error{}}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	log := logger.NewNop()
	provider := NewSettingsProvider(store, nil, entities.SmtpSettings{})

	f := &fixture{
		store:    store,
		mailer:   mailer,
		clock:    clock,
		projects: NewProjectService(store, log, clock.Now),
		tasks:    NewTaskService(store, log, clock.Now),
		settings: NewSettingsService(provider, mailer, log, time.Second),
		provider: provider,
		reminders: NewReminderService(store, provider, mailer, email.NewRenderer(time.UTC), log, ReminderServiceOptions{
			Clock:       clock.Now,
			SendTimeout: time.Second,
		}),
	}
	require.NoError(t, f.projects.EnsureDefaults(context.Background()))
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) createTask(t *testing.T, req ports.CreateTaskRequest) *entities.Task {
	t.Helper()
	if req.ProjectID == "" {
		req.ProjectID = entities.WorkProjectID
	}
	task, err := f.tasks.CreateTask(context.Background(), req)
	require.NoError(t, err)
	return task
}

func (f *fixture) allReminders(t *testing.T) []*entities.Reminder {
	t.Helper()
	reminders, err := f.store.Reminders().ListAll(context.Background())
	require.NoError(t, err)
	return reminders
}
