package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/database"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "todo.db"),
	}
	_, err := database.Migrate(cfg, database.Up)
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(db.DB)
}

func ptr[T any](v T) *T { return &v }

func seedProject(t *testing.T, store *Store, id string, kind entities.ProjectKind, createdAt int64) {
	t.Helper()
	require.NoError(t, store.Projects().Create(context.Background(), &entities.Project{
		ID: id, Name: id, CreatedAt: createdAt, Kind: kind,
	}))
}

func TestProjectRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedProject(t, store, "p-user", entities.ProjectKindUser, 1)
	seedProject(t, store, entities.InboxProjectID, entities.ProjectKindSystem, 5)

	projects, err := store.Projects().List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, entities.InboxProjectID, projects[0].ID)

	p, err := store.Projects().GetByID(ctx, "p-user")
	require.NoError(t, err)
	p.Name = "Renamed"
	p.Icon = ptr("star")
	require.NoError(t, store.Projects().Update(ctx, p))

	got, err := store.Projects().GetByID(ctx, "p-user")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "star", *got.Icon)

	_, err = store.Projects().GetByID(ctx, "missing")
	assert.True(t, entities.IsNotFound(err))

	err = store.Projects().Update(ctx, &entities.Project{ID: "missing", Kind: entities.ProjectKindUser})
	assert.True(t, entities.IsNotFound(err))

	deleted, err := store.Projects().Delete(ctx, "p-user")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Projects().Delete(ctx, "p-user")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProject(t, store, "p1", entities.ProjectKindUser, 1)

	task := &entities.Task{
		ID:              "t1",
		Title:           "Pay rent",
		ProjectID:       "p1",
		CreatedAt:       100,
		DueDate:         ptr(int64(5000)),
		Priority:        ptr(entities.PriorityHigh),
		Order:           3,
		ReminderEnabled: true,
		ReminderTime:    ptr(int64(4000)),
		UserEmail:       "me@example.com",
	}
	require.NoError(t, store.Tasks().Create(ctx, task))
	require.NoError(t, store.Tasks().Create(ctx, &entities.Task{ID: "t0", Title: "First", ProjectID: "p1", CreatedAt: 50}))

	got, err := store.Tasks().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task, got)

	got.Priority = nil
	got.Completed = true
	require.NoError(t, store.Tasks().Update(ctx, got))

	got, err = store.Tasks().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got.Priority)
	assert.True(t, got.Completed)

	list, err := store.Tasks().List(ctx, ports.TaskFilter{ProjectID: ptr("p1")})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t0", list[0].ID)

	list, err = store.Tasks().List(ctx, ports.TaskFilter{ProjectID: ptr("other")})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReminderMarkSentOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Reminders().Create(ctx, &entities.Reminder{ID: "r1", TaskID: "t1", ReminderTime: 10}))

	now := time.UnixMilli(20)
	changed, err := store.Reminders().MarkSent(ctx, "r1", now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Reminders().MarkSent(ctx, "r1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)

	unsent, err := store.Reminders().ListUnsent(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsent)

	all, err := store.Reminders().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Sent)
	assert.Equal(t, int64(20), *all[0].SentAt)
}

func TestWithinTxCascadeDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProject(t, store, "p1", entities.ProjectKindUser, 1)
	seedProject(t, store, "p2", entities.ProjectKindUser, 2)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Tasks().Create(ctx, &entities.Task{ID: id, Title: id, ProjectID: "p1", Order: i}))
		require.NoError(t, store.Reminders().Create(ctx, &entities.Reminder{ID: "r-" + id, TaskID: id, ReminderTime: 1}))
	}
	require.NoError(t, store.Tasks().Create(ctx, &entities.Task{ID: "keep", Title: "keep", ProjectID: "p2"}))

	err := store.WithinTx(ctx, func(tx ports.Store) error {
		if err := tx.Reminders().DeleteByProject(ctx, "p1"); err != nil {
			return err
		}
		if _, err := tx.Tasks().DeleteByProject(ctx, "p1"); err != nil {
			return err
		}
		_, err := tx.Projects().Delete(ctx, "p1")
		return err
	})
	require.NoError(t, err)

	remaining, err := store.Tasks().List(ctx, ports.TaskFilter{ProjectID: ptr("p1")})
	require.NoError(t, err)
	assert.Empty(t, remaining)

	reminders, err := store.Reminders().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, reminders)

	other, err := store.Tasks().List(ctx, ports.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProject(t, store, "p1", entities.ProjectKindUser, 1)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx ports.Store) error {
		if _, err := tx.Projects().Delete(ctx, "p1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Projects().GetByID(ctx, "p1")
	assert.NoError(t, err)
}

func TestSettingsDefaultsAndUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	settings, err := store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultSmtpSettings(), *settings)

	saved := entities.SmtpSettings{Host: "smtp.example.com", Port: 465, User: "me@example.com", Pass: "secret"}
	require.NoError(t, store.Settings().Save(ctx, &saved))

	saved.ToEmail = "inbox@example.com"
	require.NoError(t, store.Settings().Save(ctx, &saved))

	settings, err = store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, *settings)
}
