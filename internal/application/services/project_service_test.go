package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.projects.EnsureDefaults(ctx))

	projects, err := f.projects.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, entities.InboxProjectID, projects[0].ID)
	assert.True(t, projects[0].IsProtected())
	assert.Equal(t, entities.WorkProjectID, projects[1].ID)
}

func TestListProjectsInboxFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock.Advance(-1000000)
	_, err := f.projects.CreateProject(ctx, ports.CreateProjectRequest{Name: "Older"})
	require.NoError(t, err)

	projects, err := f.projects.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Inbox", projects[0].Name)
	assert.Equal(t, "Older", projects[1].Name)
}

func TestInboxCannotBeRenamedOrDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.projects.UpdateProject(ctx, entities.InboxProjectID, ports.UpdateProjectRequest{Name: ptr("Renamed")})
	assert.ErrorIs(t, err, entities.ErrProjectProtected)

	icon := "inbox"
	project, err := f.projects.UpdateProject(ctx, entities.InboxProjectID, ports.UpdateProjectRequest{Icon: &icon})
	require.NoError(t, err)
	assert.Equal(t, "Inbox", project.Name)
	assert.Equal(t, "inbox", *project.Icon)

	_, err = f.projects.DeleteProject(ctx, entities.InboxProjectID)
	assert.ErrorIs(t, err, entities.ErrProjectProtected)
}

func TestRenamedUserProjectStaysDeletable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project, err := f.projects.UpdateProject(ctx, entities.WorkProjectID, ports.UpdateProjectRequest{Name: ptr("Inbox")})
	require.NoError(t, err)
	assert.False(t, project.IsProtected())

	_, err = f.projects.DeleteProject(ctx, entities.WorkProjectID)
	assert.NoError(t, err)
}

func TestDeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	at := f.clock.Now().Add(3600 * 1e9).UnixMilli()
	for i := 0; i < 3; i++ {
		f.createTask(t, ports.CreateTaskRequest{Title: "task", ReminderEnabled: true, ReminderTime: &at})
	}
	f.createTask(t, ports.CreateTaskRequest{Title: "inbox task", ProjectID: entities.InboxProjectID})
	require.Len(t, f.allReminders(t), 3)

	removed, err := f.projects.DeleteProject(ctx, entities.WorkProjectID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	tasks, err := f.tasks.ListTasks(ctx, entities.WorkProjectID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, f.allReminders(t))

	inbox, err := f.tasks.ListTasks(ctx, entities.InboxProjectID)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestProjectNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.projects.UpdateProject(ctx, "missing", ports.UpdateProjectRequest{Name: ptr("x")})
	assert.True(t, entities.IsNotFound(err))

	_, err = f.projects.DeleteProject(ctx, "missing")
	assert.True(t, entities.IsNotFound(err))

	_, err = f.projects.CreateProject(ctx, ports.CreateProjectRequest{Name: "   "})
	assert.True(t, entities.IsValidation(err))
}
