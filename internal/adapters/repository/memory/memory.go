// Package memory is an in-process implementation of ports.Store. It backs the
// "memory" database driver and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

type state struct {
	projects  map[string]entities.Project
	tasks     map[string]entities.Task
	reminders map[string]entities.Reminder
	settings  *entities.SmtpSettings
}

func newState() *state {
	return &state{
		projects:  make(map[string]entities.Project),
		tasks:     make(map[string]entities.Task),
		reminders: make(map[string]entities.Reminder),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.reminders {
		c.reminders[k] = v
	}
	if s.settings != nil {
		cp := *s.settings
		c.settings = &cp
	}
	return c
}

// Store is safe for concurrent use
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Projects() ports.ProjectRepository   { return &projectRepo{s.access} }
func (s *Store) Tasks() ports.TaskRepository         { return &taskRepo{s.access} }
func (s *Store) Reminders() ports.ReminderRepository { return &reminderRepo{s.access} }
func (s *Store) Settings() ports.SettingsRepository  { return &settingsRepo{s.access} }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WithinTx runs fn on a private copy of the data and publishes the copy only
// when fn succeeds. Other writers wait until the transaction finishes.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&txStore{state: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = working
	return nil
}

// access runs fn with the lock held; write selects the exclusive lock
func (s *Store) access(write bool, fn func(st *state) error) error {
	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.state)
}

// txStore operates on a working copy that is already exclusively held
type txStore struct {
	state *state
}

func (t *txStore) access(_ bool, fn func(st *state) error) error {
	return fn(t.state)
}

func (t *txStore) Projects() ports.ProjectRepository   { return &projectRepo{t.access} }
func (t *txStore) Tasks() ports.TaskRepository         { return &taskRepo{t.access} }
func (t *txStore) Reminders() ports.ReminderRepository { return &reminderRepo{t.access} }
func (t *txStore) Settings() ports.SettingsRepository  { return &settingsRepo{t.access} }

func (t *txStore) Ping(ctx context.Context) error { return ctx.Err() }

func (t *txStore) WithinTx(_ context.Context, fn func(tx ports.Store) error) error {
	return fn(t)
}

type accessor func(write bool, fn func(st *state) error) error

type projectRepo struct{ access accessor }

func (r *projectRepo) Create(_ context.Context, project *entities.Project) error {
	return r.access(true, func(st *state) error {
		st.projects[project.ID] = *project
		return nil
	})
}

func (r *projectRepo) GetByID(_ context.Context, id string) (*entities.Project, error) {
	var out *entities.Project
	err := r.access(false, func(st *state) error {
		p, ok := st.projects[id]
		if !ok {
			return entities.NewNotFoundError("project", id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *projectRepo) Update(_ context.Context, project *entities.Project) error {
	return r.access(true, func(st *state) error {
		if _, ok := st.projects[project.ID]; !ok {
			return entities.NewNotFoundError("project", project.ID)
		}
		st.projects[project.ID] = *project
		return nil
	})
}

func (r *projectRepo) Delete(_ context.Context, id string) (bool, error) {
	var deleted bool
	err := r.access(true, func(st *state) error {
		_, deleted = st.projects[id]
		delete(st.projects, id)
		return nil
	})
	return deleted, err
}

func (r *projectRepo) List(_ context.Context) ([]*entities.Project, error) {
	var out []*entities.Project
	err := r.access(false, func(st *state) error {
		out = make([]*entities.Project, 0, len(st.projects))
		for _, p := range st.projects {
			p := p
			out = append(out, &p)
		}
		return nil
	})
	entities.SortProjects(out)
	return out, err
}

type taskRepo struct{ access accessor }

func (r *taskRepo) Create(_ context.Context, task *entities.Task) error {
	return r.access(true, func(st *state) error {
		st.tasks[task.ID] = *task
		return nil
	})
}

func (r *taskRepo) GetByID(_ context.Context, id string) (*entities.Task, error) {
	var out *entities.Task
	err := r.access(false, func(st *state) error {
		t, ok := st.tasks[id]
		if !ok {
			return entities.NewNotFoundError("task", id)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *taskRepo) Update(_ context.Context, task *entities.Task) error {
	return r.access(true, func(st *state) error {
		if _, ok := st.tasks[task.ID]; !ok {
			return entities.NewNotFoundError("task", task.ID)
		}
		st.tasks[task.ID] = *task
		return nil
	})
}

func (r *taskRepo) Delete(_ context.Context, id string) (bool, error) {
	var deleted bool
	err := r.access(true, func(st *state) error {
		_, deleted = st.tasks[id]
		delete(st.tasks, id)
		return nil
	})
	return deleted, err
}

func (r *taskRepo) List(_ context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	var out []*entities.Task
	err := r.access(false, func(st *state) error {
		out = make([]*entities.Task, 0, len(st.tasks))
		for _, t := range st.tasks {
			if filter.ProjectID != nil && t.ProjectID != *filter.ProjectID {
				continue
			}
			t := t
			out = append(out, &t)
		}
		return nil
	})
	entities.SortTasks(out)
	return out, err
}

func (r *taskRepo) DeleteByProject(_ context.Context, projectID string) (int64, error) {
	var n int64
	err := r.access(true, func(st *state) error {
		for id, t := range st.tasks {
			if t.ProjectID == projectID {
				delete(st.tasks, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *taskRepo) DeleteAll(_ context.Context) error {
	return r.access(true, func(st *state) error {
		st.tasks = make(map[string]entities.Task)
		return nil
	})
}

type reminderRepo struct{ access accessor }

func (r *reminderRepo) Create(_ context.Context, reminder *entities.Reminder) error {
	return r.access(true, func(st *state) error {
		st.reminders[reminder.ID] = *reminder
		return nil
	})
}

func (r *reminderRepo) list(keep func(entities.Reminder) bool) ([]*entities.Reminder, error) {
	var out []*entities.Reminder
	err := r.access(false, func(st *state) error {
		for _, rem := range st.reminders {
			if keep(rem) {
				rem := rem
				out = append(out, &rem)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReminderTime != out[j].ReminderTime {
			return out[i].ReminderTime < out[j].ReminderTime
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *reminderRepo) ListUnsent(_ context.Context) ([]*entities.Reminder, error) {
	return r.list(func(rem entities.Reminder) bool { return !rem.Sent })
}

func (r *reminderRepo) ListByTask(_ context.Context, taskID string) ([]*entities.Reminder, error) {
	return r.list(func(rem entities.Reminder) bool { return rem.TaskID == taskID })
}

func (r *reminderRepo) ListAll(_ context.Context) ([]*entities.Reminder, error) {
	return r.list(func(entities.Reminder) bool { return true })
}

func (r *reminderRepo) MarkSent(_ context.Context, id string, sentAt time.Time) (bool, error) {
	var changed bool
	err := r.access(true, func(st *state) error {
		rem, ok := st.reminders[id]
		if !ok || rem.Sent {
			return nil
		}
		rem.MarkSent(sentAt)
		st.reminders[id] = rem
		changed = true
		return nil
	})
	return changed, err
}

func (r *reminderRepo) Delete(_ context.Context, id string) (bool, error) {
	var deleted bool
	err := r.access(true, func(st *state) error {
		_, deleted = st.reminders[id]
		delete(st.reminders, id)
		return nil
	})
	return deleted, err
}

func (r *reminderRepo) deleteWhere(match func(st *state, rem entities.Reminder) bool) error {
	return r.access(true, func(st *state) error {
		for id, rem := range st.reminders {
			if match(st, rem) {
				delete(st.reminders, id)
			}
		}
		return nil
	})
}

func (r *reminderRepo) DeleteUnsentByTask(_ context.Context, taskID string) error {
	return r.deleteWhere(func(_ *state, rem entities.Reminder) bool {
		return rem.TaskID == taskID && !rem.Sent
	})
}

func (r *reminderRepo) DeleteByTask(_ context.Context, taskID string) error {
	return r.deleteWhere(func(_ *state, rem entities.Reminder) bool {
		return rem.TaskID == taskID
	})
}

func (r *reminderRepo) DeleteByProject(_ context.Context, projectID string) error {
	return r.deleteWhere(func(st *state, rem entities.Reminder) bool {
		t, ok := st.tasks[rem.TaskID]
		return ok && t.ProjectID == projectID
	})
}

func (r *reminderRepo) DeleteAll(_ context.Context) error {
	return r.access(true, func(st *state) error {
		st.reminders = make(map[string]entities.Reminder)
		return nil
	})
}

type settingsRepo struct{ access accessor }

func (r *settingsRepo) Get(_ context.Context) (*entities.SmtpSettings, error) {
	out := entities.DefaultSmtpSettings()
	err := r.access(false, func(st *state) error {
		if st.settings != nil {
			out = *st.settings
		}
		return nil
	})
	return &out, err
}

func (r *settingsRepo) Save(_ context.Context, settings *entities.SmtpSettings) error {
	return r.access(true, func(st *state) error {
		cp := *settings
		st.settings = &cp
		return nil
	})
}
