// Package repository implements the persistence ports on top of sqlx. The
// queries are written with "?" placeholders and rebound for the active driver,
// so the same code serves sqlite3 and postgres.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// Store implements ports.Store. Outside a transaction ext is the pool; inside
// one it is the *sqlx.Tx and every repository shares it.
type Store struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
	tx  *sqlx.Tx
}

// NewStore creates a store over an open connection pool
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, ext: db}
}

func (s *Store) Projects() ports.ProjectRepository   { return &ProjectRepository{ext: s.ext} }
func (s *Store) Tasks() ports.TaskRepository         { return &TaskRepository{ext: s.ext} }
func (s *Store) Reminders() ports.ReminderRepository { return &ReminderRepository{ext: s.ext} }
func (s *Store) Settings() ports.SettingsRepository  { return &SettingsRepository{ext: s.ext} }

// Ping checks the underlying connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn inside a transaction. Nested calls join the outer one.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, ext: tx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func exec(ctx context.Context, ext sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func get(ctx context.Context, ext sqlx.ExtContext, dest interface{}, resource, id, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, ext, dest, ext.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.NewNotFoundError(resource, id)
	}
	return err
}

func selectAll(ctx context.Context, ext sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, ext, dest, ext.Rebind(query), args...)
}
