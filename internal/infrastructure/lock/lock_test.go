package lock

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
)

func TestFileLockerExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "sweep.lock")

	first, err := NewFileLocker(path)
	require.NoError(t, err)
	second, err := NewFileLocker(path)
	require.NoError(t, err)

	release, ok, err := first.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	release()

	release, ok, err = second.TryLock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestNewSelectsBackend(t *testing.T) {
	locker, err := New(config.RemindersConfig{Lock: config.LockNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, locker)

	locker, err = New(config.RemindersConfig{Lock: config.LockFile, LockFile: filepath.Join(t.TempDir(), "s.lock")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileLocker{}, locker)

	_, err = New(config.RemindersConfig{Lock: config.LockRedis}, nil)
	assert.Error(t, err)
}
