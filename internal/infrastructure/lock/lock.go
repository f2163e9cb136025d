// Package lock provides the cross-process guards for the reminder sweep.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// New builds the locker selected by cfg.Lock. It returns nil for "none";
// rdb is only consulted for the redis backend.
func New(cfg config.RemindersConfig, rdb *redis.Client) (ports.SweepLocker, error) {
	switch cfg.Lock {
	case config.LockNone, "":
		return nil, nil
	case config.LockFile:
		return NewFileLocker(cfg.LockFile)
	case config.LockRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis lock requires a redis client")
		}
		return NewRedisLocker(rdb, "todo-reminder:sweep", cfg.LockTTL), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock)
	}
}

// FileLocker serialises sweeps of processes sharing one host
type FileLocker struct {
	lock *flock.Flock
}

func NewFileLocker(path string) (*FileLocker, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}
	return &FileLocker{lock: flock.New(path)}, nil
}

func (l *FileLocker) TryLock(_ context.Context) (func(), bool, error) {
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("acquire file lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return func() { _ = l.lock.Unlock() }, true, nil
}

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker serialises sweeps across hosts. The TTL bounds how long a
// crashed holder blocks the others.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire redis lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
	}
	return release, true, nil
}
