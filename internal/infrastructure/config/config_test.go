package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/todo.db", cfg.Database.Path)
	assert.Equal(t, 60*time.Second, cfg.Reminders.Interval)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "Todo Reminder", cfg.Mail.FromName)
	assert.Equal(t, LockNone, cfg.Reminders.Lock)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "4100")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("REMINDER_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4100, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 5*time.Second, cfg.Reminders.Interval)
}

func validConfig() Config {
	return Config{
		Server:    ServerConfig{Port: 3001},
		Database:  DatabaseConfig{Driver: DriverSQLite, Path: "todo.db"},
		Reminders: RemindersConfig{Interval: time.Minute, Lock: LockNone},
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "unsupported database driver"},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true }, "auth secret"},
		{"zero interval", func(c *Config) { c.Reminders.Interval = 0 }, "reminder interval"},
		{"redis lock without redis", func(c *Config) { c.Reminders.Lock = LockRedis }, "redis lock"},
		{"short key", func(c *Config) { c.Secrets.EncryptionKey = "abcd" }, "32 bytes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := validateConfig(&cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSecretsKey(t *testing.T) {
	cfg := SecretsConfig{EncryptionKey: strings.Repeat("ab", 32)}
	key, err := cfg.Key()
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, byte(0xab), key[0])

	empty := SecretsConfig{}
	key, err = empty.Key()
	assert.NoError(t, err)
	assert.Nil(t, key)
}

func TestDatabaseURLs(t *testing.T) {
	sqlite := DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/todo.db"}
	assert.Equal(t, "file:/tmp/todo.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", sqlite.GetDSN())
	assert.Equal(t, "sqlite3:///tmp/todo.db?_foreign_keys=ON", sqlite.MigrationURL())

	pg := DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: 5432, User: "app", Password: "p@ss", Name: "todo", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/todo?sslmode=disable", pg.MigrationURL())
	assert.Contains(t, pg.GetDSN(), "dbname=todo")
}
