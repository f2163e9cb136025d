package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Sweep lock backends
const (
	LockNone  = "none"
	LockFile  = "file"
	LockRedis = "redis"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Security  SecurityConfig  `mapstructure:"security"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Mail      MailConfig      `mapstructure:"mail"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds bearer token configuration for the API
type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MailConfig is the fallback SMTP configuration used until settings are saved
type MailConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	User               string        `mapstructure:"user"`
	Pass               string        `mapstructure:"pass"`
	FromEmail          string        `mapstructure:"from_email"`
	FromName           string        `mapstructure:"from_name"`
	ToEmail            string        `mapstructure:"to_email"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Timezone           string        `mapstructure:"timezone"`
}

// RemindersConfig controls the reminder sweep
type RemindersConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	Lock        string        `mapstructure:"lock"`
	LockFile    string        `mapstructure:"lock_file"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

// SecretsConfig holds the optional at-rest encryption key
type SecretsConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "todo-reminder")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/todo.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "todo")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.expires_in", "720h")
	v.SetDefault("auth.issuer", "todo-reminder")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "15m")
	v.SetDefault("security.request_timeout", "30s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)

	// Mail defaults
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.user", "")
	v.SetDefault("mail.pass", "")
	v.SetDefault("mail.from_email", "")
	v.SetDefault("mail.from_name", "Todo Reminder")
	v.SetDefault("mail.to_email", "")
	v.SetDefault("mail.timeout", "15s")
	v.SetDefault("mail.insecure_skip_verify", false)
	v.SetDefault("mail.timezone", "Local")

	// Reminder defaults
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.interval", "60s")
	v.SetDefault("reminders.send_timeout", "20s")
	v.SetDefault("reminders.lock", LockNone)
	v.SetDefault("reminders.lock_file", "data/sweep.lock")
	v.SetDefault("reminders.lock_ttl", "5m")

	// Secrets defaults
	v.SetDefault("secrets.encryption_key", "")
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		// App
		"app.name":        {"APP_NAME"},
		"app.version":     {"APP_VERSION"},
		"app.environment": {"APP_ENVIRONMENT", "NODE_ENV"},
		"app.debug":       {"APP_DEBUG"},

		// Server
		"server.port":             {"PORT", "SERVER_PORT"},
		"server.host":             {"SERVER_HOST"},
		"server.read_timeout":     {"SERVER_READ_TIMEOUT"},
		"server.write_timeout":    {"SERVER_WRITE_TIMEOUT"},
		"server.idle_timeout":     {"SERVER_IDLE_TIMEOUT"},
		"server.shutdown_timeout": {"SERVER_SHUTDOWN_TIMEOUT"},

		// Database
		"database.driver":             {"DB_DRIVER"},
		"database.path":               {"DB_PATH"},
		"database.host":               {"DB_HOST"},
		"database.port":               {"DB_PORT"},
		"database.name":               {"DB_NAME"},
		"database.user":               {"DB_USER"},
		"database.password":           {"DB_PASSWORD"},
		"database.ssl_mode":           {"DB_SSL_MODE"},
		"database.max_open_conns":     {"DB_MAX_OPEN_CONNS"},
		"database.max_idle_conns":     {"DB_MAX_IDLE_CONNS"},
		"database.conn_max_lifetime":  {"DB_CONN_MAX_LIFETIME"},
		"database.conn_max_idle_time": {"DB_CONN_MAX_IDLE_TIME"},
		"database.auto_migrate":       {"DB_AUTO_MIGRATE"},

		// Redis
		"redis.enabled":  {"REDIS_ENABLED"},
		"redis.host":     {"REDIS_HOST"},
		"redis.port":     {"REDIS_PORT"},
		"redis.password": {"REDIS_PASSWORD"},
		"redis.db":       {"REDIS_DB"},

		// Auth
		"auth.enabled":    {"AUTH_ENABLED"},
		"auth.secret":     {"AUTH_SECRET"},
		"auth.expires_in": {"AUTH_EXPIRES_IN"},
		"auth.issuer":     {"AUTH_ISSUER"},

		// Logger
		"logger.level":    {"LOG_LEVEL"},
		"logger.format":   {"LOG_FORMAT"},
		"logger.output":   {"LOG_OUTPUT"},
		"logger.filename": {"LOG_FILENAME"},

		// Security
		"security.cors_allowed_origins": {"CORS_ALLOWED_ORIGINS"},
		"security.rate_limit_requests":  {"RATE_LIMIT_MAX_REQUESTS"},
		"security.rate_limit_window":    {"RATE_LIMIT_WINDOW"},
		"security.request_timeout":      {"REQUEST_TIMEOUT"},

		// Metrics
		"metrics.enabled": {"ENABLE_METRICS"},

		// Mail
		"mail.host":                 {"SMTP_HOST"},
		"mail.port":                 {"SMTP_PORT"},
		"mail.user":                 {"SMTP_USER"},
		"mail.pass":                 {"SMTP_PASS"},
		"mail.from_email":           {"FROM_EMAIL"},
		"mail.from_name":            {"FROM_NAME"},
		"mail.to_email":             {"TO_EMAIL"},
		"mail.timeout":              {"SMTP_TIMEOUT"},
		"mail.insecure_skip_verify": {"SMTP_INSECURE_SKIP_VERIFY"},
		"mail.timezone":             {"REMINDER_TIMEZONE"},

		// Reminders
		"reminders.enabled":      {"REMINDERS_ENABLED"},
		"reminders.interval":     {"REMINDER_INTERVAL"},
		"reminders.send_timeout": {"REMINDER_SEND_TIMEOUT"},
		"reminders.lock":         {"REMINDER_LOCK"},
		"reminders.lock_file":    {"REMINDER_LOCK_FILE"},
		"reminders.lock_ttl":     {"REMINDER_LOCK_TTL"},

		// Secrets
		"secrets.encryption_key": {"SECRETS_ENCRYPTION_KEY"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
		if cfg.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite3")
		}
	case DriverPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Auth.Enabled && len(cfg.Auth.Secret) < 16 {
		return fmt.Errorf("auth secret must be at least 16 characters when auth is enabled")
	}

	if cfg.Reminders.Interval <= 0 {
		return fmt.Errorf("reminder interval must be positive")
	}

	switch cfg.Reminders.Lock {
	case LockNone, LockFile:
	case LockRedis:
		if !cfg.Redis.Enabled {
			return fmt.Errorf("redis lock requires redis.enabled")
		}
	default:
		return fmt.Errorf("unsupported reminder lock %q", cfg.Reminders.Lock)
	}

	if cfg.Secrets.EncryptionKey != "" {
		if _, err := cfg.Secrets.Key(); err != nil {
			return err
		}
	}

	return nil
}

// GetDSN returns the connection string for the configured driver
func (cfg *DatabaseConfig) GetDSN() string {
	if cfg.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", cfg.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// MigrationURL returns the database URL understood by golang-migrate
func (cfg *DatabaseConfig) MigrationURL() string {
	if cfg.Driver == DriverSQLite {
		return "sqlite3://" + cfg.Path + "?_foreign_keys=ON"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Key decodes the 32-byte encryption key. It returns nil when none is configured.
func (cfg *SecretsConfig) Key() (*[32]byte, error) {
	if cfg.EncryptionKey == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key must be hex encoded: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// Location resolves the timezone used to format reminder times
func (cfg *MailConfig) Location() *time.Location {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
