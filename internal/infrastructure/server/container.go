package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/taskmaster/todo-reminder/internal/adapters/repository"
	"github.com/taskmaster/todo-reminder/internal/adapters/repository/memory"
	"github.com/taskmaster/todo-reminder/internal/application/email"
	"github.com/taskmaster/todo-reminder/internal/application/scheduler"
	"github.com/taskmaster/todo-reminder/internal/application/services"
	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/database"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/lock"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/mail"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/metrics"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/secrets"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// Container holds the wired application services
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *database.DB
	Redis   *redis.Client
	Store   ports.Store
	Metrics *metrics.Metrics
	Mailer  ports.Mailer

	SettingsProvider *services.SettingsProvider
	Projects         *services.ProjectService
	Tasks            *services.TaskService
	Settings         *services.SettingsService
	Reminders        *services.ReminderService
	Tokens           *services.TokenService
	Scheduler        *scheduler.Scheduler
}

// Components are the collaborators a container is assembled from
type Components struct {
	Store   ports.Store
	Cipher  ports.SecretCipher
	Locker  ports.SweepLocker
	Metrics *metrics.Metrics
	Clock   services.Clock
	// Mailer builds the transport once the settings source exists
	Mailer func(source ports.SettingsSource) ports.Mailer
}

// NewContainer opens the configured store and infrastructure and wires the
// services on top of them.
func NewContainer(cfg *config.Config, appLogger *logger.Logger) (*Container, error) {
	var (
		db    *database.DB
		rdb   *redis.Client
		store ports.Store
	)

	switch cfg.Database.Driver {
	case config.DriverMemory:
		store = memory.NewStore()
	default:
		if cfg.Database.AutoMigrate {
			status, err := database.Migrate(cfg.Database, database.Up)
			if err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			appLogger.Infow("Database schema ready", "version", status.Version, "changed", !status.NoChange)
		}

		var err error
		db, err = database.New(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store = repository.NewStore(db.DB)
	}

	closeOnErr := func() {
		if db != nil {
			_ = db.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}

	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			closeOnErr()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	locker, err := lock.New(cfg.Reminders, rdb)
	if err != nil {
		closeOnErr()
		return nil, fmt.Errorf("failed to create sweep lock: %w", err)
	}

	key, err := cfg.Secrets.Key()
	if err != nil {
		closeOnErr()
		return nil, err
	}
	var cipher ports.SecretCipher
	if key != nil {
		cipher = secrets.NewBox(key)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	c := Assemble(cfg, appLogger, Components{
		Store:   store,
		Cipher:  cipher,
		Locker:  locker,
		Metrics: m,
		Mailer: func(source ports.SettingsSource) ports.Mailer {
			return mail.NewTransport(cfg.Mail, source, appLogger)
		},
	})
	c.DB = db
	c.Redis = rdb
	return c, nil
}

// Assemble wires the services over already opened components
func Assemble(cfg *config.Config, appLogger *logger.Logger, comp Components) *Container {
	provider := services.NewSettingsProvider(comp.Store, comp.Cipher, fallbackSettings(cfg.Mail))
	mailer := comp.Mailer(provider)

	reminders := services.NewReminderService(
		comp.Store,
		provider,
		mailer,
		email.NewRenderer(cfg.Mail.Location()),
		appLogger,
		services.ReminderServiceOptions{
			Locker:      comp.Locker,
			Metrics:     comp.Metrics,
			Clock:       comp.Clock,
			SendTimeout: cfg.Reminders.SendTimeout,
		},
	)

	return &Container{
		Config:           cfg,
		Logger:           appLogger,
		Store:            comp.Store,
		Metrics:          comp.Metrics,
		Mailer:           mailer,
		SettingsProvider: provider,
		Projects:         services.NewProjectService(comp.Store, appLogger, comp.Clock),
		Tasks:            services.NewTaskService(comp.Store, appLogger, comp.Clock),
		Settings:         services.NewSettingsService(provider, mailer, appLogger, cfg.Mail.Timeout),
		Reminders:        reminders,
		Tokens:           services.NewTokenService(cfg.Auth, appLogger, comp.Clock),
		Scheduler:        scheduler.New(reminders, cfg.Reminders.Interval, appLogger),
	}
}

func fallbackSettings(cfg config.MailConfig) entities.SmtpSettings {
	return entities.SmtpSettings{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Pass:      cfg.Pass,
		FromEmail: cfg.FromEmail,
		ToEmail:   cfg.ToEmail,
	}
}

// Close releases the database and redis connections
func (c *Container) Close() error {
	var firstErr error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
