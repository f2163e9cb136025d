package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/database"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/server"
)

// Build information, set with -ldflags
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the reminder scheduler",
		Long:  "Start the REST API and, unless disabled, the periodic reminder sweep",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration(database.Up)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration(database.Down)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewHealthcheckCommand probes a running server. It exits 0 when
// /api/health answers 200 and 1 on any failure or timeout.
func NewHealthcheckCommand() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check the health endpoint of a running server",
		Run: func(cmd *cobra.Command, args []string) {
			if url == "" {
				port := 3001
				if cfg, err := config.Load(); err == nil {
					port = cfg.Server.Port
				}
				url = fmt.Sprintf("http://localhost:%d/api/health", port)
			}

			if err := checkHealth(url, timeout); err != nil {
				fmt.Printf("Backend health check failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Backend is healthy")
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Health endpoint URL (default http://localhost:<port>/api/health)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}

// NewRemindCommand exposes the reminder dispatcher on the command line
func NewRemindCommand() *cobra.Command {
	remindCmd := &cobra.Command{
		Use:   "remind",
		Short: "Reminder dispatch commands",
	}

	remindCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Deliver every due reminder once and exit",
		Run: func(cmd *cobra.Command, args []string) {
			withContainer(func(ctx context.Context, c *server.Container) {
				result, err := c.Reminders.Sweep(ctx)
				if errors.Is(err, entities.ErrSweepInProgress) {
					fmt.Println("Another sweep is running, nothing to do")
					return
				}
				if err != nil {
					log.Fatalf("Sweep failed: %v", err)
				}
				fmt.Printf("Due: %d  Sent: %d  Failed: %d  Skipped: %d  Orphaned: %d\n",
					result.Due, result.Sent, result.Failed, result.Skipped, result.Orphaned)
			})
		},
	})

	remindCmd.AddCommand(&cobra.Command{
		Use:   "send <taskId>",
		Short: "Send the reminder of one task now",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withContainer(func(ctx context.Context, c *server.Container) {
				recipient, err := c.Reminders.SendNow(ctx, args[0])
				if err != nil {
					log.Fatalf("Send failed: %v", err)
				}
				fmt.Printf("Reminder sent to %s\n", recipient)
			})
		},
	})

	return remindCmd
}

// NewTokenCommand issues API bearer tokens
func NewTokenCommand() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "API token commands",
	}

	var (
		subject string
		ttl     time.Duration
	)
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for the API",
		Run: func(cmd *cobra.Command, args []string) {
			if subject == "" {
				log.Fatal("Subject is required")
			}
			withContainer(func(_ context.Context, c *server.Container) {
				token, expiresAt, err := c.Tokens.IssueToken(subject, ttl)
				if err != nil {
					log.Fatalf("Failed to issue token: %v", err)
				}
				fmt.Println(token)
				fmt.Fprintf(os.Stderr, "Expires: %s\n", expiresAt.Format(time.RFC3339))
			})
		},
	}
	issueCmd.Flags().StringVar(&subject, "subject", "", "Token subject (required)")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default auth.expires_in)")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Todo Reminder version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Todo Reminder %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	container, err := server.NewContainer(cfg, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize application", "error", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.Projects.EnsureDefaults(ctx); err != nil {
		appLogger.Fatalw("Failed to seed default projects", "error", err)
	}

	srv, err := server.New(cfg, container, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting Todo Reminder API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"driver", cfg.Database.Driver,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if cfg.Reminders.Enabled {
		g.Go(func() error {
			return container.Scheduler.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Fatalw("Server stopped with error", "error", err)
	}
	appLogger.Info("Server stopped")
}

// withContainer runs fn against a fully wired application without serving HTTP
func withContainer(fn func(ctx context.Context, c *server.Container)) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	container, err := server.NewContainer(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fn(ctx, container)
}

func runMigration(direction database.Direction) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	status, err := database.Migrate(cfg.Database, direction)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if status.NoChange {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully (version %d)\n", direction, status.Version)
	}
}

func showMigrationVersion() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	status, err := database.Version(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", status.Version)
	fmt.Printf("Dirty: %t\n", status.Dirty)
}

func checkHealth(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s", timeout)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
