package server

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/todo-reminder/docs"
	httpHandlers "github.com/taskmaster/todo-reminder/internal/adapters/http"
	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	logger    *logger.Logger
	container *Container
	startedAt time.Time
}

// CustomValidator wraps the validator and reports failures as validation
// errors named after the JSON field.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a validator that names fields by their json tag
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return entities.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return entities.NewValidationError(field, field+" is required")
	case "email":
		return entities.NewValidationError(field, field+" must be a valid email address")
	default:
		return entities.NewValidationError(field, "Invalid "+field+" value")
	}
}

// New creates a new server instance over a wired container
func New(cfg *config.Config, container *Container, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = NewValidator()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize handlers
	projectHandler := httpHandlers.NewProjectHandler(container.Projects, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(container.Tasks, appLogger)
	settingsHandler := httpHandlers.NewSettingsHandler(container.Settings, container.Reminders, appLogger)
	reminderHandler := httpHandlers.NewReminderHandler(container.Reminders, appLogger)

	server := &Server{
		echo:      e,
		config:    cfg,
		logger:    appLogger,
		container: container,
		startedAt: time.Now(),
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if cfg.Metrics.Enabled && container.Metrics != nil {
		server.setupMetrics()
	}

	// Setup routes
	server.setupRoutes(projectHandler, taskHandler, settingsHandler, reminderHandler)

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			s.logger.WithRequestID(values.RequestID).LogHTTPRequest(
				values.Method,
				values.URI,
				values.UserAgent,
				values.RemoteIP,
				values.Status,
				float64(values.Latency.Nanoseconds())/1000000,
				values.Error,
			)
			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	// Rate limiting middleware
	if limit := s.config.Security.RateLimitRequests; limit > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(float64(limit) / window.Seconds()),
					Burst:     limit,
					ExpiresIn: window,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, httpHandlers.Response{Error: "Rate limit identifier missing"})
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				s.logger.LogSecurityEvent("rate_limit_exceeded", identifier, map[string]interface{}{
					"endpoint": c.Request().URL.Path,
				})
				return c.JSON(http.StatusTooManyRequests, httpHandlers.Response{Error: "Too many requests, please try again later"})
			},
		}))
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Timeout middleware
	if s.config.Security.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      s.config.Security.RequestTimeout,
			ErrorMessage: `{"success":false,"error":"Request timed out"}`,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	projectHandler *httpHandlers.ProjectHandler,
	taskHandler *httpHandlers.TaskHandler,
	settingsHandler *httpHandlers.SettingsHandler,
	reminderHandler *httpHandlers.ReminderHandler,
) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api")
	if s.config.Auth.Enabled {
		api.Use(s.authMiddleware(s.container.Tokens))
	}

	api.GET("/health", s.healthCheck)
	api.GET("/health/detailed", s.detailedHealthCheck)

	// Project routes
	api.GET("/projects", projectHandler.ListProjects)
	api.POST("/projects", projectHandler.CreateProject)
	api.PATCH("/projects/:id", projectHandler.UpdateProject)
	api.DELETE("/projects/:id", projectHandler.DeleteProject)

	// Task routes
	api.GET("/tasks", taskHandler.ListTasks)
	api.POST("/tasks", taskHandler.CreateTask)
	api.POST("/tasks/sync", taskHandler.SyncTasks)
	api.POST("/tasks/reorder", taskHandler.ReorderTasks)
	api.GET("/tasks/:id", taskHandler.GetTask)
	api.PATCH("/tasks/:id", taskHandler.UpdateTask)
	api.DELETE("/tasks/:id", taskHandler.DeleteTask)

	// Settings routes; /settings and /smtp/settings are aliases
	for _, prefix := range []string{"/settings", "/smtp/settings"} {
		api.GET(prefix, settingsHandler.GetSettings)
		api.POST(prefix, settingsHandler.UpdateSettings)
	}
	api.POST("/smtp/test", settingsHandler.TestConnection)
	api.POST("/smtp/test-email", settingsHandler.SendTestEmail)

	// Reminder routes
	api.GET("/reminders", reminderHandler.ListReminders)
	api.POST("/reminders/send/:taskId", reminderHandler.SendReminder)
	api.POST("/reminders/sweep", reminderHandler.TriggerSweep)
}

// setupMetrics records every request and exposes the registry
func (s *Server) setupMetrics() {
	m := s.container.Metrics

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status, _ = httpHandlers.MapError(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.ObserveHTTP(c.Request().Method, path, status, time.Since(start))

			return err
		}
	})

	// Metrics endpoint
	s.echo.GET("/metrics", echo.WrapHandler(m.Handler()))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"uptime":    time.Since(s.startedAt).Seconds(),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	// Store health check
	if err := s.container.Store.Ping(ctx); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"driver": s.config.Database.Driver,
			"error":  err.Error(),
		}
	} else {
		database := map[string]interface{}{
			"status": "ok",
			"driver": s.config.Database.Driver,
		}
		if s.container.DB != nil {
			database["stats"] = s.container.DB.GetConnectionInfo()
		}
		checks["database"] = database
	}

	// Redis health check
	if s.container.Redis != nil {
		if err := s.container.Redis.Ping(ctx).Err(); err != nil {
			status = "error"
			checks["redis"] = map[string]interface{}{"status": "error", "error": err.Error()}
		} else {
			checks["redis"] = map[string]interface{}{"status": "ok"}
		}
	}

	// SMTP is informational: reminders queue up until it is configured
	if settings, err := s.container.SettingsProvider.Effective(ctx); err == nil {
		checks["smtp"] = map[string]interface{}{"configured": settings.Configured()}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"uptime": time.Since(s.startedAt).Seconds(),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, httpHandlers.Response{Success: true, Data: response})
	}
	return c.JSON(http.StatusServiceUnavailable, httpHandlers.Response{Success: false, Data: response, Error: "Service degraded"})
}

func (s *Server) readinessCheck(c echo.Context) error {
	// Check if server is ready to accept requests
	if err := s.container.Store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler writes every error in the response envelope
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code, msg := httpHandlers.MapError(err)

		if code == http.StatusInternalServerError {
			logger.WithError(err).Errorw("Internal server error", "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, httpHandlers.Response{Success: false, Error: msg})
			}
			if err != nil {
				logger.WithError(err).Error("Error sending response")
			}
		}
	}
}
