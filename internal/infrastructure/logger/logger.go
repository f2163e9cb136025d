package logger

import (
	"fmt"

	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide application-specific logging
type Logger struct {
	*zap.SugaredLogger
}

// New creates a new logger instance
func New(cfg config.LoggerConfig) (*Logger, error) {
	var zapConfig zap.Config

	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.Output == "file" && cfg.Filename != "" {
		zapConfig.OutputPaths = []string{cfg.Filename}
		zapConfig.ErrorOutputPaths = []string{cfg.Filename}
	} else {
		zapConfig.OutputPaths = []string{"stdout"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	}

	if cfg.Format != "json" {
		zapConfig.Development = true
		zapConfig.DisableStacktrace = false
	}

	zapLogger, err := zapConfig.Build(
		zap.AddCallerSkip(1), // Skip one level to show the actual caller
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
	}, nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// WithFields adds structured fields to the logger
func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(fields...),
	}
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err.Error())
}

// WithRequestID adds a request ID field to the logger
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.WithFields("request_id", requestID)
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithFields("component", component)
}

// LogHTTPRequest records one served request. Failed requests are logged at
// error level with the error attached.
func (l *Logger) LogHTTPRequest(method, path, userAgent, ip string, statusCode int, duration float64, err error) {
	fields := []interface{}{
		"method", method,
		"path", path,
		"status_code", statusCode,
		"duration_ms", duration,
		"user_agent", userAgent,
		"ip", ip,
	}

	if err != nil {
		l.WithError(err).Errorw("HTTP request failed", fields...)
		return
	}
	l.Infow("HTTP request", fields...)
}

// LogReminderDispatch records the outcome of one reminder delivery
func (l *Logger) LogReminderDispatch(reminderID, taskID, recipient string, err error) {
	fields := []interface{}{
		"reminder_id", reminderID,
		"task_id", taskID,
		"recipient", recipient,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		l.Errorw("Reminder delivery failed", fields...)
	} else {
		l.Infow("Reminder sent", fields...)
	}
}

// LogSecurityEvent records rejected authentication and similar events
func (l *Logger) LogSecurityEvent(event, ip string, details map[string]interface{}) {
	fields := []interface{}{
		"security_event", event,
		"ip", ip,
	}

	for k, v := range details {
		fields = append(fields, k, v)
	}

	l.Warnw("Security event", fields...)
}

// Close flushes any buffered log entries
func (l *Logger) Close() error {
	return l.SugaredLogger.Sync()
}
