package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogHTTPRequest(t *testing.T) {
	log, logs := newObserved()

	log.WithRequestID("req-1").LogHTTPRequest("GET", "/api/tasks", "curl", "10.0.0.1", 200, 1.5, nil)
	log.LogHTTPRequest("POST", "/api/tasks", "curl", "10.0.0.1", 500, 2, errors.New("boom"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "HTTP request", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "/api/tasks", fields["path"])
	assert.EqualValues(t, 200, fields["status_code"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "HTTP request failed", entries[1].Message)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestLogReminderDispatch(t *testing.T) {
	log, logs := newObserved()

	log.LogReminderDispatch("r1", "t1", "a@x.io", nil)
	log.LogReminderDispatch("r2", "t2", "b@x.io", errors.New("550"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "Reminder sent", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "550", entries[1].ContextMap()["error"])
}
