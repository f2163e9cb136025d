package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

type stubSource struct {
	settings entities.SmtpSettings
	calls    int
}

func (s *stubSource) Effective(context.Context) (*entities.SmtpSettings, error) {
	s.calls++
	cp := s.settings
	return &cp, nil
}

func TestSendWithoutSettings(t *testing.T) {
	source := &stubSource{settings: entities.DefaultSmtpSettings()}
	transport := NewTransport(config.MailConfig{Timeout: time.Second}, source, logger.NewNop())

	err := transport.Send(context.Background(), ports.OutgoingEmail{To: "a@example.com"})
	assert.ErrorIs(t, err, entities.ErrSMTPNotConfigured)

	err = transport.Verify(context.Background())
	assert.ErrorIs(t, err, entities.ErrSMTPNotConfigured)
}

func TestClientIsCachedUntilReset(t *testing.T) {
	source := &stubSource{settings: entities.SmtpSettings{
		Host: "smtp.example.com", Port: 587, User: "me@example.com", Pass: "secret",
	}}
	transport := NewTransport(config.MailConfig{Timeout: time.Second, FromName: "Todo Reminder"}, source, logger.NewNop())

	t.Run("sender falls back to user", func(t *testing.T) {
		transport.mu.Lock()
		_, err := transport.clientLocked(context.Background())
		transport.mu.Unlock()
		require.NoError(t, err)
		assert.Equal(t, "me@example.com", transport.sender)
	})

	transport.mu.Lock()
	_, err := transport.clientLocked(context.Background())
	transport.mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	source.settings.FromEmail = "noreply@example.com"
	transport.Reset()

	transport.mu.Lock()
	_, err = transport.clientLocked(context.Background())
	transport.mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
	assert.Equal(t, "noreply@example.com", transport.sender)
}

func TestSenderUsesConfiguredFromAddress(t *testing.T) {
	source := &stubSource{settings: entities.SmtpSettings{
		Host: "smtp.example.com", Port: 587, User: "me@example.com", Pass: "secret",
	}}
	transport := NewTransport(config.MailConfig{Timeout: time.Second, FromEmail: "app@example.com"}, source, logger.NewNop())

	transport.mu.Lock()
	_, err := transport.clientLocked(context.Background())
	transport.mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, "app@example.com", transport.sender)
}
