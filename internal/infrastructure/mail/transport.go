// Package mail delivers rendered reminders over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	gomail "github.com/wneessen/go-mail"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// implicitTLSPort is the submission port that expects TLS from the first byte
const implicitTLSPort = 465

// Transport implements ports.Mailer. The client is built lazily from the
// current settings and cached until Reset.
type Transport struct {
	cfg      config.MailConfig
	settings ports.SettingsSource
	logger   *logger.Logger

	mu     sync.Mutex
	client *gomail.Client
	sender string
}

// NewTransport creates a transport that reads its settings from source
func NewTransport(cfg config.MailConfig, source ports.SettingsSource, appLogger *logger.Logger) *Transport {
	return &Transport{
		cfg:      cfg,
		settings: source,
		logger:   appLogger.WithComponent("mail"),
	}
}

// Reset drops the cached client so the next call picks up new settings
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.client = nil
	t.sender = ""
}

// Verify dials and authenticates without sending
func (t *Transport) Verify(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	client, err := t.clientLocked(ctx)
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return &entities.TransportError{Op: "verify", Err: err}
	}
	if err := client.Close(); err != nil {
		t.logger.Warnw("Closing SMTP connection failed", "error", err)
	}
	return nil
}

// Send delivers one email. Calls are serialised over the cached client.
func (t *Transport) Send(ctx context.Context, email ports.OutgoingEmail) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	client, err := t.clientLocked(ctx)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(t.cfg.FromName, t.sender); err != nil {
		return &entities.TransportError{Op: "from", Err: err}
	}
	if err := msg.To(email.To); err != nil {
		return entities.NewValidationError("email", fmt.Sprintf("invalid recipient %q", email.To))
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, email.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, email.HTML)

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &entities.TransportError{Op: "send", Err: err}
	}
	return nil
}

func (t *Transport) clientLocked(ctx context.Context) (*gomail.Client, error) {
	if t.client != nil {
		return t.client, nil
	}

	settings, err := t.settings.Effective(ctx)
	if err != nil {
		return nil, fmt.Errorf("load smtp settings: %w", err)
	}
	if !settings.Configured() {
		return nil, entities.ErrSMTPNotConfigured
	}

	opts := []gomail.Option{
		gomail.WithPort(settings.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(settings.User),
		gomail.WithPassword(settings.Pass),
		gomail.WithTLSConfig(&tls.Config{
			ServerName:         settings.Host,
			InsecureSkipVerify: t.cfg.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}),
	}
	if t.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(t.cfg.Timeout))
	}
	if settings.Port == implicitTLSPort {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(settings.Host, opts...)
	if err != nil {
		return nil, &entities.TransportError{Op: "configure", Err: err}
	}

	t.client = client
	t.sender = settings.Sender(t.cfg.FromEmail)
	t.logger.Infow("SMTP client configured", "host", settings.Host, "port", settings.Port)
	return client, nil
}
