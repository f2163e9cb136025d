package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// SettingsProvider loads and stores the SMTP settings singleton. The password
// is sealed with the cipher when one is configured.
type SettingsProvider struct {
	store    ports.Store
	cipher   ports.SecretCipher
	fallback entities.SmtpSettings
}

// NewSettingsProvider creates a provider. fallback is used until settings are
// saved; cipher may be nil.
func NewSettingsProvider(store ports.Store, cipher ports.SecretCipher, fallback entities.SmtpSettings) *SettingsProvider {
	return &SettingsProvider{store: store, cipher: cipher, fallback: fallback}
}

// Get returns the stored settings, or the defaults when nothing was saved
func (p *SettingsProvider) Get(ctx context.Context) (*entities.SmtpSettings, error) {
	settings, err := p.store.Settings().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load smtp settings: %w", err)
	}
	if p.cipher != nil && settings.Pass != "" {
		plain, err := p.cipher.Decrypt(settings.Pass)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt smtp password: %w", err)
		}
		settings.Pass = plain
	}
	return settings, nil
}

// Save overwrites the stored settings
func (p *SettingsProvider) Save(ctx context.Context, settings *entities.SmtpSettings) error {
	stored := *settings
	if p.cipher != nil {
		sealed, err := p.cipher.Encrypt(stored.Pass)
		if err != nil {
			return fmt.Errorf("failed to encrypt smtp password: %w", err)
		}
		stored.Pass = sealed
	}
	if err := p.store.Settings().Save(ctx, &stored); err != nil {
		return fmt.Errorf("failed to save smtp settings: %w", err)
	}
	return nil
}

// Effective implements ports.SettingsSource: the stored record once it is
// usable, otherwise the configured fallback.
func (p *SettingsProvider) Effective(ctx context.Context) (*entities.SmtpSettings, error) {
	settings, err := p.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.Configured() || !p.fallback.Configured() {
		return settings, nil
	}
	fallback := p.fallback
	return &fallback, nil
}

// FallbackRecipient is the configured address used when neither the task nor
// the saved settings name one.
func (p *SettingsProvider) FallbackRecipient() string {
	return p.fallback.ToEmail
}

// SettingsService implements the SMTP settings use cases
type SettingsService struct {
	provider      *SettingsProvider
	mailer        ports.Mailer
	logger        *logger.Logger
	verifyTimeout time.Duration
}

// NewSettingsService creates a new settings service
func NewSettingsService(provider *SettingsProvider, mailer ports.Mailer, appLogger *logger.Logger, verifyTimeout time.Duration) *SettingsService {
	if verifyTimeout <= 0 {
		verifyTimeout = 20 * time.Second
	}
	return &SettingsService{
		provider:      provider,
		mailer:        mailer,
		logger:        appLogger,
		verifyTimeout: verifyTimeout,
	}
}

// GetSettings returns the settings without the password
func (s *SettingsService) GetSettings(ctx context.Context) (*ports.SmtpSettingsView, error) {
	settings, err := s.provider.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.SmtpSettingsView{
		Host:        settings.Host,
		Port:        settings.Port,
		User:        settings.User,
		FromEmail:   settings.FromEmail,
		ToEmail:     settings.ToEmail,
		HasPassword: settings.Pass != "",
		Configured:  settings.Configured(),
	}, nil
}

// UpdateSettings persists the settings, drops the cached transport and tests
// the new connection. A failed test is reported but does not undo the save.
func (s *SettingsService) UpdateSettings(ctx context.Context, req ports.SmtpSettingsRequest) (*ports.SettingsUpdateResult, error) {
	settings := req.ToEntity()
	if err := s.provider.Save(ctx, settings); err != nil {
		return nil, err
	}
	s.mailer.Reset()

	s.logger.Infow("SMTP settings updated", "host", settings.Host, "port", settings.Port)

	return &ports.SettingsUpdateResult{
		Configured: settings.Configured(),
		TestResult: s.TestConnection(ctx),
	}, nil
}

// TestConnection verifies the transport without sending anything
func (s *SettingsService) TestConnection(ctx context.Context) ports.ConnectionTestResult {
	ctx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	if err := s.mailer.Verify(ctx); err != nil {
		s.logger.Warnw("SMTP connection test failed", "error", err)
		return ports.ConnectionTestResult{Success: false, Error: connectionError(err)}
	}
	return ports.ConnectionTestResult{Success: true}
}

func connectionError(err error) string {
	if errors.Is(err, entities.ErrSMTPNotConfigured) {
		return "SMTP not configured"
	}
	var te *entities.TransportError
	if errors.As(err, &te) {
		return te.Err.Error()
	}
	return err.Error()
}
