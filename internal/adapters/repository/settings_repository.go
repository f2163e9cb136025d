package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
)

// settingsRowID is the key of the singleton row
const settingsRowID = 1

// SettingsRepository implements ports.SettingsRepository
type SettingsRepository struct {
	ext sqlx.ExtContext
}

func (r *SettingsRepository) Get(ctx context.Context) (*entities.SmtpSettings, error) {
	query := `
		SELECT host, port, smtp_user, smtp_pass, from_email, to_email
		FROM smtp_settings
		WHERE id = ?`

	var settings entities.SmtpSettings
	err := get(ctx, r.ext, &settings, "settings", "1", query, settingsRowID)
	if entities.IsNotFound(err) {
		defaults := entities.DefaultSmtpSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get smtp settings: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings *entities.SmtpSettings) error {
	query := `
		INSERT INTO smtp_settings (id, host, port, smtp_user, smtp_pass, from_email, to_email, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			host = excluded.host,
			port = excluded.port,
			smtp_user = excluded.smtp_user,
			smtp_pass = excluded.smtp_pass,
			from_email = excluded.from_email,
			to_email = excluded.to_email,
			updated_at = excluded.updated_at`

	if _, err := exec(ctx, r.ext, query,
		settingsRowID, settings.Host, settings.Port, settings.User, settings.Pass,
		settings.FromEmail, settings.ToEmail, time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("save smtp settings: %w", err)
	}
	return nil
}
