package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/taskmaster/todo-reminder/internal/application/email"
	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/metrics"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// ReminderService finds due reminders and delivers them
type ReminderService struct {
	store       ports.Store
	settings    *SettingsProvider
	mailer      ports.Mailer
	renderer    *email.Renderer
	locker      ports.SweepLocker
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         Clock
	sendTimeout time.Duration

	running atomic.Bool
}

// ReminderServiceOptions carries the optional collaborators
type ReminderServiceOptions struct {
	Locker      ports.SweepLocker
	Metrics     *metrics.Metrics
	Clock       Clock
	SendTimeout time.Duration
}

// NewReminderService creates a new reminder service
func NewReminderService(
	store ports.Store,
	settings *SettingsProvider,
	mailer ports.Mailer,
	renderer *email.Renderer,
	appLogger *logger.Logger,
	opts ReminderServiceOptions,
) *ReminderService {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 20 * time.Second
	}
	return &ReminderService{
		store:       store,
		settings:    settings,
		mailer:      mailer,
		renderer:    renderer,
		locker:      opts.Locker,
		metrics:     opts.Metrics,
		logger:      appLogger.WithComponent("reminders"),
		now:         opts.Clock,
		sendTimeout: opts.SendTimeout,
	}
}

// ListPending returns every reminder not yet sent
func (s *ReminderService) ListPending(ctx context.Context) ([]*entities.Reminder, error) {
	reminders, err := s.store.Reminders().ListUnsent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// Sweep delivers every due reminder once. Only one sweep runs at a time: a
// call made while another is in flight returns ErrSweepInProgress. A failed
// delivery leaves its reminder pending for the next sweep and does not stop
// the others.
func (s *ReminderService) Sweep(ctx context.Context) (*ports.SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.SweepBusy()
		return nil, entities.ErrSweepInProgress
	}
	defer s.running.Store(false)

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire sweep lock: %w", err)
		}
		if !ok {
			s.metrics.SweepBusy()
			return nil, entities.ErrSweepInProgress
		}
		defer release()
	}

	started := time.Now()
	defer func() { s.metrics.ObserveSweep(time.Since(started)) }()

	now := s.now()
	result := &ports.SweepResult{}

	reminders, err := s.store.Reminders().ListUnsent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	tasks, err := s.store.Tasks().List(ctx, ports.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	byID := make(map[string]*entities.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var fallbacks []string
	for _, r := range reminders {
		if !r.IsDue(now) {
			continue
		}
		result.Due++

		task, ok := byID[r.TaskID]
		if !ok {
			if _, err := s.store.Reminders().Delete(ctx, r.ID); err != nil {
				s.logger.Errorw("Failed to remove orphaned reminder", "reminder_id", r.ID, "error", err)
				continue
			}
			result.Orphaned++
			continue
		}
		if task.Completed || !task.ReminderEnabled {
			result.Skipped++
			continue
		}

		if fallbacks == nil {
			if fallbacks, err = s.recipientFallbacks(ctx); err != nil {
				return nil, err
			}
		}
		recipient := entities.ResolveRecipient(task, fallbacks...)
		if recipient == "" {
			s.logger.Warnw("No recipient for due reminder", "reminder_id", r.ID, "task_id", task.ID)
			result.Skipped++
			continue
		}

		if err := s.deliver(ctx, task, recipient); err != nil {
			s.logger.LogReminderDispatch(r.ID, task.ID, recipient, err)
			s.metrics.ReminderFailed()
			result.Failed++
			continue
		}

		if _, err := s.store.Reminders().MarkSent(ctx, r.ID, now); err != nil {
			s.logger.Errorw("Reminder sent but not marked", "reminder_id", r.ID, "error", err)
		}
		s.logger.LogReminderDispatch(r.ID, task.ID, recipient, nil)
		s.metrics.ReminderSent()
		result.Sent++
	}

	s.metrics.RemindersSkipped(result.Skipped)
	s.metrics.RemindersOrphaned(result.Orphaned)
	if result.Due > 0 {
		s.logger.Infow("Reminder sweep finished",
			"due", result.Due,
			"sent", result.Sent,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"orphaned", result.Orphaned,
		)
	}
	return result, nil
}

// SendNow delivers the reminder of a task immediately, whatever its reminder
// time. The stored reminder stays pending.
func (s *ReminderService) SendNow(ctx context.Context, taskID string) (string, error) {
	task, err := s.store.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return "", err
	}
	if !task.ReminderEnabled {
		return "", entities.NewValidationError("reminderEnabled", "Reminder is not enabled for this task")
	}

	fallbacks, err := s.recipientFallbacks(ctx)
	if err != nil {
		return "", err
	}
	recipient := entities.ResolveRecipient(task, fallbacks...)
	if recipient == "" {
		return "", entities.NewValidationError("userEmail", "No recipient email configured for this task")
	}

	if err := s.deliver(ctx, task, recipient); err != nil {
		s.logger.LogReminderDispatch("", task.ID, recipient, err)
		return "", err
	}
	s.logger.LogReminderDispatch("", task.ID, recipient, nil)
	return recipient, nil
}

// SendTestEmail renders the synthetic test reminder and sends it to to, or
// to the configured recipient when to is empty.
func (s *ReminderService) SendTestEmail(ctx context.Context, to string) (string, error) {
	recipient := to
	if recipient == "" {
		fallbacks, err := s.recipientFallbacks(ctx)
		if err != nil {
			return "", err
		}
		recipient = entities.ResolveRecipient(nil, fallbacks...)
	}
	if recipient == "" {
		return "", entities.NewValidationError("email", "Email address is required")
	}

	msg, err := s.renderer.RenderTest(s.now())
	if err != nil {
		return "", err
	}
	if err := s.send(ctx, recipient, msg); err != nil {
		return "", err
	}

	s.logger.Infow("Test email sent", "recipient", recipient)
	return recipient, nil
}

func (s *ReminderService) recipientFallbacks(ctx context.Context) ([]string, error) {
	settings, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}
	return []string{settings.ToEmail, s.settings.FallbackRecipient()}, nil
}

func (s *ReminderService) deliver(ctx context.Context, task *entities.Task, recipient string) error {
	msg, err := s.renderer.Render(task)
	if err != nil {
		return err
	}
	return s.send(ctx, recipient, msg)
}

func (s *ReminderService) send(ctx context.Context, recipient string, msg email.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	return s.mailer.Send(ctx, ports.OutgoingEmail{
		To:      recipient,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
}
