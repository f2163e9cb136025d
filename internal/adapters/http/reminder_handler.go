package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo-reminder/internal/application/services"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
)

// ReminderHandler handles reminder-related requests
type ReminderHandler struct {
	reminderService *services.ReminderService
	logger          *logger.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderService *services.ReminderService, logger *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		logger:          logger,
	}
}

// ListReminders godoc
// @Summary List pending reminders
// @Tags reminders
// @Produce json
// @Success 200 {object} Response{data=[]entities.Reminder}
// @Security BearerAuth
// @Router /reminders [get]
func (h *ReminderHandler) ListReminders(c echo.Context) error {
	reminders, err := h.reminderService.ListPending(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, reminders)
}

// SendReminder godoc
// @Summary Send a task reminder now
// @Description Ignores the reminder time. The stored reminder stays pending.
// @Tags reminders
// @Produce json
// @Param taskId path string true "Task ID"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /reminders/send/{taskId} [post]
func (h *ReminderHandler) SendReminder(c echo.Context) error {
	taskID := c.Param("taskId")
	recipient, err := h.reminderService.SendNow(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return okWithMessage(c, map[string]string{
		"taskId":    taskID,
		"recipient": recipient,
	}, "Reminder sent successfully")
}

// TriggerSweep godoc
// @Summary Run a reminder sweep now
// @Description Delivers every due reminder. Answers 409 while another sweep is running.
// @Tags reminders
// @Produce json
// @Success 200 {object} Response{data=ports.SweepResult}
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /reminders/sweep [post]
func (h *ReminderHandler) TriggerSweep(c echo.Context) error {
	result, err := h.reminderService.Sweep(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, result)
}
