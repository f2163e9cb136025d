package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo-reminder/internal/application/services"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// SettingsHandler serves the SMTP settings and mail test routes
type SettingsHandler struct {
	settingsService *services.SettingsService
	reminderService *services.ReminderService
	logger          *logger.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *services.SettingsService, reminderService *services.ReminderService, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		reminderService: reminderService,
		logger:          logger,
	}
}

// GetSettings godoc
// @Summary Current SMTP settings
// @Description The password is never returned
// @Tags settings
// @Produce json
// @Success 200 {object} Response{data=ports.SmtpSettingsView}
// @Security BearerAuth
// @Router /smtp/settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	view, err := h.settingsService.GetSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, view)
}

// UpdateSettings godoc
// @Summary Save SMTP settings
// @Description Persists the settings, resets the transport and tests the connection. A failed test does not undo the save.
// @Tags settings
// @Accept json
// @Produce json
// @Param request body ports.SmtpSettingsRequest true "SMTP settings"
// @Success 200 {object} Response{data=ports.SettingsUpdateResult}
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /smtp/settings [post]
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var req ports.SmtpSettingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.settingsService.UpdateSettings(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, result)
}

// TestConnection godoc
// @Summary Verify the SMTP connection
// @Tags settings
// @Produce json
// @Success 200 {object} Response{data=ports.ConnectionTestResult}
// @Security BearerAuth
// @Router /smtp/test [post]
func (h *SettingsHandler) TestConnection(c echo.Context) error {
	return ok(c, http.StatusOK, h.settingsService.TestConnection(c.Request().Context()))
}

// SendTestEmail godoc
// @Summary Send a sample reminder
// @Description Sends to the given address, or to the configured recipient
// @Tags settings
// @Accept json
// @Produce json
// @Param request body ports.TestEmailRequest false "Recipient"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /smtp/test-email [post]
func (h *SettingsHandler) SendTestEmail(c echo.Context) error {
	var req ports.TestEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	recipient, err := h.reminderService.SendTestEmail(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return okWithMessage(c, map[string]string{"recipient": recipient}, "Test email sent successfully")
}
