package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
)

// Response is the envelope every API route answers with
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is the failure shape of Response, used in API docs
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"title: Title is required"`
}

func ok(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Response{Success: true, Data: data})
}

func okWithMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message})
}

// MapError translates a domain error into a status code and client message.
// Anything unrecognised is reported as a generic internal error.
func MapError(err error) (int, string) {
	var (
		ve *entities.ValidationError
		nf *entities.NotFoundError
		te *entities.TransportError
		he *echo.HTTPError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &nf):
		return http.StatusNotFound, capitalize(nf.Error())
	case errors.Is(err, entities.ErrProjectProtected):
		return http.StatusForbidden, "System projects cannot be renamed or deleted"
	case errors.Is(err, entities.ErrSMTPNotConfigured):
		return http.StatusBadGateway, "SMTP not configured"
	case errors.As(err, &te):
		return http.StatusBadGateway, te.Err.Error()
	case errors.Is(err, entities.ErrSweepInProgress):
		return http.StatusConflict, "Reminder sweep already in progress"
	case errors.As(err, &he):
		if he.Code == http.StatusNotFound {
			return he.Code, "Route not found"
		}
		return he.Code, fmt.Sprint(he.Message)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// bindJSON decodes the request body into dest. Type mismatches are reported
// against the offending field.
func bindJSON(c echo.Context, dest interface{}) error {
	body := c.Request().Body
	if body == nil {
		return nil
	}

	if err := json.NewDecoder(body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return entities.NewValidationError(typeErr.Field, fmt.Sprintf("Invalid %s value", typeErr.Field))
		}
		return entities.NewValidationError("", "Invalid request format")
	}
	return nil
}

// bindAndValidate decodes the body and runs the echo validator over it
func bindAndValidate(c echo.Context, dest interface{}) error {
	if err := bindJSON(c, dest); err != nil {
		return err
	}
	return c.Validate(dest)
}
