package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo-reminder/internal/application/services"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks godoc
// @Summary List tasks
// @Description All tasks, or only those of one project
// @Tags tasks
// @Produce json
// @Param projectId query string false "Project ID"
// @Success 200 {object} Response{data=[]entities.Task}
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	tasks, err := h.taskService.ListTasks(c.Request().Context(), c.QueryParam("projectId"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, tasks)
}

// GetTask godoc
// @Summary Get task by ID
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Response{data=entities.Task}
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, task)
}

// CreateTask godoc
// @Summary Create a task
// @Description Appends the task to its project unless an order is given
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} Response{data=entities.Task}
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, task)
}

// UpdateTask godoc
// @Summary Partially update a task
// @Description Absent fields are left untouched, null clears nullable fields
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body object true "Fields to change"
// @Success 200 {object} Response{data=entities.Task}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var req ports.UpdateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id := c.Param("id")
	if err := h.taskService.DeleteTask(c.Request().Context(), id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{"id": id})
}

// SyncTasks godoc
// @Summary Replace every task
// @Description Validates each task, replaces the whole set and recomputes reminders
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.SyncTasksRequest true "Complete task set"
// @Success 200 {object} Response{data=ports.SyncTasksResult}
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/sync [post]
func (h *TaskHandler) SyncTasks(c echo.Context) error {
	var req ports.SyncTasksRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.taskService.SyncTasks(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, result)
}

// ReorderTasks godoc
// @Summary Move a task within its project
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.ReorderTasksRequest true "Move"
// @Success 200 {object} Response{data=[]entities.Task}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/reorder [post]
func (h *TaskHandler) ReorderTasks(c echo.Context) error {
	var req ports.ReorderTasksRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tasks, err := h.taskService.ReorderTasks(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, tasks)
}
