package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo-reminder/internal/application/services"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// ProjectHandler handles project-related requests
type ProjectHandler struct {
	projectService *services.ProjectService
	logger         *logger.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// ListProjects godoc
// @Summary List projects
// @Description System projects first, then by creation time
// @Tags projects
// @Produce json
// @Success 200 {object} Response{data=[]entities.Project}
// @Security BearerAuth
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	projects, err := h.projectService.ListProjects(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, projects)
}

// CreateProject godoc
// @Summary Create a new project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body ports.CreateProjectRequest true "Project data"
// @Success 201 {object} Response{data=entities.Project}
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req ports.CreateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.CreateProject(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, project)
}

// UpdateProject godoc
// @Summary Rename a project or change its icon
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body ports.UpdateProjectRequest true "Fields to change"
// @Success 200 {object} Response{data=entities.Project}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /projects/{id} [patch]
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	var req ports.UpdateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.UpdateProject(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, project)
}

// DeleteProject godoc
// @Summary Delete a project and all of its tasks
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} Response
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id := c.Param("id")
	removed, err := h.projectService.DeleteProject(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]interface{}{
		"id":           id,
		"tasksRemoved": removed,
	})
}
