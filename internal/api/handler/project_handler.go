package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/view"
)

// ProjectHandler handles HTTP requests for the caller's projects.
type ProjectHandler struct {
	projects ProjectServiceFactory
	notifier Notifier
}

func NewProjectHandler(projects ProjectServiceFactory, notifier Notifier) *ProjectHandler {
	return &ProjectHandler{projects: projects, notifier: notifier}
}

// List handles GET /v1/projects.
//
// @Summary      List projects, split into active and completed
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Case-insensitive title filter"
// @Success      200     {object}  projectListResponse
// @Failure      401     {object}  map[string]string
// @Failure      503     {object}  map[string]string
// @Router       /v1/projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	projects, err := h.projects(ctxSession(c)).List(c.Request().Context())
	if err != nil {
		return err
	}
	part := view.Partition(projects, c.QueryParam("search"))
	return c.JSON(http.StatusOK, projectListResponse{
		Active:    toProjectResponses(part.Active),
		Completed: toProjectResponses(part.Completed),
	})
}

// Create handles POST /v1/projects.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.ProjectInput  true  "Project"
// @Success      201   {object}  projectResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /v1/projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	var req domain.ProjectInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	project, err := h.projects(ctxSession(c)).Create(c.Request().Context(), req)
	recordWrite("project", "create", err)
	if err != nil {
		return err
	}

	notify(c, h.notifier, bus.ProjectUpdated)
	return c.JSON(http.StatusCreated, toProjectResponse(project))
}

// Update handles PATCH /v1/projects/:id.
//
// @Summary      Update part of a project
// @Description  Absent fields are left untouched. An empty date string clears the date.
// @Tags         projects
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string               true  "Project id"
// @Param        body  body  domain.ProjectPatch  true  "Fields to change"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /v1/projects/{id} [patch]
func (h *ProjectHandler) Update(c echo.Context) error {
	var req domain.ProjectPatch
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.projects(ctxSession(c)).Update(c.Request().Context(), c.Param("id"), req)
	recordWrite("project", "update", err)
	if err != nil {
		return err
	}

	notify(c, h.notifier, bus.ProjectUpdated)
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/projects/:id. Deleting a project that does not
// exist succeeds.
//
// @Summary      Delete a project
// @Tags         projects
// @Security     BearerAuth
// @Param        id  path  string  true  "Project id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /v1/projects/{id} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	err := h.projects(ctxSession(c)).Delete(c.Request().Context(), c.Param("id"))
	recordWrite("project", "delete", err)
	if err != nil {
		return err
	}

	notify(c, h.notifier, bus.ProjectUpdated)
	return c.NoContent(http.StatusNoContent)
}
