package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

type EmployeeHandler struct {
	employees EmployeeServiceFactory
	notifier  Notifier
}

func NewEmployeeHandler(employees EmployeeServiceFactory, notifier Notifier) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, notifier: notifier}
}

// List handles GET /v1/employees.
//
// @Summary      List employees
// @Tags         employees
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   employeeResponse
// @Failure      503  {object}  map[string]string
// @Router       /v1/employees [get]
func (h *EmployeeHandler) List(c echo.Context) error {
	employees, err := h.employees(ctxSession(c)).List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/employees.
//
// @Summary      Create an employee
// @Tags         employees
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.EmployeeInput  true  "Employee"
// @Success      201   {object}  employeeResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/employees [post]
func (h *EmployeeHandler) Create(c echo.Context) error {
	var req domain.EmployeeInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	employee, err := h.employees(ctxSession(c)).Create(c.Request().Context(), req)
	recordWrite("employee", "create", err)
	if err != nil {
		return err
	}

	notify(c, h.notifier, bus.EmployeesUpdated)
	return c.JSON(http.StatusCreated, toEmployeeResponse(employee))
}

// Update handles PATCH /v1/employees/:id.
//
// @Summary      Update part of an employee
// @Tags         employees
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                true  "Employee id"
// @Param        body  body  domain.EmployeePatch  true  "Fields to change"
// @Success      204
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/employees/{id} [patch]
func (h *EmployeeHandler) Update(c echo.Context) error {
	var req domain.EmployeePatch
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.employees(ctxSession(c)).Update(c.Request().Context(), c.Param("id"), req)
	recordWrite("employee", "update", err)
	if err != nil {
		return err
	}

	notify(c, h.notifier, bus.EmployeesUpdated)
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/employees/:id. Under the cascade policy the
// projects list changes too, so both events fire.
//
// @Summary      Delete an employee
// @Tags         employees
// @Security     BearerAuth
// @Param        id  path  string  true  "Employee id"
// @Success      204
// @Failure      409  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /v1/employees/{id} [delete]
func (h *EmployeeHandler) Delete(c echo.Context) error {
	svc := h.employees(ctxSession(c))
	err := svc.Delete(c.Request().Context(), c.Param("id"))
	recordWrite("employee", "delete", err)
	if err != nil {
		return err
	}

	if svc.CascadesToProjects() {
		notify(c, h.notifier, bus.EmployeesUpdated, bus.ProjectUpdated)
	} else {
		notify(c, h.notifier, bus.EmployeesUpdated)
	}
	return c.NoContent(http.StatusNoContent)
}
