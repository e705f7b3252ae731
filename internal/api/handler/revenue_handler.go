package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

type RevenueHandler struct {
	revenue  RevenueServiceFactory
	notifier Notifier
}

func NewRevenueHandler(revenue RevenueServiceFactory, notifier Notifier) *RevenueHandler {
	return &RevenueHandler{revenue: revenue, notifier: notifier}
}

// List handles GET /v1/revenue.
//
// @Summary      List revenue entries with their total
// @Tags         revenue
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  revenueListResponse
// @Failure      503  {object}  map[string]string
// @Router       /v1/revenue [get]
func (h *RevenueHandler) List(c echo.Context) error {
	entries, err := h.revenue(ctxSession(c)).List(c.Request().Context())
	if err != nil {
		return err
	}
	resp := revenueListResponse{Entries: make([]revenueResponse, 0, len(entries))}
	for _, r := range entries {
		resp.Entries = append(resp.Entries, toRevenueResponse(r))
		resp.Total += r.Amount
	}
	return c.JSON(http.StatusOK, resp)
}

// Create handles POST /v1/revenue.
//
// @Summary      Record a revenue entry
// @Tags         revenue
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.RevenueInput  true  "Revenue entry"
// @Success      201   {object}  revenueResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/revenue [post]
func (h *RevenueHandler) Create(c echo.Context) error {
	var req domain.RevenueInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry, err := h.revenue(ctxSession(c)).Create(c.Request().Context(), req)
	recordWrite("revenue", "create", err)
	if err != nil {
		return err
	}

	notify(c, h.notifier, bus.RevenueUpdated)
	return c.JSON(http.StatusCreated, toRevenueResponse(entry))
}
