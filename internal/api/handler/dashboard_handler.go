package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/api/metrics"
	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/view"
)

// DashboardHandler serves the dashboard figures, once or as a live stream.
type DashboardHandler struct {
	projects  ProjectServiceFactory
	employees EmployeeServiceFactory
	revenue   RevenueServiceFactory
	sub       bus.Subscriber
	log       zerolog.Logger
	heartbeat time.Duration
}

func NewDashboardHandler(projects ProjectServiceFactory, employees EmployeeServiceFactory, revenue RevenueServiceFactory, sub bus.Subscriber, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		projects:  projects,
		employees: employees,
		revenue:   revenue,
		sub:       sub,
		log:       log,
		heartbeat: defaultHeartbeat,
	}
}

func (h *DashboardHandler) open(c echo.Context, sub bus.Subscriber) *view.Dashboard {
	sess := ctxSession(c)
	var revenue view.RevenueSource
	if h.revenue != nil {
		revenue = h.revenue(sess)
	}
	return view.NewDashboard(c.Request().Context(), h.projects(sess), h.employees(sess), revenue, sub, h.log)
}

// Get handles GET /v1/dashboard.
//
// @Summary      Dashboard figures
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  view.Stats
// @Failure      503  {object}  map[string]string
// @Router       /v1/dashboard [get]
func (h *DashboardHandler) Get(c echo.Context) error {
	d := h.open(c, nil)
	defer d.Close()
	if err := d.Err(); err != nil {
		return domain.StoreError("failed to load dashboard. please try again later", err)
	}
	return c.JSON(http.StatusOK, d.Stats())
}

// Stream handles GET /v1/dashboard/stream: a "stats" event now and after
// every change to projects, employees or revenue.
//
// @Summary      Live dashboard figures
// @Tags         dashboard
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        access_token  query  string  false  "Session token, for clients that cannot set headers"
// @Success      200
// @Failure      401  {object}  map[string]string
// @Router       /v1/dashboard/stream [get]
func (h *DashboardHandler) Stream(c echo.Context) error {
	identity := ctxSession(c).Identity()
	if identity == nil {
		return domain.ErrNotAuthenticated
	}
	ctx := c.Request().Context()

	sig := newSignals()
	d := h.open(c, bus.ForOwner(h.sub, identity.ID))
	defer d.Close()
	d.OnChange(func(view.Stats) { sig.mark("stats") })

	gauge := metrics.StreamClientsActive.WithLabelValues("dashboard")
	gauge.Inc()
	defer gauge.Dec()

	startStream(c)
	if err := writeEvent(c, "stats", d.Stats()); err != nil {
		return nil
	}
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := writeHeartbeat(c); err != nil {
				return nil
			}
		case <-sig.wake:
			sig.drain()
			if err := writeEvent(c, "stats", d.Stats()); err != nil {
				h.log.Debug().Err(err).Msg("dashboard stream closed")
				return nil
			}
		}
	}
}
