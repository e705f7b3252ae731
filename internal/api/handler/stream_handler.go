package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/api/metrics"
	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

const defaultHeartbeat = 15 * time.Second

// StreamHandler forwards the caller's own bus events to browsers over
// server-sent events so pages in other tabs or on other instances know to
// refetch.
type StreamHandler struct {
	sub       bus.Subscriber
	log       zerolog.Logger
	heartbeat time.Duration
}

func NewStreamHandler(sub bus.Subscriber, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{sub: sub, log: log, heartbeat: defaultHeartbeat}
}

// Events handles GET /v1/events.
//
// @Summary      Stream record-set change notifications
// @Description  Server-sent events named project-updated, employees-updated and revenue-updated. Events carry no payload.
// @Tags         events
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        access_token  query  string  false  "Session token, for clients that cannot set headers"
// @Success      200
// @Failure      401  {object}  map[string]string
// @Router       /v1/events [get]
func (h *StreamHandler) Events(c echo.Context) error {
	identity := ctxSession(c).Identity()
	if identity == nil {
		return domain.ErrNotAuthenticated
	}
	ctx := c.Request().Context()

	sig := newSignals()
	own := bus.ForOwner(h.sub, identity.ID)
	var unsubs []bus.Unsubscribe
	for _, event := range []string{bus.ProjectUpdated, bus.EmployeesUpdated, bus.RevenueUpdated} {
		unsubs = append(unsubs, own.Subscribe(event, func() { sig.mark(event) }))
	}
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	gauge := metrics.StreamClientsActive.WithLabelValues("events")
	gauge.Inc()
	defer gauge.Dec()

	startStream(c)
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
			for _, event := range sig.drain() {
				if err := writeEvent(c, event, struct{}{}); err != nil {
					h.log.Debug().Err(err).Str("event", event).Msg("event stream closed")
					return nil
				}
			}
		}
	}
}
