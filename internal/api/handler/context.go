package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freelancehq/freelance-manager/internal/api/metrics"
	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
	"github.com/freelancehq/freelance-manager/internal/core/session"
)

// Notifier announces that a record set changed. The queue dispatcher
// implements it.
type Notifier interface {
	Enqueue(event string)
}

type (
	ProjectServiceFactory  func(ports.Session) ports.ProjectService
	EmployeeServiceFactory func(ports.Session) ports.EmployeeService
	RevenueServiceFactory  func(ports.Session) ports.RevenueService
)

// ctxSession returns the session the Auth middleware resolved for this
// request. A request without one gets the anonymous session; record access
// decides what that means.
func ctxSession(c echo.Context) ports.Session {
	identity, _ := c.Get("identity").(*domain.Identity)
	if identity == nil {
		return session.Anonymous
	}
	return session.NewStatic(identity)
}

// ctxToken returns the bearer token the Auth middleware accepted.
func ctxToken(c echo.Context) (string, error) {
	token, _ := c.Get("token").(string)
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
	}
	return token, nil
}

// notify announces events to the caller's own listeners.
func notify(c echo.Context, n Notifier, events ...string) {
	identity := ctxSession(c).Identity()
	if n == nil || identity == nil {
		return
	}
	for _, event := range events {
		n.Enqueue(bus.Owned(event, identity.ID))
	}
}

func recordWrite(kind, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordWritesTotal.WithLabelValues(kind, op, result).Inc()
}
