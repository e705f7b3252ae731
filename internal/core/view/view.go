// Package view holds the long-lived read models behind list pages and the
// dashboard. Each view keeps its own copy of the records and refetches when
// the bus announces that the underlying set changed.
package view

import (
	"context"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

type ProjectSource interface {
	List(ctx context.Context) ([]*domain.Project, error)
}

type EmployeeSource interface {
	List(ctx context.Context) ([]*domain.Employee, error)
}

type RevenueSource interface {
	List(ctx context.Context) ([]*domain.RevenueEntry, error)
}

// subscribeAll registers fn for every event and returns one function that
// releases all of them. A nil subscriber registers nothing.
func subscribeAll(sub bus.Subscriber, fn bus.Handler, events ...string) bus.Unsubscribe {
	if sub == nil {
		return func() {}
	}
	unsubs := make([]bus.Unsubscribe, 0, len(events))
	for _, event := range events {
		unsubs = append(unsubs, sub.Subscribe(event, fn))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
