package view

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// EmployeeList caches the caller's employees and refetches on
// employees-updated.
type EmployeeList struct {
	source EmployeeSource
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	unsub  bus.Unsubscribe

	refreshing sync.Mutex

	mu        sync.Mutex
	employees []*domain.Employee
	err       error
}

func NewEmployeeList(ctx context.Context, source EmployeeSource, sub bus.Subscriber, log zerolog.Logger) *EmployeeList {
	ctx, cancel := context.WithCancel(ctx)
	v := &EmployeeList{source: source, log: log, ctx: ctx, cancel: cancel}
	v.Refresh()
	v.unsub = subscribeAll(sub, v.Refresh, bus.EmployeesUpdated)
	return v
}

// Refresh refetches the list. Concurrent calls run one at a time.
func (v *EmployeeList) Refresh() {
	v.refreshing.Lock()
	defer v.refreshing.Unlock()
	if v.ctx.Err() != nil {
		return
	}
	employees, err := v.source.List(v.ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.log.Warn().Err(err).Msg("employee list refresh failed")
		v.err = err
		return
	}
	v.employees = employees
	v.err = nil
}

func (v *EmployeeList) Employees() []*domain.Employee {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*domain.Employee(nil), v.employees...)
}

// ByID indexes the cached employees, for resolving project assignments.
func (v *EmployeeList) ByID() map[string]*domain.Employee {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]*domain.Employee, len(v.employees))
	for _, e := range v.employees {
		out[e.ID] = e
	}
	return out
}

func (v *EmployeeList) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *EmployeeList) Close() {
	v.unsub()
	v.cancel()
}
