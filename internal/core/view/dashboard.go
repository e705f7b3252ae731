package view

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// Stats are the dashboard figures.
type Stats struct {
	Active         int     `json:"active"`
	Completed      int     `json:"completed"`
	Total          int     `json:"total"`
	Revenue        float64 `json:"revenue"`
	TotalEmployees int     `json:"totalEmployees"`
	OtherRevenue   float64 `json:"otherRevenue"`
	// CompletedPercent is Completed over Total, rounded; 0 without projects.
	CompletedPercent int `json:"completedPercent"`
	// AvgRevenue is Revenue per completed project, rounded.
	AvgRevenue int `json:"avgRevenue"`
}

// ComputeStats derives the dashboard figures from raw records.
func ComputeStats(projects []*domain.Project, employees []*domain.Employee, revenue []*domain.RevenueEntry) Stats {
	var s Stats
	for _, p := range projects {
		if p.Completed() {
			s.Completed++
		} else {
			s.Active++
		}
		s.Revenue += p.Revenue
	}
	s.Total = s.Active + s.Completed
	s.TotalEmployees = len(employees)
	for _, r := range revenue {
		s.OtherRevenue += r.Amount
	}
	if s.Total > 0 {
		s.CompletedPercent = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	if s.Completed > 0 {
		s.AvgRevenue = int(math.Round(s.Revenue / float64(s.Completed)))
	}
	return s
}

// Dashboard recomputes Stats whenever projects, employees or revenue change.
type Dashboard struct {
	projects  ProjectSource
	employees EmployeeSource
	revenue   RevenueSource
	log       zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	unsub     bus.Unsubscribe

	// refreshing serialises fetches so an older result never lands last.
	refreshing sync.Mutex

	mu       sync.Mutex
	stats    Stats
	err      error
	onChange func(Stats)
}

// NewDashboard computes the figures once and subscribes for changes. revenue
// may be nil.
func NewDashboard(ctx context.Context, projects ProjectSource, employees EmployeeSource, revenue RevenueSource, sub bus.Subscriber, log zerolog.Logger) *Dashboard {
	ctx, cancel := context.WithCancel(ctx)
	d := &Dashboard{
		projects:  projects,
		employees: employees,
		revenue:   revenue,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	d.Refresh()
	d.unsub = subscribeAll(sub, d.Refresh, bus.ProjectUpdated, bus.EmployeesUpdated, bus.RevenueUpdated)
	return d
}

// Refresh refetches every source. Concurrent calls run one at a time.
func (d *Dashboard) Refresh() {
	if !d.fetch() {
		return
	}
	// Listeners get the newest figures even if another refresh finished
	// while this one was waiting to notify.
	d.mu.Lock()
	stats, fn := d.stats, d.onChange
	d.mu.Unlock()
	if fn != nil {
		fn(stats)
	}
}

func (d *Dashboard) fetch() bool {
	d.refreshing.Lock()
	defer d.refreshing.Unlock()
	if d.ctx.Err() != nil {
		return false
	}
	projects, perr := d.projects.List(d.ctx)
	employees, eerr := d.employees.List(d.ctx)
	var entries []*domain.RevenueEntry
	var rerr error
	if d.revenue != nil {
		entries, rerr = d.revenue.List(d.ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := errors.Join(perr, eerr, rerr); err != nil {
		d.log.Warn().Err(err).Msg("dashboard refresh failed")
		d.err = err
		return false
	}
	d.stats = ComputeStats(projects, employees, entries)
	d.err = nil
	return true
}

func (d *Dashboard) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// OnChange registers fn to receive the figures after every successful
// refresh.
func (d *Dashboard) OnChange(fn func(Stats)) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

func (d *Dashboard) Close() {
	d.unsub()
	d.cancel()
}
