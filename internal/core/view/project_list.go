package view

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// ProjectPartition is a project list split the way the projects page shows it.
type ProjectPartition struct {
	Active    []*domain.Project `json:"active"`
	Completed []*domain.Project `json:"completed"`
}

// Partition keeps projects whose title contains search (case-insensitive)
// and splits them on completion.
func Partition(projects []*domain.Project, search string) ProjectPartition {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := ProjectPartition{Active: []*domain.Project{}, Completed: []*domain.Project{}}
	for _, p := range projects {
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		if p.Completed() {
			out.Completed = append(out.Completed, p)
		} else {
			out.Active = append(out.Active, p)
		}
	}
	return out
}

// ProjectList caches the caller's projects and refetches on project-updated.
type ProjectList struct {
	source ProjectSource
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	unsub  bus.Unsubscribe

	refreshing sync.Mutex

	mu       sync.Mutex
	projects []*domain.Project
	err      error
	onChange func()
}

// NewProjectList loads the list once and keeps it fresh until Close or until
// ctx is done. sub may be nil for a one-shot view.
func NewProjectList(ctx context.Context, source ProjectSource, sub bus.Subscriber, log zerolog.Logger) *ProjectList {
	ctx, cancel := context.WithCancel(ctx)
	v := &ProjectList{source: source, log: log, ctx: ctx, cancel: cancel}
	v.Refresh()
	v.unsub = subscribeAll(sub, v.Refresh, bus.ProjectUpdated)
	return v
}

// Refresh refetches the list. A failure keeps the previous records and is
// reported through Err. Concurrent calls run one at a time.
func (v *ProjectList) Refresh() {
	if !v.fetch() {
		return
	}
	v.mu.Lock()
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (v *ProjectList) fetch() bool {
	v.refreshing.Lock()
	defer v.refreshing.Unlock()
	if v.ctx.Err() != nil {
		return false
	}
	projects, err := v.source.List(v.ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.log.Warn().Err(err).Msg("project list refresh failed")
		v.err = err
	} else {
		v.projects = projects
		v.err = nil
	}
	return true
}

func (v *ProjectList) Projects() []*domain.Project {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*domain.Project(nil), v.projects...)
}

// Filter returns the cached projects matching search, split on completion.
func (v *ProjectList) Filter(search string) ProjectPartition {
	return Partition(v.Projects(), search)
}

// Err is the last refresh error, cleared by the next successful refresh.
func (v *ProjectList) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// OnChange registers fn to run after every refresh.
func (v *ProjectList) OnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

func (v *ProjectList) Close() {
	v.unsub()
	v.cancel()
}
