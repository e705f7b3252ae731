package domain

import (
	"strings"
	"time"
)

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	StatusNotStarted ProjectStatus = "not_started"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
)

// ParseProjectStatus maps raw input onto a ProjectStatus. The empty string
// reads as not_started.
func ParseProjectStatus(raw string) (ProjectStatus, error) {
	switch s := ProjectStatus(strings.TrimSpace(raw)); s {
	case "":
		return StatusNotStarted, nil
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return s, nil
	default:
		return "", &ValidationError{Field: "status", Reason: "must be one of: not_started in_progress completed"}
	}
}

// Project is a unit of client work owned by a single identity.
type Project struct {
	ID                string
	UserID            string
	Title             string
	Client            string
	Description       string
	Status            ProjectStatus
	ProjectURL        string
	Revenue           float64
	ProjectStartedAt  *time.Time
	DueDate           *time.Time
	AssignedEmployees []string
	CreatedAt         *time.Time
	UpdatedAt         *time.Time
}

// Completed is derived from Status and is never stored independently of it.
func (p *Project) Completed() bool {
	return p.Status == StatusCompleted
}

// Normalize substitutes the documented defaults for absent optional fields.
func (p *Project) Normalize() {
	if p.Status == "" {
		p.Status = StatusNotStarted
	}
	if p.Revenue < 0 {
		p.Revenue = 0
	}
	if p.AssignedEmployees == nil {
		p.AssignedEmployees = []string{}
	}
}

// ProjectInput is the schema for a new project. ProjectPatch carries the same
// fields for updates so the two paths cannot drift apart.
type ProjectInput struct {
	Title             string   `json:"title"             validate:"required"`
	Client            string   `json:"client"            validate:"required"`
	Description       string   `json:"description"`
	Status            string   `json:"status"            validate:"omitempty,oneof=not_started in_progress completed"`
	ProjectURL        string   `json:"projectURL"        validate:"omitempty,url"`
	Revenue           float64  `json:"revenue"           validate:"gte=0"`
	ProjectStartedAt  string   `json:"projectStartedAt"`
	DueDate           string   `json:"dueDate"`
	AssignedEmployees []string `json:"assignedEmployees"`
}

// Build validates the input and returns the project it describes, owned by
// userID. Store-managed fields (ID, timestamps) are left empty.
func (in ProjectInput) Build(userID string) (*Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}
	client := strings.TrimSpace(in.Client)
	if client == "" {
		return nil, &ValidationError{Field: "client", Reason: "is required"}
	}
	status, err := ParseProjectStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if in.Revenue < 0 {
		return nil, &ValidationError{Field: "revenue", Reason: "must be greater than or equal to 0"}
	}
	started, err := ParseDate("projectStartedAt", in.ProjectStartedAt)
	if err != nil {
		return nil, err
	}
	due, err := ParseDate("dueDate", in.DueDate)
	if err != nil {
		return nil, err
	}

	return &Project{
		UserID:            userID,
		Title:             title,
		Client:            client,
		Description:       in.Description,
		Status:            status,
		ProjectURL:        strings.TrimSpace(in.ProjectURL),
		Revenue:           in.Revenue,
		ProjectStartedAt:  started,
		DueDate:           due,
		AssignedEmployees: UniqueIDs(in.AssignedEmployees),
	}, nil
}

// ProjectPatch is a partial update. Nil fields are left untouched; date
// fields given as "" clear the stored value.
type ProjectPatch struct {
	Title             *string   `json:"title"             validate:"omitempty,min=1"`
	Client            *string   `json:"client"            validate:"omitempty,min=1"`
	Description       *string   `json:"description"`
	Status            *string   `json:"status"            validate:"omitempty,oneof=not_started in_progress completed"`
	ProjectURL        *string   `json:"projectURL"`
	Revenue           *float64  `json:"revenue"           validate:"omitempty,gte=0"`
	ProjectStartedAt  *string   `json:"projectStartedAt"`
	DueDate           *string   `json:"dueDate"`
	AssignedEmployees *[]string `json:"assignedEmployees"`
}

// DateChange describes a date field being written. A nil Value clears it.
type DateChange struct {
	Value *time.Time
}

// ProjectUpdate is a validated ProjectPatch ready for the store.
type ProjectUpdate struct {
	Title             *string
	Client            *string
	Description       *string
	Status            *ProjectStatus
	ProjectURL        *string
	Revenue           *float64
	ProjectStartedAt  *DateChange
	DueDate           *DateChange
	AssignedEmployees []string
	SetEmployees      bool
}

// Completed returns the derived completion flag when the update touches
// status, and nil otherwise.
func (u ProjectUpdate) Completed() *bool {
	if u.Status == nil {
		return nil
	}
	done := *u.Status == StatusCompleted
	return &done
}

// Resolve validates the patch.
func (p ProjectPatch) Resolve() (ProjectUpdate, error) {
	var u ProjectUpdate
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return u, &ValidationError{Field: "title", Reason: "is required"}
		}
		u.Title = &t
	}
	if p.Client != nil {
		c := strings.TrimSpace(*p.Client)
		if c == "" {
			return u, &ValidationError{Field: "client", Reason: "is required"}
		}
		u.Client = &c
	}
	u.Description = p.Description
	if p.Status != nil {
		s, err := ParseProjectStatus(*p.Status)
		if err != nil {
			return u, err
		}
		u.Status = &s
	}
	if p.ProjectURL != nil {
		url := strings.TrimSpace(*p.ProjectURL)
		u.ProjectURL = &url
	}
	if p.Revenue != nil {
		if *p.Revenue < 0 {
			return u, &ValidationError{Field: "revenue", Reason: "must be greater than or equal to 0"}
		}
		u.Revenue = p.Revenue
	}
	if p.ProjectStartedAt != nil {
		d, err := ParseDate("projectStartedAt", *p.ProjectStartedAt)
		if err != nil {
			return u, err
		}
		u.ProjectStartedAt = &DateChange{Value: d}
	}
	if p.DueDate != nil {
		d, err := ParseDate("dueDate", *p.DueDate)
		if err != nil {
			return u, err
		}
		u.DueDate = &DateChange{Value: d}
	}
	if p.AssignedEmployees != nil {
		u.AssignedEmployees = UniqueIDs(*p.AssignedEmployees)
		u.SetEmployees = true
	}
	return u, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate reads a date as sent by forms and legacy storage. Blank input
// means "no date" and returns nil.
func ParseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &ValidationError{Field: field, Reason: "must be a date (YYYY-MM-DD or RFC 3339)"}
}

// UniqueIDs drops blanks and duplicates, keeping first-seen order.
func UniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
