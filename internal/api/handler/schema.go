package handler

import (
	"time"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

type projectResponse struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Client            string   `json:"client"`
	Description       string   `json:"description"`
	Status            string   `json:"status"`
	Completed         bool     `json:"completed"`
	ProjectURL        string   `json:"projectURL"`
	Revenue           float64  `json:"revenue"`
	ProjectStartedAt  *string  `json:"projectStartedAt"`
	DueDate           *string  `json:"dueDate"`
	AssignedEmployees []string `json:"assignedEmployees"`
	CreatedAt         *string  `json:"createdAt"`
	UpdatedAt         *string  `json:"updatedAt,omitempty"`
}

type projectListResponse struct {
	Active    []projectResponse `json:"active"`
	Completed []projectResponse `json:"completed"`
}

type employeeResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Role      string  `json:"role"`
	CreatedAt *string `json:"createdAt"`
	UpdatedAt *string `json:"updatedAt,omitempty"`
}

type revenueResponse struct {
	ID         string  `json:"id"`
	Amount     float64 `json:"amount"`
	Source     string  `json:"source"`
	Note       string  `json:"note"`
	ReceivedAt *string `json:"receivedAt"`
	CreatedAt  *string `json:"createdAt"`
}

type revenueListResponse struct {
	Entries []revenueResponse `json:"entries"`
	Total   float64           `json:"total"`
}

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token     string           `json:"token,omitempty"`
	User      *domain.Identity `json:"user,omitempty"`
	Cancelled bool             `json:"cancelled,omitempty"`
}

type federatedURLResponse struct {
	URL string `json:"url"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func toProjectResponse(p *domain.Project) projectResponse {
	assigned := p.AssignedEmployees
	if assigned == nil {
		assigned = []string{}
	}
	return projectResponse{
		ID:                p.ID,
		Title:             p.Title,
		Client:            p.Client,
		Description:       p.Description,
		Status:            string(p.Status),
		Completed:         p.Completed(),
		ProjectURL:        p.ProjectURL,
		Revenue:           p.Revenue,
		ProjectStartedAt:  formatTime(p.ProjectStartedAt),
		DueDate:           formatTime(p.DueDate),
		AssignedEmployees: assigned,
		CreatedAt:         formatTime(p.CreatedAt),
		UpdatedAt:         formatTime(p.UpdatedAt),
	}
}

func toProjectResponses(ps []*domain.Project) []projectResponse {
	out := make([]projectResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProjectResponse(p))
	}
	return out
}

func toEmployeeResponse(e *domain.Employee) employeeResponse {
	return employeeResponse{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Phone:     e.Phone,
		Role:      e.Role,
		CreatedAt: formatTime(e.CreatedAt),
		UpdatedAt: formatTime(e.UpdatedAt),
	}
}

func toRevenueResponse(r *domain.RevenueEntry) revenueResponse {
	return revenueResponse{
		ID:         r.ID,
		Amount:     r.Amount,
		Source:     r.Source,
		Note:       r.Note,
		ReceivedAt: formatTime(r.ReceivedAt),
		CreatedAt:  formatTime(r.CreatedAt),
	}
}
