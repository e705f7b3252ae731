package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/session"
)

func strPtr(s string) *string { return &s }

func TestProjectService_List_AnonymousIsEmpty(t *testing.T) {
	repo := newStubProjectRepo()
	repo.listErr = errors.New("must not be called")
	svc := NewProjectService(repo, session.Anonymous, discardLogger)

	projects, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if projects == nil || len(projects) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", projects)
	}
}

func TestProjectService_Create_Anonymous(t *testing.T) {
	svc := NewProjectService(newStubProjectRepo(), session.Anonymous, discardLogger)

	_, err := svc.Create(context.Background(), domain.ProjectInput{Title: "Website", Client: "Acme"})
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestProjectService_UpdateDelete_Anonymous(t *testing.T) {
	svc := NewProjectService(newStubProjectRepo(), session.Anonymous, discardLogger)

	if err := svc.Update(context.Background(), "p1", domain.ProjectPatch{}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("update: expected ErrNotAuthenticated, got %v", err)
	}
	if err := svc.Delete(context.Background(), "p1"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("delete: expected ErrNotAuthenticated, got %v", err)
	}
}

func TestProjectService_CreateThenList_AppliesDefaults(t *testing.T) {
	repo := newStubProjectRepo()
	svc := NewProjectService(repo, as(alice), discardLogger)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	created, err := svc.Create(context.Background(), domain.ProjectInput{
		Title:  "Website",
		Client: "Acme",
		Status: "in_progress",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.UserID != alice.ID {
		t.Fatalf("unexpected created project: %+v", created)
	}
	if created.CreatedAt == nil || !created.CreatedAt.Equal(fixed) {
		t.Fatalf("expected local-clock CreatedAt %v, got %v", fixed, created.CreatedAt)
	}
	if repo.completed[created.ID] {
		t.Fatal("stored completed flag must be false for in_progress")
	}

	projects, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	p := projects[0]
	if p.Title != "Website" || p.Client != "Acme" || p.Status != domain.StatusInProgress {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.Completed() {
		t.Error("expected completed=false")
	}
	if p.Revenue != 0 {
		t.Errorf("expected revenue 0, got %v", p.Revenue)
	}
	if p.AssignedEmployees == nil || len(p.AssignedEmployees) != 0 {
		t.Errorf("expected empty assignedEmployees, got %v", p.AssignedEmployees)
	}
	if p.DueDate != nil || p.ProjectStartedAt != nil {
		t.Error("expected nil dates")
	}
}

func TestProjectService_Create_DefaultStatus(t *testing.T) {
	svc := NewProjectService(newStubProjectRepo(), as(alice), discardLogger)

	p, err := svc.Create(context.Background(), domain.ProjectInput{Title: "Logo", Client: "Bistro"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != domain.StatusNotStarted {
		t.Fatalf("expected not_started, got %q", p.Status)
	}
}

func TestProjectService_Create_Validation(t *testing.T) {
	svc := NewProjectService(newStubProjectRepo(), as(alice), discardLogger)

	cases := []domain.ProjectInput{
		{Client: "Acme"},
		{Title: "Website"},
		{Title: "Website", Client: "Acme", Status: "archived"},
		{Title: "Website", Client: "Acme", Revenue: -1},
		{Title: "Website", Client: "Acme", DueDate: "next week"},
	}
	for _, in := range cases {
		var ve *domain.ValidationError
		if _, err := svc.Create(context.Background(), in); !errors.As(err, &ve) {
			t.Errorf("input %+v: expected ValidationError, got %v", in, err)
		}
	}
}

func TestProjectService_OwnershipScoping(t *testing.T) {
	repo := newStubProjectRepo()
	asAlice := NewProjectService(repo, as(alice), discardLogger)
	asBob := NewProjectService(repo, as(bob), discardLogger)

	created, err := asAlice.Create(context.Background(), domain.ProjectInput{Title: "Website", Client: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	projects, err := asBob.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("bob must not see alice's projects, got %d", len(projects))
	}

	err = asBob.Update(context.Background(), created.ID, domain.ProjectPatch{Title: strPtr("Hijacked")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign project, got %v", err)
	}
	if err := asBob.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete of a foreign id should succeed as a no-op, got %v", err)
	}
	if titles := repo.titles(alice.ID); len(titles) != 1 || titles[0] != "Website" {
		t.Fatalf("alice's project must be untouched, got %v", titles)
	}
}

func TestProjectService_Update_StatusRecomputesCompleted(t *testing.T) {
	repo := newStubProjectRepo()
	svc := NewProjectService(repo, as(alice), discardLogger)
	p, _ := svc.Create(context.Background(), domain.ProjectInput{Title: "Website", Client: "Acme", Status: "in_progress"})

	if err := svc.Update(context.Background(), p.ID, domain.ProjectPatch{Status: strPtr("completed")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !repo.completed[p.ID] {
		t.Fatal("stored completed flag must follow status")
	}
	projects, _ := svc.List(context.Background())
	if !projects[0].Completed() {
		t.Fatal("expected completed=true after status update")
	}
	if projects[0].UpdatedAt == nil {
		t.Fatal("expected updatedAt to be stamped")
	}
}

func TestProjectService_Update_WithoutStatusLeavesCompleted(t *testing.T) {
	repo := newStubProjectRepo()
	svc := NewProjectService(repo, as(alice), discardLogger)
	p, _ := svc.Create(context.Background(), domain.ProjectInput{Title: "Website", Client: "Acme", Status: "completed"})

	if err := svc.Update(context.Background(), p.ID, domain.ProjectPatch{Title: strPtr("Website v2")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !repo.completed[p.ID] {
		t.Fatal("completed flag must not change when status is absent")
	}
}

func TestProjectService_Update_EmptyDateClears(t *testing.T) {
	svc := NewProjectService(newStubProjectRepo(), as(alice), discardLogger)
	p, _ := svc.Create(context.Background(), domain.ProjectInput{Title: "Website", Client: "Acme", DueDate: "2026-05-01"})

	projects, _ := svc.List(context.Background())
	if projects[0].DueDate == nil {
		t.Fatal("expected due date to be set")
	}

	if err := svc.Update(context.Background(), p.ID, domain.ProjectPatch{DueDate: strPtr("")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	projects, _ = svc.List(context.Background())
	if projects[0].DueDate != nil {
		t.Fatalf("expected cleared due date, got %v", projects[0].DueDate)
	}
}

func TestProjectService_Update_Missing(t *testing.T) {
	svc := NewProjectService(newStubProjectRepo(), as(alice), discardLogger)

	err := svc.Update(context.Background(), "nope", domain.ProjectPatch{Title: strPtr("x")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectService_Delete_Nonexistent(t *testing.T) {
	svc := NewProjectService(newStubProjectRepo(), as(alice), discardLogger)

	if err := svc.Delete(context.Background(), "does-not-exist"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestProjectService_StoreErrors(t *testing.T) {
	repo := newStubProjectRepo()
	repo.listErr = errors.New("connection refused")
	repo.createErr = errors.New("connection refused")
	svc := NewProjectService(repo, as(alice), discardLogger)

	if _, err := svc.List(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("list: expected ErrStoreUnavailable, got %v", err)
	}
	_, err := svc.Create(context.Background(), domain.ProjectInput{Title: "Website", Client: "Acme"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("create: expected ErrStoreUnavailable, got %v", err)
	}
	if err.Error() == "" || !errors.Is(err, repo.createErr) {
		t.Fatalf("expected the cause to stay reachable, got %v", err)
	}
}

func TestProjectService_ReadsIdentityAtCallTime(t *testing.T) {
	sc := session.New(&loginOnlyProvider{identity: alice}, nil, discardLogger)
	svc := NewProjectService(newStubProjectRepo(), sc, discardLogger)

	if _, err := svc.Create(context.Background(), domain.ProjectInput{Title: "A", Client: "B"}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated before login, got %v", err)
	}
	if err := sc.LoginWithCredentials(context.Background(), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Create(context.Background(), domain.ProjectInput{Title: "A", Client: "B"}); err != nil {
		t.Fatalf("expected create to succeed after login, got %v", err)
	}
}
