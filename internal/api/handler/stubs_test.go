package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
)

var (
	alice = &domain.Identity{ID: "uid-alice", Email: "alice@example.com"}
	bob   = &domain.Identity{ID: "uid-bob", Email: "bob@example.com"}
)

// aliceEvent is event as announced for alice's listeners.
func aliceEvent(event string) string { return bus.Owned(event, alice.ID) }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// authed marks the context the way the Auth middleware does.
func authed(c echo.Context, identity *domain.Identity, token string) echo.Context {
	c.Set("identity", identity)
	c.Set("token", token)
	return c
}

type stubNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *stubNotifier) Enqueue(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *stubNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type stubProjectService struct {
	listFn   func(ctx context.Context) ([]*domain.Project, error)
	createFn func(ctx context.Context, in domain.ProjectInput) (*domain.Project, error)
	updateFn func(ctx context.Context, id string, patch domain.ProjectPatch) error
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubProjectService) List(ctx context.Context) ([]*domain.Project, error) {
	return s.listFn(ctx)
}

func (s *stubProjectService) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	return s.createFn(ctx, in)
}

func (s *stubProjectService) Update(ctx context.Context, id string, patch domain.ProjectPatch) error {
	return s.updateFn(ctx, id, patch)
}

func (s *stubProjectService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubEmployeeService struct {
	listFn   func(ctx context.Context) ([]*domain.Employee, error)
	createFn func(ctx context.Context, in domain.EmployeeInput) (*domain.Employee, error)
	deleteFn func(ctx context.Context, id string) error
	cascade  bool
}

func (s *stubEmployeeService) List(ctx context.Context) ([]*domain.Employee, error) {
	return s.listFn(ctx)
}

func (s *stubEmployeeService) Create(ctx context.Context, in domain.EmployeeInput) (*domain.Employee, error) {
	return s.createFn(ctx, in)
}

func (s *stubEmployeeService) Update(ctx context.Context, id string, patch domain.EmployeePatch) error {
	return nil
}

func (s *stubEmployeeService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubEmployeeService) CascadesToProjects() bool { return s.cascade }

type stubRevenueService struct {
	entries []*domain.RevenueEntry
	err     error
}

func (s *stubRevenueService) List(ctx context.Context) ([]*domain.RevenueEntry, error) {
	return s.entries, s.err
}

func (s *stubRevenueService) Create(ctx context.Context, in domain.RevenueInput) (*domain.RevenueEntry, error) {
	entry, err := in.Build("uid-alice")
	if err != nil {
		return nil, err
	}
	entry.ID = "rev-1"
	return entry, nil
}

type stubProvider struct {
	signInFn    func(ctx context.Context, email, password string) (*ports.SignIn, error)
	federatedFn func(ctx context.Context, cb ports.FederatedCallback) (*ports.SignIn, error)
	createFn    func(ctx context.Context, email, password string) (*ports.SignIn, error)
	verifyFn    func(ctx context.Context, token string) (*domain.Identity, error)
	loginURL    string
	nonces      []string

	mu        sync.Mutex
	signedOut []string
}

func (p *stubProvider) SignInWithPassword(ctx context.Context, email, password string) (*ports.SignIn, error) {
	return p.signInFn(ctx, email, password)
}

func (p *stubProvider) SignInWithFederated(ctx context.Context, cb ports.FederatedCallback) (*ports.SignIn, error) {
	return p.federatedFn(ctx, cb)
}

func (p *stubProvider) CreateAccount(ctx context.Context, email, password string) (*ports.SignIn, error) {
	return p.createFn(ctx, email, password)
}

func (p *stubProvider) SignOut(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signedOut = append(p.signedOut, token)
	return nil
}

func (p *stubProvider) FederatedLoginURL(nonce string) (string, error) {
	p.mu.Lock()
	p.nonces = append(p.nonces, nonce)
	p.mu.Unlock()
	if p.loginURL == "" {
		return "", domain.NewAuthError(domain.AuthOther, nil)
	}
	return p.loginURL, nil
}

func (p *stubProvider) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	return p.verifyFn(ctx, token)
}

type stubMigrator struct {
	calls chan string
}

func (m *stubMigrator) Migrate(ctx context.Context, userID string) (domain.MigrationStatus, error) {
	m.calls <- userID
	return domain.MigrationStatus{Success: true, Count: 1}, nil
}

// streamRecorder is a ResponseWriter that can be read while a streaming
// handler is still writing to it.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   strings.Builder
	code   int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (r *streamRecorder) Header() http.Header { return r.header }

func (r *streamRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *streamRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(b)
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
