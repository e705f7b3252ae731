package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
	"github.com/freelancehq/freelance-manager/internal/core/session"
)

var discardLogger = zerolog.Nop()

var (
	alice = &domain.Identity{ID: "uid-alice", Email: "alice@example.com"}
	bob   = &domain.Identity{ID: "uid-bob", Email: "bob@example.com"}
)

func as(identity *domain.Identity) session.Static {
	return session.NewStatic(identity)
}

// ---------------------------------------------------------------------------
// In-memory project repository
// ---------------------------------------------------------------------------

type stubProjectRepo struct {
	mu        sync.Mutex
	seq       int
	byID      map[string]*domain.Project
	completed map[string]bool // mirrors the persisted query field
	createErr error
	listErr   error
	failAfter int // Create fails once this many writes succeeded; 0 disables
	creates   int
	delay     time.Duration
}

func newStubProjectRepo() *stubProjectRepo {
	return &stubProjectRepo{
		byID:      make(map[string]*domain.Project),
		completed: make(map[string]bool),
	}
}

func cloneProject(p *domain.Project) *domain.Project {
	c := *p
	c.AssignedEmployees = slices.Clone(p.AssignedEmployees)
	return &c
}

func (r *stubProjectRepo) ListByOwner(_ context.Context, userID string) ([]*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.Project
	for _, p := range r.byID {
		if p.UserID == userID {
			out = append(out, cloneProject(p))
		}
	}
	return out, nil
}

func (r *stubProjectRepo) Create(_ context.Context, p *domain.Project, createdAt *time.Time) (string, error) {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	if r.failAfter > 0 && r.creates >= r.failAfter {
		return "", fmt.Errorf("store unavailable")
	}
	r.creates++
	r.seq++
	id := fmt.Sprintf("p%d", r.seq)
	stored := cloneProject(p)
	stored.ID = id
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if createdAt != nil {
		ts = *createdAt
	}
	stored.CreatedAt = &ts
	r.byID[id] = stored
	r.completed[id] = p.Completed()
	return id, nil
}

func (r *stubProjectRepo) Update(_ context.Context, userID, id string, u domain.ProjectUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.UserID != userID {
		return domain.ErrNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Client != nil {
		p.Client = *u.Client
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if c := u.Completed(); c != nil {
		r.completed[id] = *c
	}
	if u.ProjectURL != nil {
		p.ProjectURL = *u.ProjectURL
	}
	if u.Revenue != nil {
		p.Revenue = *u.Revenue
	}
	if u.ProjectStartedAt != nil {
		p.ProjectStartedAt = u.ProjectStartedAt.Value
	}
	if u.DueDate != nil {
		p.DueDate = u.DueDate.Value
	}
	if u.SetEmployees {
		p.AssignedEmployees = slices.Clone(u.AssignedEmployees)
	}
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	p.UpdatedAt = &now
	return nil
}

func (r *stubProjectRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok && p.UserID == userID {
		delete(r.byID, id)
		delete(r.completed, id)
	}
	return nil
}

func (r *stubProjectRepo) CountAssigned(_ context.Context, userID, employeeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.byID {
		if p.UserID == userID && slices.Contains(p.AssignedEmployees, employeeID) {
			n++
		}
	}
	return n, nil
}

func (r *stubProjectRepo) UnassignEmployee(_ context.Context, userID, employeeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.byID {
		if p.UserID != userID {
			continue
		}
		if i := slices.Index(p.AssignedEmployees, employeeID); i >= 0 {
			p.AssignedEmployees = slices.Delete(p.AssignedEmployees, i, i+1)
			n++
		}
	}
	return n, nil
}

func (r *stubProjectRepo) titles(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.byID {
		if p.UserID == userID {
			out = append(out, p.Title)
		}
	}
	slices.Sort(out)
	return out
}

// ---------------------------------------------------------------------------
// In-memory employee repository
// ---------------------------------------------------------------------------

type stubEmployeeRepo struct {
	seq  int
	byID map[string]*domain.Employee
}

func newStubEmployeeRepo() *stubEmployeeRepo {
	return &stubEmployeeRepo{byID: make(map[string]*domain.Employee)}
}

func (r *stubEmployeeRepo) ListByOwner(_ context.Context, userID string) ([]*domain.Employee, error) {
	var out []*domain.Employee
	for _, e := range r.byID {
		if e.UserID == userID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubEmployeeRepo) Create(_ context.Context, e *domain.Employee) (string, error) {
	r.seq++
	id := fmt.Sprintf("e%d", r.seq)
	c := *e
	c.ID = id
	r.byID[id] = &c
	return id, nil
}

func (r *stubEmployeeRepo) Update(_ context.Context, userID, id string, u domain.EmployeeUpdate) error {
	e, ok := r.byID[id]
	if !ok || e.UserID != userID {
		return domain.ErrNotFound
	}
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Email != nil {
		e.Email = *u.Email
	}
	if u.Phone != nil {
		e.Phone = *u.Phone
	}
	if u.Role != nil {
		e.Role = *u.Role
	}
	return nil
}

func (r *stubEmployeeRepo) Delete(_ context.Context, userID, id string) error {
	if e, ok := r.byID[id]; ok && e.UserID == userID {
		delete(r.byID, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory revenue repository
// ---------------------------------------------------------------------------

type stubRevenueRepo struct {
	entries []*domain.RevenueEntry
}

func (r *stubRevenueRepo) ListByOwner(_ context.Context, userID string) ([]*domain.RevenueEntry, error) {
	var out []*domain.RevenueEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubRevenueRepo) Create(_ context.Context, e *domain.RevenueEntry) (string, error) {
	c := *e
	c.ID = fmt.Sprintf("r%d", len(r.entries)+1)
	r.entries = append(r.entries, &c)
	return c.ID, nil
}

// ---------------------------------------------------------------------------
// Local storage and ledger
// ---------------------------------------------------------------------------

type stubStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func newStubStorage() *stubStorage {
	return &stubStorage{values: make(map[string]string)}
}

func (s *stubStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *stubStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

type stubLedger struct {
	mu      sync.Mutex
	marked  map[string]map[string]bool
	cleared []string
	locked  map[string]bool
}

func newStubLedger() *stubLedger {
	return &stubLedger{marked: make(map[string]map[string]bool), locked: make(map[string]bool)}
}

func (l *stubLedger) Lock(_ context.Context, userID string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked[userID] {
		return nil, false, nil
	}
	l.locked[userID] = true
	return func() {
		l.mu.Lock()
		delete(l.locked, userID)
		l.mu.Unlock()
	}, true, nil
}

func (l *stubLedger) Migrated(_ context.Context, userID string) (map[string]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]bool)
	for fp := range l.marked[userID] {
		out[fp] = true
	}
	return out, nil
}

func (l *stubLedger) Mark(_ context.Context, userID, fingerprint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.marked[userID] == nil {
		l.marked[userID] = make(map[string]bool)
	}
	l.marked[userID][fingerprint] = true
	return nil
}

func (l *stubLedger) Clear(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.marked, userID)
	l.cleared = append(l.cleared, userID)
	return nil
}

func (l *stubLedger) size(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.marked[userID])
}

// ---------------------------------------------------------------------------
// Accounts, revocation and federated provider
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	seq      int
	accounts map[string]*domain.Account // by email
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	a, ok := r.accounts[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	c := *a
	return &c, nil
}

func (r *stubAccountRepo) FindByProvider(_ context.Context, provider, providerUserID string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Provider == provider && a.ProviderUserID == providerUserID {
			c := *a
			return &c, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	if _, exists := r.accounts[a.Email]; exists {
		return nil, domain.ErrAccountExists
	}
	r.seq++
	c := *a
	c.ID = fmt.Sprintf("uid-%d", r.seq)
	r.accounts[c.Email] = &c
	out := c
	return &out, nil
}

type stubRevoker struct {
	revoked map[string]time.Duration
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Duration)}
}

func (r *stubRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	r.revoked[tokenID] = ttl
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := r.revoked[tokenID]
	return ok, nil
}

type stubFederated struct {
	profile *ports.FederatedProfile
	err     error
	codes   []string
}

func (f *stubFederated) Exchange(_ context.Context, code string) (*ports.FederatedProfile, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	p := *f.profile
	return &p, nil
}

func (f *stubFederated) AuthCodeURL(state string) string {
	return "https://idp.example.com/auth?state=" + state
}

func stateFrom(url string) string {
	_, state, _ := strings.Cut(url, "state=")
	return state
}

// loginOnlyProvider signs every password login in as identity.
type loginOnlyProvider struct {
	identity *domain.Identity
}

func (p *loginOnlyProvider) SignInWithPassword(context.Context, string, string) (*ports.SignIn, error) {
	return &ports.SignIn{Identity: p.identity, Token: "t"}, nil
}

func (p *loginOnlyProvider) SignInWithFederated(context.Context, ports.FederatedCallback) (*ports.SignIn, error) {
	return nil, domain.NewAuthError(domain.AuthOther, nil)
}

func (p *loginOnlyProvider) CreateAccount(context.Context, string, string) (*ports.SignIn, error) {
	return nil, domain.NewAuthError(domain.AuthOther, nil)
}

func (p *loginOnlyProvider) SignOut(context.Context, string) error { return nil }

func (p *loginOnlyProvider) FederatedLoginURL(string) (string, error) { return "", nil }

func (p *loginOnlyProvider) VerifyToken(context.Context, string) (*domain.Identity, error) {
	return p.identity, nil
}
