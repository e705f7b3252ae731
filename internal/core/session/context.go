// Package session tracks who is logged in for one client session and runs
// the legacy data migration when an identity first appears.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
)

// MigrationObserver is told about every migration the context triggers.
type MigrationObserver func(identity *domain.Identity, status domain.MigrationStatus, err error)

// Option customises a Context.
type Option func(*Context)

// WithMigrationObserver registers fn to receive migration results.
func WithMigrationObserver(fn MigrationObserver) Option {
	return func(c *Context) { c.onMigration = fn }
}

// Context is the source of truth for the current identity. It implements
// ports.Session, so record access can be bound to it directly.
type Context struct {
	provider    ports.IdentityProvider
	migrator    ports.Migrator
	log         zerolog.Logger
	onMigration MigrationObserver

	mu        sync.Mutex
	identity  *domain.Identity
	token     string
	loading   bool
	watchers  map[int]chan *domain.Identity
	nextWatch int
	migration *domain.MigrationStatus

	migrations sync.WaitGroup
}

// New returns a Context that is still loading. migrator may be nil.
func New(provider ports.IdentityProvider, migrator ports.Migrator, log zerolog.Logger, opts ...Option) *Context {
	c := &Context{
		provider: provider,
		migrator: migrator,
		log:      log,
		loading:  true,
		watchers: make(map[int]chan *domain.Identity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Identity returns the current identity, or nil.
func (c *Context) Identity() *domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Token returns the session token backing the current identity.
func (c *Context) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Loading reports whether the initial resolution is still pending.
func (c *Context) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// MigrationStatus returns the result of the last migration, or nil when none
// has completed since the identity appeared.
func (c *Context) MigrationStatus() *domain.MigrationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.migration == nil {
		return nil
	}
	s := *c.migration
	return &s
}

// Observe streams session state. The current value is delivered first, as
// soon as resolution has completed; later values follow every change. Slow
// readers only see the latest value. The channel closes when ctx is done.
func (c *Context) Observe(ctx context.Context) <-chan *domain.Identity {
	ch := make(chan *domain.Identity, 1)

	c.mu.Lock()
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = ch
	if !c.loading {
		ch <- c.identity
	}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.watchers, id)
		close(ch)
		c.mu.Unlock()
	}()
	return ch
}

// Resolve performs the initial resolution from a stored session token. An
// empty token resolves to anonymous. An invalid token also resolves to
// anonymous and returns an AuthError.
func (c *Context) Resolve(ctx context.Context, token string) error {
	if token == "" {
		c.set(ctx, nil, "")
		return nil
	}
	identity, err := c.provider.VerifyToken(ctx, token)
	if err != nil {
		c.set(ctx, nil, "")
		return asAuthError(err, domain.AuthInvalidCredentials)
	}
	c.set(ctx, identity, token)
	return nil
}

// LoginWithCredentials signs in with email and password.
func (c *Context) LoginWithCredentials(ctx context.Context, email, password string) error {
	signIn, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return asAuthError(err, domain.AuthOther)
	}
	c.set(ctx, signIn.Identity, signIn.Token)
	return nil
}

// LoginWithFederatedProvider completes a federated sign-in. A user who
// cancelled the flow gets an AuthError whose Benign method reports true.
func (c *Context) LoginWithFederatedProvider(ctx context.Context, cb ports.FederatedCallback) error {
	signIn, err := c.provider.SignInWithFederated(ctx, cb)
	if err != nil {
		return asAuthError(err, domain.AuthOther)
	}
	c.set(ctx, signIn.Identity, signIn.Token)
	return nil
}

// Signup creates an account and signs it in.
func (c *Context) Signup(ctx context.Context, email, password string) (*domain.Identity, error) {
	signIn, err := c.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, asAuthError(err, domain.AuthOther)
	}
	c.set(ctx, signIn.Identity, signIn.Token)
	return signIn.Identity, nil
}

// Logout revokes the session token and clears the identity. The identity is
// kept when the provider refuses the sign-out.
func (c *Context) Logout(ctx context.Context) error {
	token := c.Token()
	if token != "" {
		if err := c.provider.SignOut(ctx, token); err != nil {
			return asAuthError(err, domain.AuthOther)
		}
	}
	c.set(ctx, nil, "")
	return nil
}

// WaitMigrations blocks until every migration started so far has finished.
func (c *Context) WaitMigrations() {
	c.migrations.Wait()
}

func (c *Context) set(ctx context.Context, identity *domain.Identity, token string) {
	c.mu.Lock()
	appeared := c.identity == nil && identity != nil
	c.identity = identity
	c.token = token
	c.loading = false
	if identity == nil {
		c.migration = nil
	}
	for _, ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- identity
	}
	if appeared && c.migrator != nil {
		c.migrations.Add(1)
	}
	c.mu.Unlock()

	if appeared && c.migrator != nil {
		go c.migrate(context.WithoutCancel(ctx), identity)
	}
}

func (c *Context) migrate(ctx context.Context, identity *domain.Identity) {
	defer c.migrations.Done()

	status, err := c.migrator.Migrate(ctx, identity.ID)
	if err != nil {
		status = domain.MigrationStatus{Success: false, Count: 0}
		c.log.Error().Err(err).Str("user_id", identity.ID).Msg("legacy migration failed")
	} else if status.Count > 0 {
		c.log.Info().Str("user_id", identity.ID).Int("count", status.Count).Msg("legacy projects migrated")
	}

	c.mu.Lock()
	if c.identity != nil && c.identity.ID == identity.ID {
		c.migration = &status
	}
	c.mu.Unlock()

	if c.onMigration != nil {
		c.onMigration(identity, status, err)
	}
}

func asAuthError(err error, fallback domain.AuthErrorKind) error {
	var ae *domain.AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return domain.NewAuthError(fallback, err)
}
