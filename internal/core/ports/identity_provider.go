package ports

import (
	"context"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// SignIn is a successful provider sign-in: the identity plus the session
// token that proves it.
type SignIn struct {
	Identity *domain.Identity
	Token    string
}

// FederatedCallback carries what the federated provider redirected back with.
// Error is set instead of Code when the user aborted the flow. Nonce is the
// value the starting browser was given alongside the login URL.
type FederatedCallback struct {
	Code  string
	State string
	Error string
	Nonce string
}

// IdentityProvider is the boundary to whatever verifies credentials and
// issues session tokens. Failures are *domain.AuthError.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*SignIn, error)
	SignInWithFederated(ctx context.Context, cb FederatedCallback) (*SignIn, error)
	CreateAccount(ctx context.Context, email, password string) (*SignIn, error)
	SignOut(ctx context.Context, token string) error
	// FederatedLoginURL returns where to send the user to start a federated
	// sign-in. The state it embeds only validates against the same nonce.
	FederatedLoginURL(nonce string) (string, error)
	// VerifyToken resolves a session token to its identity.
	VerifyToken(ctx context.Context, token string) (*domain.Identity, error)
}

// FederatedProfile is the user information returned by an OAuth provider.
type FederatedProfile struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
}

// FederatedProvider performs the OAuth2 authorization-code exchange.
type FederatedProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*FederatedProfile, error)
}
