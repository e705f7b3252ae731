package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
)

const (
	minPasswordLength = 6
	oauthStateTTL     = 10 * time.Minute
	oauthStatePurpose = "oauth_state"
	oauthAccessDenied = "access_denied"
)

// AuthService is the identity provider: password accounts, federated sign-in
// and session tokens. It implements ports.IdentityProvider.
type AuthService struct {
	accounts  ports.AccountRepository
	revoker   ports.TokenRevoker
	federated ports.FederatedProvider
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService builds the provider. federated may be nil, in which case
// federated sign-in reports AuthOther.
func NewAuthService(accounts ports.AccountRepository, revoker ports.TokenRevoker, federated ports.FederatedProvider, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		accounts:  accounts,
		revoker:   revoker,
		federated: federated,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*ports.SignIn, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, nil)
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewAuthError(domain.AuthInvalidCredentials, err)
		}
		return nil, domain.NewAuthError(domain.AuthOther, err)
	}
	if account.PasswordHash == "" {
		// federated-only account
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, nil)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, nil)
	}

	return s.issue(account)
}

func (s *AuthService) CreateAccount(ctx context.Context, email, password string) (*ports.SignIn, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewAuthError(domain.AuthOther, &domain.ValidationError{Field: "email", Reason: "must be a valid email address"})
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewAuthError(domain.AuthWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthOther, err)
	}

	now := s.now().UTC()
	account, err := s.accounts.Create(ctx, &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		Provider:     domain.ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.NewAuthError(domain.AuthAlreadyInUse, err)
		}
		return nil, domain.NewAuthError(domain.AuthOther, err)
	}

	s.logger.Info().Str("user_id", account.ID).Msg("account created")
	return s.issue(account)
}

// FederatedLoginURL returns the provider consent URL carrying a signed,
// short-lived state value bound to nonce.
func (s *AuthService) FederatedLoginURL(nonce string) (string, error) {
	if s.federated == nil {
		return "", domain.NewAuthError(domain.AuthOther, errors.New("federated sign-in is not configured"))
	}
	if nonce == "" {
		return "", domain.NewAuthError(domain.AuthOther, errors.New("missing oauth nonce"))
	}
	now := s.now()
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"purpose": oauthStatePurpose,
		"nonce":   nonce,
		"exp":     now.Add(oauthStateTTL).Unix(),
		"iat":     now.Unix(),
	}).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", domain.NewAuthError(domain.AuthOther, err)
	}
	return s.federated.AuthCodeURL(state), nil
}

// SignInWithFederated completes the authorization-code flow. A user who
// declined consent gets AuthPopupCancelled.
func (s *AuthService) SignInWithFederated(ctx context.Context, cb ports.FederatedCallback) (*ports.SignIn, error) {
	if cb.Error != "" {
		if cb.Error == oauthAccessDenied {
			return nil, domain.NewAuthError(domain.AuthPopupCancelled, nil)
		}
		return nil, domain.NewAuthError(domain.AuthOther, fmt.Errorf("provider returned %q", cb.Error))
	}
	if s.federated == nil {
		return nil, domain.NewAuthError(domain.AuthOther, errors.New("federated sign-in is not configured"))
	}
	if err := s.checkState(cb.State, cb.Nonce); err != nil {
		return nil, domain.NewAuthError(domain.AuthOther, err)
	}
	if cb.Code == "" {
		return nil, domain.NewAuthError(domain.AuthOther, errors.New("missing authorization code"))
	}

	profile, err := s.federated.Exchange(ctx, cb.Code)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthOther, err)
	}

	account, err := s.accounts.FindByProvider(ctx, profile.Provider, profile.ProviderUserID)
	switch {
	case err == nil:
		return s.issue(account)
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, domain.NewAuthError(domain.AuthOther, err)
	}

	email := normalizeEmail(profile.Email)
	if email == "" {
		return nil, domain.NewAuthError(domain.AuthOther, errors.New("provider did not return an email"))
	}

	now := s.now().UTC()
	account, err = s.accounts.Create(ctx, &domain.Account{
		Email:          email,
		DisplayName:    profile.Name,
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.NewAuthError(domain.AuthAlreadyInUse, err)
		}
		return nil, domain.NewAuthError(domain.AuthOther, err)
	}

	s.logger.Info().Str("user_id", account.ID).Str("provider", profile.Provider).Msg("federated account created")
	return s.issue(account)
}

// SignOut revokes the token until its natural expiry.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return domain.NewAuthError(domain.AuthOther, domain.ErrInvalidToken)
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return domain.NewAuthError(domain.AuthOther, domain.ErrInvalidToken)
	}

	ttl := time.Minute
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ttl = exp.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, ttl); err != nil {
		return domain.NewAuthError(domain.AuthOther, err)
	}
	return nil
}

// VerifyToken resolves a session token to the identity it was issued for.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" {
		return nil, domain.ErrInvalidToken
	}

	revoked, err := s.revoker.IsRevoked(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, domain.ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return &domain.Identity{ID: sub, Email: email, DisplayName: name}, nil
}

func (s *AuthService) issue(account *domain.Account) (*ports.SignIn, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"name":  account.DisplayName,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthOther, err)
	}
	return &ports.SignIn{Identity: account.Identity(), Token: token}, nil
}

func (s *AuthService) parse(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// checkState accepts a state this service signed for the browser holding
// nonce.
func (s *AuthService) checkState(state, nonce string) error {
	if state == "" {
		return errors.New("missing oauth state")
	}
	claims, err := s.parse(state)
	if err != nil {
		return errors.New("invalid oauth state")
	}
	if purpose, _ := claims["purpose"].(string); purpose != oauthStatePurpose {
		return errors.New("invalid oauth state")
	}
	bound, _ := claims["nonce"].(string)
	if nonce == "" || subtle.ConstantTimeCompare([]byte(bound), []byte(nonce)) != 1 {
		return errors.New("oauth state was issued to another browser")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
