package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// TokenVerifier resolves a session token to its identity. The identity
// provider implements it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*domain.Identity, error)
}

// AuthOption customises Auth.
type AuthOption func(*authConfig)

type authConfig struct {
	queryToken bool
}

// AllowQueryToken also accepts an access_token query parameter when no
// Authorization header is present. Only for EventSource endpoints, which
// cannot set headers.
func AllowQueryToken() AuthOption {
	return func(cfg *authConfig) { cfg.queryToken = true }
}

// Auth verifies the session token and injects the identity and token into
// the context.
func Auth(verifier TokenVerifier, opts ...AuthOption) echo.MiddlewareFunc {
	var cfg authConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c, cfg.queryToken)
			if err != nil {
				return err
			}

			identity, err := verifier.VerifyToken(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session check unavailable").SetInternal(err)
			}

			c.Set("identity", identity)
			c.Set("token", token)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context, allowQuery bool) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if token := c.QueryParam("access_token"); allowQuery && token != "" {
			return token, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
