package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

type stubVerifier struct {
	tokens map[string]*domain.Identity
	err    error
}

func (v stubVerifier) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	identity, ok := v.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return identity, nil
}

var verifier = stubVerifier{tokens: map[string]*domain.Identity{
	"good": {ID: "uid-alice", Email: "alice@example.com"},
}}

func runAuth(t *testing.T, v TokenVerifier, req *http.Request, opts ...AuthOption) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(v, opts...)(func(c echo.Context) error {
		called = true
		identity, _ := c.Get("identity").(*domain.Identity)
		if identity == nil || identity.ID != "uid-alice" {
			t.Fatalf("identity not set: %+v", c.Get("identity"))
		}
		if c.Get("token") != "good" {
			t.Fatalf("token not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")

	rec, called := runAuth(t, verifier, req)
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/events?access_token=good", nil)

	rec, called := runAuth(t, verifier, req, AllowQueryToken())
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected query token to be accepted, got %d", rec.Code)
	}
}

func TestAuthMiddleware_QueryTokenRefusedByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/projects?access_token=good", nil)

	rec, called := runAuth(t, verifier, req)
	if called {
		t.Fatal("a query token must not authenticate a plain route")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		v      TokenVerifier
		want   int
	}{
		{name: "missing header", v: verifier, want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token good", v: verifier, want: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", v: verifier, want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer not-a-token", v: verifier, want: http.StatusUnauthorized},
		{name: "revocation store down", header: "Bearer good", v: stubVerifier{err: errors.New("redis down")}, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec, called := runAuth(t, tt.v, req)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
