package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/api/metrics"
	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
	"github.com/freelancehq/freelance-manager/internal/core/session"
)

// oauthNonceCookie ties a federated sign-in to the browser that started it.
const (
	oauthNonceCookie = "oauth_nonce"
	oauthNonceTTL    = 10 * time.Minute
	oauthCookiePath  = "/auth/federated"
)

// AuthHandler drives a session context per request. A sign-in that makes an
// identity appear starts the legacy migration in the background; the
// response does not wait for it.
type AuthHandler struct {
	provider ports.IdentityProvider
	migrator ports.Migrator
	log      zerolog.Logger
}

// NewAuthHandler builds the handler. migrator may be nil.
func NewAuthHandler(provider ports.IdentityProvider, migrator ports.Migrator, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, migrator: migrator, log: log}
}

func (h *AuthHandler) newSession() *session.Context {
	return session.New(h.provider, h.migrator, h.log, session.WithMigrationObserver(recordMigration))
}

func recordMigration(_ *domain.Identity, status domain.MigrationStatus, err error) {
	result := "ok"
	if err != nil || !status.Success {
		result = "error"
	}
	metrics.MigrationsTotal.WithLabelValues(result).Inc()
	metrics.MigratedRecordsTotal.Add(float64(status.Count))
}

func recordAttempt(method string, err error) {
	result := "ok"
	var ae *domain.AuthError
	switch {
	case errors.As(err, &ae):
		result = string(ae.Kind)
	case err != nil:
		result = "error"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(method, result).Inc()
}

// Signup creates a password account and signs it in.
//
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sc := h.newSession()
	identity, err := sc.Signup(c.Request().Context(), req.Email, req.Password)
	recordAttempt("signup", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{Token: sc.Token(), User: identity})
}

// Login signs in with email and password.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sc := h.newSession()
	err := sc.LoginWithCredentials(c.Request().Context(), req.Email, req.Password)
	recordAttempt("password", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: sc.Token(), User: sc.Identity()})
}

// FederatedURL returns where to send the browser to start a federated
// sign-in.
//
// @Summary      Start federated sign-in
// @Tags         auth
// @Produce      json
// @Success      200  {object}  federatedURLResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/federated/url [get]
func (h *AuthHandler) FederatedURL(c echo.Context) error {
	nonce := uuid.NewString()
	url, err := h.provider.FederatedLoginURL(nonce)
	if err != nil {
		return err
	}
	c.SetCookie(nonceCookie(c, nonce, int(oauthNonceTTL.Seconds())))
	return c.JSON(http.StatusOK, federatedURLResponse{URL: url})
}

// FederatedCallback completes a federated sign-in. A user who declined
// consent gets 200 with cancelled set and no token.
//
// @Summary      Finish federated sign-in
// @Tags         auth
// @Produce      json
// @Param        code   query     string  false  "Authorization code"
// @Param        state  query     string  true   "State from the start URL"
// @Param        error  query     string  false  "Provider error, e.g. access_denied"
// @Success      200    {object}  authResponse
// @Failure      401    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Router       /auth/federated/callback [get]
func (h *AuthHandler) FederatedCallback(c echo.Context) error {
	var nonce string
	if ck, err := c.Cookie(oauthNonceCookie); err == nil {
		nonce = ck.Value
	}
	c.SetCookie(nonceCookie(c, "", -1))

	sc := h.newSession()
	err := sc.LoginWithFederatedProvider(c.Request().Context(), ports.FederatedCallback{
		Code:  c.QueryParam("code"),
		State: c.QueryParam("state"),
		Error: c.QueryParam("error"),
		Nonce: nonce,
	})
	recordAttempt("federated", err)
	if err != nil {
		var ae *domain.AuthError
		if errors.As(err, &ae) && ae.Benign() {
			return c.JSON(http.StatusOK, authResponse{Cancelled: true})
		}
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: sc.Token(), User: sc.Identity()})
}

// nonceCookie builds the nonce cookie; maxAge < 0 deletes it.
func nonceCookie(c echo.Context, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     oauthNonceCookie,
		Value:    value,
		Path:     oauthCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.IsTLS() || c.Request().Header.Get(echo.HeaderXForwardedProto) == "https",
		SameSite: http.SameSiteLaxMode,
	}
}

// Logout revokes the bearer token.
//
// @Summary      Log out
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}

	sc := session.New(h.provider, nil, h.log)
	if err := sc.Resolve(c.Request().Context(), token); err != nil {
		return err
	}
	if err := sc.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
