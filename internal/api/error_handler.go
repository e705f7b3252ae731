package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps known domain
// errors to status codes, logs anything else, and renders {"error": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

var authStatus = map[domain.AuthErrorKind]int{
	domain.AuthAlreadyInUse:       http.StatusConflict,
	domain.AuthWeakPassword:       http.StatusBadRequest,
	domain.AuthInvalidCredentials: http.StatusUnauthorized,
	domain.AuthPopupCancelled:     http.StatusBadRequest,
	domain.AuthOther:              http.StatusUnauthorized,
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Warn().Err(he.Internal).Str("path", c.Path()).Int("status", he.Code).Msg("request failed")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Error()
	}

	var ae *domain.AuthError
	if errors.As(err, &ae) {
		code, ok := authStatus[ae.Kind]
		if !ok {
			code = http.StatusUnauthorized
		}
		if ae.Kind == domain.AuthOther && ae.Err != nil {
			log.Warn().Err(ae.Err).Str("path", c.Path()).Msg("authentication failed")
			return code, domain.NewAuthError(domain.AuthOther, nil).Error()
		}
		return code, ae.Error()
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "user not authenticated"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "record not found"
	case errors.Is(err, domain.ErrEmployeeReferenced):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrStoreUnavailable):
		// The part before the first colon is the message written for users.
		msg, _, _ := strings.Cut(err.Error(), ": ")
		return http.StatusServiceUnavailable, msg
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
