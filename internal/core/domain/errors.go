package domain

import (
	"errors"
	"fmt"
)

var ErrNotAuthenticated = errors.New("user not authenticated")
var ErrStoreUnavailable = errors.New("data store unavailable")
var ErrNotFound = errors.New("record not found")
var ErrEmployeeReferenced = errors.New("employee is assigned to one or more projects")
var ErrInvalidToken = errors.New("invalid session token")
var ErrAccountExists = errors.New("account already exists")
var ErrAccountNotFound = errors.New("account not found")

// AuthErrorKind classifies identity provider failures.
type AuthErrorKind string

const (
	AuthAlreadyInUse       AuthErrorKind = "already_in_use"
	AuthWeakPassword       AuthErrorKind = "weak_password"
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthPopupCancelled     AuthErrorKind = "popup_cancelled"
	AuthOther              AuthErrorKind = "other"
)

var authMessages = map[AuthErrorKind]string{
	AuthAlreadyInUse:       "This email is already registered. Please use a different email or log in.",
	AuthWeakPassword:       "Password is too weak. Please choose a stronger password.",
	AuthInvalidCredentials: "Invalid email or password.",
	AuthPopupCancelled:     "Sign-in was cancelled.",
	AuthOther:              "Authentication failed.",
}

// AuthError is returned by every session operation. Err holds the provider
// error, if any, so callers can still inspect it with errors.Is.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

func (e *AuthError) Error() string {
	msg, ok := authMessages[e.Kind]
	if !ok {
		msg = authMessages[AuthOther]
	}
	if e.Kind == AuthOther && e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// Benign reports whether the failure is a user choice rather than an error
// worth surfacing (a cancelled federated sign-in).
func (e *AuthError) Benign() bool { return e.Kind == AuthPopupCancelled }

// IsAuthKind reports whether err is an AuthError of the given kind.
func IsAuthKind(err error, kind AuthErrorKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// StoreError wraps a store failure with a message fit for end users while
// keeping ErrStoreUnavailable and the cause reachable through errors.Is.
func StoreError(msg string, cause error) error {
	return fmt.Errorf("%s: %w", msg, errors.Join(ErrStoreUnavailable, cause))
}
