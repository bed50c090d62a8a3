// Package common defines shared constants and sentinel errors used across
// the socialgraph components. Callers should use errors.Is to match the
// sentinel values and errors.As to extract a *ValidationError.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorTransient          = errors.New("please try again later")
	ErrorInvalidCredentials = errors.New("invalid username and/or password")
	ErrorUnauthorized       = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// ValidationError carries every rule violation found in a single call, in
// the order the rules were evaluated. The batch is always complete: callers
// report all messages, never just the first.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewValidationError wraps an ordered message list.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// AsValidationError unwraps err into a *ValidationError, or returns nil if
// err is of a different kind.
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
