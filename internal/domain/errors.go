package domain

import (
	"errors"
	"fmt"
)

// ValidationError rejects an input before any remote call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthError is an identity-provider rejection, surfaced verbatim.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
}

// PersistenceError is a remote store rejection; the write was not applied.
type PersistenceError struct {
	Status  int
	Code    string
	Message string
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error (%d, %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// ConfigError is fatal at startup and never recoverable at runtime.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
