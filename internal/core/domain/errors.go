package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no session could be resolved.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means a session exists but its role is insufficient.
	ErrForbidden = errors.New("access forbidden")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrSessionExpired     = errors.New("session expired")
)

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a persistence-layer failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// UpstreamKind distinguishes market-data failures.
type UpstreamKind string

const (
	UpstreamFailure       UpstreamKind = "failure"
	UpstreamRateLimited   UpstreamKind = "rate_limited"
	UpstreamUnknownSymbol UpstreamKind = "unknown_symbol"
)

// UpstreamError reports a market-data provider failure.
type UpstreamError struct {
	Kind    UpstreamKind
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing required setting.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s is not set", e.Key)
}
