package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "user not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same error type", NewDomainError(ErrorTypeNotFound, "not found", nil), ErrCountryNotFound, true},
		{"different error type", NewDomainError(ErrorTypeValidation, "validation", nil), ErrCountryNotFound, false},
		{"not a domain error", NewDomainError(ErrorTypeNotFound, "not found", nil), errors.New("regular error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)
	err.WithDetail("field", "email").WithDetail("value", "invalid-email")

	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, "invalid-email", err.Details["value"])
}

func TestErrorTypeChecks(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrUserNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrDocumentNotFound), IsNotFoundError, true},
		{"nil is not found", nil, IsNotFoundError, false},
		{"validation", ErrInvalidOTP, IsValidationError, true},
		{"separated user", ErrUserSeparated, IsValidationError, true},
		{"regular error", errors.New("regular"), IsValidationError, false},
		{"unauthorized", ErrInvalidToken, IsUnauthorizedError, true},
		{"forbidden", NewDomainError(ErrorTypeForbidden, "access forbidden", nil), IsForbiddenError, true},
		{"unauthorized is not forbidden", ErrUnauthorized, IsForbiddenError, false},
		{"otp limit", ErrOTPLimitReached, IsRateLimitError, true},
		{"duplicate record", ErrDuplicateRecord, IsConflictError, true},
		{"wrapped internal", WrapInternal("failed to load user", errors.New("conn reset")), IsInternalError, true},
		{"mail", ErrMailDelivery, IsExternalError, true},
		{"permission config", NewDomainError(ErrorTypeConfiguration, "policy misconfigured", nil), IsConfigurationError, true},
		{"not implemented", ErrNotImplemented, IsNotImplementedError, true},
		{"internal is not external", WrapInternal("failed", nil), IsExternalError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"not found", ErrCityNotFound, ErrorTypeNotFound},
		{"validation", ErrWeakPassword, ErrorTypeValidation},
		{"rate limit", ErrResendLimitReached, ErrorTypeRateLimit},
		{"configuration", NewDomainError(ErrorTypeConfiguration, "policy misconfigured", nil), ErrorTypeConfiguration},
		{"regular error", errors.New("regular"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)
	err.WithDetail("field", "email").WithDetail("reason", "invalid format")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "email", details["field"])
	assert.Equal(t, "invalid format", details["reason"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}

func TestWrapError(t *testing.T) {
	baseErr := errors.New("base error")
	wrapped := WrapError(ErrorTypeInternal, "wrapped message", baseErr)

	var domainErr *DomainError
	require.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, ErrorTypeInternal, domainErr.Type)
	assert.Equal(t, "wrapped message", domainErr.Message)
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}

func TestWrapInternalAndExternal(t *testing.T) {
	baseErr := errors.New("connection refused")

	assert.True(t, IsInternalError(WrapInternal("failed to connect", baseErr)))
	assert.True(t, IsExternalError(WrapExternal("smtp dial failed", baseErr)))
	assert.Equal(t, baseErr, errors.Unwrap(WrapExternal("smtp dial failed", baseErr)))
}

func TestValidation(t *testing.T) {
	err := Validation("Incorrect password for email")
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "Incorrect password for email", err.Message)
}
