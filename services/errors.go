package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeUnauthorized   ErrorType = "unauthorized"
	ErrorTypeForbidden      ErrorType = "forbidden"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeExternal       ErrorType = "external"
	ErrorTypeConfiguration  ErrorType = "configuration"
	ErrorTypeNotImplemented ErrorType = "not_implemented"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrUserNotFound     = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrCountryNotFound  = NewDomainError(ErrorTypeNotFound, "country not found", nil)
	ErrStateNotFound    = NewDomainError(ErrorTypeNotFound, "state not found", nil)
	ErrCityNotFound     = NewDomainError(ErrorTypeNotFound, "city not found", nil)
	ErrProductNotFound  = NewDomainError(ErrorTypeNotFound, "product not found", nil)
	ErrDocumentNotFound = NewDomainError(ErrorTypeNotFound, "document not found", nil)
	ErrActivityNotFound = NewDomainError(ErrorTypeNotFound, "activity log not found", nil)

	// Validation Errors
	ErrUserSeparated     = NewDomainError(ErrorTypeValidation, "User has been separated", nil)
	ErrUserInactive      = NewDomainError(ErrorTypeValidation, "User is not active", nil)
	ErrWeakPassword      = NewDomainError(ErrorTypeValidation, "password must be at least 6 characters", nil)
	ErrInvalidOTP        = NewDomainError(ErrorTypeValidation, "invalid or expired OTP", nil)
	ErrInvalidResetToken = NewDomainError(ErrorTypeValidation, "invalid or expired password reset link", nil)
	ErrInvalidDocument   = NewDomainError(ErrorTypeValidation, "invalid document payload", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	// Rate Limit Errors
	ErrOTPLimitReached    = NewDomainError(ErrorTypeRateLimit, "OTP limit reached for today", nil)
	ErrResendLimitReached = NewDomainError(ErrorTypeRateLimit, "OTP resend limit reached", nil)

	// Conflict Errors
	ErrDuplicateRecord = NewDomainError(ErrorTypeConflict, "record already exists", nil)

	// External Errors
	ErrMailDelivery = NewDomainError(ErrorTypeExternal, "mail delivery failed", nil)
	ErrSMSDelivery  = NewDomainError(ErrorTypeExternal, "SMS delivery failed", nil)

	// Not Implemented Errors
	ErrNotImplemented = NewDomainError(ErrorTypeNotImplemented, "not implemented", nil)
)

// Error type checking helper functions

func isType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return isType(err, ErrorTypeUnauthorized)
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return isType(err, ErrorTypeForbidden)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return isType(err, ErrorTypeRateLimit)
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return isType(err, ErrorTypeInternal)
}

// IsExternalError checks if an error is an external service error
func IsExternalError(err error) bool {
	return isType(err, ErrorTypeExternal)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return isType(err, ErrorTypeConfiguration)
}

// IsNotImplementedError checks if an error marks an unsupported operation
func IsNotImplementedError(err error) bool {
	return isType(err, ErrorTypeNotImplemented)
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external service error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// Validation returns a validation error with the given message
func Validation(message string) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, nil)
}
