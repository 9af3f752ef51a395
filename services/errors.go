package services

import (
	"errors"
	"fmt"
)

// ErrorType categorizes a domain error for transport mapping.
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeGone         ErrorType = "gone"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError is a structured error with a type and optional details.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches two domain errors by type.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail attaches a detail entry and returns the error for chaining.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error.
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

var (
	// Not found
	ErrOrganizationNotFound = NewDomainError(ErrorTypeNotFound, "organization not found", nil)
	ErrGroupNotFound        = NewDomainError(ErrorTypeNotFound, "group not found", nil)
	ErrUserNotFound         = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrPolicyNotFound       = NewDomainError(ErrorTypeNotFound, "policy not found", nil)
	ErrOverrideNotFound     = NewDomainError(ErrorTypeNotFound, "policy override not found", nil)
	ErrCostCenterNotFound   = NewDomainError(ErrorTypeNotFound, "cost center not found", nil)
	ErrRuleNotFound         = NewDomainError(ErrorTypeNotFound, "chargeback rule not found", nil)
	ErrInviteNotFound       = NewDomainError(ErrorTypeNotFound, "invite not found", nil)
	ErrAPIKeyNotFound       = NewDomainError(ErrorTypeNotFound, "API key not found", nil)

	// Validation
	ErrInvalidInput      = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidRole       = NewDomainError(ErrorTypeValidation, "invalid role", nil)
	ErrUnknownModule     = NewDomainError(ErrorTypeValidation, "unknown module", nil)
	ErrInvalidSplits     = NewDomainError(ErrorTypeValidation, "chargeback splits must sum to exactly 100", nil)
	ErrInvalidMatch      = NewDomainError(ErrorTypeValidation, "invalid chargeback match", nil)
	ErrInvalidOverride   = NewDomainError(ErrorTypeValidation, "invalid policy override", nil)
	ErrInvalidTimeWindow = NewDomainError(ErrorTypeValidation, "invalid time window", nil)

	// Auth
	ErrUnauthorized  = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidAPIKey = NewDomainError(ErrorTypeUnauthorized, "invalid API key", nil)
	ErrForbidden     = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrOrgMismatch   = NewDomainError(ErrorTypeForbidden, "organization mismatch", nil)

	// Conflict / lifecycle
	ErrDuplicateEmail     = NewDomainError(ErrorTypeConflict, "email already exists", nil)
	ErrModuleDependency   = NewDomainError(ErrorTypeConflict, "module dependency not satisfied", nil)
	ErrInviteNotPending   = NewDomainError(ErrorTypeConflict, "invite is not pending", nil)
	ErrCostCenterInUse    = NewDomainError(ErrorTypeConflict, "cost center is referenced by chargeback rules", nil)
	ErrInviteExpired      = NewDomainError(ErrorTypeGone, "invite has expired", nil)
	ErrAPIKeyRevoked      = NewDomainError(ErrorTypeUnauthorized, "API key has been revoked", nil)

	// Internal
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// GetErrorType returns the ErrorType of a domain error, or "" for other errors.
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil.
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// IsNotFoundError reports whether err is a not-found domain error.
func IsNotFoundError(err error) bool { return GetErrorType(err) == ErrorTypeNotFound }

// IsValidationError reports whether err is a validation domain error.
func IsValidationError(err error) bool { return GetErrorType(err) == ErrorTypeValidation }

// IsUnauthorizedError reports whether err is an unauthorized domain error.
func IsUnauthorizedError(err error) bool { return GetErrorType(err) == ErrorTypeUnauthorized }

// IsForbiddenError reports whether err is a forbidden domain error.
func IsForbiddenError(err error) bool { return GetErrorType(err) == ErrorTypeForbidden }

// IsConflictError reports whether err is a conflict domain error.
func IsConflictError(err error) bool { return GetErrorType(err) == ErrorTypeConflict }

// IsGoneError reports whether err is a gone domain error.
func IsGoneError(err error) bool { return GetErrorType(err) == ErrorTypeGone }

// IsInternalError reports whether err is an internal domain error.
func IsInternalError(err error) bool { return GetErrorType(err) == ErrorTypeInternal }

// WrapInternal wraps err as an internal domain error.
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
