package apperrors

import (
	"fmt"
	"net/http"
)

// AppError is implemented by every typed error in the application so the
// HTTP layer can translate it without inspecting concrete types.
type AppError interface {
	Error() string
	Category() string
	HTTPStatus() int
	Unwrap() error
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Msg)
	}
	return "validation failed: " + e.Msg
}
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *ValidationError) Unwrap() error    { return nil }

func NewValidationError(field, msg string) AppError {
	return &ValidationError{Field: field, Msg: msg}
}

// NotFoundError reports an absent plan, user, insurance or transaction.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return "not found: " + e.Msg }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound }
func (e *NotFoundError) Unwrap() error    { return nil }

func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError reports a business-rule conflict: an illegal status
// transition or a concurrent purchase attempt for the same user.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return "conflict: " + e.Msg }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict }
func (e *ConflictError) Unwrap() error    { return nil }

func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// ProviderError wraps a billing-provider failure. StatusCode is the
// provider's HTTP status, or 0 when no response was received at all.
type ProviderError struct {
	StatusCode int
	Msg        string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return "billing provider unreachable: " + e.Msg
	}
	return fmt.Sprintf("billing provider returned %d: %s", e.StatusCode, e.Msg)
}
func (e *ProviderError) Category() string { return "PROVIDER_ERROR" }
func (e *ProviderError) HTTPStatus() int  { return http.StatusBadGateway }
func (e *ProviderError) Unwrap() error    { return e.Err }

func NewProviderError(statusCode int, msg string, err error) AppError {
	return &ProviderError{StatusCode: statusCode, Msg: msg, Err: err}
}

// ConfigurationError reports missing credentials or endpoints. These are
// operator mistakes, not caller mistakes, and should fail loudly.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string    { return "configuration error: " + e.Msg }
func (e *ConfigurationError) Category() string { return "CONFIGURATION_ERROR" }
func (e *ConfigurationError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *ConfigurationError) Unwrap() error    { return nil }

func NewConfigurationError(msg string) AppError {
	return &ConfigurationError{Msg: msg}
}

// InternalError wraps unexpected infrastructure failures (storage, IO).
type InternalError struct {
	Msg string
	Err error
}

func (e *InternalError) Error() string    { return "internal error: " + e.Msg }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *InternalError) Unwrap() error    { return e.Err }

func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// MapToHTTPStatus translates any error into the triple used by the JSON
// error envelope. Untyped errors are reported as a generic internal error.
func MapToHTTPStatus(err error) (int, string, string) {
	if appErr, ok := err.(AppError); ok {
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "an unexpected error occurred"
}
