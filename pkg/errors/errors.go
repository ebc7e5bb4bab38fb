// Package errors defines the coded errors rendered in API responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in API error bodies
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "RESOURCE_NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeAllocationExhausted = "ALLOCATION_EXHAUSTED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeBadRequest          = "BAD_REQUEST"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

// AppError carries a stable code, the HTTP status to answer with, and
// optionally the cause.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails replaces the details map
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap records err as the cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func NewAppError(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// ErrValidation creates a validation error
func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrValidationWithFields creates a validation error with field details
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return ErrValidation(message).WithDetails(fields)
}

// ErrNotFound creates a not found error
func ErrNotFound(resource string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ErrInvalidState is returned when a lifecycle transition is not allowed
func ErrInvalidState(message string) *AppError {
	return NewAppError(CodeInvalidState, message, http.StatusConflict)
}

// ErrInvalidQuantity is returned for quantities outside the permitted range
func ErrInvalidQuantity(message string) *AppError {
	return NewAppError(CodeInvalidQuantity, message, http.StatusUnprocessableEntity)
}

// ErrAllocationExhausted signals a partially fulfilled request. It travels
// alongside a successful response rather than replacing it.
func ErrAllocationExhausted(message string) *AppError {
	return NewAppError(CodeAllocationExhausted, message, http.StatusOK)
}

// ErrInternal creates an internal error
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalError, message, http.StatusInternalServerError)
}

// ErrBadRequest creates a bad request error
func ErrBadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

// ErrServiceUnavailable creates a service unavailable error
func ErrServiceUnavailable(service string) *AppError {
	return NewAppError(CodeServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable)
}

// FromError returns the AppError in err's chain, or wraps err as internal
func FromError(err error) *AppError {
	return MapError(err)
}

// Mapping pairs a sentinel error with the AppError it should surface as.
type Mapping struct {
	Target error
	Build  func(err error) *AppError
}

// MapError returns the AppError of the first mapping whose target matches
// err via errors.Is. Unmatched errors become internal errors.
func MapError(err error, mappings ...Mapping) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			return m.Build(err).Wrap(err)
		}
	}
	return ErrInternal("").Wrap(err)
}
