package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of machine-readable error kinds returned by the API
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindAccessDenied      ErrorKind = "access_denied"
	KindConflict          ErrorKind = "conflict"
	KindAlreadyInState    ErrorKind = "already_in_state"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindValidation        ErrorKind = "validation_error"
	KindInvalidToken      ErrorKind = "invalid_token"
	KindExpiredToken      ErrorKind = "expired_token"
	KindWrongTokenType    ErrorKind = "wrong_token_type"
	KindInvalidLogin      ErrorKind = "invalid_credentials"
	KindRateLimited       ErrorKind = "rate_limited"
	KindInternal          ErrorKind = "internal_error"
)

// Error is a typed domain error. Services return it and handlers map its Kind to a status code.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind, so errors.Is(err, ErrNotFound) works for every not-found error
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// NewError creates a typed error
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a typed error around an underlying cause
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Kind sentinels. Their empty message matches every error of the kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrAlreadyInState    = &Error{Kind: KindAlreadyInState}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrInvalidToken      = &Error{Kind: KindInvalidToken}
	ErrExpiredToken      = &Error{Kind: KindExpiredToken}
	ErrWrongTokenType    = &Error{Kind: KindWrongTokenType}
	ErrInvalidLogin      = &Error{Kind: KindInvalidLogin}
	ErrInternal          = &Error{Kind: KindInternal}
)

// KindOf returns the kind of a typed error, or KindInternal for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of a typed error
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred"
}

// NotFoundError reports a missing or out-of-scope entity
func NotFoundError(entity string) *Error {
	return NewError(KindNotFound, entity+" not found")
}

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Kind   ErrorKind         `json:"kind"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// ValidationMessages maps validator tags to user-friendly messages
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"email":    "Must be a valid email address",
	"max":      "Exceeds maximum length",
	"min":      "Below minimum length",
	"gte":      "Must be greater than or equal to minimum value",
	"gt":       "Must be greater than minimum value",
	"lte":      "Must be less than or equal to maximum value",
	"lt":       "Must be less than maximum value",
	"uuid":     "Must be a valid UUID",
	"url":      "Must be a valid URL",
	"oneof":    "Must be one of the allowed values",
	"numeric":  "Must be a numeric value",
	"len":      "Must be exactly the specified length",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}
